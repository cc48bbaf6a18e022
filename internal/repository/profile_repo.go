package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, points, streak_current, streak_longest, last_active, is_pro, points_active_tab, created_at, updated_at`

// ProfileRepository defines methods for accessing profile rows.
type ProfileRepository interface {
	// GetProfile returns the profile for a user, or nil if none exists.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// InsertDefault creates a zero-valued profile for the user if absent.
	// A concurrent duplicate creation is not an error; callers re-read after.
	InsertDefault(ctx context.Context, userID string) error
	// UpdateProfile applies a partial update and returns the updated row.
	UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Profile, error)
	// AwardPoints adds entry.Points to the stored total and appends the
	// history entry in a single transaction, so the displayed total and the
	// history can never diverge. The increment is applied relative to the
	// stored value, not a caller-side read, so concurrent awards for the
	// same user all count. upd carries the streak fields and must leave
	// Points nil.
	AwardPoints(ctx context.Context, userID string, upd model.ProfileUpdate, entry *model.PointsEntry) (*model.Profile, error)
}

type profileRepo struct {
	pool *pgxpool.Pool
}

// NewProfileRepo creates a new ProfileRepository.
func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepo{pool: pool}
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.UserID,
		&p.Points,
		&p.StreakCurrent,
		&p.StreakLongest,
		&p.LastActive,
		&p.IsPro,
		&p.ActiveTab,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile for a user, or nil if none exists.
func (r *profileRepo) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.pool.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch profile for user %s: %w", userID, err)
	}
	return p, nil
}

// InsertDefault creates a zero-valued profile for the user if absent.
func (r *profileRepo) InsertDefault(ctx context.Context, userID string) error {
	const q = `
        INSERT INTO profiles (id, points, streak_current, streak_longest, last_active, is_pro, points_active_tab, created_at, updated_at)
        VALUES ($1, 0, 0, 0, NOW(), FALSE, 'overview', NOW(), NOW())
        ON CONFLICT (id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("insert default profile for user %s: %w", userID, err)
	}
	return nil
}

// buildUpdate assembles the SET clause for a partial profile update.
// Placeholders start at $(argOffset+1); earlier positions are reserved by
// the caller.
func buildUpdate(upd model.ProfileUpdate, argOffset int) (string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)+argOffset))
	}

	if upd.Points != nil {
		add("points", *upd.Points)
	}
	if upd.StreakCurrent != nil {
		add("streak_current", *upd.StreakCurrent)
	}
	if upd.StreakLongest != nil {
		add("streak_longest", *upd.StreakLongest)
	}
	if upd.LastActive != nil {
		add("last_active", *upd.LastActive)
	}
	if upd.IsPro != nil {
		add("is_pro", *upd.IsPro)
	}
	if upd.ActiveTab != nil {
		add("points_active_tab", *upd.ActiveTab)
	}
	sets = append(sets, "updated_at = NOW()")

	return strings.Join(sets, ", "), args
}

// UpdateProfile applies a partial update and returns the updated row.
func (r *profileRepo) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Profile, error) {
	setClause, args := buildUpdate(upd, 1)
	q := `UPDATE profiles SET ` + setClause + ` WHERE id = $1 RETURNING ` + profileColumns
	allArgs := append([]interface{}{userID}, args...)

	p, err := scanProfile(r.pool.QueryRow(ctx, q, allArgs...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update profile for user %s: %w", userID, err)
	}
	return p, nil
}

// AwardPoints adds the delta to the stored total and appends the history
// entry in a single transaction. The increment happens in SQL against the
// row's current value, so two overlapping awards can never lose an update
// to a stale caller-side read.
func (r *profileRepo) AwardPoints(ctx context.Context, userID string, upd model.ProfileUpdate, entry *model.PointsEntry) (*model.Profile, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for point award: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	setClause, args := buildUpdate(upd, 2)
	q := `UPDATE profiles SET points = points + $2, ` + setClause + ` WHERE id = $1 RETURNING ` + profileColumns
	allArgs := append([]interface{}{userID, entry.Points}, args...)

	p, err := scanProfile(tx.QueryRow(ctx, q, allArgs...))
	if err != nil {
		return nil, fmt.Errorf("update points for user %s: %w", userID, err)
	}

	const insertQ = `
        INSERT INTO points_history (user_id, action, points, date)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	if err := tx.QueryRow(ctx, insertQ, entry.UserID, entry.Action, entry.Points, entry.Date).Scan(&entry.ID); err != nil {
		return nil, fmt.Errorf("record points history for user %s: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing point award for user %s: %w", userID, err)
	}
	return p, nil
}
