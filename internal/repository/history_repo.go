package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository defines methods for reading points history.
type HistoryRepository interface {
	// GetRecent returns the most recent point-earning events for a user,
	// newest first. An empty result is a valid state, not an error.
	GetRecent(ctx context.Context, userID string, limit int) ([]model.PointsEntry, error)
	// GetActivityStats aggregates the full history for badge progress.
	GetActivityStats(ctx context.Context, userID string) (*model.ActivityStats, error)
}

type historyRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo creates a new HistoryRepository.
func NewHistoryRepo(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepo{pool: pool}
}

// GetRecent returns the most recent point-earning events for a user.
func (r *historyRepo) GetRecent(ctx context.Context, userID string, limit int) ([]model.PointsEntry, error) {
	const q = `
        SELECT id, user_id, action, points, date
        FROM points_history
        WHERE user_id = $1
        ORDER BY date DESC
        LIMIT $2
    `
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch points history for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []model.PointsEntry{}
	for rows.Next() {
		var e model.PointsEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Points, &e.Date); err != nil {
			return nil, fmt.Errorf("scan points history row for user %s: %w", userID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points history for user %s: %w", userID, err)
	}
	return entries, nil
}

// GetActivityStats aggregates the full history for badge progress.
func (r *historyRepo) GetActivityStats(ctx context.Context, userID string) (*model.ActivityStats, error) {
	const q = `
        SELECT
            COUNT(*) FILTER (WHERE action ILIKE '%quiz%'),
            COUNT(*) FILTER (WHERE action ILIKE '%flashcard%'),
            COUNT(*) FILTER (WHERE EXTRACT(HOUR FROM date) < 9),
            COUNT(*) FILTER (WHERE EXTRACT(HOUR FROM date) >= 22),
            COUNT(*) FILTER (WHERE action ILIKE '%speed learner%')
        FROM points_history
        WHERE user_id = $1
    `
	var s model.ActivityStats
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.QuizActions,
		&s.FlashcardActions,
		&s.EarlySessions,
		&s.LateSessions,
		&s.SpeedLearner,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate activity stats for user %s: %w", userID, err)
	}
	return &s, nil
}
