package service

import (
	"context"
	"errors"
	"time"

	"app/internal/cache"
	"app/internal/level"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidTab      = errors.New("invalid points tab")
)

// Tab identifiers a profile may persist as its active points tab.
var validTabs = map[string]bool{
	"overview": true,
	"history":  true,
}

// ValidTab reports whether tab is one of the allowed tab identifiers.
func ValidTab(tab string) bool {
	return validTabs[tab]
}

// HistoryInvalidator lets the profile service drop the history cache entry
// for a user after a point award appends a new history row.
type HistoryInvalidator interface {
	Invalidate(key string)
}

// ProfileService materializes point/level/streak profiles for authenticated
// identities, creating a zero-valued default on first access.
type ProfileService interface {
	// Load returns the user's profile with derived level fields recomputed.
	// A fresh cached copy is returned unless forceRefresh is set.
	Load(ctx context.Context, userID string, forceRefresh bool) (*model.Profile, error)
	// Update writes partial fields and refreshes the cache entry.
	Update(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Profile, error)
	// AddPoints awards points, appends the history entry and maintains the
	// activity streak, all in one transaction at the storage boundary.
	AddPoints(ctx context.Context, userID string, points int, action string) (*model.Profile, error)
	// SetActiveTab persists the selected points tab.
	SetActiveTab(ctx context.Context, userID, tab string) (*model.Profile, error)
}

type profileService struct {
	repo      repository.ProfileRepository
	cache     *cache.Cache[*model.Profile]
	histCache HistoryInvalidator
	now       func() time.Time
	logger    zerolog.Logger
}

// NewProfileService creates a new ProfileService with a scoped logger. now
// may be nil, in which case time.Now is used.
func NewProfileService(repo repository.ProfileRepository, c *cache.Cache[*model.Profile], histCache HistoryInvalidator, now func() time.Time, logger zerolog.Logger) ProfileService {
	if now == nil {
		now = time.Now
	}
	return &profileService{
		repo:      repo,
		cache:     c,
		histCache: histCache,
		now:       now,
		logger:    logger.With().Str("service", "ProfileService").Logger(),
	}
}

// withProgress recomputes the derived level fields from the points total.
// Stored level values are never trusted; the threshold table is the only
// source of truth.
func withProgress(p *model.Profile) *model.Profile {
	prog := level.ComputeDefault(p.Points)
	p.Level = prog.Level
	p.PointsToNextLevel = prog.PointsToNextLevel
	p.TotalPointsForNextLevel = prog.TotalPointsForNextLevel
	return p
}

// Load returns the user's profile, creating a default record on first access.
func (s *profileService) Load(ctx context.Context, userID string, forceRefresh bool) (*model.Profile, error) {
	if !forceRefresh {
		if p, ok := s.cache.Get(userID); ok {
			return p, nil
		}
	}

	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch profile")
		return nil, err
	}
	if p == nil {
		// First access: insert a default row. A concurrent insert losing
		// the race is fine, the re-read below picks up the winner's row.
		if err := s.repo.InsertDefault(ctx, userID); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create default profile")
			return nil, err
		}
		p, err = s.repo.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProfileNotFound
		}
	}

	p = withProgress(p)
	s.cache.Set(userID, p)
	return p, nil
}

// Update writes partial fields and refreshes the cache entry.
func (s *profileService) Update(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Profile, error) {
	p, err := s.repo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}

	p = withProgress(p)
	s.cache.Set(userID, p)
	return p, nil
}

// AddPoints awards points and appends a history entry in one transaction.
func (s *profileService) AddPoints(ctx context.Context, userID string, points int, action string) (*model.Profile, error) {
	current, err := s.Load(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	now := s.now()
	streakCurrent, streakLongest := nextStreak(current, now)

	// The new total is computed by the store against the row's current
	// value; a total derived from this (possibly cached) read would lose
	// one of two overlapping awards.
	upd := model.ProfileUpdate{
		StreakCurrent: &streakCurrent,
		StreakLongest: &streakLongest,
		LastActive:    &now,
	}
	entry := &model.PointsEntry{
		UserID: userID,
		Action: action,
		Points: points,
		Date:   now,
	}

	p, err := s.repo.AwardPoints(ctx, userID, upd, entry)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Int("points", points).Msg("Failed to award points")
		return nil, err
	}

	p = withProgress(p)
	s.cache.Set(userID, p)
	s.histCache.Invalidate(userID)
	return p, nil
}

// SetActiveTab persists the selected points tab.
func (s *profileService) SetActiveTab(ctx context.Context, userID, tab string) (*model.Profile, error) {
	if !ValidTab(tab) {
		return nil, ErrInvalidTab
	}
	return s.Update(ctx, userID, model.ProfileUpdate{ActiveTab: &tab})
}

// nextStreak computes the streak counters for an award happening at now.
// Same-day activity leaves the streak unchanged, the day after the last
// activity extends it, anything longer resets it to 1.
func nextStreak(p *model.Profile, now time.Time) (current, longest int) {
	current = p.StreakCurrent

	today := now.UTC().Truncate(24 * time.Hour)
	lastDay := p.LastActive.UTC().Truncate(24 * time.Hour)

	switch {
	case p.StreakCurrent == 0:
		current = 1
	case lastDay.Equal(today):
		// Already counted today.
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		current = p.StreakCurrent + 1
	default:
		current = 1
	}

	longest = p.StreakLongest
	if current > longest {
		longest = current
	}
	return current, longest
}
