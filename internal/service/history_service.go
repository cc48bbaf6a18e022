package service

import (
	"context"

	"app/internal/cache"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// HistoryService exposes the recent point-earning events for display.
type HistoryService interface {
	// Load returns the most recent entries, newest first. A fresh cached
	// copy is returned unless forceRefresh is set. An empty slice is a
	// valid result distinct from a fetch failure.
	Load(ctx context.Context, userID string, forceRefresh bool) ([]model.PointsEntry, error)
}

type historyService struct {
	repo   repository.HistoryRepository
	cache  *cache.Cache[[]model.PointsEntry]
	limit  int
	logger zerolog.Logger
}

// NewHistoryService creates a new HistoryService with a scoped logger.
func NewHistoryService(repo repository.HistoryRepository, c *cache.Cache[[]model.PointsEntry], limit int, logger zerolog.Logger) HistoryService {
	return &historyService{
		repo:   repo,
		cache:  c,
		limit:  limit,
		logger: logger.With().Str("service", "HistoryService").Logger(),
	}
}

// Load returns the most recent point-earning events for a user.
func (s *historyService) Load(ctx context.Context, userID string, forceRefresh bool) ([]model.PointsEntry, error) {
	if !forceRefresh {
		if entries, ok := s.cache.Get(userID); ok {
			return entries, nil
		}
	}

	entries, err := s.repo.GetRecent(ctx, userID, s.limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch points history")
		return nil, err
	}

	// Empty results are cached too, so an empty history does not refetch
	// on every read.
	s.cache.Set(userID, entries)
	return entries, nil
}
