package service

import (
	"context"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionVerifier asks the payment provider whether the identity has an
// active paid plan. Implemented by StripeService.
type SubscriptionVerifier interface {
	Verify(ctx context.Context, userID, email string) (*model.SubscriptionStatus, string, error)
}

// SubscriptionService verifies paid-plan status with a local fallback.
type SubscriptionService interface {
	// Check queries the payment provider, mirrors the result locally and
	// returns it. On provider failure the last mirrored record is used,
	// authoritative only while its expiry is in the future; otherwise the
	// user is reported as free. Repeated calls within the check gap after
	// a successful check return the previous status unchanged.
	Check(ctx context.Context, userID, email string) (*model.SubscriptionStatus, error)
}

type lastCheck struct {
	at     time.Time
	status *model.SubscriptionStatus
}

type subscriptionService struct {
	repo     repository.SubscriptionRepository
	verifier SubscriptionVerifier
	gap      time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	checked map[string]lastCheck
}

// NewSubscriptionService creates a new SubscriptionService with a scoped
// logger. now may be nil, in which case time.Now is used.
func NewSubscriptionService(repo repository.SubscriptionRepository, verifier SubscriptionVerifier, gap time.Duration, now func() time.Time, logger zerolog.Logger) SubscriptionService {
	if now == nil {
		now = time.Now
	}
	return &subscriptionService{
		repo:     repo,
		verifier: verifier,
		gap:      gap,
		now:      now,
		logger:   logger.With().Str("service", "SubscriptionService").Logger(),
		checked:  make(map[string]lastCheck),
	}
}

func (s *subscriptionService) Check(ctx context.Context, userID, email string) (*model.SubscriptionStatus, error) {
	// Suppress repeated checks shortly after a successful one. This is an
	// optimization, not a correctness guarantee: the provider's state can
	// change server-side at any time without this process being notified.
	now := s.now()
	s.mu.Lock()
	if lc, ok := s.checked[userID]; ok && now.Sub(lc.at) < s.gap {
		s.mu.Unlock()
		return lc.status, nil
	}
	s.mu.Unlock()

	status, interval, err := s.verifier.Verify(ctx, userID, email)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Provider check failed, falling back to mirrored record")
		return s.fallback(ctx, userID), nil
	}

	s.mirror(ctx, userID, status, interval)

	s.mu.Lock()
	s.checked[userID] = lastCheck{at: now, status: status}
	s.mu.Unlock()
	return status, nil
}

// mirror writes the verification result into the local subscriptions table.
// Mirror failures are logged, not surfaced; the provider result is still
// returned to the caller.
func (s *subscriptionService) mirror(ctx context.Context, userID string, status *model.SubscriptionStatus, interval string) {
	sub := &model.Subscription{
		UserID:    userID,
		PlanType:  status.Plan,
		Status:    "inactive",
		Interval:  interval,
		ExpiresAt: status.ExpiresAt,
	}
	if status.IsSubscribed {
		sub.Status = "active"
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to mirror subscription state")
		return
	}
	if status.IsSubscribed {
		if err := s.repo.InsertHistory(ctx, userID, status.Plan, "active", "verified", 0); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record subscription verification")
		}
	}
}

// fallback reads the last mirrored record. It is treated as authoritative
// only while still active with an expiry in the future; a stale pro record
// degrades to free rather than granting expired entitlements.
func (s *subscriptionService) fallback(ctx context.Context, userID string) *model.SubscriptionStatus {
	free := &model.SubscriptionStatus{IsSubscribed: false, Plan: model.PlanFree, ExpiresAt: nil}

	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Mirror fallback read failed")
		return free
	}
	if sub == nil || sub.Status != "active" || sub.ExpiresAt == nil || !sub.ExpiresAt.After(s.now()) {
		return free
	}
	return &model.SubscriptionStatus{
		IsSubscribed: true,
		Plan:         sub.PlanType,
		ExpiresAt:    sub.ExpiresAt,
	}
}
