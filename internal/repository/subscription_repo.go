package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for the locally mirrored
// subscription state. The payment provider stays authoritative; the mirror
// exists so a provider outage degrades to last-known-good data.
type SubscriptionRepository interface {
	// GetSubscription returns the mirrored row for a user, or nil if none.
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// UpsertSubscription overwrites the mirrored row for a user.
	UpsertSubscription(ctx context.Context, sub *model.Subscription) error
	// InsertHistory appends a subscription audit entry.
	InsertHistory(ctx context.Context, userID, planType, status, action string, paymentAmount int64) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

// GetSubscription returns the mirrored subscription for a user.
func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	const q = `
        SELECT user_id, plan_type, status, COALESCE("interval", ''), expires_at, updated_at
        FROM subscriptions
        WHERE user_id = $1
    `
	var s model.Subscription
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.UserID,
		&s.PlanType,
		&s.Status,
		&s.Interval,
		&s.ExpiresAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return &s, nil
}

// UpsertSubscription overwrites the mirrored row for a user.
func (r *subscriptionRepo) UpsertSubscription(ctx context.Context, sub *model.Subscription) error {
	const q = `
        INSERT INTO subscriptions (user_id, plan_type, status, "interval", expires_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET plan_type = EXCLUDED.plan_type,
            status = EXCLUDED.status,
            "interval" = EXCLUDED."interval",
            expires_at = EXCLUDED.expires_at,
            updated_at = NOW();
    `
	_, err := r.pool.Exec(ctx, q, sub.UserID, sub.PlanType, sub.Status, sub.Interval, sub.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

// InsertHistory appends a subscription audit entry.
func (r *subscriptionRepo) InsertHistory(ctx context.Context, userID, planType, status, action string, paymentAmount int64) error {
	const q = `
        INSERT INTO subscription_history (user_id, plan_type, status, action, payment_amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := r.pool.Exec(ctx, q, userID, planType, status, action, paymentAmount, time.Now()); err != nil {
		return fmt.Errorf("insert subscription history for user %s: %w", userID, err)
	}
	return nil
}
