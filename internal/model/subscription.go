package model

import "time"

// Plan tiers mirrored from the payment provider.
const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
)

// Subscription is the locally mirrored subscription row. The payment provider
// holds the authoritative state; this mirror may be stale and is only used as
// a fallback when the provider cannot be reached.
type Subscription struct {
	UserID    string     `db:"user_id" json:"user_id"`
	PlanType  string     `db:"plan_type" json:"plan_type"`
	Status    string     `db:"status" json:"status"`
	Interval  string     `db:"interval" json:"interval"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// SubscriptionStatus is the verification result returned to clients.
type SubscriptionStatus struct {
	IsSubscribed bool       `json:"isSubscribed"`
	Plan         string     `json:"plan"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}
