package dto

// SubscriptionCheckoutRequest is used when initiating a checkout session.
type SubscriptionCheckoutRequest struct {
	PlanType     string `json:"planType" validate:"required,oneof=basic pro"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly annual"`
}

// SubscriptionStatusResponse mirrors the verification endpoint contract.
type SubscriptionStatusResponse struct {
	IsSubscribed bool    `json:"isSubscribed"`
	Plan         string  `json:"plan"`
	ExpiresAt    *string `json:"expiresAt"`
}
