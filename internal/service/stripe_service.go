package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeService manages Stripe integration: plan verification, checkout and
// portal sessions, and webhook processing.
type StripeService struct {
	cfg         *config.Config
	subRepo     repository.SubscriptionRepository
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service with a
// scoped logger.
func NewStripeService(cfg *config.Config, subRepo repository.SubscriptionRepository, profileRepo repository.ProfileRepository, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, subRepo: subRepo, profileRepo: profileRepo, logger: lg}
}

// findCustomerByEmail returns the Stripe customer for an email, or nil if
// none exists.
func (s *StripeService) findCustomerByEmail(email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	iter := customerpkg.List(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list stripe customers: %w", err)
	}
	return nil, nil
}

// Verify checks the provider for an active paid plan. It implements
// SubscriptionVerifier. The second return value is the billing interval.
func (s *StripeService) Verify(ctx context.Context, userID, email string) (*model.SubscriptionStatus, string, error) {
	free := &model.SubscriptionStatus{IsSubscribed: false, Plan: model.PlanFree, ExpiresAt: nil}

	cust, err := s.findCustomerByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if cust == nil {
		// No customer record: the user has never paid.
		return free, "", nil
	}

	listParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(cust.ID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	listParams.Limit = stripe.Int64(1)
	iter := subscriptionpkg.List(listParams)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return nil, "", fmt.Errorf("list stripe subscriptions: %w", err)
		}
		return free, "", nil
	}

	sub := iter.Subscription()
	if len(sub.Items.Data) == 0 {
		return free, "", nil
	}
	item := sub.Items.Data[0]
	expiresAt := time.Unix(item.CurrentPeriodEnd, 0)
	interval := "month"
	if item.Price != nil && item.Price.Recurring != nil {
		interval = string(item.Price.Recurring.Interval)
	}

	s.logger.Info().Str("user_id", userID).Str("customer_id", cust.ID).Time("expires_at", expiresAt).Msg("Active subscription verified")
	return &model.SubscriptionStatus{
		IsSubscribed: true,
		Plan:         model.PlanPro,
		ExpiresAt:    &expiresAt,
	}, interval, nil
}

// getOrCreateCustomer ensures a Stripe customer exists for the user.
func (s *StripeService) getOrCreateCustomer(userID, email string) (string, error) {
	cust, err := s.findCustomerByEmail(email)
	if err != nil {
		return "", err
	}
	if cust != nil {
		return cust.ID, nil
	}

	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	}
	created, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return created.ID, nil
}

// CreateCheckoutSession creates a Stripe Checkout session and returns its URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, email, planType, billingCycle string) (string, error) {
	if planType != model.PlanBasic && planType != model.PlanPro {
		return "", fmt.Errorf("invalid plan type: %s", planType)
	}

	var priceID string
	switch billingCycle {
	case "monthly":
		priceID = s.cfg.StripePriceMonthly
	case "annual":
		priceID = s.cfg.StripePriceAnnual
	default:
		return "", fmt.Errorf("invalid billing cycle: %s", billingCycle)
	}

	customerID, err := s.getOrCreateCustomer(userID, email)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve Stripe customer for checkout session")
		return "", err
	}

	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:         stripe.String(s.cfg.StripeReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.StripeReturnURL + "?status=cancel"),
		Metadata:           map[string]string{"user_id": userID},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("billing_cycle", billingCycle).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Stripe Customer Portal session and returns
// its URL.
func (s *StripeService) CreatePortalSession(ctx context.Context, userID, email string) (string, error) {
	cust, err := s.findCustomerByEmail(email)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to look up Stripe customer for portal session")
		return "", err
	}
	if cust == nil {
		return "", fmt.Errorf("no stripe customer for user: %s", userID)
	}
	params := &stripe.BillingPortalSessionParams{Customer: stripe.String(cust.ID), ReturnURL: stripe.String(s.cfg.StripeReturnURL)}
	sess, err := billingsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// sessionPeriodEnd resolves the paid period end and billing interval for a
// checkout session's subscription. The webhook payload only carries the
// subscription ID, so the full record is fetched; a fetch failure degrades to
// no expiry rather than failing the webhook.
func (s *StripeService) sessionPeriodEnd(sub *stripe.Subscription) (*time.Time, string) {
	if sub == nil || sub.ID == "" {
		return nil, ""
	}
	full, err := subscriptionpkg.Get(sub.ID, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("Failed to fetch subscription for checkout session, mirroring without expiry")
		return nil, ""
	}
	if len(full.Items.Data) == 0 {
		return nil, ""
	}
	item := full.Items.Data[0]
	end := time.Unix(item.CurrentPeriodEnd, 0)
	interval := ""
	if item.Price != nil && item.Price.Recurring != nil {
		interval = string(item.Price.Recurring.Interval)
	}
	return &end, interval
}

// getUserIDFromEvent resolves the user ID from webhook metadata, falling back
// to the customer record's metadata.
func (s *StripeService) getUserIDFromEvent(metadata map[string]string, customerID string) (string, error) {
	if userID, ok := metadata["user_id"]; ok && userID != "" {
		return userID, nil
	}
	if customerID == "" {
		return "", errors.New("cannot determine user: missing metadata and customer id")
	}
	s.logger.Warn().Str("stripe_customer_id", customerID).Msg("Missing user_id metadata; looking up customer")
	cust, err := customerpkg.Get(customerID, nil)
	if err != nil {
		return "", fmt.Errorf("fetch stripe customer %s: %w", customerID, err)
	}
	if userID, ok := cust.Metadata["user_id"]; ok && userID != "" {
		return userID, nil
	}
	return "", fmt.Errorf("no user_id metadata on customer: %s", customerID)
}

// applySubscriptionState mirrors a provider-side change locally and keeps the
// profile pro flag in sync.
func (s *StripeService) applySubscriptionState(ctx context.Context, userID, planType, status string, expiresAt *time.Time, interval string) error {
	sub := &model.Subscription{
		UserID:    userID,
		PlanType:  planType,
		Status:    status,
		Interval:  interval,
		ExpiresAt: expiresAt,
	}
	if err := s.subRepo.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	isPro := status == "active" && planType != model.PlanFree
	if _, err := s.profileRepo.UpdateProfile(ctx, userID, model.ProfileUpdate{IsPro: &isPro}); err != nil {
		// The mirror is already updated; a missing profile will pick up
		// the flag on its lazy creation path.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to sync pro flag onto profile")
	}
	return nil
}

// HandleWebhook processes Stripe webhook events.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session.completed payload")
			http.Error(w, "invalid session data", http.StatusBadRequest)
			return
		}
		var customerID string
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		userID, err := s.getUserIDFromEvent(sess.Metadata, customerID)
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to determine user ID from checkout session")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		// Mirror the period end right away; without it the provider-outage
		// fallback would treat a just-paid user as free until the first
		// subscription.updated event lands.
		expiresAt, interval := s.sessionPeriodEnd(sess.Subscription)
		if err := s.applySubscriptionState(ctx, userID, model.PlanPro, "active", expiresAt, interval); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to apply checkout completion")
			http.Error(w, "failed to update subscription", http.StatusInternalServerError)
			return
		}
		if err := s.subRepo.InsertHistory(ctx, userID, model.PlanPro, "active", "checkout_completed", sess.AmountTotal); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record checkout completion")
		}

	case "customer.subscription.updated":
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.updated payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		if len(ss.Items.Data) == 0 {
			s.logger.Error().Str("subscription_id", ss.ID).Msg("Subscription has no items")
			http.Error(w, "subscription has no items", http.StatusBadRequest)
			return
		}
		item := ss.Items.Data[0]
		end := time.Unix(item.CurrentPeriodEnd, 0)
		interval := ""
		if item.Price != nil && item.Price.Recurring != nil {
			interval = string(item.Price.Recurring.Interval)
		}
		// Mark as cancelled if scheduled to cancel or already canceled.
		status := string(ss.Status)
		if ss.CancelAtPeriodEnd || ss.Status == stripe.SubscriptionStatusCanceled {
			status = "cancelled"
		}
		var customerID string
		if ss.Customer != nil {
			customerID = ss.Customer.ID
		}
		userID, err := s.getUserIDFromEvent(ss.Metadata, customerID)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", ss.ID).Msg("Failed to determine user ID from subscription")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		if err := s.applySubscriptionState(ctx, userID, model.PlanPro, status, &end, interval); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to apply subscription update")
			http.Error(w, "failed to update subscription", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.deleted":
		var ss stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &ss); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.deleted payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		var customerID string
		if ss.Customer != nil {
			customerID = ss.Customer.ID
		}
		userID, err := s.getUserIDFromEvent(ss.Metadata, customerID)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", ss.ID).Msg("Failed to determine user ID from subscription")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		if err := s.applySubscriptionState(ctx, userID, model.PlanFree, "inactive", nil, ""); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to downgrade subscription")
			http.Error(w, "failed to downgrade subscription", http.StatusInternalServerError)
			return
		}
		if err := s.subRepo.InsertHistory(ctx, userID, model.PlanFree, "inactive", "subscription_deleted", 0); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record subscription deletion")
		}

	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Unhandled Stripe event")
	}

	w.WriteHeader(http.StatusOK)
}
