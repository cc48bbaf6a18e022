package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Local & deployment secrets (fill up for local development)
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`

	// Stripe settings
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceMonthly  string `envconfig:"STRIPE_PRICE_MONTHLY"`
	StripePriceAnnual   string `envconfig:"STRIPE_PRICE_ANNUAL"`
	StripeReturnURL     string `envconfig:"STRIPE_RETURN_URL" default:"http://localhost:5173/pro"`

	// Points & subscription caching settings
	ProfileCacheTTLSec      int `envconfig:"PROFILE_CACHE_TTL_SEC" default:"300"`
	SubscriptionCheckGapSec int `envconfig:"SUBSCRIPTION_CHECK_GAP_SEC" default:"60"`
	PointsHistoryLimit      int `envconfig:"POINTS_HISTORY_LIMIT" default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
