package router

import (
	"app/internal/api/v1/handler"
	"app/internal/cache"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Msg("Router initialized")
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, SSL is disabled for local testing. In
	// production the connection string should carry its own SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// Non-development environments sit behind a transaction pooler, so the
	// simple query protocol is needed to avoid server-side prepared
	// statement issues.
	if cfg.Environment != "development" {
		if !strings.Contains(dsn, "prefer_simple_protocol") {
			separator := "&"
			if !strings.Contains(dsn, "?") {
				separator = "?"
			}
			dsn += separator + "prefer_simple_protocol=true"
		}
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection pool")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize caches. Profile and history payloads share the same
	// staleness window; subscription checks use their own shorter gap.
	cacheTTL := time.Duration(cfg.ProfileCacheTTLSec) * time.Second
	profileCache := cache.New[*model.Profile](cacheTTL, nil)
	historyCache := cache.New[[]model.PointsEntry](cacheTTL, nil)

	// 4. Initialize repositories & services & handlers
	profileRepo := repository.NewProfileRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)

	profileSvc := service.NewProfileService(profileRepo, profileCache, historyCache, nil, logger)
	historySvc := service.NewHistoryService(historyRepo, historyCache, cfg.PointsHistoryLimit, logger)
	stripeSvc := service.NewStripeService(cfg, subRepo, profileRepo, logger)
	subSvc := service.NewSubscriptionService(subRepo, stripeSvc, time.Duration(cfg.SubscriptionCheckGapSec)*time.Second, nil, logger)
	badgeSvc := service.NewBadgeService(profileSvc, historyRepo, logger)

	profileHandler := handler.NewProfileHandler(profileSvc, historySvc, validate)
	subscriptionHandler := handler.NewSubscriptionHandler(stripeSvc, subSvc, validate, logger)
	badgeHandler := handler.NewBadgeHandler(badgeSvc, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	profileHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subscriptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	badgeHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Webhooks authenticate via provider signature, not bearer tokens.
	apiV1Mux.HandleFunc("/webhooks/payment", stripeSvc.HandleWebhook)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Allow all origins for development
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}
