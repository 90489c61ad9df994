package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/digipay/internal/adapter/http/handler"
	"github.com/iho/digipay/internal/adapter/http/middleware"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler         *handler.WalletHandler
	TransactionHandler    *handler.TransactionHandler
	IdentityHandler       *handler.IdentityHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	// Auth resolves bearer tokens. Required.
	Auth middleware.TokenResolver

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth, cfg.Metrics))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Metrics).Wrap)
		}

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/me", cfg.WalletHandler.Me)
			r.Get("/{ownerID}", cfg.WalletHandler.Get)
			r.Post("/top-up", cfg.WalletHandler.TopUp)
			r.Post("/withdraw", cfg.WalletHandler.Withdraw)
			r.Post("/send", cfg.WalletHandler.Send)
			r.Post("/cash-in", cfg.WalletHandler.CashIn)
			r.Post("/cash-out", cfg.WalletHandler.CashOut)
			r.Patch("/{walletID}/block", cfg.WalletHandler.SetBlocked)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
		})

		r.Route("/identities", func(r chi.Router) {
			r.Post("/", cfg.IdentityHandler.Create)
			r.Get("/", cfg.IdentityHandler.List)
			r.Get("/{id}", cfg.IdentityHandler.Get)
			r.Patch("/{id}/block", cfg.IdentityHandler.SetBlocked)
			r.Patch("/{id}/approval", cfg.IdentityHandler.ToggleApproval)
			r.Patch("/{id}/role", cfg.IdentityHandler.ToggleRole)
		})

		r.Get("/admin/reconciliation", cfg.ReconciliationHandler.Report)
	})

	return r
}
