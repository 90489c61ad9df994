package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/digipay/internal/adapter/http"
	"github.com/iho/digipay/internal/adapter/http/handler"
	"github.com/iho/digipay/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/digipay/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/digipay/internal/adapter/repository/redis"
	"github.com/iho/digipay/internal/app"
	"github.com/iho/digipay/internal/infrastructure/auth"
	"github.com/iho/digipay/internal/infrastructure/config"
	"github.com/iho/digipay/internal/infrastructure/logger"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/infrastructure/profilesync"
	"github.com/iho/digipay/internal/infrastructure/redis"
	"github.com/iho/digipay/internal/usecase"
)

const rateLimiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	srv, err := newServer(ctx, cfg, log, reg, gatherer)
	if err != nil {
		return err
	}
	defer srv.close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      srv.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	bgCtx, cancelBg := context.WithCancel(ctx)
	var wg sync.WaitGroup
	srv.startBackground(bgCtx, &wg)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("server forced to shutdown: %w", err)
	}

	cancelBg()
	wg.Wait()

	return serveErr
}

type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	profileSync *profilesync.Worker
	closers     []func()
}

func newServer(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*server, error) {
	srv := &server{}

	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, storage.Close)

	checks := append([]handler.HealthCheck(nil), storage.Checks...)

	var (
		cache       usecase.WalletCache
		idempotency usecase.IdempotencyStore
	)
	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			srv.close()
			return nil, err
		}
		srv.closers = append(srv.closers, func() { _ = client.Close() })
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewWalletCache(client, cfg.WalletCacheTTL)
		idempotency = redisRepo.NewIdempotencyStore(client)
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redis.Ping(ctx, client) },
		})
	} else {
		log.Warn().Msg("redis disabled: wallet cache and idempotency keys are off")
	}

	m := metrics.New(reg)
	services := app.NewServices(storage, cache, m, app.Settings(cfg))

	if cfg.BootstrapAdminEmail != "" {
		if _, err := app.BootstrapAdmin(ctx, services.Identities, cfg.BootstrapAdminEmail, log); err != nil {
			srv.close()
			return nil, err
		}
	}

	srv.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	if cfg.ProfileSyncInterval > 0 {
		srv.profileSync = profilesync.NewWorker(profilesync.Config{
			Repairer: services.Reconciliation,
			Logger:   log.With().Str("component", "profile_sync").Logger(),
			Interval: cfg.ProfileSyncInterval,
		})
	}

	srv.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:         handler.NewWalletHandler(services.Transfers, services.Wallets, postgresRepo.NewRetrier(cfg.RetryMaxAttempts), m),
		TransactionHandler:    handler.NewTransactionHandler(services.Ledger),
		IdentityHandler:       handler.NewIdentityHandler(services.Identities),
		ReconciliationHandler: handler.NewReconciliationHandler(services.Reconciliation),
		HealthHandler:         handler.NewHealthHandler(checks...),
		Auth:                  auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
		IdempotencyStore:      idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           srv.rateLimiter,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		Logger:                log,
	})

	return srv, nil
}

func (s *server) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.rateLimiter.Run(ctx, rateLimiterIdle)
	}()

	if s.profileSync != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.profileSync.Start(ctx)
		}()
	}
}

// close releases resources in reverse order of acquisition.
func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
