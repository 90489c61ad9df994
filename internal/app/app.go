// Package app wires storage, use cases and handlers for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/adapter/http/handler"
	"github.com/iho/digipay/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/digipay/internal/adapter/repository/postgres"
	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/config"
	"github.com/iho/digipay/internal/infrastructure/metrics"
	"github.com/iho/digipay/internal/infrastructure/postgres"
	"github.com/iho/digipay/internal/usecase"
)

// Storage is the process-wide store handle and its repositories.
type Storage struct {
	TxManager    usecase.TransactionManager
	Wallets      usecase.WalletRepository
	Transactions usecase.TransactionRepository
	Identities   usecase.IdentityRepository
	Profiles     usecase.ProfileRepository
	Audit        usecase.AuditRepository

	// Checks probe the store for readiness.
	Checks []handler.HealthCheck

	pool *pgxpool.Pool
}

// Close releases the store handle.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// OpenStorage opens the store selected by cfg.StorageDriver. With the
// postgres driver and AutoMigrate set, pending migrations run first.
func OpenStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StoragePostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// NewMemoryStorage returns an empty in-process store.
func NewMemoryStorage() *Storage {
	store := memory.NewStore()
	return &Storage{
		TxManager:    store,
		Wallets:      memory.NewWalletRepository(store),
		Transactions: memory.NewTransactionRepository(store),
		Identities:   memory.NewIdentityRepository(store),
		Profiles:     memory.NewProfileRepository(store),
		Audit:        memory.NewAuditRepository(store),
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to postgres")

	return &Storage{
		TxManager:    postgresRepo.NewTxManager(pool),
		Wallets:      postgresRepo.NewWalletRepository(pool),
		Transactions: postgresRepo.NewTransactionRepository(pool),
		Identities:   postgresRepo.NewIdentityRepository(pool),
		Profiles:     postgresRepo.NewProfileRepository(pool),
		Audit:        postgresRepo.NewAuditRepository(pool),
		Checks:       []handler.HealthCheck{{Name: "postgres", Check: pool.Ping}},
		pool:         pool,
	}, nil
}

// Services are the use cases shared by every caller.
type Services struct {
	Wallets        *usecase.WalletUseCase
	Ledger         *usecase.LedgerUseCase
	Transfers      *usecase.TransferUseCase
	Identities     *usecase.IdentityUseCase
	Reconciliation *usecase.ReconciliationUseCase
}

// NewServices builds the use cases over s. cache and m may be nil.
func NewServices(s *Storage, cache usecase.WalletCache, m *metrics.Metrics, settings usecase.Settings) *Services {
	idGen := postgresRepo.NewULIDGenerator()

	wallets := usecase.NewWalletUseCase(s.TxManager, s.Wallets, s.Identities, s.Profiles, s.Audit, cache, idGen, m, settings)
	ledger := usecase.NewLedgerUseCase(s.Transactions, s.Wallets, s.Identities, idGen)

	return &Services{
		Wallets:        wallets,
		Ledger:         ledger,
		Transfers:      usecase.NewTransferUseCase(s.TxManager, wallets, ledger, s.Wallets, s.Identities, s.Profiles, m, settings),
		Identities:     usecase.NewIdentityUseCase(s.TxManager, s.Identities, s.Profiles, wallets, idGen, m, settings),
		Reconciliation: usecase.NewReconciliationUseCase(s.TxManager, s.Wallets, s.Identities, s.Profiles, wallets, m, settings),
	}
}

// Settings maps configuration onto engine settings.
func Settings(cfg *config.Config) usecase.Settings {
	return usecase.Settings{
		InitialBalance: decimal.NewNullDecimal(cfg.WalletInitialBalance),
		CommissionRate: cfg.CashInCommissionRate,
		TxTimeout:      cfg.TxTimeout,
	}
}

// BootstrapAdmin seeds an admin identity with email. An existing identity
// with that email is left alone.
func BootstrapAdmin(ctx context.Context, identities *usecase.IdentityUseCase, email string, logger zerolog.Logger) (*usecase.Registration, error) {
	reg, err := identities.Bootstrap(ctx, usecase.CreateIdentityInput{
		Name:  "admin",
		Email: email,
		Role:  domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		logger.Info().Str("email", email).Msg("bootstrap admin already exists")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	logger.Info().Str("admin_id", reg.Identity.ID).Str("email", email).Msg("bootstrap admin created")
	return reg, nil
}
