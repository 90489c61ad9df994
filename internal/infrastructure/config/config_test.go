package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/digipay/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StorageDriver != config.StoragePostgres {
		t.Fatalf("expected postgres driver by default, got %s", cfg.StorageDriver)
	}

	if !cfg.WalletInitialBalance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected opening balance 50, got %s", cfg.WalletInitialBalance)
	}

	if !cfg.CashInCommissionRate.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("expected commission 0.02, got %s", cfg.CashInCommissionRate)
	}

	if cfg.TxTimeout != 10*time.Second || cfg.RetryMaxAttempts != 0 {
		t.Fatalf("unexpected engine defaults: timeout=%s retries=%d", cfg.TxTimeout, cfg.RetryMaxAttempts)
	}

	if cfg.MigrationsPath != "migrations" || !cfg.AutoMigrate {
		t.Fatalf("unexpected migration defaults: path=%s auto=%v", cfg.MigrationsPath, cfg.AutoMigrate)
	}

	if cfg.ProfileSyncInterval != time.Minute {
		t.Fatalf("expected profile sync every minute, got %s", cfg.ProfileSyncInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("CASH_IN_COMMISSION_RATE", "0.015")
	t.Setenv("WALLET_INITIAL_BALANCE", "0")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("PROFILE_SYNC_INTERVAL", "0s")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.StorageDriver != config.StorageMemory {
		t.Fatalf("expected normalised memory driver, got %s", cfg.StorageDriver)
	}

	if !cfg.CashInCommissionRate.Equal(decimal.RequireFromString("0.015")) || !cfg.WalletInitialBalance.IsZero() {
		t.Fatalf("unexpected engine overrides: %s %s", cfg.CashInCommissionRate, cfg.WalletInitialBalance)
	}

	if cfg.ProfileSyncInterval != 0 || cfg.BootstrapAdminEmail != "root@example.com" {
		t.Fatalf("unexpected worker overrides: %s %q", cfg.ProfileSyncInterval, cfg.BootstrapAdminEmail)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadInvalidDecimal(t *testing.T) {
	t.Setenv("CASH_IN_COMMISSION_RATE", "two percent")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid decimal")
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "HTTP_PORT=7070\nJWT_EXPIRATION=1h\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Real environment wins over the file.
	t.Setenv("HTTP_PORT", "6060")
	t.Setenv("JWT_EXPIRATION", "")
	os.Unsetenv("JWT_EXPIRATION")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "6060" {
		t.Fatalf("expected environment to override file, got %s", cfg.HTTPPort)
	}
	if cfg.JWTExpiration != time.Hour {
		t.Fatalf("expected JWT_EXPIRATION from file, got %s", cfg.JWTExpiration)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("CASH_IN_COMMISSION_RATE", "1.5")
	t.Setenv("WALLET_INITIAL_BALANCE", "0.000000001")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}

	for _, want := range []string{"STORAGE_DRIVER", "JWT_SECRET", "CASH_IN_COMMISSION_RATE", "WALLET_INITIAL_BALANCE must have at most 8 decimal places"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}
