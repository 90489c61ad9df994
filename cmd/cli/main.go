package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/digipay/internal/adapter/http/dto"
	"github.com/iho/digipay/internal/app"
	"github.com/iho/digipay/internal/domain"
	"github.com/iho/digipay/internal/infrastructure/auth"
	"github.com/iho/digipay/internal/infrastructure/config"
	"github.com/iho/digipay/internal/infrastructure/logger"
	"github.com/iho/digipay/internal/infrastructure/postgres"
	"github.com/iho/digipay/internal/usecase"
)

// Overridden in tests.
var (
	loadConfig  = config.Load
	openStorage = app.OpenStorage
)

var (
	envFile string
	timeout time.Duration
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "digipay-cli",
		Short:         "DigiPay operator CLI",
		Long:          `Operator tooling for the DigiPay wallet service: migrations, reconciliation, identities and tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this .env file")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Command timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(reconcileCmd())

	identityCmd := &cobra.Command{
		Use:   "identity",
		Short: "Identity administration",
	}
	identityCmd.AddCommand(createIdentityCmd())

	root.AddCommand(migrateCmd(), ledgerCmd, identityCmd, tokenCmd())
	return root
}

func load() (*config.Config, error) {
	if envFile != "" {
		return loadConfig(envFile)
	}
	return loadConfig()
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	return logger.NewWithWriter(w, logger.Config{Level: cfg.LogLevel, Format: "console"})
}

// withServices opens storage, builds the use cases and runs fn.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, services *app.Services) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	storage, err := openStorage(ctx, cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer storage.Close()

	return fn(ctx, app.NewServices(storage, nil, nil, app.Settings(cfg)))
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, newLogger(cfg, cmd.ErrOrStderr())), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := migrator(cmd)
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func reconcileCmd() *cobra.Command {
	var (
		repair  bool
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check wallets against their profile shadows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *app.Services) error {
				out := cmd.OutOrStdout()

				if repair {
					repaired, err := services.Reconciliation.RepairProfiles(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Repaired profiles: %d\n", repaired)
				}

				report, err := services.Reconciliation.GenerateReconciliationReport(ctx)
				if err != nil {
					return err
				}

				if asJSON {
					printJSON(out, dto.ReportFromDomain(report))
				} else {
					printReport(out, report, verbose)
				}

				if len(report.Discrepancies) > 0 {
					return fmt.Errorf("reconciliation FAILED: %d of %d wallets drifted", len(report.Discrepancies), report.TotalWallets)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Rewrite drifted profile shadows before reporting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every discrepancy")
	return cmd
}

func printReport(w io.Writer, report *usecase.ReconciliationReport, verbose bool) {
	status := "PASSED"
	if len(report.Discrepancies) > 0 {
		status = "FAILED"
	}

	fmt.Fprintf(w, "Reconciliation %s\n", status)
	fmt.Fprintf(w, "Wallets: %d reconciled: %d negative: %d\n", report.TotalWallets, report.ReconciledWallets, report.NegativeBalances)

	if !verbose {
		return
	}
	for _, d := range report.Discrepancies {
		fmt.Fprintf(w, "  %-28s %-28s %12s %12s %s\n",
			truncate(d.WalletID, 28), truncate(d.OwnerID, 28),
			d.Balance.StringFixed(2), d.ProfileBalance.StringFixed(2),
			strings.Join(d.DriftFields, ","))
	}
}

func createIdentityCmd() *cobra.Command {
	var (
		name    string
		email   string
		role    string
		balance string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an identity of any role, including admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.CreateIdentityInput{
				Name:  name,
				Email: email,
				Role:  domain.Role(strings.ToLower(strings.TrimSpace(role))),
			}
			if balance != "" {
				d, err := decimal.NewFromString(balance)
				if err != nil {
					return fmt.Errorf("invalid --balance: %w", err)
				}
				input.InitialBalance = &d
			}

			return withServices(cmd, func(ctx context.Context, services *app.Services) error {
				reg, err := services.Identities.Bootstrap(ctx, input)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), dto.RegistrationFromDomain(reg))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "admin", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Unique email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "user, agent or admin")
	cmd.Flags().StringVar(&balance, "balance", "", "Opening balance (defaults to the configured one)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID   string
		role     string
		approval string
		secret   string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" || ttl == 0 {
				cfg, err := load()
				if err != nil {
					return err
				}
				if secret == "" {
					secret = cfg.JWTSecret
				}
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return errors.New("no signing secret: set JWT_SECRET or --secret")
			}

			principal, err := domain.NewPrincipal(userID, domain.Role(strings.ToLower(role)), domain.Approval(strings.ToLower(approval)))
			if err != nil {
				return err
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(principal)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Identity ID")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "user, agent or admin")
	cmd.Flags().StringVar(&approval, "approval", "", "Agent approval: approved or suspended")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "failed to encode output: %v\n", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
