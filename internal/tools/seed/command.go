package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/config"
	"github.com/spendwise/spendwise/internal/database"
	"github.com/spendwise/spendwise/internal/tools/common"
	"github.com/spendwise/spendwise/internal/tools/ui"
)

type options struct {
	envFile       string
	seedUserEmail string
	ci            bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.seedUserEmail, "seed-user-email", "", "override seed user email")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newActivateAccountCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply default seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.SeedUserEmail
				if opts.seedUserEmail != "" {
					email = opts.seedUserEmail
				}
				report, err := database.SeedSync(db, email)
				if err != nil {
					return nil, err
				}
				details := []string{fmt.Sprintf("created %d default expense categories", report.CreatedCategories)}
				if report.Noop {
					details = []string{"nothing to do"}
				}
				if email != "" {
					details = append(details, "seed user: "+email)
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.SeedUserEmail
				if opts.seedUserEmail != "" {
					email = opts.seedUserEmail
				}
				details := []string{
					"would ensure default categories: Groceries, Rent, Utilities, Transport, Entertainment, Health",
				}
				if email != "" {
					details = append(details, fmt.Sprintf("would seed categories for user if present: %s", email))
				} else {
					details = append(details, "no seed user configured, seeding would be a no-op")
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newActivateAccountCommand(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "activate-account",
		Short: "Mark an account as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed activate-account", func(ctx context.Context) ([]string, error) {
				if strings.TrimSpace(email) == "" {
					return nil, fmt.Errorf("email is required")
				}
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.ActivateAccount(db, email); err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("marked account verified: %s", strings.TrimSpace(strings.ToLower(email)))}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed activate-account", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to verify")
	return cmd
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
