// Command hourlyctl is the operator CLI for an hourly store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rpggio/hourly/internal/app"
	"github.com/rpggio/hourly/internal/config"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/money"
)

var (
	flagDriver  string
	flagDBPath  string
	flagDataDir string
	flagActor   string
	flagRole    string
	flagVerbose bool
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hourlyctl",
		Short:         "Inspect and operate an hourly contract store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "storage driver (sqlite, file, memory); overrides config")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "sqlite database path; overrides config")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "file store directory; overrides config")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "acting user id (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagRole, "role", "", "acting role: client, freelancer or admin (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log storage activity to stderr")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(contractsCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(apikeyCmd)
	return rootCmd
}

// session bundles what every command needs.
type session struct {
	app    *app.App
	cfg    config.Config
	actor  contract.Actor
	format money.Formatter
	logger *slog.Logger
}

// open loads config, applies flag overrides and opens the store. Seeding
// only happens through the seed command.
func open(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagDriver != "" {
		cfg.Storage.Driver = flagDriver
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagDataDir != "" {
		cfg.Storage.DataDir = flagDataDir
	}
	if flagActor != "" {
		cfg.Auth.DefaultActor = flagActor
	}
	if flagRole != "" {
		cfg.Auth.DefaultRole = flagRole
	}
	cfg.Storage.SeedDemo = false
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a, err := app.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		app:    a,
		cfg:    cfg,
		actor:  cfg.DefaultActor(),
		format: money.NewFormatter(cfg.Display.CurrencySymbol),
		logger: logger,
	}, nil
}

func (s *session) Close() {
	if err := s.app.Close(); err != nil {
		s.logger.Warn("close store", "error", err)
	}
}
