package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-booking/internal/adapter/storage/seed"
	"github.com/seu-repo/sigec-booking/pkg/config"
	"github.com/seu-repo/sigec-booking/pkg/logger"
)

var (
	configDir string
	seedDemo  bool
	sweepOnce bool
)

var rootCmd = &cobra.Command{
	Use:           "sigec-booking",
	Short:         "Charging point reservation service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers with the lifecycle monitor",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	RunE:  runMigrate,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire no-shows and flag overtime sessions",
	RunE:  runSweep,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "directory holding config.yaml")
	migrateCmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "load the demo catalog after migrating")
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep and exit")

	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, *zap.Logger, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting reservation service",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
	)

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Storage.Driver != "postgres" {
		return errors.New("migrate requires storage.driver=postgres")
	}
	if err := resolveSecrets(ctx, cfg, log); err != nil {
		return err
	}

	db, err := postgres.NewConnection(cfg.Database.URL, poolOptions(cfg), log)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	if err := postgres.RunMigrations(ctx, db, log); err != nil {
		return err
	}
	if seedDemo {
		if err := seed.LoadPostgres(ctx, db, seed.Demo()); err != nil {
			return fmt.Errorf("seed demo catalog: %w", err)
		}
		log.Info("Demo catalog loaded")
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if !sweepOnce {
		app.monitor.Run(ctx)
		return nil
	}

	result, err := app.monitor.Sweep(ctx)
	if err != nil {
		return err
	}
	log.Info("Sweep finished",
		zap.Int("expired", result.Expired),
		zap.Int("flagged", result.Flagged),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return nil
}
