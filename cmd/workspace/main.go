package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/infrastructure/config"
	"github.com/bretbouchard/sandbox/internal/infrastructure/server"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "workspace:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := flag.String("port", cfg.Server.Port, "Server port")
	seedDir := flag.String("seed", cfg.Server.SeedDir, "Directory to load into the seed sandbox")
	sandboxID := flag.String("sandbox", cfg.Workspace.SandboxID, "Sandbox id the seed directory is loaded into")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.SeedDir = *seedDir
	cfg.Logging.Development = *dev

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := workspace.NewStore()
	if cfg.Server.SeedDir != "" {
		if *sandboxID == "" {
			return fmt.Errorf("a sandbox id is required to seed %s", cfg.Server.SeedDir)
		}
		seeder, err := workspace.NewSeeder(store, cfg.Server.SeedIgnore, logger.Component("seed"))
		if err != nil {
			return err
		}
		if _, err := seeder.Seed(ctx, *sandboxID, cfg.Server.SeedDir); err != nil {
			return err
		}
	}

	srv := server.NewServer(cfg, store, nil, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
