// Package main is the entry point for the business card server.
//
// MAIN PACKAGE IN GO:
// main stays small. It reads configuration, builds the long-lived
// dependencies (logger, document store, rasterizer, draft tokens), hands them
// to the server and waits. Everything else lives under internal/.
//
// Configuration comes from the environment (and .env), optionally layered
// over a YAML file named by --config or CONFIG_PATH. See internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/business-cards/internal/config"
	"github.com/sakif/business-cards/internal/rasterizer"
	"github.com/sakif/business-cards/internal/rasterizer/docker"
	"github.com/sakif/business-cards/internal/rasterizer/rod"
	"github.com/sakif/business-cards/internal/repository"
	"github.com/sakif/business-cards/internal/repository/postgres"
	sqliteRepo "github.com/sakif/business-cards/internal/repository/sqlite"
	"github.com/sakif/business-cards/internal/server"
	"github.com/sakif/business-cards/internal/service"
	"github.com/sakif/business-cards/internal/wizard"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Env)
	slog.SetDefault(logger)

	generated, err := cfg.EnsureDraftSecret()
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("DRAFT_SECRET not set, using a random one; drafts will not survive a restart")
	}

	ctx := context.Background()

	// === DOCUMENT STORE ===
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// === RASTERIZER ===
	// Optional: without one the server runs and exports answer 204.
	raster, closeRaster := openRasterizer(cfg, logger)
	defer closeRaster()

	// === DRAFT TOKENS ===
	tokens, err := wizard.NewTokenService(cfg.Draft.Secret, cfg.Draft.TTL)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Deps{
		Intake: service.NewIntakeService(store, logger),
		Cards:  service.NewCardService(store, logger),
		Raster: raster,
		Tokens: tokens,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Run blocks until SIGINT/SIGTERM
	return srv.Run(ctx)
}

// setupLogger returns a text logger for local development and JSON logs
// everywhere else.
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.DocumentStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if err := postgres.Migrate(cfg.Storage.PostgresDSN, logger); err != nil {
			return nil, err
		}
		store, err := postgres.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		logger.Info("document store ready", slog.String("driver", "postgres"))
		return store, nil

	default:
		// os.MkdirAll is a no-op when the directory exists (like `mkdir -p`)
		if cfg.Storage.SQLitePath != ":memory:" {
			dir := filepath.Dir(cfg.Storage.SQLitePath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		store, err := sqliteRepo.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		logger.Info("document store ready",
			slog.String("driver", "sqlite"),
			slog.String("path", cfg.Storage.SQLitePath),
		)
		return store, nil
	}
}

// openRasterizer builds the configured backend. A backend that fails to
// start is logged and replaced by rasterizer.Disabled.
func openRasterizer(cfg *config.Config, logger *slog.Logger) (rasterizer.Rasterizer, func()) {
	noop := func() {}

	var (
		r      rasterizer.Rasterizer
		closer io.Closer
		err    error
	)

	switch cfg.Rasterizer.Driver {
	case config.RasterizerNone:
		logger.Info("card export disabled")
		return rasterizer.Disabled{}, noop

	case config.RasterizerDocker:
		dcfg := docker.DefaultConfig()
		dcfg.Image = cfg.Rasterizer.DockerImage
		dcfg.PoolSize = cfg.Rasterizer.PoolSize
		dcfg.Timeout = cfg.Rasterizer.Timeout
		var d *docker.Rasterizer
		d, err = docker.New(dcfg, logger)
		r, closer = d, d

	default:
		rcfg := rod.DefaultConfig()
		rcfg.Bin = cfg.Rasterizer.BrowserBin
		rcfg.ControlURL = cfg.Rasterizer.BrowserURL
		rcfg.Timeout = cfg.Rasterizer.Timeout
		var b *rod.Rasterizer
		b, err = rod.New(rcfg, logger)
		r, closer = b, b
	}

	if err != nil {
		logger.Warn("rasterizer unavailable, card export will answer 204",
			slog.String("driver", cfg.Rasterizer.Driver),
			slog.String("error", err.Error()),
		)
		return rasterizer.Disabled{}, noop
	}

	logger.Info("rasterizer ready", slog.String("driver", cfg.Rasterizer.Driver))
	return r, func() {
		if err := closer.Close(); err != nil {
			logger.Warn("closing rasterizer", slog.String("error", err.Error()))
		}
	}
}
