package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/STRATINT/activityscan/internal/api"
	"github.com/STRATINT/activityscan/internal/auth"
	"github.com/STRATINT/activityscan/internal/config"
	"github.com/STRATINT/activityscan/internal/database"
	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/logging"
	"github.com/STRATINT/activityscan/internal/metrics"
	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/scanner"
	"github.com/STRATINT/activityscan/internal/server"
	"github.com/STRATINT/activityscan/internal/settings"
	"github.com/STRATINT/activityscan/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting activityscan")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Dependencies{
		MaxBodyBytes: cfg.Scan.MaxBodyBytes,
		Logger:       logger,
	}

	var (
		store settings.Store
		runs  scanner.RunRecorder
	)
	if cfg.Database.URL != "" {
		db, err := connectDatabase(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store = database.NewSettingsRepository(db)
		runRepo := database.NewRunRepository(db)
		runs = runRepo
		deps.Runs = runRepo
		deps.Health = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	} else if cfg.Settings.File != "" {
		logger.Info("using settings file", "path", cfg.Settings.File)
		store = settings.NewFileStore(cfg.Settings.File)
	} else {
		logger.Warn("no database or settings file configured, settings will not persist across restarts")
		store = settings.NewMemoryStore(models.Settings{})
	}
	deps.Settings = store

	authenticator, err := auth.New(cfg.Auth)
	if err != nil {
		logger.Warn("admin authentication disabled, settings are read-only", "error", err)
	} else {
		deps.Auth = authenticator
	}

	collector, err := metrics.New()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	deps.Metrics = collector

	comparer, err := vision.New(cfg.Vision, logger)
	if err != nil {
		logger.Warn("vision comparison unavailable, scans will use the deterministic rules only", "error", err)
		comparer = nil
	} else if comparer != nil {
		logger.Info("vision comparison enabled", "provider", cfg.Vision.Provider)
	}

	encoder := imaging.NewEncoder(cfg.Imaging, nil)
	scan := scanner.New(encoder, comparer, scanner.Options{
		ErrorPolicy: cfg.Scan.ErrorPolicy,
		Metrics:     collector,
		Logger:      logger,
	})
	deps.Scans = scanner.NewService(scan, store, runs, logger)

	srv := server.New(cfg.Server, logger, api.NewRouter(deps))
	if err := srv.Run(ctx, nil); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.URL

	logger.Info("connecting to database", "url", database.RedactURL(cfg.URL))
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected")

	// Non-fatal so the service can start while the schema is repaired.
	if err := database.RunMigrations(ctx, db, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}
	return db, nil
}
