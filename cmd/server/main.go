package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/mohrashard/LiverLens/internal/analytics"
	"github.com/mohrashard/LiverLens/internal/api"
	"github.com/mohrashard/LiverLens/internal/artifact"
	"github.com/mohrashard/LiverLens/internal/cache"
	"github.com/mohrashard/LiverLens/internal/config"
	"github.com/mohrashard/LiverLens/internal/database"
	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/model"
	"github.com/mohrashard/LiverLens/internal/predictor"
	"github.com/mohrashard/LiverLens/internal/preprocess"
	"github.com/mohrashard/LiverLens/internal/repository"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := setupLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The classifier artifact is mandatory. Refuse to serve without it.
	bundle, err := artifact.Load(cfg.Artifact.ModelPath, cfg.Artifact.PreprocessingPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load classifier artifact")
	}
	classifier := model.NewClassifier(bundle)
	transformer := preprocess.NewTransformer(bundle, logger)

	store, err := openStore(ctx, configManager, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open prediction store")
	}
	defer store.Close()

	responseCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize response cache")
	}
	defer responseCache.Close()

	hub := api.NewHub(logger)
	go hub.Run(ctx.Done())

	predictorSvc := predictor.NewService(logger, classifier, transformer, store, hub)
	analyticsEngine := analytics.NewEngine(logger, store, classifier, bundle.FeatureNames())

	server := api.NewServer(*cfg, logger, predictorSvc, analyticsEngine, responseCache, hub)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting LiverLens server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

// openStore builds the prediction store for the configured driver. The
// postgres path runs pending migrations first; sqlite bootstraps its
// own schema.
func openStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (domain.PredictionStore, error) {
	cfg := configManager.GetDatabaseConfig()

	switch cfg.Driver {
	case "postgres":
		if err := database.Migrate(configManager.GetDatabaseURL(), cfg.MigrationsPath, logger); err != nil {
			return nil, err
		}
		db, err := database.NewConnection(ctx, *cfg, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(db.Pool, logger), nil
	default:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return repository.NewSQLiteStore(ctx, cfg.Path, logger)
	}
}

func setupLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}
	return logger
}
