package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/catalog"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/diagnostics"
	"catalog-import-service/internal/importer"
	"catalog-import-service/internal/repository"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	log := logrus.New()
	if cfg.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	logger := log.WithField("service", "catalog-import")

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		return 1
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	defer closeDB()

	ctx := context.Background()
	files := catalog.NewFileResolver(cfg.DataDirs, logger.WithField("component", "files"))

	checker := diagnostics.NewChecker(db, files, logger.WithField("component", "diagnostics"))
	if err := checker.HealthCheck(ctx); err != nil {
		logger.WithError(err).Error("health check failed, aborting before any write")
		return 1
	}

	metrics := importer.NewMetrics()
	defer metrics.LogDashboard(logger)

	// Every write is an upsert by natural key, so closing the store on a
	// termination signal without rollback leaves it consistent. The metrics
	// dashboard is flushed on this exit path too.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.WithField("signal", sig.String()).Warn("termination signal received, shutting down")
		metrics.LogDashboard(logger)
		closeDB()
		os.Exit(1)
	}()

	slugs := catalog.NewSlugGenerator()
	translations := catalog.NewTranslationRegistry()
	repo := repository.NewSyncRepository(db, slugs, translations, cfg.Languages,
		metrics, logger.WithField("component", "repository"))

	engine := importer.NewEngine(importer.EngineConfig{
		Files:           files,
		Specs:           catalog.NewSpecificationProcessor(logger.WithField("component", "specs")),
		Store:           repo,
		Metrics:         metrics,
		Logger:          logger.WithField("component", "engine"),
		ChunkSize:       cfg.ChunkSize,
		PrimaryLanguage: cfg.PrimaryLanguage,
		Languages:       cfg.Languages,
	})

	summary, err := engine.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("import failed")
		return 1
	}

	logger.WithFields(logrus.Fields{
		"brands":          summary.Brands,
		"categories":      summary.Categories,
		"lightingTypes":   summary.LightingTypes,
		"products":        summary.Products,
		"productsSkipped": summary.ProductsSkipped,
		"specRows":        summary.SpecRows,
		"specFailures":    summary.SpecFailures,
		"duration":        summary.Duration.String(),
	}).Info("import completed")

	report, err := diagnostics.BuildReport(ctx, db)
	if err != nil {
		logger.WithError(err).Warn("post-run report unavailable")
		return 0
	}
	report.Log(logger)

	if cfg.ReportXLSXPath != "" {
		if err := diagnostics.ExportXLSX(report, cfg.ReportXLSXPath); err != nil {
			logger.WithError(err).Warn("failed to export report workbook")
		} else {
			logger.WithField("path", cfg.ReportXLSXPath).Info("report workbook written")
		}
	}

	return 0
}
