package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/config"
	"finledger/internal/export"
	"finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/storage"
	"finledger/internal/worker"
)

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := log.New(log.Config{
		Level:     logLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	logger.Info("Starting ledger-worker")

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	auditWorker := worker.NewAuditWorker(store, logger)
	g.Go(func() error {
		return auditWorker.Run(gctx, amqpClient)
	})

	if cfg.ExportUserID > 0 {
		writer, err := export.NewGoogleSheetsWriter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize sheets writer", log.FieldError, err)
			os.Exit(1)
		}

		categories := services.NewCategoryService(store, logger)
		goals := services.NewGoalService(store, categories, logger)
		reports := services.NewReportService(store, goals, logger)
		exportWorker := worker.NewExportWorker(reports, writer, cfg.ExportUserID, cfg.ExportInterval, logger)
		g.Go(func() error {
			return exportWorker.Run(gctx)
		})
		logger.Info("Summary export enabled",
			log.FieldUserID, cfg.ExportUserID,
			"interval", cfg.ExportInterval.String())
	} else {
		logger.Info("Summary export disabled - no EXPORT_USER_ID provided")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
