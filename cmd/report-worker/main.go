package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"savings-tracker/internal/amqp"
	"savings-tracker/internal/config"
	"savings-tracker/internal/log"
	"savings-tracker/internal/services"
	"savings-tracker/internal/storage"
	"savings-tracker/internal/worker"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentWorker, Output: os.Stdout})
	log.SetDefault(logger)

	logger.Info("Starting report-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if !cfg.MessagingEnabled() {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	refresher := worker.NewReportRefresher(db, services.NewReportAggregator(db, cfg.ReportMinYear, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeLedgerEvents(ctx, refresher.HandleLedgerEvent)
	})
	g.Go(func() error {
		return refresher.RunSessionPurge(ctx, cfg.SessionPurgeInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
