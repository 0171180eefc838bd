// Command budget-worker consumes feed events from the broker. It forwards
// them to the family Telegram chat and keeps the Google spreadsheet mirror
// up to date.
package main

import (
	"context"
	"errors"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting budget-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		cli.Exit(logger, "AMQP_URL is required", errors.New("missing broker URL"), log.FieldErrorType, log.ErrorTypeConfiguration)
	}

	ctx := context.Background()
	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize data backend", err, "backend", cfg.DataBackend)
	}

	records, stopCache := backend.NewRecordsCache(ctx, cfg, logger)
	budget := services.NewBudgetService(result.Store, records, nil, logger)

	exporter, err := backend.NewSheetsExporter(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize Google Sheets client", err)
	}
	var sheetsSink worker.Exporter
	if exporter != nil {
		sheetsSink = exporter
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}
	var forwarder worker.Forwarder
	if tg := backend.NewTelegram(cfg, logger); tg != nil {
		forwarder = tg
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Exit(logger, "Failed to initialize AMQP client", err)
	}

	syncWorker := worker.NewSyncWorker(budget, sheetsSink, forwarder, logger)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		_ = amqpClient.Close()
		stopCache()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Failed to close data backend", log.FieldError, err)
			}
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(runCtx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	go syncWorker.Run(runCtx, cfg.SyncInterval)
	go func() {
		if err := amqpClient.ConsumeNotifications(runCtx, syncWorker.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped")
}
