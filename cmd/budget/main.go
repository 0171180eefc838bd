package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting budget server", log.FieldOperation, log.OpStartup, "backend", cfg.DataBackend)

	ctx := context.Background()
	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize data backend", err, "backend", cfg.DataBackend)
	}

	records, stopCache := backend.NewRecordsCache(ctx, cfg, logger)
	dispatcher, amqpClient := backend.NewNotifier(cfg, logger)
	if !dispatcher.Enabled() {
		logger.Info("External notifications disabled, feed stays in the app")
	}

	budget := services.NewBudgetService(result.Store, records, dispatcher, logger)
	settings := services.NewSettingsService(result.Store, services.SettingsDefaults{
		Users:      cfg.DefaultUsers,
		FamilyName: cfg.FamilyName,
	}, dispatcher, logger)
	if err := settings.EnsureProfiles(ctx); err != nil {
		logger.Warn("Failed to create default profiles", log.FieldError, err)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Budget:             budget,
		Settings:           settings,
		Store:              result.Store,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		cli.Exit(logger, "Failed to create HTTP server", err)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		dispatcher.Close()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		stopCache()
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Failed to close data backend", log.FieldError, err)
			}
		}
	})

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Exit(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
