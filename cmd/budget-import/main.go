// Command budget-import loads expenses or incomes from an XLSX or CSV file
// into the configured data backend.
//
//	budget-import -kind expenses -file depenses.xlsx -year 2025 -user Margaux
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	kind := flag.String("kind", "expenses", "record kind: expenses or incomes")
	file := flag.String("file", "", "XLSX or CSV file to import")
	year := flag.Int("year", time.Now().Year(), "year used for rows without one")
	user := flag.String("user", "", "author stamped on imported records (default: first configured user)")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentImport)
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	result, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize data backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	// Imports run while the server may be serving: drop its shared cache
	// entries, and let the broker or chat know.
	records, stopCache := backend.NewRecordsCache(ctx, cfg, logger)
	defer stopCache()
	dispatcher, amqpClient := backend.NewNotifier(cfg, logger)
	defer func() {
		dispatcher.Close()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
	}()

	budget := services.NewBudgetService(result.Store, records, dispatcher, logger)
	settings := services.NewSettingsService(result.Store, services.SettingsDefaults{Users: cfg.DefaultUsers, FamilyName: cfg.FamilyName}, dispatcher, logger)

	actor := *user
	if actor == "" {
		users, err := settings.Users(ctx)
		if err != nil || len(users) == 0 {
			cli.Exit(logger, "Failed to read users", err)
		}
		actor = users[0]
	} else if ok, err := settings.IsUser(ctx, actor); err != nil || !ok {
		cli.Exit(logger, "Unknown user", fmt.Errorf("%q is not a family member", actor), log.FieldUser, actor)
	}

	f, err := os.Open(*file)
	if err != nil {
		cli.Exit(logger, "Failed to open file", err, "file", *file)
	}
	defer f.Close()

	var report services.ImportReport
	switch *kind {
	case "expenses", "expense":
		report, err = budget.ImportExpenses(ctx, actor, filepath.Base(*file), f, *year)
	case "incomes", "income":
		report, err = budget.ImportIncomes(ctx, actor, filepath.Base(*file), f, *year)
	default:
		cli.Exit(logger, "Invalid kind", fmt.Errorf("unknown kind %q", *kind))
	}
	for _, skipped := range report.Skipped {
		logger.Warn("Row skipped", "line", skipped.Line, "reason", skipped.Reason)
	}
	if err != nil {
		cli.Exit(logger, "Import failed", err, "imported", report.Imported)
	}
	logger.Info("Import completed",
		log.FieldOperation, log.OpImport,
		"kind", report.Kind,
		"imported", report.Imported,
		"skipped", len(report.Skipped))
}
