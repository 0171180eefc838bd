// Command budget-export writes one or every year of records to the
// configured Google spreadsheet, or to an XLSX file with -out.
package main

import (
	"bytes"
	"context"
	"flag"
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	year := flag.Int("year", 0, "year to export (default: every year with records)")
	out := flag.String("out", "", "write an XLSX workbook for -year to this path instead of the spreadsheet")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentExport)
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
	budget := services.NewBudgetService(result.Store, nil, nil, logger)

	if *out != "" {
		if *year == 0 {
			cli.Exit(logger, "Missing year", os.ErrInvalid, "hint", "-out needs -year")
		}
		var buf bytes.Buffer
		if err := budget.ExportWorkbook(ctx, &buf, *year); err != nil {
			cli.Exit(logger, "Export failed", err, log.FieldYear, *year)
		}
		if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
			cli.Exit(logger, "Failed to write workbook", err, "path", *out)
		}
		logger.Info("Workbook written", "path", *out, log.FieldYear, *year)
		return
	}

	exporter, err := backend.NewSheetsExporter(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize Google Sheets client", err)
	}
	if exporter == nil {
		cli.Exit(logger, "Nothing to export to", os.ErrInvalid, "hint", "set GOOGLE_SPREADSHEET_ID or use -out")
	}

	sync := worker.NewSyncWorker(budget, exporter, nil, logger)
	if *year != 0 {
		err = sync.SyncYear(ctx, *year)
	} else {
		err = sync.SyncAll(ctx)
	}
	if err != nil {
		cli.Exit(logger, "Spreadsheet export failed", err)
	}
}
