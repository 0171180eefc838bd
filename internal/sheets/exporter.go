package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/tabular"
)

// Exporter writes a year of records through a Writer.
type Exporter struct {
	w      Writer
	logger *log.Logger
}

func NewExporter(w Writer, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Exporter{w: w, logger: logger.WithComponent(log.ComponentSheets)}
}

// Tab is one sheet of an export.
type Tab struct {
	Title string
	Rows  [][]interface{}
}

// Tabs builds the three tabs of year, each starting with its header row.
func Tabs(year int, expenses []core.Expense, incomes []core.Income) []Tab {
	overview := core.BuildOverview(expenses, incomes, year, core.AllMonths)
	return []Tab{
		{yearPrefixedName(tabular.SheetExpenses, year), withHeader(tabular.ExpenseHeader, tabular.ExpenseRows(expenses))},
		{yearPrefixedName(tabular.SheetIncomes, year), withHeader(tabular.IncomeHeader, tabular.IncomeRows(incomes))},
		{yearPrefixedName(tabular.SheetSummary, year), withHeader(tabular.SummaryHeader, tabular.SummaryRows(overview))},
	}
}

// Export creates the year's tabs if needed, then rewrites them concurrently.
func (e *Exporter) Export(ctx context.Context, year int, expenses []core.Expense, incomes []core.Income) error {
	tabs := Tabs(year, expenses, incomes)
	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.Title
	}
	if err := e.w.EnsureSheets(ctx, titles...); err != nil {
		return fmt.Errorf("ensure sheets: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tab := range tabs {
		g.Go(func() error {
			if err := e.w.WriteSheet(gctx, tab.Title, tab.Rows); err != nil {
				return fmt.Errorf("write %s: %w", tab.Title, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Spreadsheet exported",
		log.FieldOperation, log.OpExport,
		log.FieldYear, year,
		log.FieldRows, len(expenses)+len(incomes))
	return nil
}

func withHeader(header []string, rows [][]interface{}) [][]interface{} {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	return append([][]interface{}{head}, rows...)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
