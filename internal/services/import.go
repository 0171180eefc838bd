package services

import (
	"context"
	"fmt"
	"io"
	"sort"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/tabular"
)

// ImportReport summarizes one uploaded file.
type ImportReport struct {
	Kind     string             `json:"kind"`
	Imported int                `json:"imported"`
	Skipped  []tabular.RowError `json:"skipped"`
}

// ImportExpenses creates one expense per valid row of the uploaded file.
// Rows that fail to decode are reported, not fatal; a store failure stops
// the import and is returned alongside the partial report.
func (s *BudgetService) ImportExpenses(ctx context.Context, actor, filename string, r io.Reader, defaultYear int) (ImportReport, error) {
	report := ImportReport{Kind: "expense"}
	tbl, err := tabular.Read(filename, r)
	if err != nil {
		return report, fmt.Errorf("read %s: %w", filename, err)
	}
	known, err := loadTaxonomy(ctx, s.store, core.ExpenseCategories)
	if err != nil {
		return report, err
	}
	records, skipped, err := tabular.DecodeExpenses(tbl, known, tabular.Defaults{Year: defaultYear, Author: actor})
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	years := map[int]bool{}
	defer func() { s.invalidateYears(ctx, years) }()
	for _, e := range records {
		e.CreatedAt = s.now()
		if _, err := s.store.CreateExpense(ctx, e); err != nil {
			err = fmt.Errorf("create expense: %w", err)
			s.finishImport(ctx, actor, filename, report, "dépenses", err)
			return report, err
		}
		years[e.Year] = true
		report.Imported++
	}
	s.finishImport(ctx, actor, filename, report, "dépenses", nil)
	return report, nil
}

// ImportIncomes is ImportExpenses for revenue files.
func (s *BudgetService) ImportIncomes(ctx context.Context, actor, filename string, r io.Reader, defaultYear int) (ImportReport, error) {
	report := ImportReport{Kind: "income"}
	tbl, err := tabular.Read(filename, r)
	if err != nil {
		return report, fmt.Errorf("read %s: %w", filename, err)
	}
	known, err := loadTaxonomy(ctx, s.store, core.IncomeSources)
	if err != nil {
		return report, err
	}
	records, skipped, err := tabular.DecodeIncomes(tbl, known, tabular.Defaults{Year: defaultYear, Author: actor})
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	years := map[int]bool{}
	defer func() { s.invalidateYears(ctx, years) }()
	for _, in := range records {
		in.CreatedAt = s.now()
		if _, err := s.store.CreateIncome(ctx, in); err != nil {
			err = fmt.Errorf("create income: %w", err)
			s.finishImport(ctx, actor, filename, report, "revenus", err)
			return report, err
		}
		years[in.Year] = true
		report.Imported++
	}
	s.finishImport(ctx, actor, filename, report, "revenus", nil)
	return report, nil
}

func (s *BudgetService) invalidateYears(ctx context.Context, years map[int]bool) {
	list := make([]int, 0, len(years))
	for y := range years {
		list = append(list, y)
	}
	s.invalidate(ctx, list...)
}

// finishImport logs the outcome and appends the summary entry. An import
// stopped by failed leaves a notification only when rows were persisted.
func (s *BudgetService) finishImport(ctx context.Context, actor, filename string, report ImportReport, noun string, failed error) {
	title := "Import terminé"
	if failed != nil {
		s.logger.ErrorContext(ctx, "Import interrupted",
			log.FieldOperation, log.OpImport,
			log.FieldRecordKind, report.Kind,
			log.FieldRows, report.Imported,
			log.FieldUser, actor,
			log.FieldError, failed,
			"file", filename)
		if report.Imported == 0 {
			return
		}
		title = "Import interrompu"
	} else {
		s.logger.InfoContext(ctx, "Import completed",
			log.FieldOperation, log.OpImport,
			log.FieldRecordKind, report.Kind,
			log.FieldRows, report.Imported,
			log.FieldSkipped, len(report.Skipped),
			log.FieldUser, actor,
			"file", filename)
	}
	msg := fmt.Sprintf("%s a importé %d %s", actor, report.Imported, noun)
	if n := len(report.Skipped); n > 0 {
		msg += fmt.Sprintf(" (%d lignes ignorées)", n)
	}
	if failed != nil {
		msg += " avant une erreur"
	}
	s.feed.publish(ctx, core.ModuleBudget, actor, title, msg)
}

// ExportWorkbook writes every record of year as an XLSX workbook, oldest
// period first.
func (s *BudgetService) ExportWorkbook(ctx context.Context, w io.Writer, year int) error {
	recs, err := s.Records(ctx, year)
	if err != nil {
		return err
	}
	expenses := append([]core.Expense(nil), recs.Expenses...)
	incomes := append([]core.Income(nil), recs.Incomes...)
	sort.SliceStable(expenses, func(i, j int) bool {
		return newer(expenses[j].Month, expenses[j].CreatedAt, expenses[i].Month, expenses[i].CreatedAt)
	})
	sort.SliceStable(incomes, func(i, j int) bool {
		return newer(incomes[j].Month, incomes[j].CreatedAt, incomes[i].Month, incomes[i].CreatedAt)
	})
	overview := core.BuildOverview(expenses, incomes, year, core.AllMonths)
	if err := tabular.WriteWorkbook(w, expenses, incomes, overview); err != nil {
		return fmt.Errorf("export %d: %w", year, err)
	}
	s.logger.InfoContext(ctx, "Workbook exported", log.FieldOperation, log.OpExport, log.FieldYear, year,
		log.FieldRows, len(expenses)+len(incomes))
	return nil
}
