package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
	"budget/internal/store"
	"budget/internal/store/memory"
	"budget/internal/tabular"
)

func TestImportExpensesCSV(t *testing.T) {
	svc, st, n := newBudget(t)
	ctx := context.Background()

	// Warm the cache so the import has to invalidate it.
	if _, err := svc.Records(ctx, 2025); err != nil {
		t.Fatalf("records: %v", err)
	}

	csv := "Catégorie;Montant;Fréquence;Mois;Année;Description\n" +
		"Loyer;800;Mensuel;Janvier;2025;\n" +
		"Parapente;120,50;;Mars;;vol\n" +
		"Courses;-4;;;;\n"
	report, err := svc.ImportExpenses(ctx, "Alice", "janvier.csv", strings.NewReader(csv), 2025)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 2 || len(report.Skipped) != 1 || report.Skipped[0].Line != 4 {
		t.Fatalf("unexpected report %+v", report)
	}

	recs, _ := svc.Records(ctx, 2025)
	if len(recs.Expenses) != 2 {
		t.Fatalf("cache must be invalidated after import, got %d expenses", len(recs.Expenses))
	}
	for _, e := range recs.Expenses {
		if e.Author != "Alice" || e.CreatedAt.IsZero() {
			t.Fatalf("imported record not stamped: %+v", e)
		}
		if e.Description == "vol" && e.Category != core.OtherEntry {
			t.Fatalf("unknown category must map to %s, got %s", core.OtherEntry, e.Category)
		}
	}

	feed, _ := st.ListNotifications(ctx, 0)
	if len(feed) != 1 || feed[0].Title != "Import terminé" || feed[0].Message != "Alice a importé 2 dépenses (1 lignes ignorées)" {
		t.Fatalf("expected one summary notification, got %+v", feed)
	}
	if len(n.titles()) != 1 {
		t.Fatalf("expected one forwarded notification, got %v", n.titles())
	}
}

func TestImportInterruptedStillNotifies(t *testing.T) {
	st := &flakyStore{Store: memory.New(), failAfter: 2}
	svc := NewBudgetService(st, nil, nil, quietLogger())
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	csv := "Catégorie;Montant;Mois;Année\n" +
		"Loyer;800;1;2025\n" +
		"Eau;40;1;2025\n" +
		"Courses;120;1;2025\n"
	report, err := svc.ImportExpenses(ctx, "Alice", "janvier.csv", strings.NewReader(csv), 2025)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected the store failure, got %v", err)
	}
	if report.Imported != 2 {
		t.Fatalf("imported = %d, want 2", report.Imported)
	}

	feed, _ := st.ListNotifications(ctx, 0)
	if len(feed) != 1 || feed[0].Title != "Import interrompu" || feed[0].Message != "Alice a importé 2 dépenses avant une erreur" {
		t.Fatalf("expected one interrupted-import notification, got %+v", feed)
	}

	empty := &flakyStore{Store: memory.New()}
	svc = NewBudgetService(empty, nil, nil, quietLogger())
	if _, err := svc.ImportExpenses(ctx, "Alice", "janvier.csv", strings.NewReader(csv), 2025); err == nil {
		t.Fatal("expected the store failure")
	}
	if feed, _ := empty.ListNotifications(ctx, 0); len(feed) != 0 {
		t.Fatalf("nothing persisted, nothing to announce: %+v", feed)
	}
}

func TestImportIncomesXLSX(t *testing.T) {
	svc, st, _ := newBudget(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Source", "Amount", "Month", "Year"},
		{"salaire principal", 2500.5, 2, 2024},
		{"", 40, "Avril", nil},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	report, err := svc.ImportIncomes(ctx, "Bob", "revenus.xlsx", &buf, 2025)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Imported != 2 || len(report.Skipped) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	incomes, _ := st.ListIncomes(ctx)
	if incomes[0].Source != "Salaire Principal" || incomes[0].Amount.Cents != 250050 || incomes[0].Year != 2024 {
		t.Fatalf("unexpected first income %+v", incomes[0])
	}
	if incomes[1].Source != core.OtherEntry || incomes[1].Month != 4 || incomes[1].Year != 2025 {
		t.Fatalf("unexpected second income %+v", incomes[1])
	}
}

func TestImportRejectsBadFiles(t *testing.T) {
	svc, st, _ := newBudget(t)
	ctx := context.Background()

	if _, err := svc.ImportExpenses(ctx, "Alice", "notes.pdf", strings.NewReader("x"), 2025); !errors.Is(err, tabular.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := svc.ImportExpenses(ctx, "Alice", "x.csv", strings.NewReader("Nom,Prix\nA,1\n"), 2025); !errors.Is(err, tabular.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if feed, _ := st.ListNotifications(ctx, 0); len(feed) != 0 {
		t.Fatalf("rejected files must not notify")
	}
}

func TestExportWorkbook(t *testing.T) {
	svc, _, _ := newBudget(t)
	ctx := context.Background()
	svc.AddExpense(ctx, "Alice", expense("Loyer", 80000, 2, 2025))
	svc.AddExpense(ctx, "Alice", expense("Eau", 3000, 1, 2025))

	var buf bytes.Buffer
	if err := svc.ExportWorkbook(ctx, &buf, 2025); err != nil {
		t.Fatalf("export: %v", err)
	}
	tbl, err := tabular.Read("export.xlsx", &buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0].Cell(0) != "Eau" {
		t.Fatalf("expected oldest period first, got %+v", tbl.Rows)
	}
}
