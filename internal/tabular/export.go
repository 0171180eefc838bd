package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

// Sheet names used by exported workbooks and by the Google Sheets mirror.
const (
	SheetExpenses = "Dépenses"
	SheetIncomes  = "Revenus"
	SheetSummary  = "Synthèse"
)

var (
	ExpenseHeader = []string{"Catégorie", "Montant", "Fréquence", "Mois", "Année", "Description", "Auteur"}
	IncomeHeader  = []string{"Source", "Montant", "Mois", "Année", "Auteur"}
	SummaryHeader = []string{"Mois", "Revenus", "Dépenses", "Solde"}
)

// ExpenseRows renders expenses as sheet rows below ExpenseHeader. Amounts
// are euros as float64 so spreadsheets treat them as numbers.
func ExpenseRows(expenses []core.Expense) [][]interface{} {
	rows := make([][]interface{}, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []interface{}{
			e.Category, e.Amount.Euros(), e.Frequency.Label(), e.Month.String(), e.Year, e.Description, e.Author,
		})
	}
	return rows
}

func IncomeRows(incomes []core.Income) [][]interface{} {
	rows := make([][]interface{}, 0, len(incomes))
	for _, in := range incomes {
		rows = append(rows, []interface{}{in.Source, in.Amount.Euros(), in.Month.String(), in.Year, in.Author})
	}
	return rows
}

// SummaryRows lists the twelve months of o followed by a total line.
func SummaryRows(o core.Overview) [][]interface{} {
	balance := o.MonthlyBalance()
	rows := make([][]interface{}, 0, 13)
	for _, m := range core.AllMonthsList() {
		rows = append(rows, []interface{}{
			m.String(), o.Incomes.MonthTotal(m).Euros(), o.Expenses.MonthTotal(m).Euros(), balance[m-1].Euros(),
		})
	}
	rows = append(rows, []interface{}{"Total", o.Incomes.Total.Euros(), o.Expenses.Total.Euros(), o.Balance.Euros()})
	return rows
}

// WriteWorkbook writes a three sheet workbook for one year to w.
func WriteWorkbook(w io.Writer, expenses []core.Expense, incomes []core.Income, overview core.Overview) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	euros, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]interface{}
		money  []int
	}{
		{SheetExpenses, ExpenseHeader, ExpenseRows(expenses), []int{2}},
		{SheetIncomes, IncomeHeader, IncomeRows(incomes), []int{2}},
		{SheetSummary, SummaryHeader, SummaryRows(overview), []int{2, 3, 4}},
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("add sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.header, s.rows); err != nil {
			return err
		}
		last, _ := excelize.ColumnNumberToName(len(s.header))
		if err := f.SetCellStyle(s.name, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("style %s: %w", s.name, err)
		}
		for _, col := range s.money {
			name, _ := excelize.ColumnNumberToName(col)
			if err := f.SetColStyle(s.name, name, euros); err != nil {
				return fmt.Errorf("style %s: %w", s.name, err)
			}
		}
		if err := f.SetColWidth(s.name, "A", last, 18); err != nil {
			return fmt.Errorf("width %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
