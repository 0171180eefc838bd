package tabular

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"budget/internal/core"
)

// Header aliases accepted on import, French first.
var (
	categoryHeaders    = []string{"Catégorie", "Catégories", "Category"}
	sourceHeaders      = []string{"Source", "Sources"}
	amountHeaders      = []string{"Montant", "Amount"}
	frequencyHeaders   = []string{"Fréquence", "Frequency"}
	monthHeaders       = []string{"Mois", "Month"}
	yearHeaders        = []string{"Année", "Annee", "Year"}
	descriptionHeaders = []string{"Description"}
)

var ErrMissingColumn = errors.New("missing required column")

// RowError reports one skipped row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("ligne %d: %s", e.Line, e.Reason)
}

// Defaults fill the optional columns.
type Defaults struct {
	Year   int
	Author string
}

// DecodeExpenses maps rows to expenses. Categories absent from known fall
// back to core.OtherEntry; the frequency defaults to one-off, the month to
// January and the year to d.Year. Invalid rows are skipped and reported.
func DecodeExpenses(t Table, known []string, d Defaults) ([]core.Expense, []RowError, error) {
	catCol := t.Column(categoryHeaders...)
	amtCol := t.Column(amountHeaders...)
	if catCol < 0 || amtCol < 0 {
		return nil, nil, fmt.Errorf("%w: %s, %s", ErrMissingColumn, categoryHeaders[0], amountHeaders[0])
	}
	freqCol := t.Column(frequencyHeaders...)
	monthCol := t.Column(monthHeaders...)
	yearCol := t.Column(yearHeaders...)
	descCol := t.Column(descriptionHeaders...)

	var (
		out  []core.Expense
		errs []RowError
	)
	for _, row := range t.Rows {
		amount, month, year, err := decodeCommon(row, amtCol, monthCol, yearCol, d.Year)
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		freq, err := core.ParseFrequency(row.Cell(freqCol))
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Reason: fmt.Sprintf("%v %q", err, row.Cell(freqCol))})
			continue
		}
		e := core.Expense{
			Category:    canonical(known, row.Cell(catCol)),
			Amount:      amount,
			Frequency:   freq,
			Description: row.Cell(descCol),
			Month:       month,
			Year:        year,
			Author:      d.Author,
		}
		if err := e.Validate(); err != nil {
			errs = append(errs, RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		out = append(out, e.Normalize())
	}
	return out, errs, nil
}

// DecodeIncomes is DecodeExpenses for revenue rows. Sources are kept as
// typed; only an empty source becomes core.OtherEntry.
func DecodeIncomes(t Table, known []string, d Defaults) ([]core.Income, []RowError, error) {
	srcCol := t.Column(sourceHeaders...)
	amtCol := t.Column(amountHeaders...)
	if srcCol < 0 || amtCol < 0 {
		return nil, nil, fmt.Errorf("%w: %s, %s", ErrMissingColumn, sourceHeaders[0], amountHeaders[0])
	}
	monthCol := t.Column(monthHeaders...)
	yearCol := t.Column(yearHeaders...)

	var (
		out  []core.Income
		errs []RowError
	)
	for _, row := range t.Rows {
		amount, month, year, err := decodeCommon(row, amtCol, monthCol, yearCol, d.Year)
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		source := row.Cell(srcCol)
		if source == "" {
			source = core.OtherEntry
		} else if match := lookup(known, source); match != "" {
			source = match
		}
		in := core.Income{
			Source: source,
			Amount: amount,
			Month:  month,
			Year:   year,
			Author: d.Author,
		}
		if err := in.Validate(); err != nil {
			errs = append(errs, RowError{Line: row.Line, Reason: err.Error()})
			continue
		}
		out = append(out, in.Normalize())
	}
	return out, errs, nil
}

func decodeCommon(row Row, amtCol, monthCol, yearCol, defaultYear int) (core.Money, core.Month, int, error) {
	raw := row.Cell(amtCol)
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return core.Money{}, 0, 0, fmt.Errorf("%w %q", err, raw)
	}

	month := core.Month(1)
	if v := row.Cell(monthCol); v != "" {
		if month, err = core.ParseMonth(trimFloat(v)); err != nil {
			return core.Money{}, 0, 0, fmt.Errorf("%w %q", err, v)
		}
	}

	year := defaultYear
	if v := row.Cell(yearCol); v != "" {
		y, err := strconv.Atoi(trimFloat(v))
		if err != nil {
			return core.Money{}, 0, 0, fmt.Errorf("%w %q", core.ErrInvalidYear, v)
		}
		year = y
	}
	return amount, month, year, nil
}

// trimFloat turns spreadsheet numbers such as "2025.0" into "2025".
func trimFloat(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

func canonical(known []string, name string) string {
	if match := lookup(known, name); match != "" {
		return match
	}
	return core.OtherEntry
}

func lookup(known []string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, k := range known {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return k
		}
	}
	return ""
}
