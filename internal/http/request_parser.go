package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

// BudgetFilter is the year and month selection of the budget page.
type BudgetFilter struct {
	Year   int
	Months core.MonthSet
	// Explicit is set when the query string carried the selection.
	Explicit bool
}

// ParseBudgetFilter reads year and months from the query, falling back to
// fallback for whatever is absent or invalid. "months" may repeat and each
// value may hold a comma-separated list; "months=all" clears the selection.
func ParseBudgetFilter(query url.Values, fallback BudgetFilter) BudgetFilter {
	f := fallback
	f.Explicit = false

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1900 && y <= 2999 {
			f.Year = y
			f.Explicit = true
		}
	}
	if values, ok := query["months"]; ok {
		if len(values) == 1 && strings.EqualFold(strings.TrimSpace(values[0]), "all") {
			f.Months = 0
			f.Explicit = true
		} else if set, err := core.ParseMonthSet(values); err == nil {
			f.Months = set
			f.Explicit = true
		}
	}
	return f
}

// parseYear returns the year in form field name, or fallback when absent.
func parseYear(form url.Values, name string, fallback int) (int, error) {
	v := strings.TrimSpace(form.Get(name))
	if v == "" {
		return fallback, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, v)
	}
	return y, nil
}

// parseRecordFields reads the fields shared by both record forms.
func parseRecordFields(form url.Values, defaultYear int) (core.Money, core.Month, int, error) {
	var errs []error
	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		errs = append(errs, err)
	}
	month, err := core.ParseMonth(form.Get("month"))
	if err != nil {
		errs = append(errs, err)
	}
	year, err := parseYear(form, "year", defaultYear)
	if err != nil {
		errs = append(errs, err)
	}
	return amount, month, year, errors.Join(errs...)
}

// ParseExpenseForm builds an expense from the add or edit form. Author and
// timestamps are stamped by the service.
func ParseExpenseForm(form url.Values, defaultYear int) (core.Expense, error) {
	amount, month, year, err := parseRecordFields(form, defaultYear)
	freq, ferr := core.ParseFrequency(form.Get("frequency"))
	if err = errors.Join(err, ferr); err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Category:    sanitizeInput(form.Get("category")),
		Amount:      amount,
		Frequency:   freq,
		Description: sanitizeInput(form.Get("description")),
		Month:       month,
		Year:        year,
	}, nil
}

func ParseIncomeForm(form url.Values, defaultYear int) (core.Income, error) {
	amount, month, year, err := parseRecordFields(form, defaultYear)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Source: sanitizeInput(form.Get("source")),
		Amount: amount,
		Month:  month,
		Year:   year,
	}, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Format de requête invalide")
	}
	return nil
}

// sanitizeInput removes control characters except tab and newlines, and trims
// surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
