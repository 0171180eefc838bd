package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"budget/internal/core"
)

func TestParseBudgetFilter(t *testing.T) {
	fallback := BudgetFilter{Year: 2024, Months: core.NewMonthSet(core.Month(5))}

	tests := []struct {
		name         string
		query        url.Values
		wantYear     int
		wantMonths   core.MonthSet
		wantExplicit bool
	}{
		{
			name:       "empty query keeps fallback",
			query:      url.Values{},
			wantYear:   2024,
			wantMonths: core.NewMonthSet(core.Month(5)),
		},
		{
			name:         "year only",
			query:        url.Values{"year": {"2023"}},
			wantYear:     2023,
			wantMonths:   core.NewMonthSet(core.Month(5)),
			wantExplicit: true,
		},
		{
			name:         "repeated months",
			query:        url.Values{"months": {"1", "3"}},
			wantYear:     2024,
			wantMonths:   core.NewMonthSet(core.Month(1), core.Month(3)),
			wantExplicit: true,
		},
		{
			name:         "comma separated months",
			query:        url.Values{"year": {"2025"}, "months": {"2,4"}},
			wantYear:     2025,
			wantMonths:   core.NewMonthSet(core.Month(2), core.Month(4)),
			wantExplicit: true,
		},
		{
			name:         "all clears the selection",
			query:        url.Values{"months": {"all"}},
			wantYear:     2024,
			wantMonths:   0,
			wantExplicit: true,
		},
		{
			name:       "invalid values are ignored",
			query:      url.Values{"year": {"abc"}, "months": {"13"}},
			wantYear:   2024,
			wantMonths: core.NewMonthSet(core.Month(5)),
		},
		{
			name:       "out of range year is ignored",
			query:      url.Values{"year": {"42"}},
			wantYear:   2024,
			wantMonths: core.NewMonthSet(core.Month(5)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBudgetFilter(tt.query, fallback)
			if got.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", got.Year, tt.wantYear)
			}
			if got.Months != tt.wantMonths {
				t.Errorf("Months = %v, want %v", got.Months.Ordinals(), tt.wantMonths.Ordinals())
			}
			if got.Explicit != tt.wantExplicit {
				t.Errorf("Explicit = %v, want %v", got.Explicit, tt.wantExplicit)
			}
		})
	}
}

func TestParseExpenseForm(t *testing.T) {
	form := url.Values{
		"category":    {"  Courses "},
		"amount":      {"1 234,56"},
		"frequency":   {"monthly"},
		"month":       {"mars"},
		"description": {"Hyper\x00marché"},
	}
	e, err := ParseExpenseForm(form, 2025)
	if err != nil {
		t.Fatalf("ParseExpenseForm() error = %v", err)
	}
	if e.Category != "Courses" || e.Description != "Hypermarché" {
		t.Errorf("unexpected text fields %q %q", e.Category, e.Description)
	}
	if e.Amount.Cents != 123456 {
		t.Errorf("Amount = %d, want 123456", e.Amount.Cents)
	}
	if e.Month != core.Month(3) || e.Year != 2025 {
		t.Errorf("period = %d/%d, want 3/2025", e.Month, e.Year)
	}
	if e.Frequency != core.FrequencyMonthly {
		t.Errorf("Frequency = %q", e.Frequency)
	}

	form.Set("frequency", "")
	if e, err = ParseExpenseForm(form, 2025); err != nil || e.Frequency != core.FrequencyOneOff {
		t.Errorf("blank frequency: %q, %v", e.Frequency, err)
	}
}

func TestParseExpenseFormCollectsErrors(t *testing.T) {
	form := url.Values{"amount": {"-3"}, "month": {"0"}, "year": {"soon"}, "frequency": {"daily"}}
	_, err := ParseExpenseForm(form, 2025)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []error{core.ErrInvalidAmount, core.ErrInvalidMonth, core.ErrInvalidYear, core.ErrInvalidFrequency} {
		if !errors.Is(err, want) {
			t.Errorf("error %v does not wrap %v", err, want)
		}
	}
	if !core.IsValidation(err) {
		t.Errorf("joined parse errors should be validation errors")
	}
}

func TestParseIncomeForm(t *testing.T) {
	in, err := ParseIncomeForm(url.Values{"source": {"Primes"}, "amount": {"250"}, "month": {"12"}, "year": {"2024"}}, 2025)
	if err != nil {
		t.Fatalf("ParseIncomeForm() error = %v", err)
	}
	if in.Source != "Primes" || in.Amount.Cents != 25000 || in.Month != core.Month(12) || in.Year != 2024 {
		t.Errorf("unexpected income %+v", in)
	}

	if _, err := ParseIncomeForm(url.Values{"source": {"Primes"}, "month": {"1"}}, 2025); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("missing amount: err = %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x07b", "ab"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormOrFail(t *testing.T) {
	body := "field=value"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if result := ParseFormOrFail(req); result != nil {
		t.Error("Expected nil for valid form, got error response")
	}
	if req.Form.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}

	bad := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	result := ParseFormOrFail(bad)
	if result == nil {
		t.Fatal("Expected an error response for a malformed body")
	}
	w := httptest.NewRecorder()
	result.Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
