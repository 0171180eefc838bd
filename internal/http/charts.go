package http

import (
	"fmt"
	"html/template"
	"strings"

	"budget/internal/core"
)

var chartColors = []string{
	"#667eea", "#ed64a6", "#48bb78", "#ed8936", "#4a90e2",
	"#f56565", "#38b2ac", "#9f7aea", "#ecc94b", "#a0aec0",
}

func chartColor(i int) string { return chartColors[i%len(chartColors)] }

// Slice is one legend entry of the category pie.
type Slice struct {
	Name    string
	Amount  string
	Percent string
	Color   string
}

// Pie is a category breakdown drawn with a CSS conic gradient.
type Pie struct {
	Gradient template.CSS
	Slices   []Slice
}

func (p Pie) Empty() bool { return len(p.Slices) == 0 }

func newPie(s core.Summary) Pie {
	var p Pie
	var stops []string
	var start float64
	for i, ca := range s.ByCategory {
		color := chartColor(i)
		end := start + ca.Percent
		if i == len(s.ByCategory)-1 {
			end = 100
		}
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", color, start, end))
		start = end
		p.Slices = append(p.Slices, Slice{
			Name:    ca.Name,
			Amount:  ca.Amount.String(),
			Percent: formatPercent(ca.Percent),
			Color:   color,
		})
	}
	if len(stops) > 0 {
		p.Gradient = template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
	}
	return p
}

// Bar is one horizontal bar scaled against the largest value.
type Bar struct {
	Name   string
	Amount string
	Width  int
	Color  string
}

func newBars(items []core.CategoryAmount) []Bar {
	var maxCents int64
	for _, it := range items {
		if it.Amount.Cents > maxCents {
			maxCents = it.Amount.Cents
		}
	}
	bars := make([]Bar, 0, len(items))
	for i, it := range items {
		bars = append(bars, Bar{
			Name:   it.Name,
			Amount: it.Amount.String(),
			Width:  scaledPercent(it.Amount.Cents, maxCents),
			Color:  chartColor(i),
		})
	}
	return bars
}

// scaledPercent rounds v/max to a percentage, keeping small non-zero values
// visible.
func scaledPercent(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int((v*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// MonthPoint is one month of the yearly evolution chart.
type MonthPoint struct {
	Label         string
	Income        string
	Expense       string
	Balance       string
	Negative      bool
	IncomeHeight  int
	ExpenseHeight int
}

func newEvolution(o core.Overview) []MonthPoint {
	var maxCents int64
	for i := 0; i < 12; i++ {
		if c := o.Incomes.ByMonth[i].Cents; c > maxCents {
			maxCents = c
		}
		if c := o.Expenses.ByMonth[i].Cents; c > maxCents {
			maxCents = c
		}
	}
	balance := o.MonthlyBalance()
	points := make([]MonthPoint, 12)
	for i, m := range core.AllMonthsList() {
		in, out := o.Incomes.ByMonth[i], o.Expenses.ByMonth[i]
		points[i] = MonthPoint{
			Label:         m.Short(),
			Income:        in.String(),
			Expense:       out.String(),
			Balance:       balance[i].String(),
			Negative:      balance[i].Cents < 0,
			IncomeHeight:  scaledPercent(in.Cents, maxCents),
			ExpenseHeight: scaledPercent(out.Cents, maxCents),
		}
	}
	return points
}

// formatPercent renders 12.345 as "12,3 %".
func formatPercent(v float64) string {
	return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1) + " %"
}
