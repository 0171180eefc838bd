package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

// MonthOption is one checkbox of the month filter.
type MonthOption struct {
	Month    core.Month
	Selected bool
}

type budgetView struct {
	Year        int
	Years       []int
	Months      []MonthOption
	Overview    core.Overview
	ExpensePie  Pie
	IncomeBars  []Bar
	Evolution   []MonthPoint
	Expenses    []core.Expense
	Incomes     []core.Income
	Categories  []string
	Sources     []string
	FormMonth   core.Month
	SavingsRate string
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request, sess *Session) {
	ctx := r.Context()
	f := sess.Filter
	if f.Explicit {
		if err := s.settings.SavePreferences(ctx, sess.User, f.Year, f.Months); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Failed to save budget filters", log.FieldError, err)
		}
	}

	dash, err := s.budget.Dashboard(ctx, f.Year, f.Months)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	years, err := s.budget.Years(ctx)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if !containsInt(years, f.Year) {
		years = append([]int{f.Year}, years...)
	}
	cats, err := s.settings.Taxonomy(ctx, core.ExpenseCategories)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	srcs, err := s.settings.Taxonomy(ctx, core.IncomeSources)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}

	view := budgetView{
		Year:        f.Year,
		Years:       years,
		Overview:    dash.Overview,
		ExpensePie:  newPie(dash.Overview.Expenses),
		IncomeBars:  newBars(dash.Overview.Incomes.ByCategory),
		Evolution:   newEvolution(dash.Evolution),
		Expenses:    dash.Expenses,
		Incomes:     dash.Incomes,
		Categories:  cats,
		Sources:     srcs,
		FormMonth:   core.Month(s.now().Month()),
		SavingsRate: formatPercent(dash.Overview.SavingsRate),
	}
	for _, m := range core.AllMonthsList() {
		view.Months = append(view.Months, MonthOption{Month: m, Selected: f.Months.Selected(m)})
	}
	if months := f.Months.Months(); !f.Months.IsAll() && len(months) > 0 {
		view.FormMonth = months[0]
	}

	s.render(w, r, http.StatusOK, "budget.html", page{
		Session: sess,
		Title:   "Budget " + f.Months.String() + " " + itoa(f.Year),
		Active:  "budget",
		Data:    view,
	})
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// handleAPISummary returns the overview of a year and month selection as
// JSON. Without a year it uses the current one; without months, all twelve.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	f := ParseBudgetFilter(r.URL.Query(), BudgetFilter{Year: s.now().Year()})
	o, err := s.budget.Overview(r.Context(), f.Year, f.Months)
	if err != nil {
		status := statusFor(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary failed", log.FieldError, err, log.FieldErrorType, errorType(status))
		writeJSON(w, status, map[string]string{"error": userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, o)
}
