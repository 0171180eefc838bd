package core

import "sort"

// Entry is anything the aggregator can sum: expenses group by category,
// incomes by source.
type Entry interface {
	EntryPeriod() (year int, month Month)
	EntryAmount() Money
	EntryGroup() string
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string  `json:"name"`
	Amount  Money   `json:"amount"`
	Percent float64 `json:"percent"`
}

// Summary is the reduction of a record set for one year and a set of months.
type Summary struct {
	Year       int              `json:"year"`
	Months     MonthSet         `json:"-"`
	Total      Money            `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
	ByMonth    [12]Money        `json:"by_month"`
}

// Summarize filters entries by year and month-set membership and sums them
// overall, per group and per month. ByMonth always covers the twelve months;
// months without entries stay zero. ByCategory is sorted by amount, largest
// first, with ties broken by name.
func Summarize[E Entry](entries []E, year int, months MonthSet) Summary {
	s := Summary{Year: year, Months: months}
	groups := make(map[string]int64)
	for _, e := range entries {
		y, m := e.EntryPeriod()
		if y != year || !months.Contains(m) {
			continue
		}
		cents := e.EntryAmount().Cents
		s.Total.Cents += cents
		s.Count++
		groups[e.EntryGroup()] += cents
		s.ByMonth[m-1].Cents += cents
	}

	s.ByCategory = make([]CategoryAmount, 0, len(groups))
	for name, cents := range groups {
		ca := CategoryAmount{Name: name, Amount: Money{Cents: cents}}
		if s.Total.Cents != 0 {
			ca.Percent = float64(cents) / float64(s.Total.Cents) * 100
		}
		s.ByCategory = append(s.ByCategory, ca)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return s
}

// Totals returns the per-group sums keyed by name.
func (s Summary) Totals() map[string]Money {
	out := make(map[string]Money, len(s.ByCategory))
	for _, ca := range s.ByCategory {
		out[ca.Name] = ca.Amount
	}
	return out
}

func (s Summary) MonthTotal(m Month) Money {
	if !m.Valid() {
		return Money{}
	}
	return s.ByMonth[m-1]
}

// Overview combines expense and income summaries for the budget page.
type Overview struct {
	Year        int     `json:"year"`
	Months      []int   `json:"months"`
	Expenses    Summary `json:"expenses"`
	Incomes     Summary `json:"incomes"`
	Balance     Money   `json:"balance"`
	SavingsRate float64 `json:"savings_rate"`
}

// BuildOverview summarizes both record kinds. SavingsRate is the balance as a
// percentage of income, zero when there is no income.
func BuildOverview(expenses []Expense, incomes []Income, year int, months MonthSet) Overview {
	o := Overview{
		Year:     year,
		Months:   months.Ordinals(),
		Expenses: Summarize(expenses, year, months),
		Incomes:  Summarize(incomes, year, months),
	}
	o.Balance = o.Incomes.Total.Sub(o.Expenses.Total)
	if o.Incomes.Total.Cents > 0 {
		o.SavingsRate = float64(o.Balance.Cents) / float64(o.Incomes.Total.Cents) * 100
	}
	return o
}

// MonthlyBalance returns income minus expense for each month.
func (o Overview) MonthlyBalance() [12]Money {
	var out [12]Money
	for i := range out {
		out[i] = o.Incomes.ByMonth[i].Sub(o.Expenses.ByMonth[i])
	}
	return out
}
