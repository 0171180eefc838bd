package core

import "testing"

func eur(e int64) Money { return Money{Cents: e * 100} }

func TestSummarizeRentAndFood(t *testing.T) {
	records := []Expense{
		{Category: "Rent", Amount: eur(800), Month: 1, Year: 2025},
		{Category: "Food", Amount: eur(300), Month: 1, Year: 2025},
	}
	s := Summarize(records, 2025, NewMonthSet(1))
	if s.Total != eur(1100) {
		t.Fatalf("total = %v", s.Total)
	}
	totals := s.Totals()
	if len(totals) != 2 || totals["Rent"] != eur(800) || totals["Food"] != eur(300) {
		t.Fatalf("by category = %v", totals)
	}
	if s.ByCategory[0].Name != "Rent" {
		t.Fatalf("largest category should come first: %+v", s.ByCategory)
	}
	if s.ByMonth[0] != eur(1100) {
		t.Fatalf("january = %v", s.ByMonth[0])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize([]Income(nil), 2025, AllMonths)
	if s.Total.Cents != 0 || s.Count != 0 || len(s.ByCategory) != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	for i, m := range s.ByMonth {
		if m.Cents != 0 {
			t.Fatalf("month %d should be zero", i+1)
		}
	}
}

func TestSummarizeFilters(t *testing.T) {
	records := []Expense{
		{Category: "A", Amount: eur(10), Month: 1, Year: 2025},
		{Category: "A", Amount: eur(20), Month: 2, Year: 2025},
		{Category: "B", Amount: eur(40), Month: 3, Year: 2025},
		{Category: "A", Amount: eur(80), Month: 1, Year: 2024},
		{Category: "C", Amount: eur(160), Month: 0, Year: 2025},
	}

	s := Summarize(records, 2025, NewMonthSet(1, 3))
	if s.Total != eur(50) || s.Count != 2 {
		t.Fatalf("total=%v count=%d", s.Total, s.Count)
	}
	if s.ByMonth[1].Cents != 0 {
		t.Fatalf("february was not selected")
	}

	all := Summarize(records, 2025, 0)
	if all.Total != eur(70) {
		t.Fatalf("empty month set should include every month, got %v", all.Total)
	}

	var sum int64
	for _, m := range all.ByMonth {
		sum += m.Cents
	}
	if sum != all.Total.Cents {
		t.Fatalf("monthly series %d does not add up to total %d", sum, all.Total.Cents)
	}
}

func TestSummarizePercentAndTies(t *testing.T) {
	records := []Income{
		{Source: "b", Amount: eur(25), Month: 5, Year: 2025},
		{Source: "a", Amount: eur(25), Month: 5, Year: 2025},
		{Source: "c", Amount: eur(50), Month: 6, Year: 2025},
	}
	s := Summarize(records, 2025, AllMonths)
	if s.ByCategory[0].Name != "c" || s.ByCategory[1].Name != "a" || s.ByCategory[2].Name != "b" {
		t.Fatalf("unexpected order: %+v", s.ByCategory)
	}
	if s.ByCategory[0].Percent != 50 || s.ByCategory[1].Percent != 25 {
		t.Fatalf("unexpected percentages: %+v", s.ByCategory)
	}
}

func TestBuildOverview(t *testing.T) {
	expenses := []Expense{{Category: "Loyer", Amount: eur(750), Month: 4, Year: 2025}}
	incomes := []Income{{Source: "Salaire", Amount: eur(3000), Month: 4, Year: 2025}}

	o := BuildOverview(expenses, incomes, 2025, NewMonthSet(4))
	if o.Balance != eur(2250) {
		t.Fatalf("balance = %v", o.Balance)
	}
	if o.SavingsRate != 75 {
		t.Fatalf("savings rate = %v", o.SavingsRate)
	}
	if mb := o.MonthlyBalance(); mb[3] != eur(2250) {
		t.Fatalf("april balance = %v", mb[3])
	}

	noIncome := BuildOverview(expenses, nil, 2025, 0)
	if noIncome.SavingsRate != 0 || noIncome.Balance != eur(-750) {
		t.Fatalf("unexpected overview without income: %+v", noIncome)
	}
}
