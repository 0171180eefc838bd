package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// YearRecords are every expense and income of one year, the unit cached in
// front of the store.
type YearRecords struct {
	Year     int            `json:"year"`
	Expenses []core.Expense `json:"expenses"`
	Incomes  []core.Income  `json:"incomes"`
}

// Dashboard is everything the budget page renders for a year and month set.
type Dashboard struct {
	Overview core.Overview
	// Evolution covers the whole year regardless of the month filter.
	Evolution core.Overview
	Expenses  []core.Expense
	Incomes   []core.Income
}

// BudgetService owns the expense and income use cases.
type BudgetService struct {
	store  store.Store
	cache  cache.Cache[YearRecords]
	feed   *feed
	now    func() time.Time
	logger *log.Logger
	events *log.StructuredLogger

	// gens counts invalidations per year. A scan that overlaps one must
	// not leave its snapshot in the cache.
	genMu sync.Mutex
	gens  map[int]uint64
}

// NewBudgetService wires the record use cases. cache and notifier may be nil.
func NewBudgetService(st store.Store, c cache.Cache[YearRecords], notifier Notifier, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBudget)
	s := &BudgetService{
		store:  st,
		cache:  c,
		now:    time.Now,
		logger: logger,
		events: log.NewStructuredLogger(logger),
		gens:   map[int]uint64{},
	}
	s.feed = &feed{store: st, notifier: notifier, now: func() time.Time { return s.now() }, logger: logger}
	return s
}

func cacheKey(year int) string { return strconv.Itoa(year) }

func (s *BudgetService) generation(year int) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[year]
}

func (s *BudgetService) invalidate(ctx context.Context, years ...int) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(years))
	s.genMu.Lock()
	for _, y := range years {
		s.gens[y]++
		keys = append(keys, cacheKey(y))
	}
	s.genMu.Unlock()
	s.cache.Delete(ctx, keys...)
}

// fill stores recs unless year was invalidated since gen was read. The
// check runs after Set so an invalidation racing the write still wins.
func (s *BudgetService) fill(ctx context.Context, year int, gen uint64, recs YearRecords) {
	if s.generation(year) != gen {
		return
	}
	s.cache.Set(ctx, cacheKey(year), recs)
	if s.generation(year) != gen {
		s.cache.Delete(ctx, cacheKey(year))
	}
}

// Records returns every record of year, served from the cache when possible.
func (s *BudgetService) Records(ctx context.Context, year int) (YearRecords, error) {
	var gen uint64
	if s.cache != nil {
		if recs, ok := s.cache.Get(ctx, cacheKey(year)); ok {
			return recs, nil
		}
		gen = s.generation(year)
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return YearRecords{}, fmt.Errorf("list expenses: %w", err)
	}
	incomes, err := s.store.ListIncomes(ctx)
	if err != nil {
		return YearRecords{}, fmt.Errorf("list incomes: %w", err)
	}
	recs := YearRecords{Year: year}
	for _, e := range expenses {
		if e.Year == year {
			recs.Expenses = append(recs.Expenses, e)
		}
	}
	for _, in := range incomes {
		if in.Year == year {
			recs.Incomes = append(recs.Incomes, in)
		}
	}
	if s.cache != nil {
		s.fill(ctx, year, gen, recs)
	}
	return recs, nil
}

// Dashboard computes the budget page for year and months. Lists are newest
// period first.
func (s *BudgetService) Dashboard(ctx context.Context, year int, months core.MonthSet) (Dashboard, error) {
	recs, err := s.Records(ctx, year)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		Overview:  core.BuildOverview(recs.Expenses, recs.Incomes, year, months),
		Evolution: core.BuildOverview(recs.Expenses, recs.Incomes, year, core.AllMonths),
	}
	for _, e := range recs.Expenses {
		if months.Contains(e.Month) {
			d.Expenses = append(d.Expenses, e)
		}
	}
	for _, in := range recs.Incomes {
		if months.Contains(in.Month) {
			d.Incomes = append(d.Incomes, in)
		}
	}
	sort.SliceStable(d.Expenses, func(i, j int) bool {
		return newer(d.Expenses[i].Month, d.Expenses[i].CreatedAt, d.Expenses[j].Month, d.Expenses[j].CreatedAt)
	})
	sort.SliceStable(d.Incomes, func(i, j int) bool {
		return newer(d.Incomes[i].Month, d.Incomes[i].CreatedAt, d.Incomes[j].Month, d.Incomes[j].CreatedAt)
	})
	return d, nil
}

func newer(m1 core.Month, t1 time.Time, m2 core.Month, t2 time.Time) bool {
	if m1 != m2 {
		return m1 > m2
	}
	return t1.After(t2)
}

// Overview is the JSON-friendly summary of year and months.
func (s *BudgetService) Overview(ctx context.Context, year int, months core.MonthSet) (core.Overview, error) {
	recs, err := s.Records(ctx, year)
	if err != nil {
		return core.Overview{}, err
	}
	return core.BuildOverview(recs.Expenses, recs.Incomes, year, months), nil
}

// Years lists the years holding at least one record plus the current year,
// most recent first.
func (s *BudgetService) Years(ctx context.Context) ([]int, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	incomes, err := s.store.ListIncomes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	seen := map[int]bool{s.now().Year(): true}
	for _, e := range expenses {
		seen[e.Year] = true
	}
	for _, in := range incomes {
		seen[in.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (s *BudgetService) Expense(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *BudgetService) Income(ctx context.Context, id string) (core.Income, error) {
	return s.store.GetIncome(ctx, id)
}

// AddExpense stores e authored by actor.
func (s *BudgetService) AddExpense(ctx context.Context, actor string, e core.Expense) (core.Expense, error) {
	e.ID = ""
	e.Author = actor
	e.CreatedAt = s.now()
	e.ModifiedBy, e.ModifiedAt = "", time.Time{}
	e = e.Normalize()
	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID = id
	s.invalidate(ctx, e.Year)
	s.events.LogRecordMutation(ctx, log.OpCreate, "expense", id, e.Category, e.Amount.Cents, int(e.Month), e.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Dépense ajoutée",
		fmt.Sprintf("%s a ajouté %s dans %s pour %s %d", actor, e.Amount, e.Category, e.Month, e.Year))
	return e, nil
}

// UpdateExpense overwrites the editable fields of expense id.
func (s *BudgetService) UpdateExpense(ctx context.Context, actor, id string, edit core.Expense) (core.Expense, error) {
	before, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	edit.ModifiedBy = actor
	edit.ModifiedAt = s.now()
	updated, err := s.store.UpdateExpense(ctx, id, edit)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.invalidate(ctx, before.Year, updated.Year)
	s.events.LogRecordMutation(ctx, log.OpUpdate, "expense", id, updated.Category, updated.Amount.Cents, int(updated.Month), updated.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Dépense modifiée",
		fmt.Sprintf("%s a modifié une dépense de %s dans %s", actor, updated.Amount, updated.Category))
	return updated, nil
}

// DeleteExpense removes one expense and returns it as it was.
func (s *BudgetService) DeleteExpense(ctx context.Context, actor, id string) (core.Expense, error) {
	before, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	s.invalidate(ctx, before.Year)
	s.events.LogRecordMutation(ctx, log.OpDelete, "expense", id, before.Category, before.Amount.Cents, int(before.Month), before.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Dépense supprimée",
		fmt.Sprintf("%s a supprimé une dépense de %s dans %s", actor, before.Amount, before.Category))
	return before, nil
}

func (s *BudgetService) AddIncome(ctx context.Context, actor string, in core.Income) (core.Income, error) {
	in.ID = ""
	in.Author = actor
	in.CreatedAt = s.now()
	in.ModifiedBy, in.ModifiedAt = "", time.Time{}
	in = in.Normalize()
	id, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	in.ID = id
	s.invalidate(ctx, in.Year)
	s.events.LogRecordMutation(ctx, log.OpCreate, "income", id, in.Source, in.Amount.Cents, int(in.Month), in.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Revenu ajouté",
		fmt.Sprintf("%s a ajouté %s de %s pour %s %d", actor, in.Amount, in.Source, in.Month, in.Year))
	return in, nil
}

func (s *BudgetService) UpdateIncome(ctx context.Context, actor, id string, edit core.Income) (core.Income, error) {
	before, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	edit.ModifiedBy = actor
	edit.ModifiedAt = s.now()
	updated, err := s.store.UpdateIncome(ctx, id, edit)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	s.invalidate(ctx, before.Year, updated.Year)
	s.events.LogRecordMutation(ctx, log.OpUpdate, "income", id, updated.Source, updated.Amount.Cents, int(updated.Month), updated.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Revenu modifié",
		fmt.Sprintf("%s a modifié un revenu de %s de %s", actor, updated.Amount, updated.Source))
	return updated, nil
}

// DeleteIncome removes one income and returns it as it was.
func (s *BudgetService) DeleteIncome(ctx context.Context, actor, id string) (core.Income, error) {
	before, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return core.Income{}, fmt.Errorf("delete income: %w", err)
	}
	s.invalidate(ctx, before.Year)
	s.events.LogRecordMutation(ctx, log.OpDelete, "income", id, before.Source, before.Amount.Cents, int(before.Month), before.Year, actor)
	s.feed.publish(ctx, core.ModuleBudget, actor, "Revenu supprimé",
		fmt.Sprintf("%s a supprimé un revenu de %s de %s", actor, before.Amount, before.Source))
	return before, nil
}
