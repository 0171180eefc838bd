// Package memory is a process-local Store, used for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu            sync.Mutex
	expenses      []core.Expense
	incomes       []core.Income
	taxonomies    map[core.TaxonomyKind][]string
	settings      *core.Settings
	profiles      map[string]core.UserProfile
	themes        map[string]core.Theme
	preferences   map[string]core.Preferences
	notifications []core.Notification
	now           func() time.Time
}

func New() *Store {
	return &Store{
		taxonomies:  make(map[core.TaxonomyKind][]string),
		profiles:    make(map[string]core.UserProfile),
		themes:      make(map[string]core.Theme),
		preferences: make(map[string]core.Preferences),
		now:         time.Now,
	}
}

// NewFromFiles seeds the taxonomy lists from seed_categories.txt and
// seed_sources.txt under base, one entry per line. Missing files are ignored.
func NewFromFiles(base string) *Store {
	s := New()
	if cats := readLines(filepath.Join(base, "seed_categories.txt")); len(cats) > 0 {
		s.taxonomies[core.ExpenseCategories] = core.EnsureSentinel(cats)
	}
	if srcs := readLines(filepath.Join(base, "seed_sources.txt")); len(srcs) > 0 {
		s.taxonomies[core.IncomeSources] = core.EnsureSentinel(srcs)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (string, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) ListExpenses(context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...), nil
}

func (s *Store) UpdateExpense(_ context.Context, id string, edit core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID != id {
			continue
		}
		updated := e.ApplyEdit(edit)
		if err := updated.Validate(); err != nil {
			return core.Expense{}, err
		}
		s.expenses[i] = updated
		return updated, nil
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (string, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	s.incomes = append(s.incomes, in)
	return in.ID, nil
}

func (s *Store) GetIncome(_ context.Context, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.incomes {
		if in.ID == id {
			return in, nil
		}
	}
	return core.Income{}, store.ErrNotFound
}

func (s *Store) ListIncomes(context.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Income(nil), s.incomes...), nil
}

func (s *Store) UpdateIncome(_ context.Context, id string, edit core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.incomes {
		if in.ID != id {
			continue
		}
		updated := in.ApplyEdit(edit)
		if err := updated.Validate(); err != nil {
			return core.Income{}, err
		}
		s.incomes[i] = updated
		return updated, nil
	}
	return core.Income{}, store.ErrNotFound
}

func (s *Store) DeleteIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.incomes {
		if in.ID == id {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) GetTaxonomy(_ context.Context, kind core.TaxonomyKind) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.taxonomies[kind]
	return append([]string(nil), list...), ok, nil
}

func (s *Store) SaveTaxonomy(_ context.Context, kind core.TaxonomyKind, list []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taxonomies[kind] = append([]string(nil), list...)
	return nil
}

func (s *Store) GetSettings(context.Context) (core.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.Settings{}, false, nil
	}
	out := *s.settings
	out.Users = append([]string(nil), out.Users...)
	return out, true, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.Users = append([]string(nil), settings.Users...)
	s.settings = &settings
	return nil
}

func (s *Store) GetProfile(_ context.Context, name string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[name]
	if !ok {
		return core.UserProfile{}, store.ErrNotFound
	}
	p.Image = append([]byte(nil), p.Image...)
	return p, nil
}

func (s *Store) ListProfiles(context.Context) ([]core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p.Image = append([]byte(nil), p.Image...)
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.profiles[p.Name]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = prev.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = s.now()
	p.Image = append([]byte(nil), p.Image...)
	s.profiles[p.Name] = p
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return store.ErrNotFound
	}
	delete(s.profiles, name)
	delete(s.themes, name)
	delete(s.preferences, name)
	return nil
}

func (s *Store) GetTheme(_ context.Context, user string) (core.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.themes[user]
	if !ok {
		return core.Theme{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) SaveTheme(_ context.Context, t core.Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.UpdatedAt = s.now()
	s.themes[t.User] = t
	return nil
}

func (s *Store) GetPreferences(_ context.Context, user string) (core.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.preferences[user]
	if !ok {
		return core.Preferences{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) SavePreferences(_ context.Context, p core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.now()
	s.preferences[p.User] = p
	return nil
}

func (s *Store) AppendNotification(_ context.Context, n core.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, n)
	return n.ID, nil
}

func (s *Store) ListNotifications(_ context.Context, limit int) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Notification, 0, len(s.notifications))
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.notifications[i])
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	return nil
}

func (s *Store) CountUnreadNotifications(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, x := range s.notifications {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe preserves input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
