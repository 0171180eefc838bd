// Package store defines the persistence ports shared by every data backend.
//
// Backends (memory, sqlite, mongo) validate records before writing them and
// report infrastructure failures wrapped in ErrUnavailable so callers can tell
// them apart from bad input.
package store

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/core"
)

var (
	// ErrNotFound is returned for unknown identifiers.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps connectivity and authentication failures.
	ErrUnavailable = errors.New("data store unavailable")
)

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// Ports implemented by every backend.
type (
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (id string, err error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		// UpdateExpense overwrites the editable fields (see core.Expense.ApplyEdit).
		UpdateExpense(ctx context.Context, id string, edit core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	IncomeStore interface {
		CreateIncome(ctx context.Context, i core.Income) (id string, err error)
		GetIncome(ctx context.Context, id string) (core.Income, error)
		ListIncomes(ctx context.Context) ([]core.Income, error)
		UpdateIncome(ctx context.Context, id string, edit core.Income) (core.Income, error)
		DeleteIncome(ctx context.Context, id string) error
	}

	// ConfigStore persists the singleton configuration documents. Getters
	// report found=false when the document has never been written.
	ConfigStore interface {
		GetTaxonomy(ctx context.Context, kind core.TaxonomyKind) (list []string, found bool, err error)
		SaveTaxonomy(ctx context.Context, kind core.TaxonomyKind, list []string) error
		GetSettings(ctx context.Context) (s core.Settings, found bool, err error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, name string) (core.UserProfile, error)
		ListProfiles(ctx context.Context) ([]core.UserProfile, error)
		SaveProfile(ctx context.Context, p core.UserProfile) error
		DeleteProfile(ctx context.Context, name string) error
	}

	PreferenceStore interface {
		GetTheme(ctx context.Context, user string) (core.Theme, error)
		SaveTheme(ctx context.Context, t core.Theme) error
		GetPreferences(ctx context.Context, user string) (core.Preferences, error)
		SavePreferences(ctx context.Context, p core.Preferences) error
	}

	NotificationStore interface {
		AppendNotification(ctx context.Context, n core.Notification) (id string, err error)
		// ListNotifications returns the newest notifications first.
		ListNotifications(ctx context.Context, limit int) ([]core.Notification, error)
		MarkNotificationRead(ctx context.Context, id string) error
		MarkAllNotificationsRead(ctx context.Context) error
		CountUnreadNotifications(ctx context.Context) (int, error)
	}

	// Store is the single data access interface the application depends on.
	Store interface {
		ExpenseStore
		IncomeStore
		ConfigStore
		ProfileStore
		PreferenceStore
		NotificationStore
		Ping(ctx context.Context) error
		Close() error
	}
)
