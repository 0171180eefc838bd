// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/store"
)

// Run exercises s through the store.Store contract. s must be empty.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	tests := map[string]func(t *testing.T, s store.Store){
		"ExpenseRoundTrip":     testExpenseRoundTrip,
		"ExpenseUpdateDelete":  testExpenseUpdateDelete,
		"IncomeCRUD":           testIncomeCRUD,
		"ValidationAtBoundary": testValidationAtBoundary,
		"Config":               testConfig,
		"ProfilesAndThemes":    testProfilesAndThemes,
		"Notifications":        testNotifications,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func sampleExpense() core.Expense {
	return core.Expense{
		Category:    "Loyer",
		Amount:      core.Money{Cents: 80000},
		Frequency:   core.FrequencyMonthly,
		Description: "Appartement",
		Month:       1,
		Year:        2025,
		Author:      "Alice",
		CreatedAt:   time.Unix(1735732800, 0).UTC(),
	}
}

func testExpenseRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	e := sampleExpense()
	id, err := s.CreateExpense(ctx, e)
	if err != nil || id == "" {
		t.Fatalf("create: id=%q err=%v", id, err)
	}

	list, err := s.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(list))
	}
	got := list[0]
	e.ID = id
	got.CreatedAt = got.CreatedAt.UTC()
	if !reflect.DeepEqual(got, e) {
		t.Fatalf("fields not preserved:\n got  %+v\n want %+v", got, e)
	}

	byID, err := s.GetExpense(ctx, id)
	if err != nil || byID.ID != id || byID.Amount != e.Amount {
		t.Fatalf("get: %+v %v", byID, err)
	}
	if _, err := s.GetExpense(ctx, "does-not-exist"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testExpenseUpdateDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.CreateExpense(ctx, sampleExpense())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other := sampleExpense()
	other.Category = "Courses"
	second, err := s.CreateExpense(ctx, other)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := core.Expense{
		Category:   "Eau",
		Amount:     core.Money{Cents: 4200},
		Frequency:  core.FrequencyQuarterly,
		Month:      4,
		Year:       2025,
		ModifiedBy: "Bob",
		ModifiedAt: time.Unix(1743465600, 0).UTC(),
	}
	updated, err := s.UpdateExpense(ctx, first, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "Eau" || updated.Author != "Alice" || updated.Description != "" || updated.ModifiedBy != "Bob" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	stored, _ := s.GetExpense(ctx, first)
	if stored.Amount.Cents != 4200 || stored.Month != 4 || stored.Frequency != core.FrequencyQuarterly {
		t.Fatalf("update not persisted: %+v", stored)
	}
	if _, err := s.UpdateExpense(ctx, "missing", edit); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteExpense(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListExpenses(ctx)
	if len(list) != 1 || list[0].ID != second {
		t.Fatalf("delete must remove exactly one record, left %+v", list)
	}
	if err := s.DeleteExpense(ctx, first); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testIncomeCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	in := core.Income{Source: "Salaire Principal", Amount: core.Money{Cents: 250000}, Month: 2, Year: 2025, Author: "Bob"}
	id, err := s.CreateIncome(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := s.ListIncomes(ctx)
	if err != nil || len(list) != 1 || list[0].Source != in.Source || list[0].Amount != in.Amount {
		t.Fatalf("list: %+v %v", list, err)
	}
	if list[0].CreatedAt.IsZero() {
		t.Fatalf("created_at should be stamped")
	}

	edit := in
	edit.Amount = core.Money{Cents: 260000}
	edit.ModifiedBy = "Alice"
	if _, err := s.UpdateIncome(ctx, id, edit); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetIncome(ctx, id)
	if got.Amount.Cents != 260000 || got.ModifiedBy != "Alice" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if err := s.DeleteIncome(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if list, _ := s.ListIncomes(ctx); len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func testValidationAtBoundary(t *testing.T, s store.Store) {
	ctx := context.Background()
	bad := sampleExpense()
	bad.Amount = core.Money{}
	if _, err := s.CreateExpense(ctx, bad); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.CreateIncome(ctx, core.Income{Amount: core.Money{Cents: 1}, Month: 1, Year: 2025, Author: "A"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for empty source, got %v", err)
	}
	if list, _ := s.ListExpenses(ctx); len(list) != 0 {
		t.Fatalf("invalid record reached storage: %+v", list)
	}

	id, _ := s.CreateExpense(ctx, sampleExpense())
	edit := sampleExpense()
	edit.Month = 13
	if _, err := s.UpdateExpense(ctx, id, edit); !core.IsValidation(err) {
		t.Fatalf("expected validation error on update, got %v", err)
	}
}

func testConfig(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, found, err := s.GetTaxonomy(ctx, core.ExpenseCategories); err != nil || found {
		t.Fatalf("fresh store should have no taxonomy: found=%v err=%v", found, err)
	}
	want := []string{"Loyer", "Eau", "Autre"}
	if err := s.SaveTaxonomy(ctx, core.ExpenseCategories, want); err != nil {
		t.Fatalf("save taxonomy: %v", err)
	}
	got, found, err := s.GetTaxonomy(ctx, core.ExpenseCategories)
	if err != nil || !found || !reflect.DeepEqual(got, want) {
		t.Fatalf("taxonomy = %v found=%v err=%v", got, found, err)
	}
	if _, found, _ := s.GetTaxonomy(ctx, core.IncomeSources); found {
		t.Fatalf("sources are a separate document")
	}

	if _, found, _ := s.GetSettings(ctx); found {
		t.Fatalf("fresh store should have no settings")
	}
	settings := core.Settings{Users: []string{"Alice", "Bob"}, FamilyName: "Famille Test"}
	if err := s.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	gotSettings, found, err := s.GetSettings(ctx)
	if err != nil || !found || !reflect.DeepEqual(gotSettings, settings) {
		t.Fatalf("settings = %+v found=%v err=%v", gotSettings, found, err)
	}
}

func testProfilesAndThemes(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.GetProfile(ctx, "Alice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p := core.UserProfile{Name: "Alice", Image: []byte{0x89, 'P', 'N', 'G'}, ImageType: "image/png"}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	got, err := s.GetProfile(ctx, "Alice")
	if err != nil || !reflect.DeepEqual(got.Image, p.Image) || got.ImageType != "image/png" {
		t.Fatalf("profile = %+v err=%v", got, err)
	}
	if err := s.SaveProfile(ctx, core.UserProfile{Name: "Bob"}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if list, _ := s.ListProfiles(ctx); len(list) != 2 {
		t.Fatalf("expected two profiles, got %d", len(list))
	}

	theme := core.Theme{User: "Alice", Mode: core.ThemeLight, Palette: "Vert"}
	if err := s.SaveTheme(ctx, theme); err != nil {
		t.Fatalf("save theme: %v", err)
	}
	gotTheme, err := s.GetTheme(ctx, "Alice")
	if err != nil || gotTheme.Mode != core.ThemeLight || gotTheme.Palette != "Vert" {
		t.Fatalf("theme = %+v err=%v", gotTheme, err)
	}
	if err := s.SaveTheme(ctx, core.Theme{User: "Alice", Mode: "sepia", Palette: "Vert"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	prefs := core.Preferences{User: "Alice", Year: 2024, Months: core.NewMonthSet(1, 2)}
	if err := s.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("save preferences: %v", err)
	}
	gotPrefs, err := s.GetPreferences(ctx, "Alice")
	if err != nil || gotPrefs.Year != 2024 || gotPrefs.Months != prefs.Months {
		t.Fatalf("preferences = %+v err=%v", gotPrefs, err)
	}

	if err := s.DeleteProfile(ctx, "Alice"); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	if _, err := s.GetProfile(ctx, "Alice"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("profile should be gone, got %v", err)
	}
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Unix(1735732800, 0).UTC()
	var ids []string
	for i, title := range []string{"first", "second", "third"} {
		id, err := s.AppendNotification(ctx, core.Notification{
			Title:     title,
			Message:   "m",
			User:      "Alice",
			Module:    core.ModuleBudget,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, id)
	}

	list, err := s.ListNotifications(ctx, 2)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %+v %v", list, err)
	}
	if list[0].Title != "third" || list[1].Title != "second" {
		t.Fatalf("expected newest first, got %s, %s", list[0].Title, list[1].Title)
	}

	if n, _ := s.CountUnreadNotifications(ctx); n != 3 {
		t.Fatalf("unread = %d", n)
	}
	if err := s.MarkNotificationRead(ctx, ids[0]); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := s.CountUnreadNotifications(ctx); n != 2 {
		t.Fatalf("unread after mark = %d", n)
	}
	if err := s.MarkNotificationRead(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n, _ := s.CountUnreadNotifications(ctx); n != 0 {
		t.Fatalf("unread after mark all = %d", n)
	}
}
