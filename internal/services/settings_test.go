package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/store"
	"budget/internal/store/memory"
)

func newSettings(t *testing.T) (*SettingsService, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	n := &recordingNotifier{}
	svc := NewSettingsService(st, SettingsDefaults{Users: []string{"Alice", "Bob"}}, n, quietLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, st, n
}

func TestTaxonomySeedsDefaults(t *testing.T) {
	svc, _, _ := newSettings(t)
	cats, err := svc.Taxonomy(context.Background(), core.ExpenseCategories)
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	if len(cats) != len(core.DefaultExpenseCategories) || cats[len(cats)-1] != core.OtherEntry {
		t.Fatalf("unexpected seed list %v", cats)
	}
	if _, err := svc.Taxonomy(context.Background(), "colours"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown list, got %v", err)
	}
}

func TestTaxonomyAddRemove(t *testing.T) {
	svc, _, n := newSettings(t)
	ctx := context.Background()

	srcs, err := svc.AddTaxonomyEntry(ctx, "Alice", core.IncomeSources, "  Loyers perçus ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if srcs[len(srcs)-2] != "Loyers perçus" || srcs[len(srcs)-1] != core.OtherEntry {
		t.Fatalf("sentinel must stay last: %v", srcs)
	}
	if _, err := svc.AddTaxonomyEntry(ctx, "Alice", core.IncomeSources, "loyers PERÇUS"); !errors.Is(err, core.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	tests := []struct {
		name    string
		entry   string
		wantErr error
	}{
		{"sentinel", "Autre", core.ErrProtectedEntry},
		{"english sentinel", "other", core.ErrProtectedEntry},
		{"unknown", "Loto", core.ErrUnknownEntry},
		{"known", "Primes", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RemoveTaxonomyEntry(ctx, "Bob", core.IncomeSources, tt.entry)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil && !core.IsValidation(err) {
				t.Fatalf("%v must be a validation error", err)
			}
		})
	}

	srcs, _ = svc.Taxonomy(ctx, core.IncomeSources)
	if core.Contains(srcs, "Primes") {
		t.Fatalf("Primes must be removed: %v", srcs)
	}
	if got := strings.Join(n.titles(), ","); got != "Source ajoutée,Source supprimée" {
		t.Fatalf("unexpected notifications %s", got)
	}
}

func TestUsersLifecycle(t *testing.T) {
	svc, st, _ := newSettings(t)
	ctx := context.Background()

	cfg, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if strings.Join(cfg.Users, ",") != "Alice,Bob" || cfg.FamilyName != core.DefaultFamilyName {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	if err := svc.AddUser(ctx, "Alice", "Chloé"); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if _, err := st.GetProfile(ctx, "Chloé"); err != nil {
		t.Fatalf("adding a user must create its profile: %v", err)
	}
	if err := svc.AddUser(ctx, "Alice", "chloé"); !errors.Is(err, core.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	if err := svc.RemoveUser(ctx, "Alice", " chloé "); err != nil {
		t.Fatalf("remove user: %v", err)
	}
	if cfg, _ := svc.Settings(ctx); strings.Join(cfg.Users, ",") != "Alice,Bob" {
		t.Fatalf("users after removal = %v", cfg.Users)
	}
	if _, err := st.GetProfile(ctx, "Chloé"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("profile must be removed with the user, got %v", err)
	}
	if err := svc.RemoveUser(ctx, "Alice", "Bob"); !errors.Is(err, core.ErrTooFewUsers) {
		t.Fatalf("expected ErrTooFewUsers, got %v", err)
	}
}

func TestFamilyName(t *testing.T) {
	svc, _, n := newSettings(t)
	ctx := context.Background()

	if err := svc.SetFamilyName(ctx, "Alice", "   "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := svc.SetFamilyName(ctx, "Alice", strings.Repeat("x", 101)); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.SetFamilyName(ctx, "Alice", " Martin "); err != nil {
		t.Fatalf("set: %v", err)
	}
	cfg, _ := svc.Settings(ctx)
	if cfg.FamilyName != "Martin" || strings.Join(cfg.Users, ",") != "Alice,Bob" {
		t.Fatalf("unexpected settings %+v", cfg)
	}
	if got := n.titles(); len(got) != 1 || got[0] != "Nom de famille modifié" {
		t.Fatalf("unexpected notifications %v", got)
	}
}

func TestProfilesFollowUserOrder(t *testing.T) {
	svc, _, _ := newSettings(t)
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\n")
	if err := svc.SetAvatar(ctx, "Bob", png, "image/png"); err != nil {
		t.Fatalf("avatar: %v", err)
	}
	if err := svc.SetAvatar(ctx, "Eve", png, "image/png"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown users have no avatar, got %v", err)
	}
	if err := svc.SetAvatar(ctx, "Bob", png, "text/plain"); !errors.Is(err, core.ErrImageType) {
		t.Fatalf("expected ErrImageType, got %v", err)
	}

	profiles, err := svc.Profiles(ctx)
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "Alice" || profiles[0].HasImage() || !profiles[1].HasImage() {
		t.Fatalf("unexpected profiles %+v", profiles)
	}
}

func TestThemeAndPreferencesDefaults(t *testing.T) {
	svc, _, n := newSettings(t)
	ctx := context.Background()

	theme, err := svc.Theme(ctx, "Alice")
	if err != nil || theme != core.DefaultTheme("Alice") {
		t.Fatalf("expected default theme, got %+v (%v)", theme, err)
	}
	if _, err := svc.SaveTheme(ctx, "Alice", core.ThemeLight, "Magenta"); !errors.Is(err, core.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	if _, err := svc.SaveTheme(ctx, "Alice", core.ThemeLight, "Vert"); err != nil {
		t.Fatalf("save theme: %v", err)
	}
	theme, _ = svc.Theme(ctx, "Alice")
	if theme.Mode != core.ThemeLight || theme.Palette != "Vert" {
		t.Fatalf("theme not saved: %+v", theme)
	}

	prefs, found, err := svc.Preferences(ctx, "Alice")
	if err != nil || found || prefs.Year != 2025 || !prefs.Months.IsAll() {
		t.Fatalf("unexpected default preferences %+v found=%v err=%v", prefs, found, err)
	}
	if err := svc.SavePreferences(ctx, "Alice", 2024, core.NewMonthSet(1, 2)); err != nil {
		t.Fatalf("save preferences: %v", err)
	}
	prefs, found, _ = svc.Preferences(ctx, "Alice")
	if !found || prefs.Year != 2024 || prefs.Months.Selected(3) {
		t.Fatalf("preferences not saved: %+v", prefs)
	}
	if len(n.titles()) != 0 {
		t.Fatalf("personal settings must not notify")
	}
}

func TestNotificationFeed(t *testing.T) {
	svc, st, _ := newSettings(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		st.AppendNotification(ctx, core.Notification{Title: title, User: "Alice", Module: core.ModuleBudget})
	}

	list, err := svc.Notifications(ctx, 2)
	if err != nil || len(list) != 2 || list[0].Title != "c" {
		t.Fatalf("unexpected feed %+v (%v)", list, err)
	}
	if err := svc.MarkNotificationRead(ctx, list[0].ID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if n, _ := svc.UnreadNotifications(ctx); n != 2 {
		t.Fatalf("expected 2 unread, got %d", n)
	}
	if err := svc.MarkNotificationRead(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n, _ := svc.UnreadNotifications(ctx); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
}
