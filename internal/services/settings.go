package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// SettingsDefaults apply until the family edits its configuration.
type SettingsDefaults struct {
	Users      []string
	FamilyName string
}

// SettingsService owns the family configuration, profiles, per-user
// preferences and the activity feed.
type SettingsService struct {
	store    store.Store
	defaults SettingsDefaults
	feed     *feed
	now      func() time.Time
	logger   *log.Logger
}

func NewSettingsService(st store.Store, defaults SettingsDefaults, notifier Notifier, logger *log.Logger) *SettingsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSettings)
	if strings.TrimSpace(defaults.FamilyName) == "" {
		defaults.FamilyName = core.DefaultFamilyName
	}
	s := &SettingsService{store: st, defaults: defaults, now: time.Now, logger: logger}
	s.feed = &feed{store: st, notifier: notifier, now: func() time.Time { return s.now() }, logger: logger}
	return s
}

// loadTaxonomy returns the configured list, or the seed list when the
// document has never been written. The sentinel is always present.
func loadTaxonomy(ctx context.Context, st store.ConfigStore, kind core.TaxonomyKind) ([]string, error) {
	list, found, err := st.GetTaxonomy(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	if !found {
		list = kind.Defaults()
	}
	return core.EnsureSentinel(list), nil
}

func (s *SettingsService) Taxonomy(ctx context.Context, kind core.TaxonomyKind) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown list %q: %w", kind, store.ErrNotFound)
	}
	return loadTaxonomy(ctx, s.store, kind)
}

func taxonomyLabels(kind core.TaxonomyKind) (noun, added, removed string) {
	if kind == core.IncomeSources {
		return "la source", "Source ajoutée", "Source supprimée"
	}
	return "la catégorie", "Catégorie ajoutée", "Catégorie supprimée"
}

// AddTaxonomyEntry appends name before the sentinel and returns the new list.
func (s *SettingsService) AddTaxonomyEntry(ctx context.Context, actor string, kind core.TaxonomyKind, name string) ([]string, error) {
	list, err := s.Taxonomy(ctx, kind)
	if err != nil {
		return nil, err
	}
	list, err = core.AddEntry(list, name)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTaxonomy(ctx, kind, list); err != nil {
		return nil, fmt.Errorf("save %s: %w", kind, err)
	}
	noun, title, _ := taxonomyLabels(kind)
	name = strings.TrimSpace(name)
	s.logger.InfoContext(ctx, "Taxonomy entry added", log.FieldOperation, log.OpCreate, log.FieldGroup, name, "list", string(kind), log.FieldUser, actor)
	s.feed.publish(ctx, core.ModuleSettings, actor, title, fmt.Sprintf("%s a ajouté %s %s", actor, noun, name))
	return list, nil
}

// RemoveTaxonomyEntry deletes name. Records referencing it are left as is.
func (s *SettingsService) RemoveTaxonomyEntry(ctx context.Context, actor string, kind core.TaxonomyKind, name string) ([]string, error) {
	list, err := s.Taxonomy(ctx, kind)
	if err != nil {
		return nil, err
	}
	list, err = core.RemoveEntry(list, name)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveTaxonomy(ctx, kind, list); err != nil {
		return nil, fmt.Errorf("save %s: %w", kind, err)
	}
	noun, _, title := taxonomyLabels(kind)
	name = strings.TrimSpace(name)
	s.logger.InfoContext(ctx, "Taxonomy entry removed", log.FieldOperation, log.OpDelete, log.FieldGroup, name, "list", string(kind), log.FieldUser, actor)
	s.feed.publish(ctx, core.ModuleSettings, actor, title, fmt.Sprintf("%s a supprimé %s %s", actor, noun, name))
	return list, nil
}

// Settings returns the family document with defaults filled in.
func (s *SettingsService) Settings(ctx context.Context) (core.Settings, error) {
	cfg, _, err := s.store.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if len(cfg.Users) == 0 {
		cfg.Users = append([]string(nil), s.defaults.Users...)
	}
	if strings.TrimSpace(cfg.FamilyName) == "" {
		cfg.FamilyName = s.defaults.FamilyName
	}
	return cfg, nil
}

func (s *SettingsService) Users(ctx context.Context) ([]string, error) {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.Users, nil
}

// IsUser reports whether name is a configured user, ignoring case.
func (s *SettingsService) IsUser(ctx context.Context, name string) (bool, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return false, err
	}
	return core.Contains(users, name), nil
}

// AddUser registers name and creates its empty profile.
func (s *SettingsService) AddUser(ctx context.Context, actor, name string) error {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if cfg.Users, err = core.AddUser(cfg.Users, name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := s.ensureProfile(ctx, name); err != nil {
		return err
	}
	if err := s.store.SaveSettings(ctx, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.InfoContext(ctx, "User added", log.FieldOperation, log.OpCreate, "name", name, log.FieldUser, actor)
	s.feed.publish(ctx, core.ModuleSettings, actor, "Utilisateur ajouté", fmt.Sprintf("%s a ajouté l'utilisateur %s", actor, name))
	return nil
}

// RemoveUser drops name and its profile. At least core.MinUsers remain.
func (s *SettingsService) RemoveUser(ctx context.Context, actor, name string) error {
	cfg, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	stored := core.Canonical(cfg.Users, name)
	if cfg.Users, err = core.RemoveUser(cfg.Users, name); err != nil {
		return err
	}
	if err := s.store.SaveSettings(ctx, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	name = stored
	if err := s.store.DeleteProfile(ctx, name); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete profile: %w", err)
	}
	s.logger.InfoContext(ctx, "User removed", log.FieldOperation, log.OpDelete, "name", name, log.FieldUser, actor)
	s.feed.publish(ctx, core.ModuleSettings, actor, "Utilisateur supprimé", fmt.Sprintf("%s a supprimé l'utilisateur %s", actor, name))
	return nil
}

func (s *SettingsService) SetFamilyName(ctx context.Context, actor, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if len(name) > 100 {
		return core.ValidationErrors{{Field: "family_name", Message: "family_name must be a maximum of 100 characters in length"}}
	}
	cfg, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	cfg.FamilyName = name
	if err := s.store.SaveSettings(ctx, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.feed.publish(ctx, core.ModuleSettings, actor, "Nom de famille modifié", fmt.Sprintf("%s a renommé la famille en %s", actor, name))
	return nil
}

// EnsureProfiles creates a profile for every configured user lacking one.
func (s *SettingsService) EnsureProfiles(ctx context.Context) error {
	users, err := s.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := s.ensureProfile(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) ensureProfile(ctx context.Context, name string) error {
	_, err := s.store.GetProfile(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get profile: %w", err)
	}
	if err := s.store.SaveProfile(ctx, core.UserProfile{Name: name}); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Profiles returns one profile per configured user, in configuration order.
// Users without a stored profile get a bare one.
func (s *SettingsService) Profiles(ctx context.Context) ([]core.UserProfile, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	byName := make(map[string]core.UserProfile, len(stored))
	for _, p := range stored {
		byName[strings.ToLower(p.Name)] = p
	}
	out := make([]core.UserProfile, 0, len(users))
	for _, u := range users {
		p, ok := byName[strings.ToLower(u)]
		if !ok {
			p = core.UserProfile{Name: u}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *SettingsService) Profile(ctx context.Context, name string) (core.UserProfile, error) {
	return s.store.GetProfile(ctx, name)
}

// SetAvatar replaces the profile picture of a configured user.
func (s *SettingsService) SetAvatar(ctx context.Context, user string, image []byte, contentType string) error {
	ok, err := s.IsUser(ctx, user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %q: %w", user, store.ErrNotFound)
	}
	p, err := s.store.GetProfile(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		p, err = core.UserProfile{Name: user}, nil
	}
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	p.Image = image
	p.ImageType = contentType
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Avatar updated", log.FieldUser, user, "bytes", len(image))
	return nil
}

// Theme returns the stored theme of user or the default one.
func (s *SettingsService) Theme(ctx context.Context, user string) (core.Theme, error) {
	t, err := s.store.GetTheme(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return core.DefaultTheme(user), nil
	}
	if err != nil {
		return core.Theme{}, fmt.Errorf("get theme: %w", err)
	}
	return t, nil
}

func (s *SettingsService) SaveTheme(ctx context.Context, user string, mode core.ThemeMode, palette string) (core.Theme, error) {
	t := core.Theme{User: user, Mode: mode, Palette: palette}
	if err := t.Validate(); err != nil {
		return core.Theme{}, err
	}
	if err := s.store.SaveTheme(ctx, t); err != nil {
		return core.Theme{}, fmt.Errorf("save theme: %w", err)
	}
	return t, nil
}

// Preferences returns the persisted budget filters of user; found is false
// when none were saved yet.
func (s *SettingsService) Preferences(ctx context.Context, user string) (core.Preferences, bool, error) {
	p, err := s.store.GetPreferences(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return core.Preferences{User: user, Year: s.now().Year()}, false, nil
	}
	if err != nil {
		return core.Preferences{}, false, fmt.Errorf("get preferences: %w", err)
	}
	return p, true, nil
}

func (s *SettingsService) SavePreferences(ctx context.Context, user string, year int, months core.MonthSet) error {
	if year < 1900 || year > 2999 {
		return core.ErrInvalidYear
	}
	p := core.Preferences{User: user, Year: year, Months: months}
	if err := s.store.SavePreferences(ctx, p); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Notifications returns the newest feed entries; limit <= 0 means all.
func (s *SettingsService) Notifications(ctx context.Context, limit int) ([]core.Notification, error) {
	list, err := s.store.ListNotifications(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *SettingsService) MarkNotificationRead(ctx context.Context, id string) error {
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification: %w", err)
	}
	return nil
}

func (s *SettingsService) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("mark notifications: %w", err)
	}
	return nil
}

func (s *SettingsService) UnreadNotifications(ctx context.Context) (int, error) {
	n, err := s.store.CountUnreadNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}
