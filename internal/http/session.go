package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

const profileCookie = "budget_profile"

// Session is the per-request view of who is browsing and with which
// display settings. It is rebuilt from the profile cookie, the stored
// preferences and the query string on every request.
type Session struct {
	User       string
	Profile    core.UserProfile
	Theme      core.Theme
	FamilyName string
	Filter     BudgetFilter
	// ShowAdd is "expense" or "income" when the add form should be open.
	ShowAdd string
	Unread  int
}

func (s *Session) LoggedIn() bool { return s != nil && s.User != "" }

// Palette exposes the theme colours to templates.
func (s *Session) Palette() core.Palette { return s.Theme.Colors() }

type sessionKey struct{}

func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFrom returns the request session, or an anonymous one.
func sessionFrom(r *http.Request) *Session {
	if sess, ok := r.Context().Value(sessionKey{}).(*Session); ok {
		return sess
	}
	return &Session{Theme: core.DefaultTheme(""), FamilyName: core.DefaultFamilyName, Filter: BudgetFilter{Year: time.Now().Year()}}
}

func cookieUser(r *http.Request) string {
	c, err := r.Cookie(profileCookie)
	if err != nil {
		return ""
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

func setProfileCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     profileCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearProfileCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: profileCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// loadSession resolves the profile cookie against the configured users and
// loads that user's theme and budget filters. An unknown or removed user
// yields an anonymous session.
func (s *Server) loadSession(r *http.Request) (*Session, error) {
	ctx := r.Context()
	cfg, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		FamilyName: cfg.FamilyName,
		Theme:      core.DefaultTheme(""),
		Filter:     BudgetFilter{Year: s.now().Year()},
	}

	if name := cookieUser(r); name != "" {
		for _, u := range cfg.Users {
			if strings.EqualFold(u, name) {
				sess.User = u
				break
			}
		}
	}

	if sess.LoggedIn() {
		if sess.Theme, err = s.settings.Theme(ctx, sess.User); err != nil {
			return nil, err
		}
		if sess.Profile, err = s.settings.Profile(ctx, sess.User); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if sess.Profile.Name == "" {
			sess.Profile.Name = sess.User
		}
		prefs, found, err := s.settings.Preferences(ctx, sess.User)
		if err != nil {
			return nil, err
		}
		if found {
			sess.Filter = BudgetFilter{Year: prefs.Year, Months: prefs.Months}
		}
		if sess.Unread, err = s.settings.UnreadNotifications(ctx); err != nil {
			return nil, err
		}
	}

	sess.Filter = ParseBudgetFilter(r.URL.Query(), sess.Filter)
	switch add := r.URL.Query().Get("add"); add {
	case "expense", "income":
		sess.ShowAdd = add
	}
	return sess, nil
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

// page loads the session and serves h whether or not a profile is selected.
func (s *Server) page(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.loadSession(r)
		if err != nil {
			s.fail(w, r, log.OpRead, err)
			return
		}
		r = r.WithContext(withSession(log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUser, sess.User)), sess))
		h(w, r, sess)
	}
}

// member is page for routes that need a selected profile; anonymous
// visitors are sent to the profile picker.
func (s *Server) member(h sessionHandler) http.HandlerFunc {
	return s.page(func(w http.ResponseWriter, r *http.Request, sess *Session) {
		if !sess.LoggedIn() {
			if isHTMX(r) {
				NewHTMXResponse().Header("HX-Redirect", "/").Status(http.StatusUnauthorized).Write(w)
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h(w, r, sess)
	})
}
