// Package http serves the budget web interface: server-rendered pages
// enhanced with HTMX, plus a small JSON API and health probes.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
	appweb "budget/web"
)

// Pinger reports whether the data store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Budget             *services.BudgetService
	Settings           *services.SettingsService
	Store              Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	budget    *services.BudgetService
	settings  *services.SettingsService
	store     Pinger
	logger    *log.Logger
	now       func() time.Time
	started   time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"euros":       func(m core.Money) string { return m.String() },
	"percent":     formatPercent,
	"months":      core.AllMonthsList,
	"frequencies": core.Frequencies,
	"palettes":    core.Palettes,
	"pathEscape":  url.PathEscape,
	"dict":        dict,
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02/01/2006 15:04")
	},
}

// dict builds a map from alternating keys and values so that partials can
// take several arguments.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// parseTemplates loads every page and partial from the embedded file system.
func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes, templates and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Budget == nil || deps.Settings == nil {
		return nil, errors.New("http server needs the budget and settings services")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: tmpl,
		budget:    deps.Budget,
		settings:  deps.Settings,
		store:     deps.Store,
		logger:    logger,
		now:       time.Now,
		started:   time.Now(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = log.Middleware(logger, trace.GetRequestID)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.page(s.handleHome))
	mux.HandleFunc("POST /profile", s.page(s.handleSelectProfile))
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /avatars/{name}", s.handleAvatar)

	mux.HandleFunc("GET /budget", s.member(s.handleBudget))
	mux.HandleFunc("POST /expenses", s.member(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}/edit", s.member(s.handleEditExpense))
	mux.HandleFunc("POST /expenses/{id}", s.member(s.handleUpdateExpense))
	mux.HandleFunc("POST /expenses/{id}/delete", s.member(s.handleDeleteExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.member(s.handleDeleteExpense))
	mux.HandleFunc("POST /incomes", s.member(s.handleCreateIncome))
	mux.HandleFunc("GET /incomes/{id}/edit", s.member(s.handleEditIncome))
	mux.HandleFunc("POST /incomes/{id}", s.member(s.handleUpdateIncome))
	mux.HandleFunc("POST /incomes/{id}/delete", s.member(s.handleDeleteIncome))
	mux.HandleFunc("DELETE /incomes/{id}", s.member(s.handleDeleteIncome))

	mux.HandleFunc("POST /import", s.member(s.handleImport))
	mux.HandleFunc("GET /export", s.member(s.handleExport))
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	mux.HandleFunc("GET /settings", s.member(s.handleSettings))
	mux.HandleFunc("POST /settings/taxonomy/{kind}", s.member(s.handleAddTaxonomyEntry))
	mux.HandleFunc("POST /settings/taxonomy/{kind}/delete", s.member(s.handleRemoveTaxonomyEntry))
	mux.HandleFunc("POST /settings/users", s.member(s.handleAddUser))
	mux.HandleFunc("POST /settings/users/delete", s.member(s.handleRemoveUser))
	mux.HandleFunc("POST /settings/family", s.member(s.handleFamilyName))
	mux.HandleFunc("POST /settings/avatar", s.member(s.handleUploadAvatar))
	mux.HandleFunc("POST /settings/theme", s.member(s.handleTheme))

	mux.HandleFunc("GET /notifications", s.member(s.handleNotifications))
	mux.HandleFunc("GET /notifications/unread", s.member(s.handleUnreadBadge))
	mux.HandleFunc("POST /notifications/read-all", s.member(s.handleMarkAllRead))
	mux.HandleFunc("POST /notifications/{id}/read", s.member(s.handleMarkRead))
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	msg := "Trop de requêtes, réessayez dans une minute"
	ErrorResponse(http.StatusTooManyRequests, msg).TriggerErrorNotification(msg).Write(w)
}

// Shutdown stops the background limiter cleanup and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
