package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady pings the data store; the service is not ready while it is
// unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.store == nil {
		checks["store"] = "not_configured"
	} else if err := s.store.Ping(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	limits := s.limiter.GetMetrics()
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": limits.ClientCount,
		"rejected":       limits.TotalHits,
	}
	checks["requests"] = map[string]interface{}{
		"total":      s.tracer.GetMetrics().TotalRequests,
		"suspicious": s.detector.GetMetrics().SuspiciousRequests,
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type homeView struct {
	Profiles []core.UserProfile
}

// handleHome is the profile picker.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, sess *Session) {
	profiles, err := s.settings.Profiles(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", page{
		Session: sess,
		Title:   "Qui êtes-vous ?",
		Active:  "home",
		Data:    homeView{Profiles: profiles},
	})
}

func (s *Server) handleSelectProfile(w http.ResponseWriter, r *http.Request, _ *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("user"))
	users, err := s.settings.Users(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	for _, u := range users {
		if strings.EqualFold(u, name) {
			setProfileCookie(w, u)
			log.FromContext(r.Context()).InfoContext(r.Context(), "Profile selected", log.FieldUser, u)
			http.Redirect(w, r, "/budget", http.StatusSeeOther)
			return
		}
	}
	s.fail(w, r, log.OpRead, store.ErrNotFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearProfileCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleAvatar serves a profile picture.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	p, err := s.settings.Profile(r.Context(), r.PathValue("name"))
	if err == nil && !p.HasImage() {
		err = store.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, r, log.OpRead, err)
		return
	}
	w.Header().Set("Content-Type", p.ImageType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Image)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(p.Image)
}
