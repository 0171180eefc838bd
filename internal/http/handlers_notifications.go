package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

const notificationPageSize = 100

type notificationsView struct {
	Items  []core.Notification
	Unread int
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, sess *Session) {
	items, err := s.settings.Notifications(r.Context(), notificationPageSize)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "notifications.html", page{
		Session: sess,
		Title:   "Notifications",
		Active:  "notifications",
		Data:    notificationsView{Items: items, Unread: sess.Unread},
	})
}

// handleUnreadBadge renders the navigation counter polled by HTMX.
func (s *Server) handleUnreadBadge(w http.ResponseWriter, r *http.Request, sess *Session) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, http.StatusOK, "unread_badge", sess.Unread)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.settings.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.done(w, r, "Notification lue", "/notifications")
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.settings.MarkAllNotificationsRead(r.Context()); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.done(w, r, "Toutes les notifications sont lues", "/notifications")
}
