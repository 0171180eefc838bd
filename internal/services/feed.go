package services

import (
	"context"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// Notifier forwards feed entries to external channels (see package notify).
type Notifier interface {
	Notify(ctx context.Context, n core.Notification) error
}

// feed appends activity entries and forwards them. Failures are logged and
// never fail the action that produced the entry.
type feed struct {
	store    store.NotificationStore
	notifier Notifier
	now      func() time.Time
	logger   *log.Logger
}

func (f *feed) publish(ctx context.Context, module, user, title, message string) {
	n := core.Notification{
		Title:     title,
		Message:   message,
		User:      user,
		Module:    module,
		CreatedAt: f.now(),
	}
	id, err := f.store.AppendNotification(ctx, n)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to append notification", log.FieldError, err, "title", title)
		return
	}
	n.ID = id
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, n); err != nil {
		f.logger.WarnContext(ctx, "Failed to forward notification", log.FieldError, err, "title", title)
	}
}
