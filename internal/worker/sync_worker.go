package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// RecordSource is the read side of the budget service.
type RecordSource interface {
	Years(ctx context.Context) ([]int, error)
	Records(ctx context.Context, year int) (services.YearRecords, error)
}

// Exporter mirrors one year of records (see sheets.Exporter).
type Exporter interface {
	Export(ctx context.Context, year int, expenses []core.Expense, incomes []core.Income) error
}

// Forwarder delivers feed entries to the family chat (see notify.Telegram).
type Forwarder interface {
	Notify(ctx context.Context, n core.Notification) error
}

// SyncWorker consumes feed events. Every event is forwarded to the chat;
// budget events also mark the spreadsheet mirror stale, and the mirror is
// rewritten on the next tick.
type SyncWorker struct {
	records   RecordSource
	exporter  Exporter
	forwarder Forwarder
	logger    *log.Logger

	mu    sync.Mutex
	dirty bool
}

// NewSyncWorker wires the worker. exporter and forwarder may be nil.
func NewSyncWorker(records RecordSource, exporter Exporter, forwarder Forwarder, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		records:   records,
		exporter:  exporter,
		forwarder: forwarder,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleNotification processes one feed event from AMQP. Chat delivery
// failures are logged and not retried so a broken bot cannot wedge the queue.
func (w *SyncWorker) HandleNotification(ctx context.Context, ev *amqp.NotificationEvent) error {
	if ev == nil {
		return errors.New("nil notification event")
	}
	w.logger.InfoContext(ctx, "Processing notification event",
		"id", ev.ID,
		"module", ev.Module,
		log.FieldUser, ev.User)

	if w.forwarder != nil {
		if err := w.forwarder.Notify(ctx, ev.Notification()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "Failed to forward notification", "id", ev.ID, log.FieldError, err)
		}
	}

	if ev.Module == core.ModuleBudget {
		w.markDirty()
	}
	return nil
}

func (w *SyncWorker) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

// Dirty reports whether the mirror is waiting for a rewrite.
func (w *SyncWorker) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// ProcessPending rewrites the mirror when budget events arrived since the
// last successful sync.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()
	if !dirty {
		return nil
	}
	if err := w.SyncAll(ctx); err != nil {
		w.markDirty()
		return err
	}
	return nil
}

// StartupSyncCheck rewrites the mirror once so that events missed while the
// worker was down are reflected.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.exporter == nil {
		w.logger.InfoContext(ctx, "No spreadsheet configured, skipping startup sync")
		return nil
	}
	return w.SyncAll(ctx)
}

// SyncAll exports every year holding records.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}
	years, err := w.records.Years(ctx)
	if err != nil {
		return fmt.Errorf("list years: %w", err)
	}

	start := time.Now()
	synced, failed := 0, 0
	var firstErr error
	for _, year := range years {
		if err := w.SyncYear(ctx, year); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Spreadsheet sync completed",
		"total", len(years),
		"synced", synced,
		"errors", failed,
		log.FieldDuration, time.Since(start).Milliseconds())
	return firstErr
}

// SyncYear exports the records of one year.
func (w *SyncWorker) SyncYear(ctx context.Context, year int) error {
	if w.exporter == nil {
		return nil
	}
	recs, err := w.records.Records(ctx, year)
	if err == nil {
		err = w.exporter.Export(ctx, year, recs.Expenses, recs.Incomes)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to sync year", log.FieldYear, year, log.FieldError, err)
		return fmt.Errorf("sync %d: %w", year, err)
	}
	return nil
}

// Run calls ProcessPending every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}
