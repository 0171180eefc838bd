// Package notify forwards activity feed entries to external channels.
//
// Delivery is best-effort: the feed stored in the database is the source of
// truth and a failing channel never fails the user action that produced it.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"budget/internal/core"
)

// Sink delivers one notification to an external channel.
type Sink interface {
	Notify(ctx context.Context, n core.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n core.Notification) error

func (f SinkFunc) Notify(ctx context.Context, n core.Notification) error { return f(ctx, n) }

// Named attaches a name used in logs.
type Named struct {
	Name string
	Sink Sink
}

// Dispatcher queues notifications and delivers them to every sink from a
// background goroutine.
type Dispatcher struct {
	sinks   []Named
	queue   chan core.Notification
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *slog.Logger

	// mu guards closed; senders hold it shared so Close cannot close the
	// queue under them.
	mu     sync.RWMutex
	closed bool
}

const (
	defaultQueueSize = 64
	defaultTimeout   = 10 * time.Second
)

func NewDispatcher(sinks ...Named) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan core.Notification, defaultQueueSize),
		timeout: defaultTimeout,
		logger:  slog.Default().With("component", "notify"),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enabled reports whether at least one sink is configured.
func (d *Dispatcher) Enabled() bool { return d != nil && len(d.sinks) > 0 }

// Notify enqueues n. It never blocks: when the queue is full or the
// dispatcher is closed the notification is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, n core.Notification) error {
	if !d.Enabled() {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Dispatcher closed, dropping notification", "title", n.Title)
		return nil
	}
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("Notification queue full, dropping", "title", n.Title)
	}
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n core.Notification) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := s.Sink.Notify(ctx, n); err != nil {
			d.logger.Warn("Notification delivery failed", "sink", s.Name, "title", n.Title, "error", err)
		} else {
			d.logger.Debug("Notification delivered", "sink", s.Name, "title", n.Title)
		}
		cancel()
	}
}

// Close stops accepting notifications and waits for the queue to drain.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
