package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/store/memory"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []core.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n core.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Title
	}
	return out
}

// countingStore counts full scans so cache behaviour can be observed.
type countingStore struct {
	*memory.Store
	mu    sync.Mutex
	scans int
}

func (c *countingStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	c.mu.Lock()
	c.scans++
	c.mu.Unlock()
	return c.Store.ListExpenses(ctx)
}

func (c *countingStore) scanCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scans
}

type downStore struct {
	*memory.Store
}

func (downStore) ListExpenses(context.Context) ([]core.Expense, error) {
	return nil, store.Unavailable("list expenses", errors.New("connection refused"))
}

func (downStore) CreateExpense(context.Context, core.Expense) (string, error) {
	return "", store.Unavailable("create expense", errors.New("connection refused"))
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

var fixedNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

// gateStore holds the first income scan until release is closed, leaving
// room for a write between the two list calls of Records.
type gateStore struct {
	*memory.Store
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func newGateStore() *gateStore {
	return &gateStore{Store: memory.New(), paused: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateStore) ListIncomes(ctx context.Context) ([]core.Income, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.paused)
		<-g.release
	}
	return g.Store.ListIncomes(ctx)
}

// flakyStore accepts failAfter expense creations, then reports the store
// as unavailable.
type flakyStore struct {
	*memory.Store
	mu        sync.Mutex
	failAfter int
	created   int
}

func (f *flakyStore) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created >= f.failAfter {
		return "", store.Unavailable("create expense", errors.New("connection reset"))
	}
	f.created++
	return f.Store.CreateExpense(ctx, e)
}
