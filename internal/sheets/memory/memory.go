// Package memory is an in-process spreadsheet used when no Google
// spreadsheet is configured, and by tests.
package memory

import (
	"context"
	"sync"
)

type Workbook struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]interface{}
}

func New() *Workbook {
	return &Workbook{sheets: make(map[string][][]interface{})}
}

func (w *Workbook) EnsureSheets(_ context.Context, titles ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range titles {
		if _, ok := w.sheets[t]; ok {
			continue
		}
		w.sheets[t] = nil
		w.order = append(w.order, t)
	}
	return nil
}

// WriteSheet replaces a tab, creating it when missing.
func (w *Workbook) WriteSheet(_ context.Context, title string, rows [][]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sheets[title]; !ok {
		w.order = append(w.order, title)
	}
	cp := make([][]interface{}, len(rows))
	for i, r := range rows {
		cp[i] = append([]interface{}(nil), r...)
	}
	w.sheets[title] = cp
	return nil
}

// Sheet returns a copy of tab title.
func (w *Workbook) Sheet(title string) ([][]interface{}, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.sheets[title]
	return append([][]interface{}(nil), rows...), ok
}

// Titles lists tabs in creation order.
func (w *Workbook) Titles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}
