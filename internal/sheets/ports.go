// Package sheets mirrors the yearly budget into a spreadsheet, one tab per
// record kind plus a monthly summary.
package sheets

import "context"

// Writer is the outbound port implemented by spreadsheet backends.
type Writer interface {
	// EnsureSheets creates the missing tabs among titles.
	EnsureSheets(ctx context.Context, titles ...string) error
	// WriteSheet replaces the whole content of tab title with rows.
	WriteSheet(ctx context.Context, title string, rows [][]interface{}) error
}
