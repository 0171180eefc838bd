// Package tabular reads spreadsheet uploads (XLSX, CSV) into records and
// writes yearly workbooks.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptyFile         = errors.New("file has no header row")
)

// Table is a header row plus data rows. Data rows keep their position so
// errors can cite spreadsheet row numbers.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one data row; Line is the 1-based row number in the source file.
type Row struct {
	Line  int
	Cells []string
}

// Read dispatches on the file extension of name.
func Read(name string, r io.Reader) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv", ".txt":
		return ReadCSV(r)
	default:
		return Table{}, fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	}
}

// ReadXLSX reads the first sheet. Cells are read raw so numbers keep their
// stored precision regardless of display format.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.Rows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var t Table
	line := 0
	for rows.Next() {
		line++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return Table{}, fmt.Errorf("row %d: %w", line, err)
		}
		t.add(line, cols)
	}
	if err := rows.Error(); err != nil {
		return Table{}, fmt.Errorf("read rows: %w", err)
	}
	if t.Header == nil {
		return Table{}, ErrEmptyFile
	}
	return t, nil
}

// ReadCSV accepts comma or semicolon separated files, with or without a
// UTF-8 byte order mark.
func ReadCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	first, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		cr.Comma = ';'
	}

	var t Table
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv: %w", err)
		}
		// csv skips empty lines, so ask the reader where the record began.
		line, _ := cr.FieldPos(0)
		t.add(line, rec)
	}
	if t.Header == nil {
		return Table{}, ErrEmptyFile
	}
	return t, nil
}

func (t *Table) add(line int, cells []string) {
	blank := true
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
		if cells[i] != "" {
			blank = false
		}
	}
	if blank {
		return
	}
	if t.Header == nil {
		t.Header = cells
		return
	}
	t.Rows = append(t.Rows, Row{Line: line, Cells: cells})
}

var headerFolder = strings.NewReplacer("é", "e", "è", "e", "ê", "e", "É", "e", "û", "u", "ô", "o", "à", "a", "_", " ", "-", " ")

func foldHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "\"", "")))
	return strings.Join(strings.Fields(headerFolder.Replace(s)), " ")
}

// Column returns the index of the first header matching one of aliases
// (case and accents ignored), or -1.
func (t Table) Column(aliases ...string) int {
	for _, alias := range aliases {
		want := foldHeader(alias)
		for i, h := range t.Header {
			if foldHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

// Cell returns the cell at idx, empty when idx is -1 or past the row end.
func (r Row) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}
