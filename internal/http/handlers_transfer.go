package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
)

const maxUploadBytes = 10 << 20

// errBadUpload marks import failures caused by the file itself.
var errBadUpload = errors.New("unreadable upload")

type importView struct {
	Report services.ImportReport
	Noun   string
}

// handleImport reads a multipart upload ("file") and imports it as expenses
// or incomes ("kind"). Rows that cannot be imported are listed in the
// returned fragment.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, sess *Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, r, log.OpImport, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, log.OpImport, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	defer file.Close()

	year, err := parseYear(r.MultipartForm.Value, "year", sess.Filter.Year)
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}

	var report services.ImportReport
	noun := "dépenses"
	switch r.FormValue("kind") {
	case "income", "incomes":
		noun = "revenus"
		report, err = s.budget.ImportIncomes(r.Context(), sess.User, header.Filename, file, year)
	default:
		report, err = s.budget.ImportExpenses(r.Context(), sess.User, header.Filename, file, year)
	}
	if err != nil {
		if report.Imported == 0 && !errors.Is(err, store.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", errBadUpload, err)
		}
		s.fail(w, r, log.OpImport, err)
		return
	}

	msg := fmt.Sprintf("%d %s importés", report.Imported, noun)
	if n := len(report.Skipped); n > 0 {
		msg += fmt.Sprintf(", %d lignes ignorées", n)
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/budget", http.StatusSeeOther)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "import_report", importView{Report: report, Noun: noun}); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	resp := NewHTMXResponse().TriggerFeedChanged().BodyHTML(buf.String())
	if len(report.Skipped) > 0 {
		resp.TriggerNotification(NotificationWarning, msg, 5000)
	} else {
		resp.TriggerSuccessNotification(msg)
	}
	resp.Write(w)
}

// handleExport downloads the selected year as an XLSX workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *Session) {
	year, err := parseYear(r.URL.Query(), "year", sess.Filter.Year)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := s.budget.ExportWorkbook(r.Context(), &buf, year); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	family := strings.Join(strings.Fields(strings.ToLower(sess.FamilyName)), "-")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("budget-%s-%d.xlsx", asciiOnly(family), year)))
	_, _ = buf.WriteTo(w)
}

// asciiOnly keeps letters, digits and dashes so the name is a safe header
// value.
func asciiOnly(s string) string {
	out := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if out == "" {
		return "famille"
	}
	return out
}
