package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/tabular"
)

var userMessages = []struct {
	err error
	msg string
}{
	{core.ErrInvalidAmount, "Montant invalide : saisissez un nombre positif"},
	{core.ErrInvalidMonth, "Mois invalide"},
	{core.ErrInvalidYear, "Année invalide"},
	{core.ErrInvalidFrequency, "Fréquence invalide"},
	{core.ErrInvalidTheme, "Thème invalide"},
	{core.ErrEmptyName, "Le nom ne peut pas être vide"},
	{core.ErrProtectedEntry, "« " + core.OtherEntry + " » ne peut pas être supprimé"},
	{core.ErrDuplicateEntry, "Cette entrée existe déjà"},
	{core.ErrUnknownEntry, "Cette entrée n'existe pas"},
	{core.ErrTooFewUsers, "Il faut au moins deux utilisateurs"},
	{core.ErrImageTooLarge, "Image trop volumineuse (2 Mo maximum)"},
	{core.ErrImageType, "Format d'image non pris en charge"},
	{tabular.ErrUnsupportedFormat, "Format de fichier non pris en charge (xlsx ou csv)"},
	{tabular.ErrEmptyFile, "Le fichier est vide"},
	{tabular.ErrMissingColumn, "Colonnes obligatoires manquantes"},
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err), errors.Is(err, errBadUpload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the French text shown for err.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "Élément introuvable"
	case http.StatusServiceUnavailable:
		return "La base de données est indisponible, réessayez plus tard"
	case http.StatusInternalServerError:
		return "Erreur interne"
	}

	var msgs []string
	for _, um := range userMessages {
		if errors.Is(err, um.err) {
			msgs = append(msgs, um.msg)
		}
	}
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			msgs = append(msgs, fe.Message)
		}
	}
	if len(msgs) == 0 && errors.Is(err, errBadUpload) {
		return "Fichier illisible"
	}
	if len(msgs) == 0 {
		return "Données invalides"
	}
	return strings.Join(msgs, " ; ")
}

func errorType(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusServiceUnavailable:
		return log.ErrorTypeUnavailable
	default:
		return log.ErrorTypeInternal
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// fail reports err to the client: a fragment plus an error toast for HTMX
// requests, the error page otherwise.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := userMessage(err)
	logger := log.FromContext(r.Context())
	if status == http.StatusUnprocessableEntity || status == http.StatusNotFound {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldError, err, log.FieldErrorType, errorType(status))
	} else {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err, log.FieldErrorType, errorType(status))
	}

	if isHTMX(r) {
		errorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.render(w, r, status, "error.html", page{
		Session: sessionFrom(r),
		Title:   "Erreur",
		Data:    errorView{Status: status, Message: msg},
	})
}

type errorView struct {
	Status  int
	Message string
}

// done acknowledges a successful mutation. HTMX requests get a toast and a
// page refresh; plain form posts are redirected.
func (s *Server) done(w http.ResponseWriter, r *http.Request, message, redirect string) {
	if !isHTMX(r) {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	successResponse(message).Write(w)
}

// recordDone is done for expense and income mutations. HTMX clients also
// learn which period changed.
func (s *Server) recordDone(w http.ResponseWriter, r *http.Request, message, kind string, year int, month core.Month) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/budget", http.StatusSeeOther)
		return
	}
	successResponse(message).TriggerRecordsChanged(kind, year, int(month)).Write(w)
}

func successResponse(message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		TriggerFormReset().
		TriggerFeedChanged().
		TriggerSuccessNotification(message).
		TriggerPageRefresh()
}

// errorResponse picks the error body for status as computed by statusFor.
func errorResponse(status int, msg string) *HTMXResponseBuilder {
	switch status {
	case http.StatusBadRequest:
		return BadRequestError(msg)
	case http.StatusNotFound:
		return NotFoundError(msg)
	case http.StatusUnprocessableEntity:
		return UnprocessableEntityError(msg)
	case http.StatusServiceUnavailable:
		return ServiceUnavailableError(msg)
	case http.StatusInternalServerError:
		return InternalServerError(msg)
	}
	return ErrorResponse(status, msg)
}

// page is the data every full-page template receives.
type page struct {
	Session *Session
	Title   string
	Active  string
	Data    interface{}
}

// render executes a template into a buffer so that a failing template never
// produces a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldErrorType, log.ErrorTypeInternal)
		http.Error(w, "Erreur d'affichage", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
