package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/store"
)

// taxonomyKinds maps URL segments to the configurable lists.
var taxonomyKinds = map[string]core.TaxonomyKind{
	"categories": core.ExpenseCategories,
	"sources":    core.IncomeSources,
}

type settingsView struct {
	Categories []string
	Sources    []string
	Profiles   []core.UserProfile
	Protected  string
	MinUsers   int
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, sess *Session) {
	ctx := r.Context()
	cats, err := s.settings.Taxonomy(ctx, core.ExpenseCategories)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	srcs, err := s.settings.Taxonomy(ctx, core.IncomeSources)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	profiles, err := s.settings.Profiles(ctx)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "settings.html", page{
		Session: sess,
		Title:   "Paramètres",
		Active:  "settings",
		Data: settingsView{
			Categories: cats,
			Sources:    srcs,
			Profiles:   profiles,
			Protected:  core.OtherEntry,
			MinUsers:   core.MinUsers,
		},
	})
}

func taxonomyKind(r *http.Request) (core.TaxonomyKind, error) {
	kind, ok := taxonomyKinds[r.PathValue("kind")]
	if !ok {
		return "", fmt.Errorf("list %q: %w", r.PathValue("kind"), store.ErrNotFound)
	}
	return kind, nil
}

func (s *Server) handleAddTaxonomyEntry(w http.ResponseWriter, r *http.Request, sess *Session) {
	kind, err := taxonomyKind(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	if _, err := s.settings.AddTaxonomyEntry(r.Context(), sess.User, kind, name); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.done(w, r, fmt.Sprintf("« %s » ajouté", name), "/settings")
}

func (s *Server) handleRemoveTaxonomyEntry(w http.ResponseWriter, r *http.Request, sess *Session) {
	kind, err := taxonomyKind(r)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	if _, err := s.settings.RemoveTaxonomyEntry(r.Context(), sess.User, kind, name); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.done(w, r, fmt.Sprintf("« %s » supprimé", name), "/settings")
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	if err := s.settings.AddUser(r.Context(), sess.User, name); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.done(w, r, fmt.Sprintf("Utilisateur %s ajouté", name), "/settings")
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	name := sanitizeInput(r.PostForm.Get("name"))
	if err := s.settings.RemoveUser(r.Context(), sess.User, name); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.done(w, r, fmt.Sprintf("Utilisateur %s supprimé", name), "/settings")
}

func (s *Server) handleFamilyName(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.settings.SetFamilyName(r.Context(), sess.User, sanitizeInput(r.PostForm.Get("name"))); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.done(w, r, "Nom de famille enregistré", "/settings")
}

// handleUploadAvatar replaces the current user's picture. The content type
// is sniffed from the bytes, not taken from the client.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request, sess *Session) {
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxImageBytes+64<<10)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = core.ErrImageTooLarge
		} else {
			err = fmt.Errorf("%w: %w", errBadUpload, err)
		}
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, core.MaxImageBytes+1))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	if err := s.settings.SetAvatar(r.Context(), sess.User, data, http.DetectContentType(data)); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.done(w, r, "Photo de profil mise à jour", "/settings")
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	mode := core.ThemeMode(r.PostForm.Get("mode"))
	palette := r.PostForm.Get("palette")
	if _, err := s.settings.SaveTheme(r.Context(), sess.User, mode, palette); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.done(w, r, "Thème enregistré", "/settings")
}
