package http

import (
	"fmt"
	"net/http"
	"strconv"

	"budget/internal/core"
	"budget/internal/log"
)

func itoa(v int) string { return strconv.Itoa(v) }

type recordEditView struct {
	Kind       string
	Expense    core.Expense
	Income     core.Income
	Categories []string
	Sources    []string
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	e, err := ParseExpenseForm(r.PostForm, sess.Filter.Year)
	if err == nil {
		e, err = s.budget.AddExpense(r.Context(), sess.User, e)
	}
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.recordDone(w, r, fmt.Sprintf("Dépense de %s ajoutée dans %s", e.Amount, e.Category), "expense", e.Year, e.Month)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request, sess *Session) {
	e, err := s.budget.Expense(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	cats, err := s.settings.Taxonomy(r.Context(), core.ExpenseCategories)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	if !core.Contains(cats, e.Category) {
		cats = append(cats, e.Category)
	}
	s.render(w, r, http.StatusOK, "record_edit.html", page{
		Session: sess,
		Title:   "Modifier la dépense",
		Active:  "budget",
		Data:    recordEditView{Kind: "expense", Expense: e, Categories: cats},
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	e, err := ParseExpenseForm(r.PostForm, sess.Filter.Year)
	if err == nil {
		e, err = s.budget.UpdateExpense(r.Context(), sess.User, r.PathValue("id"), e)
	}
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.recordDone(w, r, "Dépense modifiée", "expense", e.Year, e.Month)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sess *Session) {
	e, err := s.budget.DeleteExpense(r.Context(), sess.User, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.recordDone(w, r, "Dépense supprimée", "expense", e.Year, e.Month)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	in, err := ParseIncomeForm(r.PostForm, sess.Filter.Year)
	if err == nil {
		in, err = s.budget.AddIncome(r.Context(), sess.User, in)
	}
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.recordDone(w, r, fmt.Sprintf("Revenu de %s ajouté (%s)", in.Amount, in.Source), "income", in.Year, in.Month)
}

func (s *Server) handleEditIncome(w http.ResponseWriter, r *http.Request, sess *Session) {
	in, err := s.budget.Income(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	srcs, err := s.settings.Taxonomy(r.Context(), core.IncomeSources)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	if !core.Contains(srcs, in.Source) {
		srcs = append(srcs, in.Source)
	}
	s.render(w, r, http.StatusOK, "record_edit.html", page{
		Session: sess,
		Title:   "Modifier le revenu",
		Active:  "budget",
		Data:    recordEditView{Kind: "income", Income: in, Sources: srcs},
	})
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request, sess *Session) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	in, err := ParseIncomeForm(r.PostForm, sess.Filter.Year)
	if err == nil {
		in, err = s.budget.UpdateIncome(r.Context(), sess.User, r.PathValue("id"), in)
	}
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	s.recordDone(w, r, "Revenu modifié", "income", in.Year, in.Month)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, sess *Session) {
	in, err := s.budget.DeleteIncome(r.Context(), sess.User, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.recordDone(w, r, "Revenu supprimé", "income", in.Year, in.Month)
}
