package core

import (
	"strings"
	"time"
)

type (
	// Expense is one spending occurrence.
	Expense struct {
		ID          string    `json:"id"`
		Category    string    `json:"category" validate:"required,max=100"`
		Amount      Money     `json:"amount" validate:"gt=0"`
		Frequency   Frequency `json:"frequency" validate:"oneof=one-off weekly monthly quarterly annual"`
		Description string    `json:"description" validate:"max=500"`
		Month       Month     `json:"month" validate:"min=1,max=12"`
		Year        int       `json:"year" validate:"min=1900,max=2999"`
		Author      string    `json:"author" validate:"required,max=100"`
		CreatedAt   time.Time `json:"created_at"`
		ModifiedBy  string    `json:"modified_by,omitempty" validate:"max=100"`
		ModifiedAt  time.Time `json:"modified_at,omitempty"`
	}

	// Income is one revenue occurrence; Source plays the category role.
	Income struct {
		ID         string    `json:"id"`
		Source     string    `json:"source" validate:"required,max=100"`
		Amount     Money     `json:"amount" validate:"gt=0"`
		Month      Month     `json:"month" validate:"min=1,max=12"`
		Year       int       `json:"year" validate:"min=1900,max=2999"`
		Author     string    `json:"author" validate:"required,max=100"`
		CreatedAt  time.Time `json:"created_at"`
		ModifiedBy string    `json:"modified_by,omitempty" validate:"max=100"`
		ModifiedAt time.Time `json:"modified_at,omitempty"`
	}
)

// Normalize trims free-text fields and fills the default frequency.
func (e Expense) Normalize() Expense {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	e.Author = strings.TrimSpace(e.Author)
	e.ModifiedBy = strings.TrimSpace(e.ModifiedBy)
	if e.Frequency == "" {
		e.Frequency = FrequencyOneOff
	}
	return e
}

func (e Expense) Validate() error {
	return validateStruct(e.Normalize())
}

// ApplyEdit overwrites every user-editable field of e with the values in edit
// and stamps the modification. Identity, author and creation time are kept.
func (e Expense) ApplyEdit(edit Expense) Expense {
	edit = edit.Normalize()
	e.Category = edit.Category
	e.Amount = edit.Amount
	e.Frequency = edit.Frequency
	e.Description = edit.Description
	e.Month = edit.Month
	e.Year = edit.Year
	e.ModifiedBy = edit.ModifiedBy
	e.ModifiedAt = edit.ModifiedAt
	return e
}

func (e Expense) EntryPeriod() (int, Month) { return e.Year, e.Month }
func (e Expense) EntryAmount() Money        { return e.Amount }
func (e Expense) EntryGroup() string        { return e.Category }

func (i Income) Normalize() Income {
	i.Source = strings.TrimSpace(i.Source)
	i.Author = strings.TrimSpace(i.Author)
	i.ModifiedBy = strings.TrimSpace(i.ModifiedBy)
	return i
}

func (i Income) Validate() error {
	return validateStruct(i.Normalize())
}

// ApplyEdit mirrors Expense.ApplyEdit.
func (i Income) ApplyEdit(edit Income) Income {
	edit = edit.Normalize()
	i.Source = edit.Source
	i.Amount = edit.Amount
	i.Month = edit.Month
	i.Year = edit.Year
	i.ModifiedBy = edit.ModifiedBy
	i.ModifiedAt = edit.ModifiedAt
	return i
}

func (i Income) EntryPeriod() (int, Month) { return i.Year, i.Month }
func (i Income) EntryAmount() Money        { return i.Amount }
func (i Income) EntryGroup() string        { return i.Source }
