package core

import (
	"fmt"
	"strings"
	"time"
)

// OtherEntry is the catch-all category and source. It is always present and
// can never be removed.
const OtherEntry = "Autre"

// MinUsers is the smallest number of users a family can have.
const MinUsers = 2

// TaxonomyKind names one of the two configurable lists.
type TaxonomyKind string

const (
	ExpenseCategories TaxonomyKind = "expense_categories"
	IncomeSources     TaxonomyKind = "revenue_sources"
)

func (k TaxonomyKind) Valid() bool {
	return k == ExpenseCategories || k == IncomeSources
}

// Defaults returns the seed list for k.
func (k TaxonomyKind) Defaults() []string {
	switch k {
	case ExpenseCategories:
		return append([]string(nil), DefaultExpenseCategories...)
	case IncomeSources:
		return append([]string(nil), DefaultIncomeSources...)
	}
	return nil
}

// IsProtected reports whether name is the sentinel entry, in French or English.
func IsProtected(name string) bool {
	n := strings.TrimSpace(name)
	return strings.EqualFold(n, OtherEntry) || strings.EqualFold(n, "Other")
}

// AddEntry appends name to list, keeping the sentinel last. Names are trimmed
// and compared case-insensitively.
func AddEntry(list []string, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list, ErrEmptyName
	}
	if len(name) > 100 {
		return list, ValidationErrors{{Field: "name", Message: "name must be a maximum of 100 characters in length"}}
	}
	if indexOf(list, name) >= 0 || (IsProtected(name) && hasSentinel(list)) {
		return list, fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	out := make([]string, 0, len(list)+1)
	sentinel := -1
	for i, v := range list {
		if IsProtected(v) {
			sentinel = i
			continue
		}
		out = append(out, v)
	}
	out = append(out, name)
	if sentinel >= 0 {
		out = append(out, list[sentinel])
	}
	return out, nil
}

// RemoveEntry deletes name from list. The sentinel is refused.
func RemoveEntry(list []string, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if IsProtected(name) {
		return list, fmt.Errorf("%w: %s", ErrProtectedEntry, name)
	}
	idx := indexOf(list, name)
	if idx < 0 {
		return list, fmt.Errorf("%w: %s", ErrUnknownEntry, name)
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:idx]...)
	return append(out, list[idx+1:]...), nil
}

func hasSentinel(list []string) bool {
	for _, v := range list {
		if IsProtected(v) {
			return true
		}
	}
	return false
}

// EnsureSentinel returns list with OtherEntry appended when missing.
func EnsureSentinel(list []string) []string {
	if hasSentinel(list) {
		return list
	}
	return append(append([]string(nil), list...), OtherEntry)
}

// Contains reports whether name is in list, ignoring case.
func Contains(list []string, name string) bool {
	return indexOf(list, name) >= 0
}

// AddUser appends a user name.
func AddUser(users []string, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return users, ErrEmptyName
	}
	if indexOf(users, name) >= 0 {
		return users, fmt.Errorf("%w: %s", ErrDuplicateEntry, name)
	}
	return append(append([]string(nil), users...), name), nil
}

// RemoveUser deletes a user name, refusing to go below MinUsers.
func RemoveUser(users []string, name string) ([]string, error) {
	idx := indexOf(users, strings.TrimSpace(name))
	if idx < 0 {
		return users, fmt.Errorf("%w: %s", ErrUnknownEntry, name)
	}
	if len(users) <= MinUsers {
		return users, ErrTooFewUsers
	}
	out := make([]string, 0, len(users)-1)
	out = append(out, users[:idx]...)
	return append(out, users[idx+1:]...), nil
}

// Canonical returns the stored spelling of name in list, or "" when absent.
func Canonical(list []string, name string) string {
	if i := indexOf(list, name); i >= 0 {
		return strings.TrimSpace(list[i])
	}
	return ""
}

func indexOf(list []string, name string) int {
	name = strings.TrimSpace(name)
	for i, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return i
		}
	}
	return -1
}

// Settings is the family-wide configuration document.
type Settings struct {
	Users      []string `json:"users"`
	FamilyName string   `json:"family_name"`
}

// UserProfile is a named identity without credentials. The name is the key.
type UserProfile struct {
	Name      string    `json:"name" validate:"required,max=100"`
	Image     []byte    `json:"-"`
	ImageType string    `json:"image_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxImageBytes bounds profile pictures.
const MaxImageBytes = 2 << 20

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

func (p UserProfile) HasImage() bool { return len(p.Image) > 0 }

func (p UserProfile) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if len(p.Image) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if p.HasImage() && !imageTypes[p.ImageType] {
		return fmt.Errorf("%w: %s", ErrImageType, p.ImageType)
	}
	return nil
}

// Initials returns up to two upper-case initials for avatar placeholders.
func (p UserProfile) Initials() string {
	var out []rune
	for _, word := range strings.Fields(p.Name) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

// Preferences are the per-user persisted budget filters.
type Preferences struct {
	User      string    `json:"user"`
	Year      int       `json:"year"`
	Months    MonthSet  `json:"months"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification modules.
const (
	ModuleBudget   = "budget"
	ModuleSettings = "parametres"
)

// Notification is an entry of the family activity feed.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	User      string    `json:"user"`
	Module    string    `json:"module"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}
