package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"budget/internal/core"
)

// Collection names.
const (
	colExpenses      = "expenses"
	colRevenues      = "revenues"
	colConfig        = "config"
	colProfiles      = "user_profiles"
	colThemes        = "user_theme_preferences"
	colPreferences   = "user_preferences"
	colNotifications = "notifications"
)

type expenseDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Category    string             `bson:"category"`
	AmountCents int64              `bson:"amount_cents"`
	Frequency   string             `bson:"frequency"`
	Description string             `bson:"description"`
	Month       int                `bson:"month"`
	Year        int                `bson:"year"`
	Author      string             `bson:"author"`
	CreatedAt   time.Time          `bson:"created_at"`
	ModifiedBy  string             `bson:"modified_by,omitempty"`
	ModifiedAt  *time.Time         `bson:"modified_at,omitempty"`
}

type revenueDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Source      string             `bson:"source"`
	AmountCents int64              `bson:"amount_cents"`
	Month       int                `bson:"month"`
	Year        int                `bson:"year"`
	Author      string             `bson:"author"`
	CreatedAt   time.Time          `bson:"created_at"`
	ModifiedBy  string             `bson:"modified_by,omitempty"`
	ModifiedAt  *time.Time         `bson:"modified_at,omitempty"`
}

// configDoc holds either a taxonomy list (Items) or the settings document.
type configDoc struct {
	Key        string    `bson:"_id"`
	Items      []string  `bson:"items,omitempty"`
	Users      []string  `bson:"users,omitempty"`
	FamilyName string    `bson:"family_name,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type profileDoc struct {
	Name      string    `bson:"_id"`
	Image     []byte    `bson:"image,omitempty"`
	ImageType string    `bson:"image_type,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type themeDoc struct {
	User      string    `bson:"_id"`
	Mode      string    `bson:"mode"`
	Palette   string    `bson:"palette"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type preferencesDoc struct {
	User      string    `bson:"_id"`
	Year      int       `bson:"year"`
	Months    []int     `bson:"months"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type notificationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	User      string             `bson:"user"`
	Module    string             `bson:"module"`
	CreatedAt time.Time          `bson:"created_at"`
	Read      bool               `bson:"read"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func fromOptionalTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func toExpenseDoc(e core.Expense) expenseDoc {
	return expenseDoc{
		Category:    e.Category,
		AmountCents: e.Amount.Cents,
		Frequency:   string(e.Frequency),
		Description: e.Description,
		Month:       int(e.Month),
		Year:        e.Year,
		Author:      e.Author,
		CreatedAt:   e.CreatedAt,
		ModifiedBy:  e.ModifiedBy,
		ModifiedAt:  optionalTime(e.ModifiedAt),
	}
}

func (d expenseDoc) toCore() core.Expense {
	return core.Expense{
		ID:          d.ID.Hex(),
		Category:    d.Category,
		Amount:      core.Money{Cents: d.AmountCents},
		Frequency:   core.Frequency(d.Frequency),
		Description: d.Description,
		Month:       core.Month(d.Month),
		Year:        d.Year,
		Author:      d.Author,
		CreatedAt:   d.CreatedAt.UTC(),
		ModifiedBy:  d.ModifiedBy,
		ModifiedAt:  fromOptionalTime(d.ModifiedAt),
	}
}

func toRevenueDoc(in core.Income) revenueDoc {
	return revenueDoc{
		Source:      in.Source,
		AmountCents: in.Amount.Cents,
		Month:       int(in.Month),
		Year:        in.Year,
		Author:      in.Author,
		CreatedAt:   in.CreatedAt,
		ModifiedBy:  in.ModifiedBy,
		ModifiedAt:  optionalTime(in.ModifiedAt),
	}
}

func (d revenueDoc) toCore() core.Income {
	return core.Income{
		ID:         d.ID.Hex(),
		Source:     d.Source,
		Amount:     core.Money{Cents: d.AmountCents},
		Month:      core.Month(d.Month),
		Year:       d.Year,
		Author:     d.Author,
		CreatedAt:  d.CreatedAt.UTC(),
		ModifiedBy: d.ModifiedBy,
		ModifiedAt: fromOptionalTime(d.ModifiedAt),
	}
}

func (d profileDoc) toCore() core.UserProfile {
	return core.UserProfile{
		Name:      d.Name,
		Image:     d.Image,
		ImageType: d.ImageType,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (d notificationDoc) toCore() core.Notification {
	return core.Notification{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Message:   d.Message,
		User:      d.User,
		Module:    d.Module,
		CreatedAt: d.CreatedAt.UTC(),
		Read:      d.Read,
	}
}

// Months are stored as ordinals so the documents stay readable in the shell.
func toPreferencesDoc(p core.Preferences) preferencesDoc {
	months := []int{}
	for m := core.Month(1); m <= 12; m++ {
		if p.Months.Selected(m) {
			months = append(months, int(m))
		}
	}
	return preferencesDoc{User: p.User, Year: p.Year, Months: months, UpdatedAt: p.UpdatedAt}
}

func (d preferencesDoc) toCore() core.Preferences {
	var months []core.Month
	for _, m := range d.Months {
		months = append(months, core.Month(m))
	}
	return core.Preferences{
		User:      d.User,
		Year:      d.Year,
		Months:    core.NewMonthSet(months...),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
