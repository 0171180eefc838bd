package mongostore

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"budget/internal/core"
	"budget/internal/store"
)

func TestExpenseDocumentRoundTrip(t *testing.T) {
	e := core.Expense{
		Category:    "Loyer",
		Amount:      core.Money{Cents: 80000},
		Frequency:   core.FrequencyMonthly,
		Description: "Appartement",
		Month:       3,
		Year:        2025,
		Author:      "Alice",
		CreatedAt:   time.Unix(1735732800, 0).UTC(),
	}
	doc := toExpenseDoc(e)
	if doc.ModifiedAt != nil {
		t.Fatalf("zero modification time must be omitted")
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded expenseDoc
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := decoded.toCore()
	got.ID = ""
	if !reflect.DeepEqual(got, e) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, e)
	}
}

func TestPreferencesKeepEmptySelection(t *testing.T) {
	for _, set := range []core.MonthSet{0, core.NewMonthSet(1, 12)} {
		doc := toPreferencesDoc(core.Preferences{User: "Alice", Year: 2025, Months: set})
		if got := doc.toCore().Months; got != set {
			t.Fatalf("months %v became %v", set, got)
		}
	}
}

func TestClassify(t *testing.T) {
	if err := classify("find", mongo.ErrNoDocuments); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no documents should map to ErrNotFound, got %v", err)
	}
	if err := classify("find", fmt.Errorf("server selection timeout")); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("driver failures should map to ErrUnavailable, got %v", err)
	}
	if classify("find", nil) != nil {
		t.Fatalf("nil stays nil")
	}
}

func TestObjectIDRejectsForeignIDs(t *testing.T) {
	if _, err := objectID("42"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
