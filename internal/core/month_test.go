package core

import "testing"

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"Janvier", 1, true},
		{"janvier", 1, true},
		{"Jan", 1, true},
		{"January", 1, true},
		{"Février", 2, true},
		{"Fevrier", 2, true},
		{"Fév.", 2, true},
		{"Août", 8, true},
		{"aout", 8, true},
		{"Décembre", 12, true},
		{"12", 12, true},
		{" 3 ", 3, true},
		{"0", 0, false},
		{"13", 0, false},
		{"Brumaire", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseMonth(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseMonth(%q) expected error", tc.in)
		}
	}
}

func TestMonthSet(t *testing.T) {
	var empty MonthSet
	for m := Month(1); m <= 12; m++ {
		if !empty.Contains(m) {
			t.Fatalf("empty set should contain %v", m)
		}
	}
	if !empty.IsAll() || len(empty.Months()) != 12 {
		t.Fatalf("empty set should select all months")
	}

	s := NewMonthSet(1, 3, 3, 13)
	if !s.Contains(1) || !s.Contains(3) || s.Contains(2) {
		t.Fatalf("unexpected membership for %v", s.Months())
	}
	if got := s.Ordinals(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Ordinals() = %v", got)
	}
	if s.Contains(0) || s.Contains(13) {
		t.Fatalf("invalid months must never be contained")
	}
	if got := s.String(); got != "Jan, Mar" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseMonthSet(t *testing.T) {
	s, err := ParseMonthSet([]string{"Jan,2", "", "Mars"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != NewMonthSet(1, 2, 3) {
		t.Fatalf("got %v", s.Months())
	}
	if _, err := ParseMonthSet([]string{"nope"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"":            FrequencyOneOff,
		"Unique":      FrequencyOneOff,
		"Mensuel":     FrequencyMonthly,
		"monthly":     FrequencyMonthly,
		"Trimestriel": FrequencyQuarterly,
		"Annuel":      FrequencyAnnual,
		"weekly":      FrequencyWeekly,
	}
	for in, want := range cases {
		got, err := ParseFrequency(in)
		if err != nil || got != want {
			t.Fatalf("ParseFrequency(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFrequency("daily"); err == nil {
		t.Fatalf("expected error for unknown frequency")
	}
	if FrequencyQuarterly.Label() != "Trimestriel" {
		t.Fatalf("unexpected label %q", FrequencyQuarterly.Label())
	}
}
