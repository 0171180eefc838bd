package core

import (
	"strconv"
	"strings"
)

// Month is a calendar month, 1 (January) through 12 (December).
type Month int

var monthNames = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

var monthShortNames = [12]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Juin",
	"Juil", "Août", "Sep", "Oct", "Nov", "Déc",
}

var englishMonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var accentFolder = strings.NewReplacer("é", "e", "è", "e", "ê", "e", "û", "u", "ô", "o", "à", "a", ".", "")

// monthLookup maps every accepted spelling (lowercase, accents folded) to its month.
var monthLookup = func() map[string]Month {
	m := make(map[string]Month, 60)
	for i := 0; i < 12; i++ {
		month := Month(i + 1)
		for _, name := range []string{monthNames[i], monthShortNames[i], englishMonthNames[i], englishMonthNames[i][:3]} {
			m[foldMonth(name)] = month
		}
	}
	m["fevr"] = 2
	m["sept"] = 9
	return m
}()

func foldMonth(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseMonth accepts a French, short French or English month name (any case,
// accents optional) or an ordinal 1-12.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMonth
	}
	if n, err := strconv.Atoi(s); err == nil {
		m := Month(n)
		if !m.Valid() {
			return 0, ErrInvalidMonth
		}
		return m, nil
	}
	if m, ok := monthLookup[foldMonth(s)]; ok {
		return m, nil
	}
	return 0, ErrInvalidMonth
}

func (m Month) Valid() bool { return m >= 1 && m <= 12 }

// String returns the French month name.
func (m Month) String() string {
	if !m.Valid() {
		return "Mois(" + strconv.Itoa(int(m)) + ")"
	}
	return monthNames[m-1]
}

// Short returns the abbreviated French month name used on chart axes.
func (m Month) Short() string {
	if !m.Valid() {
		return strconv.Itoa(int(m))
	}
	return monthShortNames[m-1]
}

// AllMonthsList returns January through December.
func AllMonthsList() []Month {
	out := make([]Month, 12)
	for i := range out {
		out[i] = Month(i + 1)
	}
	return out
}

// MonthSet is a set of months stored as a bitmask. The empty set selects
// every month.
type MonthSet uint16

const AllMonths MonthSet = 1<<12 - 1

func NewMonthSet(months ...Month) MonthSet {
	var s MonthSet
	for _, m := range months {
		if m.Valid() {
			s |= 1 << (m - 1)
		}
	}
	return s
}

// ParseMonthSet parses every value with ParseMonth. Blank values are ignored.
func ParseMonthSet(values []string) (MonthSet, error) {
	var s MonthSet
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			m, err := ParseMonth(part)
			if err != nil {
				return 0, err
			}
			s |= 1 << (m - 1)
		}
	}
	return s, nil
}

func (s MonthSet) Contains(m Month) bool {
	if !m.Valid() {
		return false
	}
	return s&AllMonths == 0 || s&(1<<(m-1)) != 0
}

// Selected reports whether m was explicitly selected.
func (s MonthSet) Selected(m Month) bool {
	return m.Valid() && s&(1<<(m-1)) != 0
}

// IsAll reports whether the set selects every month.
func (s MonthSet) IsAll() bool {
	return s&AllMonths == 0 || s&AllMonths == AllMonths
}

// Months returns the selected months in calendar order.
func (s MonthSet) Months() []Month {
	if s.IsAll() {
		return AllMonthsList()
	}
	var out []Month
	for m := Month(1); m <= 12; m++ {
		if s.Selected(m) {
			out = append(out, m)
		}
	}
	return out
}

// Ordinals returns the selected months as integers.
func (s MonthSet) Ordinals() []int {
	months := s.Months()
	out := make([]int, len(months))
	for i, m := range months {
		out[i] = int(m)
	}
	return out
}

func (s MonthSet) String() string {
	if s.IsAll() {
		return "Toute l'année"
	}
	months := s.Months()
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = m.Short()
	}
	return strings.Join(names, ", ")
}
