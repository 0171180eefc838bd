package core

import "strings"

// Frequency tags how often an expense occurs. It is informational only: a
// monthly record is still exactly one occurrence.
type Frequency string

const (
	FrequencyOneOff    Frequency = "one-off"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

var frequencyLabels = map[Frequency]string{
	FrequencyOneOff:    "Unique",
	FrequencyWeekly:    "Hebdomadaire",
	FrequencyMonthly:   "Mensuel",
	FrequencyQuarterly: "Trimestriel",
	FrequencyAnnual:    "Annuel",
}

var frequencyAliases = map[string]Frequency{
	"one-off":      FrequencyOneOff,
	"oneoff":       FrequencyOneOff,
	"once":         FrequencyOneOff,
	"unique":       FrequencyOneOff,
	"ponctuel":     FrequencyOneOff,
	"weekly":       FrequencyWeekly,
	"hebdomadaire": FrequencyWeekly,
	"monthly":      FrequencyMonthly,
	"mensuel":      FrequencyMonthly,
	"quarterly":    FrequencyQuarterly,
	"trimestriel":  FrequencyQuarterly,
	"annual":       FrequencyAnnual,
	"yearly":       FrequencyAnnual,
	"annuel":       FrequencyAnnual,
}

// Frequencies lists the vocabulary in display order.
func Frequencies() []Frequency {
	return []Frequency{FrequencyOneOff, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual}
}

// ParseFrequency accepts English or French labels. An empty value is one-off.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FrequencyOneOff, nil
	}
	if f, ok := frequencyAliases[s]; ok {
		return f, nil
	}
	return "", ErrInvalidFrequency
}

// Label returns the French display label.
func (f Frequency) Label() string {
	if l, ok := frequencyLabels[f]; ok {
		return l
	}
	return string(f)
}
