package core

import (
	"fmt"
	"time"
)

type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeLight ThemeMode = "light"
)

// Palette is a named pair of accent colours.
type Palette struct {
	Name      string
	Primary   string
	Secondary string
}

var palettes = []Palette{
	{"Violet", "#667eea", "#764ba2"},
	{"Bleu", "#4A90E2", "#2E5C8A"},
	{"Vert", "#48BB78", "#2F855A"},
	{"Rose", "#ED64A6", "#B83280"},
	{"Orange", "#ED8936", "#C05621"},
	{"Rouge", "#F56565", "#C53030"},
	{"Turquoise", "#38B2AC", "#2C7A7B"},
	{"Indigo", "#5A67D8", "#434190"},
}

const DefaultPalette = "Violet"

func Palettes() []Palette {
	return append([]Palette(nil), palettes...)
}

func LookupPalette(name string) (Palette, bool) {
	for _, p := range palettes {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// Theme is a user's display preference.
type Theme struct {
	User      string    `json:"user"`
	Mode      ThemeMode `json:"mode"`
	Palette   string    `json:"palette"`
	UpdatedAt time.Time `json:"updated_at"`
}

func DefaultTheme(user string) Theme {
	return Theme{User: user, Mode: ThemeDark, Palette: DefaultPalette}
}

func (t Theme) Validate() error {
	if t.Mode != ThemeDark && t.Mode != ThemeLight {
		return fmt.Errorf("%w: mode %q", ErrInvalidTheme, t.Mode)
	}
	if _, ok := LookupPalette(t.Palette); !ok {
		return fmt.Errorf("%w: palette %q", ErrInvalidTheme, t.Palette)
	}
	return nil
}

// Colors resolves the palette, falling back to the default one.
func (t Theme) Colors() Palette {
	if p, ok := LookupPalette(t.Palette); ok {
		return p
	}
	p, _ := LookupPalette(DefaultPalette)
	return p
}

func (t Theme) Dark() bool { return t.Mode != ThemeLight }
