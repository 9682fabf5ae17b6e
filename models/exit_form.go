package models

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// ExitForm is the set of open exits of a room template, written as the
// compass letters in N, E, S, W order ("NESW", "NS", "W", ...)
type ExitForm string

// AllExitForms lists every non-empty exit form, four exits first
var AllExitForms = []ExitForm{
	"NESW",
	"NES", "NEW", "NSW", "ESW",
	"NE", "NS", "NW", "ES", "EW", "SW",
	"N", "E", "S", "W",
}

// ParseExitForm normalizes letters in any order and case into a canonical form
func ParseExitForm(s string) (ExitForm, error) {
	seen := mapset.New[Direction]()
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		d := Direction(string(r))
		switch d {
		case North, East, South, West:
			seen.Put(d)
		default:
			return "", fmt.Errorf("invalid exit form %q", s)
		}
	}
	if seen.Size() == 0 {
		return "", fmt.Errorf("exit form %q has no exits", s)
	}
	var b strings.Builder
	for _, d := range Directions {
		if seen.Has(d) {
			b.WriteString(string(d))
		}
	}
	return ExitForm(b.String()), nil
}

// Has reports whether the form opens an exit in direction d
func (f ExitForm) Has(d Direction) bool {
	return d != "" && strings.Contains(string(f), string(d))
}

// Valid reports whether f is one of the canonical exit forms
func (f ExitForm) Valid() bool {
	for _, candidate := range AllExitForms {
		if candidate == f {
			return true
		}
	}
	return false
}

// Exits returns the open directions in canonical order
func (f ExitForm) Exits() []Direction {
	var out []Direction
	for _, d := range Directions {
		if f.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// FormsContaining returns every exit form that opens direction d
func FormsContaining(d Direction) []ExitForm {
	var out []ExitForm
	for _, f := range AllExitForms {
		if f.Has(d) {
			out = append(out, f)
		}
	}
	return out
}

// RandomFormContaining picks a uniformly random exit form that opens d
func RandomFormContaining(d Direction, rng *rand.Rand) ExitForm {
	forms := FormsContaining(d)
	if len(forms) == 0 {
		return ""
	}
	return forms[rng.Intn(len(forms))]
}

// FormOf derives the exit form from the exit cells of a grid
func FormOf(cells []Cell) ExitForm {
	var b strings.Builder
	for _, d := range Directions {
		pos := d.ExitPosition()
		if pos.Index() < len(cells) && cells[pos.Index()].Type == CellExit {
			b.WriteString(string(d))
		}
	}
	return ExitForm(b.String())
}
