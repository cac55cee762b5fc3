package schedule

import (
	"strings"
	"time"

	"github.com/clinicore/clinicore/internal/apperr"
)

// Weekday is the canonical accent-free Spanish weekday enum. Blocks store
// this form only; parsing accepts accented spellings (MIÉRCOLES, SÁBADO)
// and any casing, so legacy clients keep working.
type Weekday string

const (
	Lunes     Weekday = "LUNES"
	Martes    Weekday = "MARTES"
	Miercoles Weekday = "MIERCOLES"
	Jueves    Weekday = "JUEVES"
	Viernes   Weekday = "VIERNES"
	Sabado    Weekday = "SABADO"
	Domingo   Weekday = "DOMINGO"
)

// weekdayOrder fixes the index order used by the lock window: LUNES=0.
var weekdayOrder = [7]Weekday{Lunes, Martes, Miercoles, Jueves, Viernes, Sabado, Domingo}

var accentReplacer = strings.NewReplacer(
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U",
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// ParseWeekday normalizes case and accents and returns the canonical enum
// value. MIÉRCOLES and MIERCOLES parse to the same Weekday.
func ParseWeekday(s string) (Weekday, error) {
	normalized := strings.ToUpper(strings.TrimSpace(accentReplacer.Replace(s)))
	for _, w := range weekdayOrder {
		if normalized == string(w) {
			return w, nil
		}
	}
	return "", apperr.NewValidation("weekday", "unknown weekday: "+s)
}

// WeekdayOf maps a calendar date to the enum. time.Monday maps to LUNES.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Lunes
	case time.Tuesday:
		return Martes
	case time.Wednesday:
		return Miercoles
	case time.Thursday:
		return Jueves
	case time.Friday:
		return Viernes
	case time.Saturday:
		return Sabado
	default:
		return Domingo
	}
}

// Index returns the position in the LUNES=0..DOMINGO=6 order, or -1 for a
// value that is not canonical.
func (w Weekday) Index() int {
	for i, d := range weekdayOrder {
		if d == w {
			return i
		}
	}
	return -1
}

// IsValid reports whether w is one of the canonical values.
func (w Weekday) IsValid() bool { return w.Index() >= 0 }
