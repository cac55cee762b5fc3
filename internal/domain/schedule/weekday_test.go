package schedule

import (
	"testing"
	"time"
)

func TestParseWeekday_Normalizes(t *testing.T) {
	tests := []struct {
		in   string
		want Weekday
	}{
		{"LUNES", Lunes},
		{"lunes", Lunes},
		{"Miércoles", Miercoles},
		{"MIERCOLES", Miercoles},
		{"sábado", Sabado},
		{"  DOMINGO  ", Domingo},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseWeekday_Unknown(t *testing.T) {
	if _, err := ParseWeekday("FUNDAY"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	for i, want := range []Weekday{Lunes, Martes, Miercoles, Jueves, Viernes, Sabado, Domingo} {
		got := WeekdayOf(monday.AddDate(0, 0, i))
		if got != want {
			t.Errorf("day %d = %v, want %v", i, got, want)
		}
	}
}

func TestWeekdayIndex(t *testing.T) {
	if Lunes.Index() != 0 || Domingo.Index() != 6 {
		t.Errorf("index order broken: LUNES=%d DOMINGO=%d", Lunes.Index(), Domingo.Index())
	}
	if Weekday("NOPE").Index() != -1 {
		t.Error("expected -1 for non-canonical value")
	}
}
