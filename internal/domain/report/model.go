package report

import "time"

// DayCount is one bucket of the appointments-per-day series.
type DayCount struct {
	Date  time.Time `db:"date" json:"date"`
	Count int       `db:"count" json:"count"`
}

// Summary aggregates a group's activity over a date range.
type Summary struct {
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	TotalAppointments int            `json:"total_appointments"`
	ByStatus          map[string]int `json:"by_status"`
	PerDay            []DayCount     `json:"per_day"`
	Patients          int            `json:"patients"`
	Practitioners     int            `json:"practitioners"`
}
