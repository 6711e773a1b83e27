package order

import (
	"strings"
	"time"

	"umrah-desk/api"
)

type PaxTotals struct {
	Pax    int `json:"total_pax"`
	Adult  int `json:"total_adult"`
	Child  int `json:"total_child"`
	Infant int `json:"total_infant"`
}

// CountPax derives the booking head-counts from its passenger list.
// Passengers without a recognised age group count towards Pax only.
func CountPax(persons []api.Person) PaxTotals {
	totals := PaxTotals{Pax: len(persons)}
	for _, p := range persons {
		switch strings.ToLower(strings.TrimSpace(p.AgeGroup)) {
		case "adult":
			totals.Adult++
		case "child":
			totals.Child++
		case "infant":
			totals.Infant++
		}
	}
	return totals
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// CalendarDate reduces a backend date or datetime to YYYY-MM-DD. Time of day
// and zone are discarded, not converted.
func CalendarDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if len(value) > 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
