package models

import (
	"encoding/json"
	"strings"
)

// OpeningHours maps lowercase English weekday names ("monday" .. "sunday")
// to that day's entry.
type OpeningHours map[string]DayHours

// DayHours is one weekday's entry. The stored data uses two shapes
// interchangeably: a plain string (a marker like "定休日" or a compact
// "HH:MM-HH:MM" range) or a structured {"open": "HH:MM", "close": "HH:MM"}
// object. After unmarshalling, Open/Close are populated whenever the entry
// denotes a time range, regardless of the source shape.
type DayHours struct {
	Raw   string
	Open  string
	Close string
}

var (
	open24Markers = []string{"24/7", "24時間"}
	closedMarkers = []string{"closed", "休み", "定休日"}
)

// AllDay reports whether the entry is a 24-hour marker.
func (d DayHours) AllDay() bool {
	return containsFold(open24Markers, d.Raw)
}

// ClosedAllDay reports whether the entry is a closed-today marker.
func (d DayHours) ClosedAllDay() bool {
	return containsFold(closedMarkers, d.Raw)
}

// HasRange reports whether the entry carries an explicit open/close pair.
func (d DayHours) HasRange() bool {
	return d.Open != "" && d.Close != ""
}

func containsFold(list []string, s string) bool {
	for _, m := range list {
		if strings.EqualFold(m, s) {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both the string and the structured form.
func (d *DayHours) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		d.Raw = strings.TrimSpace(s)
		if open, close_, ok := strings.Cut(d.Raw, "-"); ok && !d.AllDay() && !d.ClosedAllDay() {
			d.Open = strings.TrimSpace(open)
			d.Close = strings.TrimSpace(close_)
		}
		return nil
	}
	var obj struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	d.Open = obj.Open
	d.Close = obj.Close
	return nil
}

// MarshalJSON preserves the original string form when present.
func (d DayHours) MarshalJSON() ([]byte, error) {
	if d.Raw != "" {
		return json.Marshal(d.Raw)
	}
	return json.Marshal(struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	}{d.Open, d.Close})
}

// ParseOpeningHours decodes a stored opening-hours blob. A nil or empty
// blob yields a nil map without error.
func ParseOpeningHours(raw json.RawMessage) (OpeningHours, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var h OpeningHours
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return h, nil
}
