package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t as seen in loc.
// A nil loc uses t's own location.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t, nil), nil
}

// MustDate builds a Date from its parts.
func MustDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// TimeWindow is an inclusive calendar-date range.
type TimeWindow struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies in [Start, End]. An inverted window
// contains nothing.
func (w TimeWindow) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Clamp moves both ends into [min, max]. A zero Start becomes min and a
// zero End becomes max.
func (w TimeWindow) Clamp(min, max Date) TimeWindow {
	if w.Start.IsZero() {
		w.Start = min
	}
	if w.End.IsZero() {
		w.End = max
	}
	w.Start = clampDate(w.Start, min, max)
	w.End = clampDate(w.End, min, max)
	return w
}

func clampDate(d, min, max Date) Date {
	if d.Before(min) {
		return min
	}
	if d.After(max) {
		return max
	}
	return d
}

// ParseWindow parses optional YYYY-MM-DD bounds. An empty string leaves
// that end zero so it can be clamped to the observed range later.
func ParseWindow(start, end string) (TimeWindow, error) {
	var w TimeWindow
	if start != "" {
		d, err := ParseDate(start)
		if err != nil {
			return w, fmt.Errorf("start: %w", err)
		}
		w.Start = d
	}
	if end != "" {
		d, err := ParseDate(end)
		if err != nil {
			return w, fmt.Errorf("end: %w", err)
		}
		w.End = d
	}
	return w, nil
}

func (w TimeWindow) String() string {
	return w.Start.String() + ".." + w.End.String()
}
