package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// DateLayout is the calendar-date layout used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component.
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date. Longer ISO-8601 timestamps are
// truncated to their date part. Impossible calendar dates are rejected.
func ParseDate(s string) (Date, bool) {
	if len(s) < len(DateLayout) {
		return Date{}, false
	}
	if len(s) > len(DateLayout) && s[len(DateLayout)] != 'T' && s[len(DateLayout)] != ' ' {
		return Date{}, false
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return Date{}, false
	}
	return Date{t: t}, true
}

// ParseDatePtr parses s and returns nil when it is not a valid date.
func ParseDatePtr(s string) *Date {
	d, ok := ParseDate(s)
	if !ok {
		return nil
	}
	return &d
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Invalid dates decode to the
// zero Date; use *Date fields with ParseDatePtr for nullable values.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseDate(s); ok {
		*d = parsed
	}
	return nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.t.IsZero() }
