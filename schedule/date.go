package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

const isoLayout = "2006-01-02"

// Date is a calendar date without time of day. The zero value means unresolved.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a normalized date (out of range days roll over like time.Date)
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in its own location
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local calendar date
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unresolved
func (d Date) IsZero() bool {
	return d == Date{}
}

// UTC returns the date at UTC midnight
func (d Date) UTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts the date by n calendar days, anchored at UTC midnight
func (d Date) AddDays(n int) Date {
	return DateOf(d.UTC().AddDate(0, 0, n))
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.UTC().Before(other.UTC())
}

// String returns the ISO form, empty when unresolved
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(isoLayout)
}

// Display returns the DD/MM/YYYY form used on printed prescriptions
func (d Date) Display() string {
	if d.IsZero() {
		return UnresolvedPlaceholder
	}
	return d.UTC().Format("02/01/2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
