package core

import (
	"errors"
	"fmt"
	"time"
)

// Date is a plain calendar date. The time component is always midnight UTC so
// that equality and range comparisons behave like calendar comparisons.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts "2006-01-02" and, for tolerance with exported data,
// RFC 3339 timestamps whose time component is discarded.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the "2006-01" bucket the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as an int.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// InRange reports whether d falls within [start, end], inclusive on both ends.
// A zero start or end leaves that side of the range open.
func (d Date) InRange(start, end Date) bool {
	if !start.IsZero() && d.Before(start.Time) {
		return false
	}
	if !end.IsZero() && d.After(end.Time) {
		return false
	}
	return true
}

// MonthWindow returns the first and last day of the given month.
func MonthWindow(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := DateOf(first.AddDate(0, 1, -1))
	return first, last
}

// YearWindow returns the first and last day of the given year.
func YearWindow(year int) (Date, Date) {
	return NewDate(year, 1, 1), NewDate(year, 12, 31)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
