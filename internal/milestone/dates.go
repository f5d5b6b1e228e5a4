package milestone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateState tags the content of a milestone date field
type DateState int

const (
	DateUnset     DateState = iota // nothing entered
	DateScheduled                  // a calendar date
	DateNotNeeded                  // explicit "no-need" marker
)

func (s DateState) String() string {
	switch s {
	case DateScheduled:
		return "scheduled"
	case DateNotNeeded:
		return "not_needed"
	default:
		return "unset"
	}
}

// Date is a milestone date as stored in the source tables, where the same
// column can hold a real date, nothing, or a "no-need" marker.
type Date struct {
	State DateState
	Day   time.Time // normalized, only meaningful when State == DateScheduled
}

// Unset returns an empty milestone date
func Unset() Date { return Date{} }

// NotNeeded returns the "no-need" milestone date
func NotNeeded() Date { return Date{State: DateNotNeeded} }

// On returns a scheduled milestone date for the calendar day of t
func On(t time.Time) Date { return Date{State: DateScheduled, Day: Normalize(t)} }

// IsSet reports whether the date holds a calendar day
func (d Date) IsSet() bool { return d.State == DateScheduled }

// String renders the date the way it is written back to storage
func (d Date) String() string {
	switch d.State {
	case DateScheduled:
		return d.Day.Format(ISODate)
	case DateNotNeeded:
		return NoNeedMarker
	default:
		return ""
	}
}

const (
	// ISODate is the canonical storage format
	ISODate = "2006-01-02"

	// NoNeedMarker is written for checkpoints that are out of scope for a line
	NoNeedMarker = "no-need"
)

// ErrInvalidDate is returned for column values that are neither a date nor a known marker
var ErrInvalidDate = errors.New("unparsable date")

var dateLayouts = []string{
	ISODate,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

var noNeedMarkers = map[string]bool{
	"no-need":    true,
	"noneed":     true,
	"not-needed": true,
	"n/n":        true,
}

// ParseDate reads a raw milestone column value
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Unset(), nil
	}

	marker := strings.ToLower(s)
	marker = strings.NewReplacer("_", "-", " ", "-").Replace(marker)
	if noNeedMarkers[marker] {
		return NotNeeded(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return On(t), nil
		}
	}
	return Unset(), fmt.Errorf("%w %q", ErrInvalidDate, raw)
}

// Normalize drops the time of day, keeping the calendar date at local midnight.
// Timestamps carrying another zone are first converted to local time.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	t = t.In(time.Local)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// SameDay compares the calendar dates of a and b, each read in its own zone.
// A postgres DATE comes back at UTC midnight while derived dates sit at local midnight.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AddDays moves a date n calendar days forward
func AddDays(t time.Time, n int) time.Time {
	t = Normalize(t)
	return t.AddDate(0, 0, n)
}

// SubDays moves a date n calendar days back
func SubDays(t time.Time, n int) time.Time {
	return AddDays(t, -n)
}

// DaysBetween returns the signed number of calendar days from -> to.
// Midday is used for the arithmetic so DST transitions never shift the result.
func DaysBetween(from, to time.Time) int {
	a := Normalize(from)
	b := Normalize(to)
	au := time.Date(a.Year(), a.Month(), a.Day(), 12, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 12, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// IsWithinNextNDays reports today <= date <= today+n on calendar days
func IsWithinNextNDays(date, today time.Time, n int) bool {
	d := DaysBetween(today, date)
	return d >= 0 && d <= n
}

// Clock supplies "today" to the engine
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Today returns the normalized current date of a clock
func Today(c Clock) time.Time {
	return Normalize(c.Now())
}
