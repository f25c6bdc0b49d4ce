package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayKeyFormat is the layout of day keys used in placements, drop targets
// and URLs.
const DayKeyFormat = "2006-01-02"

// endOfDayNanos puts end-of-day at 23:59:59.999. Millisecond precision is
// what the store keeps (DATETIME(3)), so an all-day event survives a round
// trip unchanged.
const endOfDayNanos = int(999 * time.Millisecond)

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar date in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, endOfDayNanos, t.Location())
}

// DayKey formats t's calendar date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// addDays moves t by n calendar days, keeping the wall clock. AddDate is
// used rather than 24h arithmetic so DST transitions don't shift the time.
func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// minutesBetween truncates b-a to whole minutes.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

// ErrInvalidTarget is matched by every InvalidTargetError.
var ErrInvalidTarget = errors.New("invalid target")

// InvalidTargetError reports a drop or resize target that does not resolve
// to a calendar date/time. Nothing is mutated when it is returned.
type InvalidTargetError struct {
	Target string
	Err    error
}

func (e *InvalidTargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target %q: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("invalid target %q", e.Target)
}

func (e *InvalidTargetError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidTarget) hold for every instance.
func (e *InvalidTargetError) Is(target error) bool {
	return target == ErrInvalidTarget
}

// ParseDayKey resolves a YYYY-MM-DD key to midnight in loc. Keys that
// time.Parse would normalize (such as 2025-02-30) are rejected.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, &InvalidTargetError{Target: key, Err: errors.New("empty day key")}
	}
	t, err := time.ParseInLocation(DayKeyFormat, key, loc)
	if err != nil {
		return time.Time{}, &InvalidTargetError{Target: key, Err: err}
	}
	return t, nil
}
