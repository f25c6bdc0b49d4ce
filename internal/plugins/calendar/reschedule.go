package calendar

import (
	"errors"
	"time"
)

// IsAllDay reports whether e starts exactly at midnight and ends exactly at
// end-of-day of the same date, evaluated in e.Start's location.
func IsAllDay(e Event) bool {
	return e.Start.Equal(StartOfDay(e.Start)) &&
		e.End.In(e.Start.Location()).Equal(EndOfDay(e.Start))
}

// Reschedule computes where e lands when dropped on the day identified by
// targetDayKey (YYYY-MM-DD in loc). An unparseable key returns an
// *InvalidTargetError.
func Reschedule(e Event, targetDayKey string, loc *time.Location) (TimeRange, error) {
	day, err := ParseDayKey(targetDayKey, loc)
	if err != nil {
		return TimeRange{}, err
	}
	return RescheduleTo(e, day), nil
}

// RescheduleTo is Reschedule with an already resolved target day.
//
// All-day events take the full target day. Everything else keeps its
// start time-of-day and its exact duration, so a timed event may end on a
// later day than the target.
func RescheduleTo(e Event, day time.Time) TimeRange {
	if IsAllDay(e) {
		return TimeRange{Start: StartOfDay(day), End: EndOfDay(day)}
	}

	duration := e.End.Sub(e.Start)
	st := e.Start.In(day.Location())
	y, m, d := day.Date()
	start := time.Date(y, m, d, st.Hour(), st.Minute(), st.Second(), st.Nanosecond(), day.Location())
	return TimeRange{Start: start, End: start.Add(duration)}
}

// Resize snaps both endpoints outward to day boundaries: start to midnight
// of newStart's date and end to end-of-day of newEnd's date. Any
// time-of-day in the inputs is discarded. Zero instants are rejected as
// unresolvable targets.
func Resize(newStart, newEnd time.Time) (TimeRange, error) {
	if newStart.IsZero() {
		return TimeRange{}, &InvalidTargetError{Target: "start", Err: errors.New("missing start")}
	}
	if newEnd.IsZero() {
		return TimeRange{}, &InvalidTargetError{Target: "end", Err: errors.New("missing end")}
	}
	return TimeRange{Start: StartOfDay(newStart), End: EndOfDay(newEnd)}, nil
}
