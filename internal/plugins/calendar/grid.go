package calendar

import (
	"fmt"
	"time"
)

// BuildMonthGrid lays out the month containing anchor as whole weeks.
//
// The range runs from the most recent weekStart day on or before the 1st to
// the day before the next weekStart day after the month's last day, so every
// week has 7 days and every in-month day appears exactly once. Days outside
// the month are kept and tagged InMonth=false. today marks IsToday and may
// be the zero time.
func BuildMonthGrid(anchor time.Time, weekStart WeekStart, today time.Time) []Week {
	first := monthStart(anchor)
	last := addDays(first.AddDate(0, 1, 0), -1)

	gridStart := startOfWeek(first, weekStart)
	gridEnd := addDays(startOfWeek(last, weekStart), 6)

	var weeks []Week
	var week Week
	for d := gridStart; !d.After(gridEnd); d = addDays(d, 1) {
		week = append(week, Day{
			Date:    d,
			Key:     DayKey(d),
			InMonth: d.Month() == first.Month() && d.Year() == first.Year(),
			IsToday: !today.IsZero() && SameDay(d, today.In(d.Location())),
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = nil
		}
	}
	return weeks
}

// BuildWeekDays returns the 7 days of the week containing anchor.
func BuildWeekDays(anchor time.Time, weekStart WeekStart, today time.Time) []Day {
	start := startOfWeek(anchor, weekStart)
	days := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, newTimedDay(addDays(start, i), today))
	}
	return days
}

// BuildDayView returns the single day containing anchor.
func BuildDayView(anchor time.Time, today time.Time) []Day {
	return []Day{newTimedDay(StartOfDay(anchor), today)}
}

func newTimedDay(d, today time.Time) Day {
	return Day{
		Date:    d,
		Key:     DayKey(d),
		InMonth: true,
		IsToday: !today.IsZero() && SameDay(d, today.In(d.Location())),
	}
}

// BuildTimeSlots emits one slot per intervalMinutes from startHour:00 up to,
// not including, endHour:00.
//
// Callers must pass 0 <= startHour < endHour <= 24 and an interval that
// divides 60. Other inputs are not corrected here; a non-positive interval
// yields no slots rather than looping forever.
func BuildTimeSlots(startHour, endHour, intervalMinutes int) []Slot {
	if intervalMinutes <= 0 {
		return nil
	}
	var slots []Slot
	for m := startHour * 60; m < endHour*60; m += intervalMinutes {
		slots = append(slots, Slot{
			Minutes: m,
			Label:   fmt.Sprintf("%02d:%02d", m/60, m%60),
		})
	}
	return slots
}

// monthStart returns midnight on the 1st of t's month.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the most recent weekStart day on or
// before t.
func startOfWeek(t time.Time, weekStart WeekStart) time.Time {
	d := StartOfDay(t)
	diff := (int(d.Weekday()) - int(weekStart.Weekday()) + 7) % 7
	return addDays(d, -diff)
}

// Navigate moves the anchor one view-length in direction (-1 or +1),
// keeping the rest of the state.
func Navigate(state ViewState, direction int) ViewState {
	switch state.ViewMode {
	case ViewMonth:
		// Pin to the 1st so Jan 31 + 1 month doesn't skip February.
		state.AnchorDate = monthStart(state.AnchorDate).AddDate(0, direction, 0)
	case ViewWeek:
		state.AnchorDate = addDays(StartOfDay(state.AnchorDate), 7*direction)
	default:
		state.AnchorDate = addDays(StartOfDay(state.AnchorDate), direction)
	}
	return state
}

// VisibleRange returns the first and last instant covered by the state's
// view. For month views this is the full grid, out-of-month days included.
func VisibleRange(state ViewState) (time.Time, time.Time) {
	switch state.ViewMode {
	case ViewMonth:
		first := monthStart(state.AnchorDate)
		last := addDays(first.AddDate(0, 1, 0), -1)
		return startOfWeek(first, state.WeekStart), EndOfDay(addDays(startOfWeek(last, state.WeekStart), 6))
	case ViewWeek:
		start := startOfWeek(state.AnchorDate, state.WeekStart)
		return start, EndOfDay(addDays(start, 6))
	default:
		return StartOfDay(state.AnchorDate), EndOfDay(state.AnchorDate)
	}
}
