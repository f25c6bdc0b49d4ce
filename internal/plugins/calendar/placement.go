package calendar

import (
	"sort"
	"strings"
	"time"
)

// FilterEvents keeps events whose title or description contains term,
// case-insensitively. A blank term keeps everything. The result preserves
// input order, so filtering twice with the same term is a no-op.
func FilterEvents(events []Event, term string) []Event {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return events
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), term) {
			out = append(out, e)
			continue
		}
		if e.Description != nil && strings.Contains(strings.ToLower(*e.Description), term) {
			out = append(out, e)
		}
	}
	return out
}

// EventsOnDay returns the events touching day, in start order. An event
// touches a day when its start date is on or before the day and its end
// date is on or after it, so a multi-day event appears on every day it
// spans. Ties keep their input order.
func EventsOnDay(events []Event, day time.Time) []Event {
	dayStart := StartOfDay(day)
	var matches []Event
	for _, e := range events {
		start := StartOfDay(e.Start.In(dayStart.Location()))
		end := StartOfDay(e.End.In(dayStart.Location()))
		if !start.After(dayStart) && !end.Before(dayStart) {
			matches = append(matches, e)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches
}

// PlaceForMonth fills every grid day with its first maxPerCell events and
// an overflow count. Out-of-month days are placed like any other. A
// non-positive maxPerCell means DefaultMaxEventsPerCell.
//
// Titles and ranges are not validated here.
func PlaceForMonth(events []Event, grid []Week, maxPerCell int) MonthPlacement {
	if maxPerCell <= 0 {
		maxPerCell = DefaultMaxEventsPerCell
	}

	placement := make(MonthPlacement)
	for _, week := range grid {
		for _, day := range week {
			matches := EventsOnDay(events, day.Date)
			shown := matches
			if len(shown) > maxPerCell {
				shown = shown[:maxPerCell:maxPerCell]
			}
			placement[day.Key] = Cell{
				Shown:    shown,
				Overflow: len(matches) - len(shown),
			}
		}
	}
	return placement
}

// PlaceForTimedView clamps each event to day and positions it relative to
// startHour. Events with no visible portion on day produce nothing.
//
// TopOffsetMinutes is clamped to zero for events that begin before the
// visible range; DurationMinutes is always the full clamped interval.
// The slot interval does not affect the minute values and is accepted so
// callers can pass the whole layout; the renderer uses it for its scale
// factor.
func PlaceForTimedView(events []Event, day time.Time, startHour, _ int) []Placement {
	dayStart := StartOfDay(day)
	dayEnd := EndOfDay(day)
	rangeStart := dayStart.Add(time.Duration(startHour) * time.Hour)
	key := DayKey(dayStart)

	var out []Placement
	for _, e := range events {
		visibleStart := e.Start
		if visibleStart.Before(dayStart) {
			visibleStart = dayStart
		}
		visibleEnd := e.End
		if visibleEnd.After(dayEnd) {
			visibleEnd = dayEnd
		}
		if !visibleStart.Before(visibleEnd) {
			continue
		}

		top := minutesBetween(rangeStart, visibleStart)
		if top < 0 {
			top = 0
		}
		out = append(out, Placement{
			Event:            e,
			DayKey:           key,
			VisibleStart:     visibleStart.In(dayStart.Location()),
			VisibleEnd:       visibleEnd.In(dayStart.Location()),
			TopOffsetMinutes: top,
			DurationMinutes:  minutesBetween(visibleStart, visibleEnd),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VisibleStart.Before(out[j].VisibleStart)
	})
	return out
}

// PlaceForDays runs PlaceForTimedView for each day of a week/day view.
func PlaceForDays(events []Event, days []Day, opts Options) map[string][]Placement {
	out := make(map[string][]Placement, len(days))
	for _, d := range days {
		out[d.Key] = PlaceForTimedView(events, d.Date, opts.StartHour, opts.SlotMinutes)
	}
	return out
}
