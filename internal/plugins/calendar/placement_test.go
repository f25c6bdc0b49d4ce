package calendar

import (
	"fmt"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func evt(id string, start, end time.Time) Event {
	return Event{ID: id, Title: "Event " + id, Start: start, End: end}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestFilterEvents(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Quarterly Review"},
		{ID: "2", Title: "Lunch", Description: strPtr("review the menu")},
		{ID: "3", Title: "Standup"},
		{ID: "4", Title: "Offsite", Description: nil},
	}

	got := FilterEvents(events, "  REVIEW ")
	if fmt.Sprint(ids(got)) != "[1 2]" {
		t.Errorf("expected [1 2], got %v", ids(got))
	}

	if got := FilterEvents(events, "   "); len(got) != len(events) {
		t.Errorf("blank term should keep all %d events, got %d", len(events), len(got))
	}
	if got := FilterEvents(events, "nothing matches"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", ids(got))
	}
}

func TestFilterEvents_Idempotent(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Board meeting"},
		{ID: "2", Title: "Call", Description: strPtr("Meeting notes")},
		{ID: "3", Title: "Dentist"},
	}
	for _, term := range []string{"", "meet", "MEETING", "x"} {
		once := FilterEvents(events, term)
		twice := FilterEvents(once, term)
		if fmt.Sprint(ids(once)) != fmt.Sprint(ids(twice)) {
			t.Errorf("term %q: %v then %v", term, ids(once), ids(twice))
		}
	}
}

func TestPlaceForMonth_MultiDayEventTouchesEachDay(t *testing.T) {
	// Dec 31 10:00 -> Jan 2 14:00.
	e := evt("span", at(2024, time.December, 31, 10, 0), at(2025, time.January, 2, 14, 0))
	grid := BuildMonthGrid(date(2025, time.January, 1), WeekStartMonday, time.Time{})

	placement := PlaceForMonth([]Event{e}, grid, 3)

	var touched []string
	for _, w := range grid {
		for _, d := range w {
			if len(placement[d.Key].Shown) > 0 {
				touched = append(touched, d.Key)
			}
		}
	}
	want := "[2024-12-31 2025-01-01 2025-01-02]"
	if fmt.Sprint(touched) != want {
		t.Errorf("expected %s, got %v", want, touched)
	}
}

func TestPlaceForMonth_CapAndOverflow(t *testing.T) {
	day := date(2025, time.March, 10)
	var events []Event
	for i := 5; i >= 1; i-- {
		events = append(events, evt(fmt.Sprint(i), day.Add(time.Duration(i)*time.Hour), day.Add(time.Duration(i)*time.Hour+30*time.Minute)))
	}
	grid := BuildMonthGrid(day, WeekStartMonday, time.Time{})

	cell := PlaceForMonth(events, grid, 3)[DayKey(day)]
	if fmt.Sprint(ids(cell.Shown)) != "[1 2 3]" {
		t.Errorf("expected earliest three [1 2 3], got %v", ids(cell.Shown))
	}
	if cell.Overflow != 2 {
		t.Errorf("expected overflow 2, got %d", cell.Overflow)
	}

	empty := PlaceForMonth(events, grid, 3)[DayKey(day.AddDate(0, 0, 1))]
	if len(empty.Shown) != 0 || empty.Overflow != 0 {
		t.Errorf("expected empty cell, got %+v", empty)
	}
}

func TestPlaceForMonth_NeverExceedsCap(t *testing.T) {
	day := date(2025, time.June, 4)
	grid := BuildMonthGrid(day, WeekStartSunday, time.Time{})
	for n := 0; n <= 8; n++ {
		var events []Event
		for i := 0; i < n; i++ {
			events = append(events, evt(fmt.Sprint(i), day, EndOfDay(day)))
		}
		for maxPer := 1; maxPer <= 4; maxPer++ {
			for key, cell := range PlaceForMonth(events, grid, maxPer) {
				if len(cell.Shown) > maxPer {
					t.Fatalf("n=%d max=%d %s: %d shown", n, maxPer, key, len(cell.Shown))
				}
				matches := len(EventsOnDay(events, mustParse(t, key)))
				if cell.Overflow != matches-len(cell.Shown) {
					t.Fatalf("n=%d max=%d %s: overflow %d, matches %d shown %d", n, maxPer, key, cell.Overflow, matches, len(cell.Shown))
				}
			}
		}
	}
}

func TestPlaceForMonth_DefaultCap(t *testing.T) {
	day := date(2025, time.June, 4)
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, evt(fmt.Sprint(i), day, EndOfDay(day)))
	}
	cell := PlaceForMonth(events, BuildMonthGrid(day, WeekStartMonday, time.Time{}), 0)[DayKey(day)]
	if len(cell.Shown) != DefaultMaxEventsPerCell || cell.Overflow != 2 {
		t.Errorf("expected %d shown and 2 overflow, got %d and %d", DefaultMaxEventsPerCell, len(cell.Shown), cell.Overflow)
	}
}

func TestEventsOnDay_StableTies(t *testing.T) {
	day := date(2025, time.June, 4)
	start := day.Add(9 * time.Hour)
	events := []Event{
		evt("late", day.Add(11*time.Hour), day.Add(12*time.Hour)),
		evt("a", start, start.Add(time.Hour)),
		evt("b", start, start.Add(2*time.Hour)),
		evt("c", start, start.Add(30*time.Minute)),
	}
	got := EventsOnDay(events, day)
	if fmt.Sprint(ids(got)) != "[a b c late]" {
		t.Errorf("expected [a b c late], got %v", ids(got))
	}
}

func TestPlaceForTimedView_Offsets(t *testing.T) {
	day := date(2025, time.March, 12)
	e := evt("1", at(2025, time.March, 12, 9, 30), at(2025, time.March, 12, 11, 0))

	got := PlaceForTimedView([]Event{e}, day, 0, 60)
	if len(got) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(got))
	}
	if got[0].TopOffsetMinutes != 570 {
		t.Errorf("expected top offset 570, got %d", got[0].TopOffsetMinutes)
	}
	if got[0].DurationMinutes != 90 {
		t.Errorf("expected duration 90, got %d", got[0].DurationMinutes)
	}
	if got[0].DayKey != "2025-03-12" {
		t.Errorf("expected day key 2025-03-12, got %s", got[0].DayKey)
	}
}

func TestPlaceForTimedView_StartHourShiftsOffset(t *testing.T) {
	day := date(2025, time.March, 12)
	events := []Event{
		evt("early", at(2025, time.March, 12, 6, 0), at(2025, time.March, 12, 9, 0)),
		evt("later", at(2025, time.March, 12, 10, 15), at(2025, time.March, 12, 10, 45)),
	}

	got := PlaceForTimedView(events, day, 8, 30)
	if len(got) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(got))
	}
	if got[0].TopOffsetMinutes != 0 || got[0].DurationMinutes != 180 {
		t.Errorf("early: expected top 0 duration 180, got %d/%d", got[0].TopOffsetMinutes, got[0].DurationMinutes)
	}
	if got[1].TopOffsetMinutes != 135 || got[1].DurationMinutes != 30 {
		t.Errorf("later: expected top 135 duration 30, got %d/%d", got[1].TopOffsetMinutes, got[1].DurationMinutes)
	}
}

func TestPlaceForTimedView_ClampsMultiDay(t *testing.T) {
	e := evt("span", at(2024, time.December, 31, 10, 0), at(2025, time.January, 2, 14, 0))

	first := PlaceForTimedView([]Event{e}, date(2024, time.December, 31), 0, 60)
	if len(first) != 1 || first[0].TopOffsetMinutes != 600 || !first[0].VisibleEnd.Equal(EndOfDay(date(2024, time.December, 31))) {
		t.Errorf("first day: %+v", first)
	}

	middle := PlaceForTimedView([]Event{e}, date(2025, time.January, 1), 0, 60)
	if len(middle) != 1 || middle[0].TopOffsetMinutes != 0 || middle[0].DurationMinutes != 24*60-1 {
		t.Errorf("middle day: %+v", middle)
	}

	last := PlaceForTimedView([]Event{e}, date(2025, time.January, 2), 0, 60)
	if len(last) != 1 || last[0].TopOffsetMinutes != 0 || last[0].DurationMinutes != 14*60 {
		t.Errorf("last day: %+v", last)
	}

	if other := PlaceForTimedView([]Event{e}, date(2025, time.January, 3), 0, 60); len(other) != 0 {
		t.Errorf("expected nothing on Jan 3, got %+v", other)
	}
}

func TestPlaceForTimedView_ZeroLengthAndEndingAtMidnight(t *testing.T) {
	day := date(2025, time.March, 12)
	events := []Event{
		evt("instant", at(2025, time.March, 12, 9, 0), at(2025, time.March, 12, 9, 0)),
		evt("yesterday", at(2025, time.March, 11, 22, 0), day),
	}
	if got := PlaceForTimedView(events, day, 0, 60); len(got) != 0 {
		t.Errorf("expected no visible portion, got %+v", got)
	}
}

func TestPlaceForTimedView_VisibleIntervalBounded(t *testing.T) {
	day := date(2025, time.March, 12)
	events := []Event{
		evt("1", at(2025, time.March, 10, 8, 0), at(2025, time.March, 15, 8, 0)),
		evt("2", at(2025, time.March, 12, 8, 0), at(2025, time.March, 12, 8, 45)),
		evt("3", at(2025, time.March, 11, 23, 0), at(2025, time.March, 12, 1, 0)),
	}
	for _, p := range PlaceForTimedView(events, day, 0, 15) {
		visible := p.VisibleEnd.Sub(p.VisibleStart)
		if visible > p.Event.End.Sub(p.Event.Start) {
			t.Errorf("%s: visible %s exceeds event duration", p.Event.ID, visible)
		}
		if visible > 24*time.Hour {
			t.Errorf("%s: visible %s exceeds a day", p.Event.ID, visible)
		}
	}
}

func TestPlaceForDays(t *testing.T) {
	days := BuildWeekDays(date(2025, time.March, 12), WeekStartMonday, time.Time{})
	e := evt("1", at(2025, time.March, 12, 9, 0), at(2025, time.March, 13, 9, 0))

	got := PlaceForDays([]Event{e}, days, Options{StartHour: 0, SlotMinutes: 60})
	if len(got) != 7 {
		t.Fatalf("expected an entry per day, got %d", len(got))
	}
	if len(got["2025-03-12"]) != 1 || len(got["2025-03-13"]) != 1 || len(got["2025-03-14"]) != 0 {
		t.Errorf("unexpected placement: %+v", got)
	}
}

func mustParse(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := ParseDayKey(key, time.UTC)
	if err != nil {
		t.Fatalf("parsing %s: %v", key, err)
	}
	return d
}
