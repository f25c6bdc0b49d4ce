package calendar

import (
	"context"
	"strings"
	"testing"
	"time"
)

func renderString(t *testing.T, v View, fragment bool) string {
	t.Helper()
	var b strings.Builder
	c := CalendarPage(v)
	if fragment {
		c = CalendarFragment(v)
	}
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return b.String()
}

func TestRender_WeekClipsToVisibleHours(t *testing.T) {
	opts := testOptions()
	opts.StartHour = 8
	opts.EndHour = 18
	c := NewController("owner-1", &mockStore{listFn: func(context.Context, string) ([]Event, error) {
		return []Event{
			{ID: "early", Title: "Gym", Start: at(2025, time.March, 12, 6, 0), End: at(2025, time.March, 12, 7, 0)},
			{ID: "work", Title: "Standup", Start: at(2025, time.March, 12, 9, 0), End: at(2025, time.March, 12, 9, 30)},
			{ID: "late", Title: "Dinner", Start: at(2025, time.March, 12, 19, 0), End: at(2025, time.March, 12, 21, 0)},
		}, nil
	}}, nil, opts)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.GoTo(date(2025, time.March, 12))
	if err := c.SetViewMode(ViewWeek); err != nil {
		t.Fatal(err)
	}

	out := renderString(t, c.Render(), true)
	if !strings.Contains(out, `data-id="work"`) {
		t.Error("expected in-range event rendered")
	}
	// 09:00 with an 08:00 start and 48px hour slots.
	if !strings.Contains(out, "top:48px;height:24px") {
		t.Errorf("expected scaled offsets for Standup:\n%s", out)
	}
	if strings.Contains(out, `data-id="early"`) || strings.Contains(out, `data-id="late"`) {
		t.Error("expected events outside the hour range to be clipped")
	}
	if strings.Contains(out, "<!DOCTYPE html>") {
		t.Error("fragment should not include the page shell")
	}
}

func TestRender_MonthOverflow(t *testing.T) {
	day := date(2025, time.March, 12)
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, evt(string(rune('a'+i)), day.Add(time.Duration(9+i)*time.Hour), day.Add(time.Duration(10+i)*time.Hour)))
	}
	c := NewController("owner-1", &mockStore{listFn: func(context.Context, string) ([]Event, error) {
		return events, nil
	}}, nil, testOptions())
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.GoTo(day)

	out := renderString(t, c.Render(), false)
	if !strings.Contains(out, "+2 more") {
		t.Error("expected overflow marker")
	}
	if !strings.Contains(out, "March 2025") {
		t.Error("expected month title")
	}
}

func TestRender_DayViewOnDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	opts := testOptions()
	opts.Location = ny
	c := NewController("owner-1", &mockStore{listFn: func(context.Context, string) ([]Event, error) {
		return []Event{{
			ID:    "review",
			Title: "Review",
			Start: time.Date(2025, time.March, 9, 9, 30, 0, 0, ny),
			End:   time.Date(2025, time.March, 9, 11, 0, 0, 0, ny),
		}}, nil
	}}, nil, opts)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.GoTo(time.Date(2025, time.March, 9, 0, 0, 0, 0, ny))
	if err := c.SetViewMode(ViewDay); err != nil {
		t.Fatal(err)
	}

	v := c.Render()
	ps := v.Timed["2025-03-09"]
	if len(ps) != 1 || ps[0].TopOffsetMinutes != 510 || ps[0].DurationMinutes != 90 {
		t.Fatalf("unexpected placement: %+v", ps)
	}
	// 02:00 is skipped that morning, so 09:30 is 510 elapsed minutes in.
	out := renderString(t, v, true)
	if !strings.Contains(out, "top:408px;height:72px") {
		t.Errorf("expected block sized from the 90 minute duration:\n%s", out)
	}
}
