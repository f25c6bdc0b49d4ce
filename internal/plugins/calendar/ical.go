package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const (
	icalProductID    = "-//bizconsole//calendar//EN"
	icalDateFmt      = "20060102"
	icalFloatingTime = "20060102T150405"
)

// spansWholeDays reports whether e starts at midnight and ends at
// end-of-day, possibly on a later date. Single all-day events and resized
// events both qualify and are exported as DATE values.
func spansWholeDays(e Event) bool {
	end := e.End.In(e.Start.Location())
	return e.Start.Equal(StartOfDay(e.Start)) && end.Equal(EndOfDay(end))
}

// ExportICS serializes events as an iCalendar document. Whole-day events
// use DATE values with an exclusive DTEND; everything else is written in
// UTC.
func ExportICS(events []Event, name string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icalProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@bizconsole")
		ve.SetDtStampTime(e.UpdatedAt.UTC())
		ve.SetCreatedTime(e.CreatedAt.UTC())
		ve.SetModifiedAt(e.UpdatedAt.UTC())
		ve.SetSummary(e.Title)
		if e.Description != nil {
			ve.SetDescription(*e.Description)
		}
		if e.ColorTag != nil {
			ve.SetColor(*e.ColorTag)
		}

		if spansWholeDays(e) {
			last := e.End.In(e.Start.Location())
			ve.SetAllDayStartAt(e.Start)
			ve.SetAllDayEndAt(addDays(StartOfDay(last), 1))
			continue
		}
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.End.UTC())
	}
	return cal.Serialize()
}

// ParseICS reads VEVENTs from an iCalendar document into event inputs.
// DATE-only events become whole-day events in loc, with the exclusive
// DTEND mapped to end-of-day of the last covered date. Recurrence rules
// are ignored; each VEVENT imports once.
func ParseICS(r io.Reader, loc *time.Location) ([]EventInput, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var inputs []EventInput
	for i, ve := range cal.Events() {
		in, err := parseVEvent(ve, loc)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (EventInput, error) {
	var in EventInput
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		in.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil && p.Value != "" {
		desc := p.Value
		in.Description = &desc
	}
	if p := ve.GetProperty(ical.ComponentPropertyColor); p != nil && p.Value != "" {
		tag := p.Value
		in.ColorTag = &tag
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return in, errors.New("missing DTSTART")
	}

	if isDateValue(dtStart) {
		first, err := time.ParseInLocation(icalDateFmt, dtStart.Value, loc)
		if err != nil {
			return in, fmt.Errorf("DTSTART: %w", err)
		}
		last := first
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			exclusive, err := time.ParseInLocation(icalDateFmt, dtEnd.Value, loc)
			if err != nil {
				return in, fmt.Errorf("DTEND: %w", err)
			}
			if exclusive.After(first) {
				last = addDays(exclusive, -1)
			}
		}
		in.Start = first
		in.End = EndOfDay(last)
		return in, nil
	}

	start, err := parseDateTime(dtStart, loc)
	if err != nil {
		return in, fmt.Errorf("DTSTART: %w", err)
	}
	end := start
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if end, err = parseDateTime(dtEnd, loc); err != nil {
			return in, fmt.Errorf("DTEND: %w", err)
		}
	}
	in.Start = start.In(loc)
	in.End = end.In(loc)
	return in, nil
}

// parseDateTime reads a DATE-TIME value. UTC and TZID forms are resolved
// by the library's parser; floating times are taken as wall clock in loc.
func parseDateTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	_, hasTZ := p.ICalParameters["TZID"]
	if !hasTZ && !strings.HasSuffix(p.Value, "Z") {
		return time.ParseInLocation(icalFloatingTime, p.Value, loc)
	}
	prop := *p
	prop.IANAToken = string(ical.ComponentPropertyDtStart)
	cb := ical.ComponentBase{Properties: []ical.IANAProperty{prop}}
	return cb.GetStartAt()
}

// isDateValue reports whether a DTSTART/DTEND carries a bare date.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}
