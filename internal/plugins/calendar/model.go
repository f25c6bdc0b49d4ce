// Package calendar is the business console's scheduling calendar. It turns a
// view (month, week or day) plus an owner's events into a layout grid,
// positions events inside it, and recomputes event times when the user drags
// or resizes them. Grid building, placement and the reschedule/resize
// calculators are pure functions; the Controller wires them to persistence.
package calendar

import (
	"strings"
	"time"
)

// ViewMode selects which grid the controller builds.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

// Valid reports whether m is one of the known view modes.
func (m ViewMode) Valid() bool {
	return m == ViewMonth || m == ViewWeek || m == ViewDay
}

// WeekStart is the first-day-of-week convention used for grid alignment.
type WeekStart string

const (
	WeekStartSunday WeekStart = "sunday"
	WeekStartMonday WeekStart = "monday"
)

// ParseWeekStart accepts "sunday" or "monday" in any case.
func ParseWeekStart(s string) (WeekStart, bool) {
	switch WeekStart(strings.ToLower(strings.TrimSpace(s))) {
	case WeekStartSunday:
		return WeekStartSunday, true
	case WeekStartMonday:
		return WeekStartMonday, true
	}
	return "", false
}

// Weekday returns the time.Weekday a week begins on. Unknown values are
// treated as Monday.
func (w WeekStart) Weekday() time.Weekday {
	if w == WeekStartSunday {
		return time.Sunday
	}
	return time.Monday
}

// Event is the unit being scheduled. Start <= End is validated when the
// event is created or edited and is assumed everywhere in this package.
type Event struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Start       time.Time `json:"start" db:"start_at"`
	End         time.Time `json:"end" db:"end_at"`
	Description *string   `json:"description,omitempty" db:"description"`
	ColorTag    *string   `json:"color_tag,omitempty" db:"color_tag"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EventInput is the validated data for creating an event. It carries every
// Event field except the server-assigned ID and timestamps.
type EventInput struct {
	Title       string
	Start       time.Time
	End         time.Time
	Description *string
	ColorTag    *string
}

// EventPatch is a partial update. Nil fields are left unchanged. An empty
// string in Description or ColorTag clears the field.
type EventPatch struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Description *string
	ColorTag    *string
}

// TimePatch builds a patch that only moves the event.
func TimePatch(r TimeRange) EventPatch {
	start, end := r.Start, r.End
	return EventPatch{Start: &start, End: &end}
}

// TimeRange is a recomputed start/end pair produced by the calculators.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ViewState drives grid generation. It only changes through explicit
// navigation, view switches and filter edits; never from events.
type ViewState struct {
	AnchorDate time.Time `json:"anchor_date"`
	ViewMode   ViewMode  `json:"view_mode"`
	WeekStart  WeekStart `json:"week_start"`
	FilterTerm string    `json:"filter_term"`
}

// Options are the layout settings consumed from configuration.
type Options struct {
	// StartHour and EndHour are the visible hour range [StartHour, EndHour).
	StartHour int
	EndHour   int

	// SlotMinutes is the week/day slot length.
	SlotMinutes int

	// MaxEventsPerCell caps events shown in a month cell.
	MaxEventsPerCell int

	// WeekStart seeds new view states.
	WeekStart WeekStart

	// Location is the zone day boundaries are computed in.
	Location *time.Location
}

// DefaultOptions returns the 0-24h, 60 minute, 3-per-cell, Monday-first
// layout in the local zone.
func DefaultOptions() Options {
	return Options{
		StartHour:        0,
		EndHour:          24,
		SlotMinutes:      DefaultSlotMinutes,
		MaxEventsPerCell: DefaultMaxEventsPerCell,
		WeekStart:        WeekStartMonday,
		Location:         time.Local,
	}
}

// Layout defaults.
const (
	DefaultSlotMinutes      = 60
	DefaultMaxEventsPerCell = 3
)

// --- Grid ---

// Day is one month-grid cell.
type Day struct {
	Date    time.Time `json:"date"`
	Key     string    `json:"key"`
	InMonth bool      `json:"in_month"`
	IsToday bool      `json:"is_today"`
}

// Week is an ordered run of exactly 7 days.
type Week []Day

// Slot is one week/day time slot.
type Slot struct {
	// Minutes is the slot start measured from midnight.
	Minutes int    `json:"minutes"`
	Label   string `json:"label"`
}

// --- Placement ---

// Cell is a month cell's placement: the first N matching events in start
// order, plus how many more matched.
type Cell struct {
	Shown    []Event `json:"shown"`
	Overflow int     `json:"overflow"`
}

// MonthPlacement maps a day key (YYYY-MM-DD) to its cell.
type MonthPlacement map[string]Cell

// Placement is one event's visible portion on one day of a week/day view.
// Offsets are in minutes from the start of the visible hour range; the
// renderer scales them by slot height / slot minutes.
type Placement struct {
	Event            Event     `json:"event"`
	DayKey           string    `json:"day_key"`
	VisibleStart     time.Time `json:"visible_start"`
	VisibleEnd       time.Time `json:"visible_end"`
	TopOffsetMinutes int       `json:"top_offset_minutes"`
	DurationMinutes  int       `json:"duration_minutes"`
}

// --- Request DTOs (bound from HTTP requests) ---

// ViewRequest changes any subset of the view state.
type ViewRequest struct {
	ViewMode   *string `json:"view_mode"`
	WeekStart  *string `json:"week_start"`
	FilterTerm *string `json:"filter_term"`
	AnchorDate *string `json:"anchor_date"`
}

// NavigateRequest moves the view: "prev", "next" or "today".
type NavigateRequest struct {
	Direction string `json:"direction"`
}

// CreateEventRequest is the edit dialog's create payload.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description *string   `json:"description"`
	ColorTag    *string   `json:"color_tag"`
}

// UpdateEventRequest is the edit dialog's partial update payload.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Description *string    `json:"description"`
	ColorTag    *string    `json:"color_tag"`
}

// MoveRequest is a drop of an event onto a day cell.
type MoveRequest struct {
	TargetDay string `json:"target_day"`
}

// ResizeRequest carries the new edges as RFC 3339 strings. They are kept
// as strings so an unparseable edge is reported as an invalid target
// rather than a generic bind failure.
type ResizeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
