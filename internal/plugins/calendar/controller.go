package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// EventStore is the persistence boundary the controller writes through.
// Every call returns the server-confirmed record; the controller never
// merges anything the store did not return. CalendarService satisfies it.
type EventStore interface {
	ListEvents(ctx context.Context, ownerID string) ([]Event, error)
	CreateEvent(ctx context.Context, ownerID string, input EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, ownerID, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, ownerID, id string) error
}

// View is everything needed to draw the current state: the grid for its
// mode plus placements of the filtered events.
type View struct {
	State      ViewState `json:"state"`
	Title      string    `json:"title"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`

	// Month mode.
	Weeks []Week         `json:"weeks,omitempty"`
	Cells MonthPlacement `json:"cells,omitempty"`

	// Week and day modes.
	Days        []Day                  `json:"days,omitempty"`
	Slots       []Slot                 `json:"slots,omitempty"`
	Timed       map[string][]Placement `json:"timed,omitempty"`
	StartHour   int                    `json:"start_hour"`
	EndHour     int                    `json:"end_hour"`
	SlotMinutes int                    `json:"slot_minutes"`

	// FilteredCount is how many events survived the filter.
	FilteredCount int `json:"filtered_count"`
}

// Controller owns one session's view state and event list. Gestures go
// through the calculators, then one store call; only a confirmed record is
// merged. A Controller is not safe for concurrent use.
type Controller struct {
	ownerID string
	store   EventStore
	guard   PendingGuard
	opts    Options
	now     func() time.Time

	state  ViewState
	events *eventList
}

// NewController creates a controller anchored on today in month view. A
// nil guard means an in-memory guard private to this controller.
func NewController(ownerID string, store EventStore, guard PendingGuard, opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if guard == nil {
		guard = NewMemoryGuard()
	}
	c := &Controller{
		ownerID: ownerID,
		store:   store,
		guard:   guard,
		opts:    opts,
		now:     time.Now,
		events:  newEventList(nil),
	}
	c.state = c.DefaultState()
	return c
}

// DefaultState is the state a new session starts from.
func (c *Controller) DefaultState() ViewState {
	ws := c.opts.WeekStart
	if _, ok := ParseWeekStart(string(ws)); !ok {
		ws = WeekStartMonday
	}
	return ViewState{
		AnchorDate: c.today(),
		ViewMode:   ViewMonth,
		WeekStart:  ws,
	}
}

func (c *Controller) today() time.Time {
	return StartOfDay(c.now().In(c.opts.Location))
}

// Load replaces the in-memory list with the owner's stored events.
func (c *Controller) Load(ctx context.Context) error {
	events, err := c.store.ListEvents(ctx, c.ownerID)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	c.events = newEventList(events)
	return nil
}

// Events returns the in-memory list in load order.
func (c *Controller) Events() []Event { return c.events.all() }

// Event returns one in-memory event.
func (c *Controller) Event(id string) (Event, bool) { return c.events.get(id) }

// --- View state ---

// State returns the current view state.
func (c *Controller) State() ViewState { return c.state }

// Restore replaces the view state, e.g. with one saved from an earlier
// request. Unknown modes and week starts fall back to the defaults.
func (c *Controller) Restore(s ViewState) {
	def := c.DefaultState()
	if !s.ViewMode.Valid() {
		s.ViewMode = def.ViewMode
	}
	if ws, ok := ParseWeekStart(string(s.WeekStart)); ok {
		s.WeekStart = ws
	} else {
		s.WeekStart = def.WeekStart
	}
	if s.AnchorDate.IsZero() {
		s.AnchorDate = def.AnchorDate
	}
	s.AnchorDate = StartOfDay(s.AnchorDate.In(c.opts.Location))
	c.state = s
}

// SetViewMode switches between month, week and day.
func (c *Controller) SetViewMode(mode ViewMode) error {
	if !mode.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown view mode %q", mode))
	}
	c.state.ViewMode = mode
	return nil
}

// SetWeekStart changes the grid's first day of week.
func (c *Controller) SetWeekStart(ws WeekStart) error {
	parsed, ok := ParseWeekStart(string(ws))
	if !ok {
		return apperror.NewValidation(fmt.Sprintf("unknown week start %q", ws))
	}
	c.state.WeekStart = parsed
	return nil
}

// SetFilter sets the free-text filter applied before placement.
func (c *Controller) SetFilter(term string) {
	c.state.FilterTerm = term
}

// GoTo anchors the view on day.
func (c *Controller) GoTo(day time.Time) {
	c.state.AnchorDate = StartOfDay(day.In(c.opts.Location))
}

// Prev and Next move one view-length; Today re-anchors on the current date.
func (c *Controller) Prev() { c.state = Navigate(c.state, -1) }

func (c *Controller) Next() { c.state = Navigate(c.state, 1) }

func (c *Controller) Today() { c.state.AnchorDate = c.today() }

// --- Gestures ---

// Move drops an event on the day identified by targetDayKey. An
// unresolvable key returns an *InvalidTargetError and nothing changes.
func (c *Controller) Move(ctx context.Context, eventID, targetDayKey string) (*Event, error) {
	evt, ok := c.events.get(eventID)
	if !ok {
		return nil, apperror.NewNotFound("event not found")
	}
	r, err := Reschedule(evt, targetDayKey, c.opts.Location)
	if err != nil {
		return nil, err
	}
	return c.update(ctx, eventID, TimePatch(r))
}

// Resize applies a resize gesture; both ends snap to day boundaries.
func (c *Controller) Resize(ctx context.Context, eventID string, newStart, newEnd time.Time) (*Event, error) {
	if _, ok := c.events.get(eventID); !ok {
		return nil, apperror.NewNotFound("event not found")
	}
	r, err := Resize(newStart.In(c.opts.Location), newEnd.In(c.opts.Location))
	if err != nil {
		return nil, err
	}
	return c.update(ctx, eventID, TimePatch(r))
}

// Create stores a new event and adds the confirmed record to the list.
func (c *Controller) Create(ctx context.Context, input EventInput) (*Event, error) {
	evt, err := c.store.CreateEvent(ctx, c.ownerID, input)
	if err != nil {
		return nil, err
	}
	c.events.put(*evt)
	return evt, nil
}

// Update applies an edit-dialog patch.
func (c *Controller) Update(ctx context.Context, eventID string, patch EventPatch) (*Event, error) {
	if _, ok := c.events.get(eventID); !ok {
		return nil, apperror.NewNotFound("event not found")
	}
	return c.update(ctx, eventID, patch)
}

// Delete removes an event once the store confirms.
func (c *Controller) Delete(ctx context.Context, eventID string) error {
	if _, ok := c.events.get(eventID); !ok {
		return apperror.NewNotFound("event not found")
	}
	release, err := c.guard.Acquire(ctx, c.ownerID, eventID)
	if err != nil {
		return err
	}
	defer release()

	if err := c.store.DeleteEvent(ctx, c.ownerID, eventID); err != nil {
		return err
	}
	c.events.remove(eventID)
	return nil
}

// update is the single write path for moves, resizes and edits. The list
// is untouched unless the store returns a record.
func (c *Controller) update(ctx context.Context, eventID string, patch EventPatch) (*Event, error) {
	release, err := c.guard.Acquire(ctx, c.ownerID, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	evt, err := c.store.UpdateEvent(ctx, c.ownerID, eventID, patch)
	if err != nil {
		return nil, err
	}
	c.events.put(*evt)
	return evt, nil
}

// --- Rendering ---

// Render derives the grid and placements for the current state.
func (c *Controller) Render() View {
	s := c.state
	filtered := FilterEvents(c.events.all(), s.FilterTerm)
	today := c.today()
	rangeStart, rangeEnd := VisibleRange(s)

	v := View{
		State:         s,
		Title:         viewTitle(s),
		RangeStart:    rangeStart,
		RangeEnd:      rangeEnd,
		StartHour:     c.opts.StartHour,
		EndHour:       c.opts.EndHour,
		SlotMinutes:   c.opts.SlotMinutes,
		FilteredCount: len(filtered),
	}

	switch s.ViewMode {
	case ViewMonth:
		v.Weeks = BuildMonthGrid(s.AnchorDate, s.WeekStart, today)
		v.Cells = PlaceForMonth(filtered, v.Weeks, c.opts.MaxEventsPerCell)
	case ViewWeek:
		v.Days = BuildWeekDays(s.AnchorDate, s.WeekStart, today)
	default:
		v.Days = BuildDayView(s.AnchorDate, today)
	}
	if s.ViewMode != ViewMonth {
		v.Slots = BuildTimeSlots(c.opts.StartHour, c.opts.EndHour, c.opts.SlotMinutes)
		v.Timed = PlaceForDays(filtered, v.Days, c.opts)
	}
	return v
}

func viewTitle(s ViewState) string {
	switch s.ViewMode {
	case ViewMonth:
		return s.AnchorDate.Format("January 2006")
	case ViewWeek:
		start, end := VisibleRange(s)
		if start.Month() == end.Month() {
			return fmt.Sprintf("%s %d - %d, %d", start.Format("Jan"), start.Day(), end.Day(), start.Year())
		}
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	default:
		return s.AnchorDate.Format("Monday, January 2, 2006")
	}
}
