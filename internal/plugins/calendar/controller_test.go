package calendar

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// --- Mock Store ---

// mockStore implements EventStore for testing.
type mockStore struct {
	listFn   func(ctx context.Context, ownerID string) ([]Event, error)
	createFn func(ctx context.Context, ownerID string, input EventInput) (*Event, error)
	updateFn func(ctx context.Context, ownerID, id string, patch EventPatch) (*Event, error)
	deleteFn func(ctx context.Context, ownerID, id string) error

	updates int
}

func (m *mockStore) ListEvents(ctx context.Context, ownerID string) ([]Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockStore) CreateEvent(ctx context.Context, ownerID string, input EventInput) (*Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return &Event{ID: "new", OwnerID: ownerID, Title: input.Title, Start: input.Start, End: input.End}, nil
}

// UpdateEvent applies the patch to nothing and echoes it back unless
// updateFn is set.
func (m *mockStore) UpdateEvent(ctx context.Context, ownerID, id string, patch EventPatch) (*Event, error) {
	m.updates++
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, id, patch)
	}
	e := &Event{ID: id, OwnerID: ownerID}
	if patch.Start != nil {
		e.Start = *patch.Start
	}
	if patch.End != nil {
		e.End = *patch.End
	}
	return e, nil
}

func (m *mockStore) DeleteEvent(ctx context.Context, ownerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}

// --- Test Helpers ---

func testOptions() Options {
	opts := DefaultOptions()
	opts.Location = time.UTC
	return opts
}

// newTestController returns a controller loaded with events and a clock
// fixed at 2025-03-12 10:00 UTC.
func newTestController(t *testing.T, store *mockStore, events ...Event) *Controller {
	t.Helper()
	store.listFn = func(context.Context, string) ([]Event, error) { return events, nil }
	c := NewController("owner-1", store, nil, testOptions())
	c.now = func() time.Time { return at(2025, time.March, 12, 10, 0) }
	c.state = c.DefaultState()
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

// --- View State ---

func TestController_DefaultState(t *testing.T) {
	c := newTestController(t, &mockStore{})
	s := c.State()
	if s.ViewMode != ViewMonth {
		t.Errorf("expected month view, got %s", s.ViewMode)
	}
	if s.WeekStart != WeekStartMonday {
		t.Errorf("expected monday, got %s", s.WeekStart)
	}
	if !s.AnchorDate.Equal(date(2025, time.March, 12)) {
		t.Errorf("expected today anchor, got %s", s.AnchorDate)
	}
}

func TestController_Restore_Normalizes(t *testing.T) {
	c := newTestController(t, &mockStore{})
	c.Restore(ViewState{
		AnchorDate: at(2025, time.July, 4, 15, 30),
		ViewMode:   "agenda",
		WeekStart:  "SUNDAY",
		FilterTerm: "review",
	})
	s := c.State()
	if s.ViewMode != ViewMonth {
		t.Errorf("expected unknown mode to fall back to month, got %s", s.ViewMode)
	}
	if s.WeekStart != WeekStartSunday {
		t.Errorf("expected sunday, got %s", s.WeekStart)
	}
	if !s.AnchorDate.Equal(date(2025, time.July, 4)) {
		t.Errorf("expected anchor truncated to day, got %s", s.AnchorDate)
	}
	if s.FilterTerm != "review" {
		t.Errorf("expected filter kept, got %q", s.FilterTerm)
	}

	c.Restore(ViewState{})
	if !c.State().AnchorDate.Equal(date(2025, time.March, 12)) {
		t.Errorf("expected zero anchor to become today, got %s", c.State().AnchorDate)
	}
}

func TestController_SetViewMode(t *testing.T) {
	c := newTestController(t, &mockStore{})
	if err := c.SetViewMode(ViewWeek); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State().ViewMode != ViewWeek {
		t.Errorf("expected week, got %s", c.State().ViewMode)
	}
	assertAppError(t, c.SetViewMode("year"), http.StatusUnprocessableEntity)
	assertAppError(t, c.SetWeekStart("friday"), http.StatusUnprocessableEntity)
}

func TestController_Navigation(t *testing.T) {
	c := newTestController(t, &mockStore{})
	c.Next()
	if DayKey(c.State().AnchorDate) != "2025-04-01" {
		t.Errorf("expected 2025-04-01, got %s", DayKey(c.State().AnchorDate))
	}
	c.Prev()
	c.Prev()
	if DayKey(c.State().AnchorDate) != "2025-02-01" {
		t.Errorf("expected 2025-02-01, got %s", DayKey(c.State().AnchorDate))
	}
	c.Today()
	if DayKey(c.State().AnchorDate) != "2025-03-12" {
		t.Errorf("expected today, got %s", DayKey(c.State().AnchorDate))
	}
	c.GoTo(at(2026, time.January, 9, 23, 0))
	if DayKey(c.State().AnchorDate) != "2026-01-09" {
		t.Errorf("expected 2026-01-09, got %s", DayKey(c.State().AnchorDate))
	}
}

// --- Gestures ---

func TestController_Move_MergesConfirmedRecord(t *testing.T) {
	store := &mockStore{}
	store.updateFn = func(_ context.Context, ownerID, id string, patch EventPatch) (*Event, error) {
		if ownerID != "owner-1" || id != "e1" {
			t.Fatalf("unexpected update %s/%s", ownerID, id)
		}
		// The server's record wins, including fields the patch didn't touch.
		return &Event{ID: id, Title: "Renamed by server", Start: *patch.Start, End: *patch.End}, nil
	}
	c := newTestController(t, store,
		evt("e1", at(2025, time.March, 3, 14, 0), at(2025, time.March, 3, 16, 0)))

	got, err := c.Move(context.Background(), "e1", "2025-03-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Start.Equal(at(2025, time.March, 7, 14, 0)) || !got.End.Equal(at(2025, time.March, 7, 16, 0)) {
		t.Errorf("unexpected result %s - %s", got.Start, got.End)
	}
	inMem, _ := c.Event("e1")
	if inMem.Title != "Renamed by server" {
		t.Errorf("expected server record merged, got title %q", inMem.Title)
	}
}

func TestController_Move_FailureLeavesListUntouched(t *testing.T) {
	store := &mockStore{}
	store.updateFn = func(context.Context, string, string, EventPatch) (*Event, error) {
		return nil, errors.New("database unavailable")
	}
	orig := evt("e1", at(2025, time.March, 3, 14, 0), at(2025, time.March, 3, 16, 0))
	c := newTestController(t, store, orig)

	if _, err := c.Move(context.Background(), "e1", "2025-03-07"); err == nil {
		t.Fatal("expected error")
	}
	inMem, _ := c.Event("e1")
	if !inMem.Start.Equal(orig.Start) || !inMem.End.Equal(orig.End) {
		t.Errorf("expected event unchanged, got %s - %s", inMem.Start, inMem.End)
	}

	// The grid is derived from the unchanged list, so the event is still
	// drawn on its original day.
	c.GoTo(date(2025, time.March, 3))
	if len(c.Render().Cells["2025-03-03"].Shown) != 1 {
		t.Error("expected event still placed on 2025-03-03")
	}
}

func TestController_Move_InvalidTarget(t *testing.T) {
	store := &mockStore{}
	c := newTestController(t, store,
		evt("e1", at(2025, time.March, 3, 14, 0), at(2025, time.March, 3, 16, 0)))

	_, err := c.Move(context.Background(), "e1", "not-a-day")
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if store.updates != 0 {
		t.Errorf("expected no store call, got %d", store.updates)
	}
}

func TestController_Move_UnknownEvent(t *testing.T) {
	c := newTestController(t, &mockStore{})
	_, err := c.Move(context.Background(), "missing", "2025-03-07")
	assertAppError(t, err, http.StatusNotFound)
}

func TestController_Resize_SnapsToDays(t *testing.T) {
	store := &mockStore{}
	c := newTestController(t, store,
		evt("e1", at(2025, time.March, 5, 9, 0), at(2025, time.March, 5, 10, 0)))

	got, err := c.Resize(context.Background(), "e1", at(2025, time.March, 5, 13, 10), at(2025, time.March, 6, 2, 45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Start.Equal(date(2025, time.March, 5)) || !got.End.Equal(EndOfDay(date(2025, time.March, 6))) {
		t.Errorf("expected [start of Mar 5, end of Mar 6], got [%s, %s]", got.Start, got.End)
	}
}

func TestController_PendingGestureRejected(t *testing.T) {
	guard := NewMemoryGuard()
	store := &mockStore{}
	store.listFn = func(context.Context, string) ([]Event, error) {
		return []Event{evt("e1", at(2025, time.March, 3, 14, 0), at(2025, time.March, 3, 16, 0))}, nil
	}
	c := NewController("owner-1", store, guard, testOptions())
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	release, err := guard.Acquire(context.Background(), "owner-1", "e1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := c.Move(context.Background(), "e1", "2025-03-07"); !errors.Is(err, ErrGesturePending) {
		t.Errorf("expected ErrGesturePending, got %v", err)
	}
	if err := c.Delete(context.Background(), "e1"); !errors.Is(err, ErrGesturePending) {
		t.Errorf("expected ErrGesturePending, got %v", err)
	}
	if store.updates != 0 {
		t.Errorf("expected no store call while pending, got %d", store.updates)
	}

	release()
	if _, err := c.Move(context.Background(), "e1", "2025-03-07"); err != nil {
		t.Errorf("expected move to succeed after release, got %v", err)
	}
}

func TestController_GuardReleasedAfterFailure(t *testing.T) {
	store := &mockStore{}
	fail := true
	store.updateFn = func(_ context.Context, _, id string, patch EventPatch) (*Event, error) {
		if fail {
			return nil, errors.New("timeout")
		}
		return &Event{ID: id, Start: *patch.Start, End: *patch.End}, nil
	}
	c := newTestController(t, store,
		evt("e1", at(2025, time.March, 3, 14, 0), at(2025, time.March, 3, 16, 0)))

	if _, err := c.Move(context.Background(), "e1", "2025-03-07"); err == nil {
		t.Fatal("expected first move to fail")
	}
	fail = false
	if _, err := c.Move(context.Background(), "e1", "2025-03-07"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestController_CreateAndDelete(t *testing.T) {
	store := &mockStore{}
	c := newTestController(t, store)

	created, err := c.Create(context.Background(), EventInput{
		Title: "Kickoff", Start: at(2025, time.March, 12, 9, 0), End: at(2025, time.March, 12, 10, 0),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(c.Events()) != 1 {
		t.Fatalf("expected 1 event after create, got %d", len(c.Events()))
	}

	store.deleteFn = func(context.Context, string, string) error { return errors.New("locked") }
	if err := c.Delete(context.Background(), created.ID); err == nil {
		t.Fatal("expected delete failure")
	}
	if len(c.Events()) != 1 {
		t.Fatal("expected event kept after failed delete")
	}

	store.deleteFn = nil
	if err := c.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(c.Events()) != 0 {
		t.Errorf("expected no events, got %d", len(c.Events()))
	}
}

func TestController_CreateFailureAddsNothing(t *testing.T) {
	store := &mockStore{
		createFn: func(context.Context, string, EventInput) (*Event, error) {
			return nil, errors.New("insert failed")
		},
	}
	c := newTestController(t, store)
	if _, err := c.Create(context.Background(), EventInput{Title: "X"}); err == nil {
		t.Fatal("expected error")
	}
	if len(c.Events()) != 0 {
		t.Errorf("expected empty list, got %d", len(c.Events()))
	}
}

// --- Render ---

func TestController_Render_Month(t *testing.T) {
	c := newTestController(t, &mockStore{},
		Event{ID: "a", Title: "Budget review", Start: at(2025, time.March, 12, 9, 0), End: at(2025, time.March, 12, 10, 0)},
		Event{ID: "b", Title: "Lunch", Start: at(2025, time.March, 12, 12, 0), End: at(2025, time.March, 12, 13, 0)},
	)

	v := c.Render()
	if v.Title != "March 2025" {
		t.Errorf("expected title March 2025, got %q", v.Title)
	}
	if len(v.Weeks) == 0 || v.Cells == nil {
		t.Fatal("expected month grid and cells")
	}
	if v.Days != nil || v.Timed != nil {
		t.Error("expected no timed layout in month view")
	}
	if got := len(v.Cells["2025-03-12"].Shown); got != 2 {
		t.Errorf("expected 2 events on 2025-03-12, got %d", got)
	}

	c.SetFilter("BUDGET")
	v = c.Render()
	if v.FilteredCount != 1 || len(v.Cells["2025-03-12"].Shown) != 1 {
		t.Errorf("expected filter to leave 1 event, got count=%d shown=%d", v.FilteredCount, len(v.Cells["2025-03-12"].Shown))
	}
}

func TestController_Render_Week(t *testing.T) {
	c := newTestController(t, &mockStore{},
		Event{ID: "a", Title: "Review", Start: at(2025, time.March, 12, 9, 30), End: at(2025, time.March, 12, 11, 0)})
	if err := c.SetViewMode(ViewWeek); err != nil {
		t.Fatal(err)
	}

	v := c.Render()
	if v.Title != "Mar 10 - 16, 2025" {
		t.Errorf("unexpected title %q", v.Title)
	}
	if len(v.Days) != 7 || len(v.Slots) != 24 {
		t.Fatalf("expected 7 days and 24 slots, got %d and %d", len(v.Days), len(v.Slots))
	}
	ps := v.Timed["2025-03-12"]
	if len(ps) != 1 || ps[0].TopOffsetMinutes != 570 || ps[0].DurationMinutes != 90 {
		t.Errorf("unexpected placement %+v", ps)
	}
	if !v.Days[2].IsToday {
		t.Error("expected Wednesday marked as today")
	}
}

func TestController_Render_DayTitle(t *testing.T) {
	c := newTestController(t, &mockStore{})
	if err := c.SetViewMode(ViewDay); err != nil {
		t.Fatal(err)
	}
	if got := c.Render().Title; got != "Wednesday, March 12, 2025" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestViewTitle_WeekAcrossMonths(t *testing.T) {
	s := ViewState{AnchorDate: date(2025, time.March, 31), ViewMode: ViewWeek, WeekStart: WeekStartMonday}
	if got := viewTitle(s); got != "Mar 31 - Apr 6, 2025" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestController_LoadFailure(t *testing.T) {
	store := &mockStore{
		listFn: func(context.Context, string) ([]Event, error) { return nil, errors.New("down") },
	}
	c := NewController("owner-1", store, nil, testOptions())
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
