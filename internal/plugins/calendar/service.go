package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
	"github.com/keyxmakerx/bizconsole/internal/sanitize"
)

// Field limits, matching the calendar_events columns.
const (
	maxTitleLength    = 200
	maxColorTagLength = 32
)

// CalendarService is the edit-dialog boundary: it validates input, assigns
// ids and timestamps, and returns server-confirmed records in the
// configured time zone.
type CalendarService interface {
	ListEvents(ctx context.Context, ownerID string) ([]Event, error)
	ListEventsInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Event, error)
	GetEvent(ctx context.Context, ownerID, id string) (*Event, error)
	CreateEvent(ctx context.Context, ownerID string, input EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, ownerID, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, ownerID, id string) error

	// ImportEvents validates every input before creating any of them.
	ImportEvents(ctx context.Context, ownerID string, inputs []EventInput) ([]Event, error)
}

// calendarService is the default CalendarService implementation.
type calendarService struct {
	repo EventRepository
	loc  *time.Location
	now  func() time.Time
}

// NewCalendarService creates a CalendarService backed by repo. Returned
// events are converted to loc; nil means time.Local.
func NewCalendarService(repo EventRepository, loc *time.Location) CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &calendarService{repo: repo, loc: loc, now: time.Now}
}

// ListEvents returns every event the owner has.
func (s *calendarService) ListEvents(ctx context.Context, ownerID string) ([]Event, error) {
	events, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.localizeAll(events), nil
}

// ListEventsInRange returns the owner's events overlapping [from, to].
func (s *calendarService) ListEventsInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Event, error) {
	if to.Before(from) {
		return nil, apperror.NewBadRequest("range end is before range start")
	}
	events, err := s.repo.ListInRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events in range: %w", err)
	}
	return s.localizeAll(events), nil
}

// GetEvent returns one event.
func (s *calendarService) GetEvent(ctx context.Context, ownerID, id string) (*Event, error) {
	evt, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.localize(evt)
	return evt, nil
}

// CreateEvent validates input and stores a new event.
func (s *calendarService) CreateEvent(ctx context.Context, ownerID string, input EventInput) (*Event, error) {
	evt, err := s.newEvent(ownerID, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, evt); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.localize(evt)
	return evt, nil
}

// UpdateEvent applies a partial patch. The merged record is validated as a
// whole, so a patch that only moves Start past the stored End is rejected.
func (s *calendarService) UpdateEvent(ctx context.Context, ownerID, id string, patch EventPatch) (*Event, error) {
	evt, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		evt.Title = *patch.Title
	}
	if patch.Start != nil {
		evt.Start = *patch.Start
	}
	if patch.End != nil {
		evt.End = *patch.End
	}
	if patch.Description != nil {
		evt.Description = optional(*patch.Description)
	}
	if patch.ColorTag != nil {
		evt.ColorTag = optional(*patch.ColorTag)
	}

	in := EventInput{
		Title:       evt.Title,
		Start:       evt.Start,
		End:         evt.End,
		Description: evt.Description,
		ColorTag:    evt.ColorTag,
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	evt.Title = in.Title
	evt.Start = storedTime(in.Start)
	evt.End = storedTime(in.End)
	evt.Description = in.Description
	evt.ColorTag = in.ColorTag
	evt.UpdatedAt = storedTime(s.now())

	if err := s.repo.Update(ctx, evt); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.localize(evt)
	return evt, nil
}

// DeleteEvent removes an event.
func (s *calendarService) DeleteEvent(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ImportEvents creates a batch of events. Nothing is written unless every
// input is valid.
func (s *calendarService) ImportEvents(ctx context.Context, ownerID string, inputs []EventInput) ([]Event, error) {
	pending := make([]*Event, 0, len(inputs))
	for i, in := range inputs {
		evt, err := s.newEvent(ownerID, in)
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("event %d: %s", i+1, apperror.SafeMessage(err)))
		}
		pending = append(pending, evt)
	}

	created := make([]Event, 0, len(pending))
	for _, evt := range pending {
		if err := s.repo.Create(ctx, evt); err != nil {
			return created, fmt.Errorf("import event: %w", err)
		}
		s.localize(evt)
		created = append(created, *evt)
	}
	return created, nil
}

func (s *calendarService) newEvent(ownerID string, input EventInput) (*Event, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	now := storedTime(s.now())
	return &Event{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Start:       storedTime(input.Start),
		End:         storedTime(input.End),
		Description: input.Description,
		ColorTag:    input.ColorTag,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// validateInput trims and checks an event. It normalizes in place: markup
// is stripped from text fields, the title is trimmed and empty optional
// strings become nil.
func validateInput(in *EventInput) error {
	in.Title = strings.TrimSpace(sanitize.Text(in.Title))
	if in.Title == "" {
		return apperror.NewValidation("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return apperror.NewValidation(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return apperror.NewValidation("start and end are required")
	}
	if in.Start.After(in.End) {
		return apperror.NewValidation("end must not be before start")
	}
	if in.Description != nil {
		in.Description = optional(sanitize.Text(*in.Description))
	}
	if in.ColorTag != nil {
		in.ColorTag = optional(sanitize.Text(*in.ColorTag))
		if in.ColorTag != nil && len(*in.ColorTag) > maxColorTagLength {
			return apperror.NewValidation(fmt.Sprintf("color tag must be at most %d characters", maxColorTagLength))
		}
	}
	return nil
}

// optional maps blank strings to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// storedTime is what DATETIME(3) keeps: UTC, milliseconds.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (s *calendarService) localize(evt *Event) {
	evt.Start = evt.Start.In(s.loc)
	evt.End = evt.End.In(s.loc)
	evt.CreatedAt = evt.CreatedAt.In(s.loc)
	evt.UpdatedAt = evt.UpdatedAt.In(s.loc)
}

func (s *calendarService) localizeAll(events []Event) []Event {
	for i := range events {
		s.localize(&events[i])
	}
	return events
}
