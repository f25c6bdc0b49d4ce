package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// EventRepository defines persistence for calendar events. Every query is
// scoped to an owner; an event belonging to someone else is reported as
// not found. Times go in and come out as UTC.
type EventRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Event, error)
	ListInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Event, error)
	FindByID(ctx context.Context, ownerID, id string) (*Event, error)
	Create(ctx context.Context, evt *Event) error
	Update(ctx context.Context, evt *Event) error
	Delete(ctx context.Context, ownerID, id string) error
}

// eventRepo is the MariaDB implementation of EventRepository. The SQL is
// kept portable so the tests can run it against SQLite.
type eventRepo struct {
	db *sqlx.DB
}

// NewEventRepository creates a new sqlx-backed event repository.
func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepo{db: db}
}

const eventCols = `id, owner_id, title, start_at, end_at, description, color_tag,
        created_at, updated_at`

// ListByOwner returns all of an owner's events ordered by start.
func (r *eventRepo) ListByOwner(ctx context.Context, ownerID string) ([]Event, error) {
	var events []Event
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE owner_id = ?
		 ORDER BY start_at, created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// ListInRange returns events overlapping [from, to] ordered by start.
func (r *eventRepo) ListInRange(ctx context.Context, ownerID string, from, to time.Time) ([]Event, error) {
	var events []Event
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE owner_id = ? AND start_at <= ? AND end_at >= ?
		 ORDER BY start_at, created_at`, ownerID, to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("listing events in range: %w", err)
	}
	return events, nil
}

// FindByID returns a single event or a not-found AppError.
func (r *eventRepo) FindByID(ctx context.Context, ownerID, id string) (*Event, error) {
	var evt Event
	err := r.db.GetContext(ctx, &evt,
		`SELECT `+eventCols+` FROM calendar_events WHERE id = ? AND owner_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding event: %w", err)
	}
	return &evt, nil
}

// Create inserts a new event. ID and timestamps are set by the caller.
func (r *eventRepo) Create(ctx context.Context, evt *Event) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO calendar_events (id, owner_id, title, start_at, end_at,
		        description, color_tag, created_at, updated_at)
		 VALUES (:id, :owner_id, :title, :start_at, :end_at,
		        :description, :color_tag, :created_at, :updated_at)`, evt)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing event.
func (r *eventRepo) Update(ctx context.Context, evt *Event) error {
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE calendar_events SET title = :title, start_at = :start_at, end_at = :end_at,
		        description = :description, color_tag = :color_tag, updated_at = :updated_at
		 WHERE id = :id AND owner_id = :owner_id`, evt)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	return requireRow(res)
}

// Delete removes an event.
func (r *eventRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM calendar_events WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}
