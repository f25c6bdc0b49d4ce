package calendar

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
	"github.com/keyxmakerx/bizconsole/internal/middleware"
	"github.com/keyxmakerx/bizconsole/internal/plugins/auth"
)

// maxImportBytes caps an uploaded .ics body.
const maxImportBytes = 5 << 20

// Handler processes HTTP requests for the calendar plugin. Each request
// builds a Controller for the owner, restores the saved view state, runs
// one action and saves the state back.
type Handler struct {
	svc   CalendarService
	views ViewStateStore
	guard PendingGuard
	opts  Options
}

// NewHandler creates a new calendar Handler.
func NewHandler(svc CalendarService, views ViewStateStore, guard PendingGuard, opts Options) *Handler {
	return &Handler{svc: svc, views: views, guard: guard, opts: opts}
}

// controller builds the owner's controller with saved state and events.
func (h *Handler) controller(c echo.Context) (*Controller, error) {
	ctx := c.Request().Context()
	owner := auth.GetOwnerID(c)

	ctrl := NewController(owner, h.svc, h.guard, h.opts)
	state, ok, err := h.views.Load(ctx, owner)
	if err != nil {
		// Losing the saved view is not worth failing the request.
		slog.Warn("loading view state", slog.String("owner_id", owner), slog.Any("error", err))
	} else if ok {
		ctrl.Restore(state)
	}

	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (h *Handler) saveState(c echo.Context, ctrl *Controller) error {
	return h.views.Save(c.Request().Context(), auth.GetOwnerID(c), ctrl.State())
}

// Show renders the HTML console for the current view.
// GET /calendar
func (h *Handler) Show(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	v := ctrl.Render()
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, CalendarFragment(v))
	}
	return middleware.Render(c, http.StatusOK, CalendarPage(v))
}

// --- View API ---

// GetViewAPI returns the rendered view as JSON.
// GET /api/v1/calendar/view
func (h *Handler) GetViewAPI(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Render())
}

// UpdateViewAPI changes view mode, week start, filter or anchor.
// PUT /api/v1/calendar/view
func (h *Handler) UpdateViewAPI(c echo.Context) error {
	var req ViewRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	if req.ViewMode != nil {
		if err := ctrl.SetViewMode(ViewMode(strings.ToLower(*req.ViewMode))); err != nil {
			return err
		}
	}
	if req.WeekStart != nil {
		if err := ctrl.SetWeekStart(WeekStart(*req.WeekStart)); err != nil {
			return err
		}
	}
	if req.FilterTerm != nil {
		ctrl.SetFilter(*req.FilterTerm)
	}
	if req.AnchorDate != nil {
		day, err := ParseDayKey(*req.AnchorDate, h.opts.Location)
		if err != nil {
			return apperror.NewValidation("anchor_date must be YYYY-MM-DD")
		}
		ctrl.GoTo(day)
	}

	if err := h.saveState(c, ctrl); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Render())
}

// NavigateAPI moves the view one step or back to today.
// POST /api/v1/calendar/navigate
func (h *Handler) NavigateAPI(c echo.Context) error {
	var req NavigateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	switch strings.ToLower(req.Direction) {
	case "prev":
		ctrl.Prev()
	case "next":
		ctrl.Next()
	case "today":
		ctrl.Today()
	default:
		return apperror.NewValidation("direction must be prev, next or today")
	}

	if err := h.saveState(c, ctrl); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Render())
}

// --- Events API ---

// ListEventsAPI returns the owner's events, optionally limited to
// ?from=YYYY-MM-DD&to=YYYY-MM-DD (inclusive days).
// GET /api/v1/calendar/events
func (h *Handler) ListEventsAPI(c echo.Context) error {
	ctx := c.Request().Context()
	owner := auth.GetOwnerID(c)

	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from == "" && to == "" {
		events, err := h.svc.ListEvents(ctx, owner)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"events": nonNil(events)})
	}

	fromDay, err := ParseDayKey(from, h.opts.Location)
	if err != nil {
		return apperror.NewValidation("from must be YYYY-MM-DD")
	}
	toDay, err := ParseDayKey(to, h.opts.Location)
	if err != nil {
		return apperror.NewValidation("to must be YYYY-MM-DD")
	}
	events, err := h.svc.ListEventsInRange(ctx, owner, fromDay, EndOfDay(toDay))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"events": nonNil(events)})
}

// GetEventAPI returns one event.
// GET /api/v1/calendar/events/:eid
func (h *Handler) GetEventAPI(c echo.Context) error {
	evt, err := h.svc.GetEvent(c.Request().Context(), auth.GetOwnerID(c), c.Param("eid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, evt)
}

// CreateEventAPI creates an event from the edit dialog.
// POST /api/v1/calendar/events
func (h *Handler) CreateEventAPI(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	evt, err := ctrl.Create(c.Request().Context(), EventInput{
		Title:       req.Title,
		Start:       req.Start,
		End:         req.End,
		Description: req.Description,
		ColorTag:    req.ColorTag,
	})
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusCreated, evt)
}

// UpdateEventAPI applies an edit-dialog patch.
// PUT /api/v1/calendar/events/:eid
func (h *Handler) UpdateEventAPI(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	evt, err := ctrl.Update(c.Request().Context(), c.Param("eid"), EventPatch{
		Title:       req.Title,
		Start:       req.Start,
		End:         req.End,
		Description: req.Description,
		ColorTag:    req.ColorTag,
	})
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, evt)
}

// DeleteEventAPI removes an event.
// DELETE /api/v1/calendar/events/:eid
func (h *Handler) DeleteEventAPI(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	if err := ctrl.Delete(c.Request().Context(), c.Param("eid")); err != nil {
		return engineError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MoveEventAPI handles a drag-and-drop onto a day.
// POST /api/v1/calendar/events/:eid/move
func (h *Handler) MoveEventAPI(c echo.Context) error {
	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	evt, err := ctrl.Move(c.Request().Context(), c.Param("eid"), req.TargetDay)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, evt)
}

// ResizeEventAPI handles a resize gesture.
// POST /api/v1/calendar/events/:eid/resize
func (h *Handler) ResizeEventAPI(c echo.Context) error {
	var req ResizeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	start, err := parseInstant("start", req.Start)
	if err != nil {
		return engineError(err)
	}
	end, err := parseInstant("end", req.End)
	if err != nil {
		return engineError(err)
	}

	ctrl, err := h.controller(c)
	if err != nil {
		return err
	}
	evt, err := ctrl.Resize(c.Request().Context(), c.Param("eid"), start, end)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, evt)
}

// --- iCalendar ---

// Export downloads the owner's events as an .ics file.
// GET /calendar/export.ics
func (h *Handler) Export(c echo.Context) error {
	owner := auth.GetOwnerID(c)
	events, err := h.svc.ListEvents(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	body := ExportICS(events, "Business calendar")
	c.Response().Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// Import creates events from an uploaded .ics body. Either the raw
// request body or a multipart "file" field is accepted.
// POST /api/v1/calendar/import
func (h *Handler) Import(c echo.Context) error {
	var r io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperror.NewBadRequest("missing file")
		}
		f, err := fh.Open()
		if err != nil {
			return apperror.NewBadRequest("unreadable file")
		}
		defer f.Close()
		r = f
	}

	inputs, err := ParseICS(io.LimitReader(r, maxImportBytes), h.opts.Location)
	if err != nil {
		return apperror.NewValidation(fmt.Sprintf("invalid calendar file: %v", err))
	}
	created, err := h.svc.ImportEvents(c.Request().Context(), auth.GetOwnerID(c), inputs)
	if err != nil {
		return err
	}

	slog.Info("calendar imported",
		slog.String("owner_id", auth.GetOwnerID(c)),
		slog.Int("events", len(created)),
	)
	return c.JSON(http.StatusCreated, map[string]any{"imported": len(created), "events": nonNil(created)})
}

// --- Helpers ---

// engineError maps controller errors onto client-safe AppErrors.
func engineError(err error) error {
	var target *InvalidTargetError
	switch {
	case errors.As(err, &target):
		return apperror.NewInvalidTarget(target.Error(), err)
	case errors.Is(err, ErrGesturePending):
		return apperror.NewConflict(ErrGesturePending.Error())
	}
	return err
}

func parseInstant(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &InvalidTargetError{Target: field, Err: err}
	}
	return t, nil
}

func nonNil(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	return events
}
