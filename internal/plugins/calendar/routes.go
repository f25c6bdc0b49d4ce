package calendar

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/plugins/auth"
)

// RegisterRoutes sets up all calendar routes. Everything is scoped to the
// authenticated owner.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.TokenService) {
	requireOwner := auth.RequireOwner(authSvc)

	// Browser console and file download.
	e.GET("/calendar", h.Show, requireOwner)
	e.GET("/calendar/export.ics", h.Export, requireOwner)

	api := e.Group("/api/v1/calendar", requireOwner)

	// View state.
	api.GET("/view", h.GetViewAPI)
	api.PUT("/view", h.UpdateViewAPI)
	api.POST("/navigate", h.NavigateAPI)

	// Events CRUD.
	api.GET("/events", h.ListEventsAPI)
	api.POST("/events", h.CreateEventAPI)
	api.GET("/events/:eid", h.GetEventAPI)
	api.PUT("/events/:eid", h.UpdateEventAPI)
	api.DELETE("/events/:eid", h.DeleteEventAPI)

	// Gestures.
	api.POST("/events/:eid/move", h.MoveEventAPI)
	api.POST("/events/:eid/resize", h.ResizeEventAPI)

	api.POST("/import", h.Import)
}
