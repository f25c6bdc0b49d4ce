package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/middleware"
)

// RegisterRoutes sets up the auth endpoints. Token issuing is only mounted
// when allowIssue is set (development); it is rate-limited per IP.
func RegisterRoutes(e *echo.Echo, h *Handler, service TokenService, allowIssue bool) {
	g := e.Group("/api/v1/auth")
	if allowIssue {
		g.POST("/token", h.IssueToken, middleware.RateLimit(10, time.Minute))
	}
	g.POST("/logout", h.Logout, RequireOwner(service))
	g.GET("/me", h.Me, RequireOwner(service))
}
