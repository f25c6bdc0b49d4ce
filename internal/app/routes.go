package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/database"
	"github.com/keyxmakerx/bizconsole/internal/plugins/auth"
	"github.com/keyxmakerx/bizconsole/internal/plugins/calendar"
)

// RegisterRoutes wires every plugin and registers its routes. This is the
// single place where routes are aggregated.
func (a *App) RegisterRoutes() error {
	e := a.Echo

	e.GET("/healthz", a.healthz)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/calendar")
	})

	// --- auth plugin ---
	tokenSvc, err := auth.NewTokenService(a.Config.Auth.SecretKey, a.Redis, a.Config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth plugin: %w", err)
	}
	authHandler := auth.NewHandler(tokenSvc, !a.Config.IsDevelopment())
	auth.RegisterRoutes(e, authHandler, tokenSvc, a.Config.Auth.AllowTokenIssue)

	// --- calendar plugin ---
	calCfg := a.Config.Calendar
	ws, _ := calendar.ParseWeekStart(calCfg.WeekStart)
	opts := calendar.Options{
		StartHour:        calCfg.StartHour,
		EndHour:          calCfg.EndHour,
		SlotMinutes:      calCfg.SlotMinutes,
		MaxEventsPerCell: calCfg.MaxEventsPerCell,
		WeekStart:        ws,
		Location:         calCfg.Location(),
	}
	calRepo := calendar.NewEventRepository(a.DB)
	calSvc := calendar.NewCalendarService(calRepo, opts.Location)
	calHandler := calendar.NewHandler(
		calSvc,
		calendar.NewRedisViewStore(a.Redis, calCfg.ViewStateTTL),
		calendar.NewRedisGuard(a.Redis, calCfg.PendingTTL),
		opts,
	)
	calendar.RegisterRoutes(e, calHandler, tokenSvc)

	return nil
}

// healthz reports whether MariaDB and Redis both answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "mariadb": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := database.Ping(ctx, a.DB.DB); err != nil {
		status["mariadb"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := database.PingRedis(ctx, a.Redis); err != nil {
		status["redis"] = "unreachable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
