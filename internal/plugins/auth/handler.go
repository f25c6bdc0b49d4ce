package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// tokenCookieName carries the owner token for the HTML console.
const tokenCookieName = "bizconsole_token"

// Handler handles the token endpoints. Handlers bind, call the service and
// respond; no token logic lives here.
type Handler struct {
	service TokenService
	secure  bool
}

// NewHandler creates a new auth handler. secure marks the cookie Secure.
func NewHandler(service TokenService, secure bool) *Handler {
	return &Handler{service: service, secure: secure}
}

// IssueToken mints a token for the requested owner and sets the cookie.
// POST /api/v1/auth/token
func (h *Handler) IssueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, expiresAt, err := h.service.Issue(c.Request().Context(), req.OwnerID)
	if err != nil {
		return err
	}
	h.setTokenCookie(c, token, expiresAt)

	return c.JSON(http.StatusCreated, TokenResponse{
		Token:     token,
		OwnerID:   req.OwnerID,
		ExpiresAt: expiresAt,
	})
}

// Logout revokes the current token and clears the cookie.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if err := h.service.Revoke(c.Request().Context(), claims); err != nil {
		return err
	}
	clearTokenCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated owner.
// GET /api/v1/auth/me
func (h *Handler) Me(c echo.Context) error {
	claims := GetClaims(c)
	resp := map[string]any{"owner_id": GetOwnerID(c)}
	if claims != nil && claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	return c.JSON(http.StatusOK, resp)
}

// --- Cookie helpers ---

func (h *Handler) setTokenCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearTokenCookie removes the token cookie by setting MaxAge to -1.
func clearTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
