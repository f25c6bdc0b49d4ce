package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// Context keys for the authenticated owner. Other plugins read them via
// the exported getters below.
const (
	contextKeyClaims  = "auth_claims"
	contextKeyOwnerID = "auth_owner_id"
)

// RequireOwner returns middleware that validates the bearer token (or the
// token cookie for browser pages) and injects the owner into the context.
// Missing, invalid, expired or revoked tokens get a 401.
func RequireOwner(service TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			claims, err := service.Validate(c.Request().Context(), token)
			if err != nil {
				if apperror.SafeCode(err) == http.StatusUnauthorized {
					clearTokenCookie(c)
				}
				return err
			}

			c.Set(contextKeyClaims, claims)
			c.Set(contextKeyOwnerID, claims.OwnerID())
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetClaims returns the validated claims, or nil outside RequireOwner.
func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Get(contextKeyClaims).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetOwnerID returns the authenticated owner id, or "".
func GetOwnerID(c echo.Context) string {
	id, ok := c.Get(contextKeyOwnerID).(string)
	if !ok {
		return ""
	}
	return id
}

// getToken reads "Authorization: Bearer <token>" first, then the cookie.
func getToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
