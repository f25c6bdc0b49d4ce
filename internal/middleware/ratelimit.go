package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bizconsole/internal/apperror"
)

// rateWindow counts one IP's requests in the current fixed window.
type rateWindow struct {
	count int
	start time.Time
}

// RateLimit allows maxRequests per client IP per window and answers 429
// with Retry-After beyond that. State is per process. Stale windows are
// pruned on the request path once the table grows past pruneAt entries.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	const pruneAt = 1024

	var mu sync.Mutex
	windows := make(map[string]*rateWindow)
	now := time.Now

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			t := now()

			mu.Lock()
			if len(windows) > pruneAt {
				for k, w := range windows {
					if t.Sub(w.start) > window {
						delete(windows, k)
					}
				}
			}
			w, ok := windows[ip]
			if !ok || t.Sub(w.start) > window {
				w = &rateWindow{start: t}
				windows[ip] = w
			}
			w.count++
			over := w.count > maxRequests
			retry := window - t.Sub(w.start)
			mu.Unlock()

			if over {
				secs := int(retry.Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return apperror.NewRateLimited("rate limit exceeded, try again later")
			}
			return next(c)
		}
	}
}
