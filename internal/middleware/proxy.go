package middleware

import (
	"log/slog"
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() honor X-Forwarded-For only when the
// direct peer is inside one of trustedCIDRs. With no CIDRs the peer
// address is used as-is, which keeps the token rate limiter keyed on
// something a client can't forge.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	if len(trustedCIDRs) == 0 {
		e.IPExtractor = echo.ExtractIPDirect()
		return
	}

	opts := []echo.TrustOption{
		// Only the configured ranges, not echo's loopback/private defaults.
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		opts = append(opts, echo.TrustIPRange(network))
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
}
