package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// IPLimiter is the slice of the Redis fixed-window limiter this middleware
// needs.
type IPLimiter interface {
	Allow(ctx context.Context, scope, identifier string) (bool, error)
}

// RateLimitByIP rejects requests from source IPs that exceed the limiter's
// window. This is a transport-edge guard against bulk credential stuffing;
// the per-account throttle inside the core is independent of it.
//
// A limiter failure lets the request through: losing Redis must not take
// logins down with it, and the core throttle still applies.
func RateLimitByIP(limiter IPLimiter, scope string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			ok, err := limiter.Allow(c.Request().Context(), scope, ip)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
