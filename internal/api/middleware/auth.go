package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dofus-graal/auth-manager/internal/token"
)

// userIDKey is the echo context key the verified subject is stored under.
const userIDKey = "user_id"

// Auth validates the bearer access token and injects the subject into the
// request context. An expired token gets a distinct message so clients know
// to retry via refresh instead of re-authenticating.
func Auth(signer *token.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := signer.Verify(parts[1])
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(userIDKey, claims.Subject)
			return next(c)
		}
	}
}

// UserID extracts the authenticated subject stored by Auth. Empty when the
// middleware did not run.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
