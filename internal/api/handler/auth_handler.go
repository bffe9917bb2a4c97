package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dofus-graal/auth-manager/internal/api/metrics"
	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
)

// refreshCookieName is the HttpOnly cookie the raw refresh secret travels
// in. It is scoped to /auth so it is only ever sent to the refresh and
// logout endpoints, and it never appears in a response body.
const refreshCookieName = "refresh_token"

type AuthHandler struct {
	authService   ports.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(authService ports.AuthService, refreshTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *domain.User `json:"user,omitempty"`
}

// Register creates a new account. No tokens are issued; the client logs in
// afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user. The access token is returned in the body; the
// refresh secret only ever leaves in the cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userAgent := c.Request().UserAgent()
	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, userAgent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case errors.Is(err, domain.ErrRateLimited):
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.setRefreshCookie(c, result.RefreshToken)

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

// Refresh rotates the refresh token presented in the cookie and returns a
// fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshCookie(c)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	result, err := h.authService.Refresh(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenReused) {
			metrics.TokenReuseDetectedTotal.Inc()
		}
		h.clearRefreshCookie(c)
		return err
	}

	metrics.TokenRotationsTotal.Inc()
	h.setRefreshCookie(c, result.RefreshToken)

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   result.ExpiresIn,
	})
}

// Logout revokes the presented refresh token and drops the cookie.
// Idempotent: logging out without a live token still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := h.refreshCookie(c); raw != "" {
		if err := h.authService.Logout(c.Request().Context(), raw); err != nil {
			return err
		}
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) refreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     "/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
