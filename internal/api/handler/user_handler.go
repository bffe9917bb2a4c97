package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dofus-graal/auth-manager/internal/api/metrics"
	"github.com/dofus-graal/auth-manager/internal/api/middleware"
	"github.com/dofus-graal/auth-manager/internal/core/domain"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
)

type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Me returns the profile of the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return domain.ErrUnauthorized
	}

	user, err := h.authService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Get returns a user by id.
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.authService.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes an account. Only the account holder may delete themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if middleware.UserID(c) != id {
		return domain.ErrUnauthorized
	}

	if err := h.authService.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword replaces the caller's password. Every refresh session is
// revoked as a side effect, so all devices must log in again.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id := c.Param("id")
	if middleware.UserID(c) != id {
		return domain.ErrUnauthorized
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), id, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	metrics.PasswordChangesTotal.Inc()
	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}
