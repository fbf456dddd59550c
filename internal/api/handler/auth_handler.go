package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/metrics"
	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

type AuthHandler struct {
	identities ports.IdentityService
	sessions   ports.SessionService
	cookie     *middleware.SessionCookie
}

func NewAuthHandler(identities ports.IdentityService, sessions ports.SessionService, cookie *middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{identities: identities, sessions: sessions, cookie: cookie}
}

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"notblank"`
	Password string `json:"password" form:"password" validate:"notblank"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword" validate:"notblank"`
	NewPassword     string `json:"newPassword"     form:"newPassword"`
}

type authResponse struct {
	Message string           `json:"message"`
	User    *domain.Identity `json:"user,omitempty"`
}

type checkAuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
}

// Register creates a new account with the user role.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account credentials"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	identity, err := h.identities.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Message: "User registered", User: identity})
}

// Login verifies credentials and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	session, identity, err := h.sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	if err := h.cookie.Write(c, session.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Message: "Logged in", User: identity})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

// Logout destroys the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context(), middleware.SessionToken(c)); err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// CheckAuth reports whether the request carries a live session.
//
// @Summary      Session status
// @Tags         auth
// @Produce      json
// @Success      200  {object}  checkAuthResponse
// @Router       /check-auth [get]
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	identity := actor(c)
	if identity == nil {
		return c.JSON(http.StatusOK, checkAuthResponse{})
	}
	return c.JSON(http.StatusOK, checkAuthResponse{
		Authenticated: true,
		Username:      identity.Username,
		Role:          identity.Role,
	})
}

// ChangePassword replaces the caller's password after verifying the current one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /account/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.identities.ChangePassword(c.Request().Context(), actor(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed"})
}
