package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/domain"
)

// actor returns the identity resolved from the session cookie, or nil for
// anonymous requests. Services decide what an anonymous caller may do.
func actor(c echo.Context) *domain.Identity {
	return middleware.Identity(c)
}

// bindBody decodes the request body into req and validates it.
func bindBody(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

type messageResponse struct {
	Message string `json:"message"`
}
