package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/core/authz"
	"github.com/travelplanner/catalog/internal/core/domain"
)

// Authorize rejects the request unless the current identity may perform op.
// For owner-gated operations only the identity checks run here; ownership is
// decided by the service once the target is loaded.
func Authorize(op authz.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authz.Evaluate(Identity(c), op, nil).Err()
			if err != nil && !(authz.OwnerGated(op) && errors.Is(err, domain.ErrNotFound)) {
				return err
			}
			return next(c)
		}
	}
}
