package handler

import (
	"github.com/travelplanner/catalog/internal/pkg/validate"
)

// echoValidator lets handlers call c.Validate(req); violations come back as
// a *domain.ValidationError listing every field.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return validate.Struct(i)
}
