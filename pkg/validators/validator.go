// Package validators wires go-playground/validator into echo's Validator hook.
package validators

import (
	"fmt"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator creates the shared request validator
func NewValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate checks a request struct against its validate tags
func (v *CustomValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), guard.ErrValidation)
	}
	return nil
}
