package handler

import (
    "github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo's Validator interface.
// Request DTOs declare their constraints with `validate` tags and handlers
// call c.Validate(&req) after binding.
type Validator struct {
    validate *validator.Validate
}

// NewValidator constructs the shared request validator.
func NewValidator() *Validator {
    return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
    return v.validate.Struct(i)
}
