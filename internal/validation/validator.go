// Package validation wires go-playground/validator into Echo so request
// DTOs declare their field rules as struct tags. Failures are collected
// into a per-field message map matching the API's {"errors": {...}} error
// shape. Validation happens before any handler logic, so malformed input
// never reaches the auth core.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field name to its human-readable validation message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// RequestValidator implements echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func New() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks i against its struct tags and returns an Errors map on
// failure so handlers can surface a 422 with per-field messages.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}
	out := Errors{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			out[strings.ToLower(fe.Field())] = message(fe)
		}
	}
	return out
}

// Fields extracts the per-field map from a validation error, or nil when
// err is of a different kind.
func Fields(err error) Errors {
	var e Errors
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return "Email address is not valid."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters in length.", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters in length.", field, fe.Param())
	case "alpha":
		return fmt.Sprintf("%s must contain only letters.", field)
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and numbers.", field)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
