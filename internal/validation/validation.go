// Package validation checks request structs with go-playground/validator and
// converts the first failure into a field-level validation AppError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// Validator wraps a configured validator.Validate. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their json names and
// understands the notblank tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// notblank rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// nonul rejects strings Postgres text columns cannot store.
	_ = v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	return &Validator{v: v}
}

// Struct validates s. Failures are returned as ValidationField errors naming the first bad field.
func (vd *Validator) Struct(s any) error {
	err := vd.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid request.")
	}
	fe := fieldErrs[0]
	return apperrors.ValidationField(fe.Field(), Message(fe))
}

// Message renders a human-readable message for one field failure.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required."
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s cannot exceed %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", field, fe.Param())
	case "nonul":
		return field + " cannot contain NUL characters."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " has an invalid value."
	}
}
