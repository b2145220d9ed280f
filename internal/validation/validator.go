// Package validation checks submitted forms with go-playground/validator.
//
// Forms are plain structs: a `form:"..."` tag names the field the way the
// HTML form does, a `validate:"..."` tag lists the constraints. Messages are
// looked up per field and tag, so two forms can word the same constraint
// differently.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/game-list/internal/apperror"
)

// Messages maps "field.tag" (for example "username.min") to the text shown
// under that field. A bare "tag" key is the fallback for any field.
type Messages map[string]string

// DefaultMessage is used when neither the field nor the tag has an entry.
const DefaultMessage = "Invalid value."

// Validator wraps a configured *validator.Validate. It is safe for
// concurrent use; validator caches struct metadata internally.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator that reports fields by their form name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks form and returns nil or an *apperror.AppError of kind
// ErrValidation carrying one message per failing field. Only the first
// failing constraint of each field is reported.
func (v *Validator) Validate(form any, msgs Messages) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = msgs.lookup(fe.Field(), fe.Tag())
	}
	return apperror.Invalid(fields)
}

// Var checks a single value against a validate tag such as "min=4,max=25"
// and describes the first failing constraint in lower case, for example
// "must be at least 4 characters". It returns nil when the value passes.
func (v *Validator) Var(value any, rules string) error {
	err := v.v.Var(value, rules)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return errors.New("is required")
	case "min":
		return fmt.Errorf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Errorf("must be at most %s characters", fe.Param())
	case "email":
		return errors.New("must be a valid email address")
	}
	return fmt.Errorf("fails %q", fe.Tag())
}

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[tag]; ok {
		return msg
	}
	return DefaultMessage
}
