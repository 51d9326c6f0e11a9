package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/distribution/reference"
	"github.com/go-playground/validator/v10"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance
// used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report fields by their user-facing names (json tag, then
		// mapstructure tag) rather than Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "mapstructure"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation("image_ref", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := reference.ParseNormalizedNamed(s)
			return err == nil
		})

		validateInst = v
	})
	return validateInst
}

// ApplyDefaults fills in defaults for unset desired parameters.
func ApplyDefaults(p *model.DesiredParams) {
	if p.State == "" {
		p.State = model.StatePresent
	}
	p.State = model.TargetState(strings.ToLower(string(p.State)))
}

// ValidateParams checks desired parameters before any engine call:
// alias is required, state must be known, name is required for the
// present state and must be a valid image reference when given.
//
// Violations are returned together as model.ValidationErrors.
func ValidateParams(p *model.DesiredParams) error {
	err := validateStruct(p)
	var errs model.ValidationErrors
	if p.Alias != "" && errors.As(err, &errs) {
		return errs.WithAlias(p.Alias)
	}
	return err
}

func validateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(model.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &model.ValidationError{
			Field:   fieldPath(fe),
			Message: describe(fe),
		})
	}
	return out
}

// fieldPath returns the dotted field path without the root struct name,
// e.g. "log.format".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		parts := strings.Fields(fe.Param())
		if len(parts) == 2 {
			return fmt.Sprintf("is required when %s is %s", strings.ToLower(parts[0]), parts[1])
		}
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s (got %q)", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "image_ref":
		return fmt.Sprintf("%q is not a valid image reference", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
