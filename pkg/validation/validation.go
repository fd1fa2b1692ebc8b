package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
)

// NonFieldErrors is the map key used for object-level failures.
const NonFieldErrors = "non_field_errors"

// New returns a validator that reports fields by their form or json name.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
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
	return v
}

// Fields converts validator failures into a field → messages map.
func Fields(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{NonFieldErrors: {err.Error()}}
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		out[name] = append(out[name], message(fe))
	}
	return out
}

// Struct validates payload and returns a VALIDATION_ERROR carrying field messages.
func Struct(v *validator.Validate, payload interface{}) error {
	if err := v.Struct(payload); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid validation target")
		}
		return appErrors.WithFields(appErrors.ErrValidation, Fields(err))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", minimum(fe))
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "url":
		return "Enter a valid URL."
	case "datetime":
		return "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		var n int
		if _, err := fmt.Sscanf(fe.Param(), "%d", &n); err == nil {
			return fmt.Sprintf("%d", n+1)
		}
	}
	return fe.Param()
}
