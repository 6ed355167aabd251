package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/dojodb/internal/apperror"
)

// Validation rules for account fields, shared by Register (struct tags) and
// UpdateProfile (validator.Var).
const (
	ruleUsername = "required,alphanum,min=5,max=50"
	rulePassword = "required,min=8,max=128"
	ruleEmail    = "required,email,max=254"
	ruleBirthday = "datetime=2006-01-02"

	birthdayLayout = "2006-01-02"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole package.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the JSON name ("username") instead of the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct validates s and converts the first failure to an AppError.
func checkStruct(s any) error {
	return toValidationError("", validate.Struct(s))
}

// checkVar validates a single value against rule.
func checkVar(field, value, rule string) error {
	return toValidationError(field, validate.Var(value, rule))
}

func toValidationError(field string, err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("service: validating input: %w", err)
	}

	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}
	return apperror.ValidationFailed(field, describeRule(field, fe))
}

// describeRule turns a failed tag into a message a user can act on.
func describeRule(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "alphanum":
		return fmt.Sprintf("%s contains non alphanumeric characters - not allowed", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return "email does not appear to be valid"
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
