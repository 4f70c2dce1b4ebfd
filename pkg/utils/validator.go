package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	appErrors "event-ticketing/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("user_role", validateUserRole)
	_ = validate.RegisterValidation("phone", validatePhone)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FieldErrors flattens validator output into the API field error list.
// Errors that are not validation errors yield nil.
func FieldErrors(err error) []appErrors.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make([]appErrors.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, appErrors.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return fields
}

// ValidationError validates s and returns a typed VALIDATION_ERROR on failure.
func ValidationError(s interface{}) error {
	if err := ValidateStruct(s); err != nil {
		return appErrors.NewValidationError("Invalid input", FieldErrors(err), err)
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "user_role":
		return "must be one of ATTENDEE, HOST"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "eqfield":
		return "must match " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return "is invalid"
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ATTENDEE", "HOST":
		return true
	}
	return false
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
