package errors

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError and used by the HTTP layer to pick a status.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeBadRequest         = "BAD_REQUEST"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("insufficient permissions")

	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrNotFound    = errors.New("resource not found")
	ErrRateLimited = errors.New("too many requests, please try again later")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds a VALIDATION_ERROR with field-level detail.
func NewValidationError(message string, fields []FieldError, err error) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(CodeForbidden, message, ErrForbidden)
}

func NotFound(message string) *AppError {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}
