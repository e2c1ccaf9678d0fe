package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Callers classify with errors.Is.
var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrInvalidConversationShape = errors.New("invalid conversation shape")
	ErrNotFound                 = errors.New("resource not found")
	ErrForbidden                = errors.New("forbidden")
	ErrUnauthorized             = errors.New("unauthorized")
)

// AppError carries a client-facing message on top of an error kind
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

// NewError creates an AppError of the given kind
func NewError(kind error, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput is shorthand for NewError(ErrInvalidInput, ...)
func InvalidInput(format string, args ...interface{}) error {
	return NewError(ErrInvalidInput, format, args...)
}

// InvalidShape is shorthand for NewError(ErrInvalidConversationShape, ...)
func InvalidShape(format string, args ...interface{}) error {
	return NewError(ErrInvalidConversationShape, format, args...)
}

// NotFound is shorthand for NewError(ErrNotFound, ...)
func NotFound(format string, args ...interface{}) error {
	return NewError(ErrNotFound, format, args...)
}

// Forbidden is shorthand for NewError(ErrForbidden, ...)
func Forbidden(format string, args ...interface{}) error {
	return NewError(ErrForbidden, format, args...)
}

// StatusFromError maps an error kind to an HTTP status. Unknown errors are 500.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidConversationShape):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to show to clients
func ClientMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch StatusFromError(err) {
	case http.StatusInternalServerError:
		return "Lỗi máy chủ"
	default:
		return err.Error()
	}
}
