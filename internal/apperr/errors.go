package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the error kinds surfaced at API boundaries.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate resource")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrPaymentFailed = errors.New("payment failed")
)

// Error carries a machine-readable code alongside the message and kind.
type Error struct {
	Code    string
	Message string
	Kind    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFound reports a missing entity.
func NotFound(format string, args ...interface{}) error {
	return &Error{Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...), Kind: ErrNotFound}
}

// InvalidInput reports a validation failure.
func InvalidInput(format string, args ...interface{}) error {
	return &Error{Code: "INVALID_INPUT", Message: fmt.Sprintf(format, args...), Kind: ErrInvalidInput}
}

// Duplicate reports a unique-constraint violation.
func Duplicate(format string, args ...interface{}) error {
	return &Error{Code: "DUPLICATE", Message: fmt.Sprintf(format, args...), Kind: ErrDuplicate}
}

// Unauthorized reports a missing or invalid customer session.
func Unauthorized(message string) error {
	return &Error{Code: "UNAUTHORIZED", Message: message, Kind: ErrUnauthorized}
}

// Payment reports a gateway-side failure. The wrapped error is kept in the
// message so callers see the gateway's reason without unwrapping.
func Payment(format string, args ...interface{}) error {
	return &Error{Code: "PAYMENT_ERROR", Message: fmt.Sprintf(format, args...), Kind: ErrPaymentFailed}
}

// Code returns the machine-readable code for err, or INTERNAL_ERROR.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL_ERROR"
}

// HTTPStatus maps an error to the status code returned by API handlers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
