package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden       = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized    = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrTooManyRequests = New("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "too many requests")

	ErrCacheMiss   = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrKeyNotFound = New("KEY_NOT_FOUND", http.StatusNotFound, "storage key not found")

	ErrPresetNameTaken   = New("PRESET_NAME_TAKEN", http.StatusConflict, "a preset with this name already exists")
	ErrPresetLimit       = New("PRESET_LIMIT_REACHED", http.StatusUnprocessableEntity, "maximum number of presets reached")
	ErrInvalidPresetFile = New("INVALID_PRESET_FILE", http.StatusBadRequest, "invalid preset file format")
	ErrNoValidPresets    = New("NO_VALID_PRESETS", http.StatusBadRequest, "no valid presets found in file")

	ErrUnrecognizedResponse = New("UNRECOGNIZED_RESPONSE", http.StatusBadGateway, "unrecognized backend response shape")
	ErrBackendUnavailable   = New("BACKEND_UNAVAILABLE", http.StatusBadGateway, "question backend unavailable")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
