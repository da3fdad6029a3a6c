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
	ErrBadCredentials     = New("BAD_CREDENTIALS", http.StatusBadRequest, "bad credentials")
	ErrMissingCredentials = New("MISSING_CREDENTIALS", http.StatusUnauthorized, "missing credentials")
	ErrInvalidShareLink   = New("INVALID_SHARE_LINK", http.StatusUnauthorized, "invalid share link")
	ErrTimetableNotFound  = New("TIMETABLE_NOT_FOUND", http.StatusNotFound, "timetable not found")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrBadRequest         = New("BAD_REQUEST", http.StatusBadRequest, "bad request")
	ErrScrapingFailed     = New("SCRAPING_FAILED", http.StatusInternalServerError, "internal server error")
	ErrUpstreamHTTP       = New("UPSTREAM_HTTP", http.StatusInternalServerError, "internal server error")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")
)

// ScrapingFailed constructs a SCRAPING_FAILED error. The details surface in
// logs via Unwrap but never in a client response.
func ScrapingFailed(details string) *Error {
	return Wrap(errors.New(details), ErrScrapingFailed.Code, ErrScrapingFailed.Status, ErrScrapingFailed.Message)
}

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

// Is reports whether err carries the same code as the target predefined error.
func Is(err error, target *Error) bool {
	e := FromError(err)
	return e != nil && target != nil && e.Code == target.Code
}
