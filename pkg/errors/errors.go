package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrResultNotFound    = errors.New("health result not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedPayload  = errors.New("malformed generation payload")
	ErrMeshUnavailable   = errors.New("mesh unavailable")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timed out")
	ErrGenerationFailure = errors.New("generation service failure")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsRetryable reports whether the error represents a transient failure.
// Authorization failures and malformed payloads are permanent: retrying
// cannot fix a bad credential or a response that never parsed.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrInvalidInput):
		return false
	default:
		return true
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMeshUnavailable), errors.Is(err, ErrTimeout), errors.Is(err, ErrGenerationFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}

}
