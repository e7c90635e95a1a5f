// Package errs defines the error kinds surfaced by the service.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionNotFound indicates an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrPageNotFound indicates a page number outside the comic's range.
var ErrPageNotFound = errors.New("page not found")

// ValidationError indicates a request that was rejected before any
// vendor call was made (bad file type, oversized upload, bad params).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NewValidation creates a ValidationError with the given reason.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CapacityError indicates the preload queue is full and the task
// was rejected rather than blocked.
type CapacityError struct {
	Queue string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s queue is at capacity", e.Queue)
}

// VendorError wraps an upstream API failure. Retryable errors
// (rate limits, timeouts, 5xx) are retried with backoff; the rest
// fail the stage immediately.
type VendorError struct {
	Vendor    string
	Status    int
	Retryable bool
	Err       error
}

func (e *VendorError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Vendor, e.Status, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Vendor, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// NewVendor creates a VendorError from an HTTP status. Rate limits and
// server-side failures are considered transient.
func NewVendor(vendor string, status int, err error) *VendorError {
	return &VendorError{
		Vendor:    vendor,
		Status:    status,
		Retryable: status == http.StatusTooManyRequests || status >= 500,
		Err:       err,
	}
}

// NewVendorTransient creates a retryable VendorError with no HTTP status,
// used for timeouts and transport failures.
func NewVendorTransient(vendor string, err error) *VendorError {
	return &VendorError{Vendor: vendor, Retryable: true, Err: err}
}

// IsRetryable reports whether err is a vendor error worth retrying.
func IsRetryable(err error) bool {
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}

// HTTPStatus maps an error to the response status the handlers return.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ce *CapacityError
	)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
