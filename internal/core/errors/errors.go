// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors.
var (
	// ErrNotConfigured indicates a required credential or endpoint is missing.
	ErrNotConfigured = errors.New("not configured")
)

// Generative service errors. Callers react differently to each kind.
var (
	// ErrRateLimited indicates the service asked us to slow down; retry later.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExhausted indicates the account quota or billing limit is exhausted; stop until fixed.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrServiceError indicates any other failure of the generative service.
	ErrServiceError = errors.New("generative service error")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Transport errors.
var (
	// ErrHTTPStatus indicates a non-2xx HTTP response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Validation errors.
var (
	// ErrInvalidProfile indicates a subscriber profile that cannot be processed at all.
	ErrInvalidProfile = errors.New("invalid subscriber profile")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Storage errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Delivery errors.
var (
	// ErrDeliveryFailed indicates a channel could not deliver the digest.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrUnknownChannel indicates a profile references a channel with no sender.
	ErrUnknownChannel = errors.New("unknown delivery channel")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
