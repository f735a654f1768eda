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

// Pipeline error taxonomy.
var (
	// ErrSourceUnavailable indicates a fetcher or image provider could not complete.
	// It is recovered locally and never fails a batch.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrValidationFailed indicates synthesized content did not meet acceptance rules.
	ErrValidationFailed = errors.New("validation failed")

	// ErrPersistenceConflict indicates a unique key (slug) violation at the persistence boundary.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrPipelineFatal indicates an unexpected internal error such as malformed configuration.
	ErrPipelineFatal = errors.New("pipeline fatal error")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Client errors.
var (
	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedStatus indicates an HTTP response with an unexpected status code.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Rate limiting and throttling errors.
var (
	// ErrRateLimited indicates rate limiting was triggered.
	ErrRateLimited = errors.New("rate limited")
)
