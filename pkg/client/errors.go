package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/etsy-terms/pkg/listing"
)

// Common errors returned by the client.
var (
	// ErrRateLimitExceeded is returned when Etsy rejects a request for exceeding the quota.
	// It is retried internally and only escapes wrapped in a RetriesExhaustedError.
	ErrRateLimitExceeded = errors.New("etsy API rate limit exceeded")

	// ErrRetriesExhausted is returned when all retry attempts are exhausted.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrMalformedRecord is returned when a response violates the expected schema.
	ErrMalformedRecord = listing.ErrMalformedRecord
)

// APIError is a non-200 Etsy response that is not rate limiting.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("etsy API error (status %d): %s", e.StatusCode, e.Detail)
}

// RetriesExhaustedError reports an operation that was still rate limited after
// the maximum number of attempts.
type RetriesExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("gave up calling %s after %d tries: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// Is matches ErrRetriesExhausted.
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}
