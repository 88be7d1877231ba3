package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Services wrap these in *AppError
// for the human-readable message; handlers map them to HTTP with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrLedgerUnavailable   = errors.New("ledger unavailable")
	ErrUpstream            = errors.New("upstream failure")
	ErrEmptyGeneration     = errors.New("empty generation")
)

// AppError is the application error type carried from the service layer to the
// HTTP boundary.
//
// Credits/HasCredits attach the caller's last known balance to a failure, so
// every error response can still tell the client where its balance stands
// without a follow-up call. HasCredits distinguishes "balance is 0" from
// "balance unknown" (e.g. the ledger itself was unreachable).
type AppError struct {
	Err        error  // sentinel (wrapped, reachable via errors.Is)
	Message    string // human-readable error message
	Field      string // optional: request field causing the error
	Credits    int    // optional: balance snapshot at failure time
	HasCredits bool
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCredits attaches a balance snapshot and returns the same error.
func (e *AppError) WithCredits(credits int) *AppError {
	e.Credits = credits
	e.HasCredits = true
	return e
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InsufficientCredits reports a failed balance check. The message text is part
// of the API contract — clients match on it.
func InsufficientCredits(remaining int) *AppError {
	return &AppError{
		Err:        ErrInsufficientCredits,
		Message:    "Not enough credits",
		Credits:    remaining,
		HasCredits: true,
	}
}

// LedgerUnavailable wraps a storage-layer failure. No debit has been applied
// when this is returned — the request aborts before any external call.
func LedgerUnavailable(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrLedgerUnavailable, err),
		Message: "Credit ledger is unavailable",
	}
}

// UpstreamFailure classifies a failed generation call. By the time this fires
// the credit has already been consumed (debit precedes the upstream call), so
// callers attach the post-debit balance via WithCredits.
func UpstreamFailure(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
		Message: "Generation failed",
	}
}

// EmptyGeneration reports a nominally successful generation that produced no
// usable content. Same debit semantics as UpstreamFailure.
func EmptyGeneration() *AppError {
	return &AppError{
		Err:     ErrEmptyGeneration,
		Message: "Generation produced no output",
	}
}
