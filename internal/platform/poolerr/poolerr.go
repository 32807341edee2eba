// Package poolerr defines the error kinds surfaced by the allocation core.
package poolerr

import "errors"

var (
	// ErrNoSetsAvailable means the pool for a category has nothing left
	// that the requesting user hasn't already been allocated. Reported
	// as a per-category failure, never as a request-level error.
	ErrNoSetsAvailable = errors.New("no sets available")

	// ErrLedgerUnavailable means a Ledger read or write failed or timed out.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrPoolUnavailable means a Pool Index read or write failed or timed out.
	ErrPoolUnavailable = errors.New("pool unavailable")

	// ErrValidation means malformed input reached the core.
	ErrValidation = errors.New("validation error")

	// ErrBuilderShortfall means the builder produced fewer sets than
	// requested for a category. Logged, never fails the overall build.
	ErrBuilderShortfall = errors.New("builder shortfall")

	// ErrInvariantViolation indicates a serialization bug: e.g. a pool
	// scan returned a set-id already present in the user's list.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrTimeout means a backing store call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound is a generic sentinel for missing resources (catalog
	// entries, content items).
	ErrNotFound = errors.New("not found")
)
