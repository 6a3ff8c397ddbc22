/*
errors.go - Centralized error values for the ledger engine

All fallible operations return explicit errors; nothing in this package
panics for control flow. Callers match with errors.Is.
*/
package ledger

import "errors"

var (
	// ErrDuplicateID is returned when an append reuses an existing
	// identifier. The store is left unchanged.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrNotFound is returned by lookups for unknown identifiers.
	// The engine never fabricates a default entry.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidAmount is returned when a caller supplies a negative
	// amount. Amounts are magnitudes; sign is derived from kind.
	ErrInvalidAmount = errors.New("amount must be non-negative")

	// ErrMissingAccount is returned when a required account identifier
	// is empty.
	ErrMissingAccount = errors.New("account is required")

	// ErrNotReversible is returned when reversing an entry whose status
	// is not Completed. The target is left unchanged.
	ErrNotReversible = errors.New("only completed entries can be reversed")

	// ErrUnsupportedReversal is returned when no compensating kind exists
	// for the original entry's kind.
	ErrUnsupportedReversal = errors.New("reversal not supported for this kind")

	// ErrTransferIncomplete is returned when the second transfer leg could
	// not be appended. The first leg is retained and marked Failed.
	ErrTransferIncomplete = errors.New("transfer incomplete: second leg failed")
)

// IsClientError reports whether the error is due to invalid caller input
// rather than engine state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingAccount) ||
		errors.Is(err, ErrNotReversible) ||
		errors.Is(err, ErrUnsupportedReversal)
}
