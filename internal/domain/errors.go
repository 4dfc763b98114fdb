package domain

import "errors"

// Sentinel errors for the ledger operations. Services wrap these with context
// via fmt.Errorf("...: %w", Err...); handlers map them to HTTP statuses with
// errors.Is (see pkg/response.FromError).
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInsufficientHolding   = errors.New("insufficient holding")
	ErrValidation            = errors.New("validation error")

	// ErrSettlementInconsistency marks a failure after inventory settlement
	// succeeded inside a settlement transaction. The transaction rolls back,
	// but callers need to distinguish this path for out-of-band review.
	ErrSettlementInconsistency = errors.New("settlement inconsistency")
)
