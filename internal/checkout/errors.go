package checkout

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the checkout service
var (
	ErrInvalidRequest         = errors.New("invalid checkout request")      // Empty item list or non-positive quantity
	ErrUnauthenticated        = errors.New("unauthenticated")               // Caller identity does not resolve to a user
	ErrUnknownUser            = errors.New("unknown user")                  // Returned by a UserDirectory when no user matches
	ErrStockConflict          = errors.New("stock conflict")                // Returned by a Ledger when a conditional decrement matches no row
	ErrConcurrentModification = errors.New("concurrent stock modification") // Stock changed between pre-check and decrement; safe to retry
)

// Shortfall describes one product whose stock cannot cover the requested quantity
type Shortfall struct {
	ProductID uint `json:"productId"` // Offending product
	Requested int  `json:"requested"` // Quantity asked for
	Available int  `json:"available"` // Quantity actually in stock
}

// InsufficientStockError carries every shortfall found during validation,
// not just the first, so the caller can adjust all quantities at once.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortfalls))
}

// ProductNotFoundError carries the ids of every referenced product that does not exist
type ProductNotFoundError struct {
	IDs []uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product(s) not found: %v", e.IDs)
}

// PersistenceError wraps an infrastructure failure of the atomic unit.
// It is logged server-side and surfaced to the caller as a generic failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "checkout could not be persisted: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
