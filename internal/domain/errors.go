package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for simple conditions without extra context.
var (
	// ErrNotInitialized is returned when an engine operation runs before a
	// simulation has been initialized.
	ErrNotInitialized = errors.New("simulation not initialized")
	// ErrStateNotFound is returned by the store when no state row exists yet.
	ErrStateNotFound = errors.New("simulation state not found")
)

// InvalidReferenceError is returned when an id does not resolve to a known
// material, product, provider, order or purchase order.
type InvalidReferenceError struct {
	Kind string
	ID   string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// InsufficientMaterialError blocks an acceptance or fulfillment. Recoverable:
// the order stays where it was and no stock moves.
type InsufficientMaterialError struct {
	OrderID    string
	MaterialID string
	Needed     int
	Available  int
}

func (e *InsufficientMaterialError) Error() string {
	return fmt.Sprintf("order %s: insufficient material %s (need %d, have %d)",
		e.OrderID, e.MaterialID, e.Needed, e.Available)
}

// InsufficientFundsError blocks a purchase. Recoverable: no purchase order is
// created and the balance is untouched.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", e.Required, e.Available)
}

// InvalidQuantityError rejects non-positive order or purchase quantities.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be positive, got %d", e.Quantity)
}

// TransitionError is returned when an order state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// InconsistencyError reports internal ledger corruption, e.g. a committed
// pool lower than an order's recorded commitment. It is surfaced, never
// silently repaired.
type InconsistencyError struct {
	Detail string
}

func (e *InconsistencyError) Error() string {
	return "internal inconsistency: " + e.Detail
}
