package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOrderNotFound covers lookups of ids that were never accepted.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError rejects a malformed request before any remote call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order request: " + e.Reason
}

// UnknownSKUError names a requested sku the inventory does not carry.
type UnknownSKUError struct {
	SKU string
}

func (e *UnknownSKUError) Error() string {
	return fmt.Sprintf("sku %s not found", e.SKU)
}

// InsufficientStockError is a business rejection from the verify pass; the
// caller may retry with a smaller quantity.
type InsufficientStockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.SKU, e.Available, e.Requested)
}

// ReservationConflictError means a commit-pass decrement lost a race with a
// concurrent reservation after the verify pass observed stale state.
type ReservationConflictError struct {
	SKU string
}

func (e *ReservationConflictError) Error() string {
	return fmt.Sprintf("reservation conflict on %s", e.SKU)
}

// UpstreamError wraps a timeout or connection failure talking to another
// service. It is retryable from the client's point of view and must never be
// silently swallowed on the saga path.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
