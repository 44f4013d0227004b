package domain

import "context"

// StockLedger is the persistence port for products. Implemented by the MySQL,
// Redis and in-memory backends in the infrastructure layer.
//
// Decrement is the single cross-service safety mechanism for reservations: it
// must be an atomic check-and-subtract (fail with ErrInsufficientStock when
// the current quantity is below qty) regardless of backend.
type StockLedger interface {
	Get(ctx context.Context, sku string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Decrement(ctx context.Context, sku string, qty int) error
	Increment(ctx context.Context, sku string, qty int) error
}
