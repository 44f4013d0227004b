package domain

import "context"

// OrderRepository persists accepted orders. Save assigns the monotonic ID and
// is the saga's commit point: it must be durable before success is reported.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint64) (*Order, error)
}
