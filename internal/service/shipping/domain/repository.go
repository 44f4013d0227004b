package domain

import "context"

// ShipmentRepository persists shipments keyed by order id. Create must fail
// with ErrDuplicateOrder when a row for the same order id already exists,
// atomically with the insert, so concurrent duplicate deliveries cannot both
// succeed.
type ShipmentRepository interface {
	Create(ctx context.Context, s *Shipment) error
	FindByOrderID(ctx context.Context, orderID uint64) (*Shipment, error)
}
