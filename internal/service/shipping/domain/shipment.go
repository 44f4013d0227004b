package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

type ShipmentStatus string

// Status advances monotonically; only the initial state is written by the
// consumer.
const (
	StatusProcessing ShipmentStatus = "PROCESSING"
	StatusShipped    ShipmentStatus = "SHIPPED"
	StatusDelivered  ShipmentStatus = "DELIVERED"
)

// Shipment is the fulfillment record for one order. OrderID is unique across
// all shipments: the invariant is enforced by the store, not by convention,
// so duplicate fact deliveries collapse to one row no matter which consumer
// instance wins.
type Shipment struct {
	ID             string         `json:"id"`
	OrderID        uint64         `json:"order_id"`
	Status         ShipmentStatus `json:"status"`
	TrackingNumber string         `json:"tracking_number"`
}

// TrackingNumber is derived deterministically from the order id so redelivery
// can never mint a second number.
func TrackingNumber(orderID uint64) string {
	return fmt.Sprintf("TRK-%06d", orderID)
}

var (
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrDuplicateOrder reports an insert that hit the order_id uniqueness
	// constraint. The consumer treats it as "already handled", not a failure.
	ErrDuplicateOrder = errors.New("shipment already exists for order")
)
