package domain

import "time"

// OrderItem is one requested line. Inside a persisted Order it is the
// immutable snapshot captured at acceptance time.
type OrderItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// OrderRequest is the transient input of one saga execution. It is never
// persisted.
type OrderRequest struct {
	Items    []OrderItem `json:"items"`
	Customer Customer    `json:"customer"`
}

func (r *OrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return &ValidationError{Reason: "items must not be empty"}
	}
	for _, item := range r.Items {
		if item.SKU == "" {
			return &ValidationError{Reason: "item sku must not be empty"}
		}
		if item.Qty < 1 {
			return &ValidationError{Reason: "item qty must be at least 1"}
		}
	}
	if r.Customer.Name == "" {
		return &ValidationError{Reason: "customer name must not be empty"}
	}
	return nil
}

// PricedItem is a request line together with the unit price observed during
// the verify pass. The order total is fixed from these prices.
type PricedItem struct {
	SKU       string
	Qty       int
	UnitPrice float64
}

// Order is the durable record of one accepted purchase. It is written exactly
// once and never mutated: the items snapshot stays valid as an audit trail no
// matter how stock or prices move later.
type Order struct {
	ID           uint64      `json:"id"`
	CustomerName string      `json:"customer_name"`
	TotalAmount  float64     `json:"total_amount"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewOrder captures the acceptance-time snapshot for persistence.
func NewOrder(req *OrderRequest, total float64) *Order {
	items := make([]OrderItem, len(req.Items))
	copy(items, req.Items)
	return &Order{
		CustomerName: req.Customer.Name,
		TotalAmount:  total,
		Items:        items,
		CreatedAt:    time.Now(),
	}
}
