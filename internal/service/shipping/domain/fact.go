package domain

// OrderCreatedFact is the shipping service's read of the order.created
// message. Only the fields fulfillment needs are decoded; unknown fields are
// ignored so producers can grow the payload.
type OrderCreatedFact struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	TS      int64  `json:"ts"`
	Order   struct {
		ID           uint64 `json:"id"`
		CustomerName string `json:"customer_name"`
	} `json:"order"`
}

const FactTypeOrderCreated = "order.created"
