package domain

import "time"

// EventTypeOrderCreated is the only fact type this service emits. Consumers
// discard anything else, which keeps the channel forward compatible.
const EventTypeOrderCreated = "order.created"

// OrderCreatedEvent is the fact published after an order commits. It is a
// notification, not a source of truth: the order row stays authoritative and
// delivery is at-least-once, deduplicated by Order.ID on the consumer side.
type OrderCreatedEvent struct {
	Type    string       `json:"type"`
	EventID string       `json:"event_id"`
	TS      int64        `json:"ts"`
	Order   OrderPayload `json:"order"`
}

type OrderPayload struct {
	ID           uint64      `json:"id"`
	CustomerName string      `json:"customer_name"`
	TotalAmount  float64     `json:"total_amount"`
	Items        []OrderItem `json:"items"`
}

func NewOrderCreatedEvent(eventID string, o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		Type:    EventTypeOrderCreated,
		EventID: eventID,
		TS:      time.Now().Unix(),
		Order: OrderPayload{
			ID:           o.ID,
			CustomerName: o.CustomerName,
			TotalAmount:  o.TotalAmount,
			Items:        o.Items,
		},
	}
}
