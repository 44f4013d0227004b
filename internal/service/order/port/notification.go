package port

import (
	"context"

	"storefront/internal/service/order/domain"
)

// EventPublisher emits order facts onto the notification channel. Publish is
// deliberately void: the order is already committed when it runs, so channel
// failure is logged and counted inside the adapter, never surfaced to the
// order-creation caller.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.OrderCreatedEvent)
}
