package saga

import (
	"storefront/internal/service/order/domain"
)

// NotifyHandler publishes the order.created fact. It runs after the commit
// point and can never fail the saga: the publisher swallows channel errors,
// and the detached context keeps a client cancellation from cutting the
// publish short.
type NotifyHandler struct {
	NextHandler
}

func (h *NotifyHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.NotifyOrderCreated")
	defer span.End()

	event := domain.NewOrderCreatedEvent(orderCtx.ReservationID, orderCtx.Order)
	orderCtx.Publisher.Publish(DetachedContext(ctx), event)
	span.AddEvent("order.created fact handed to publisher")

	return h.executeNext(orderCtx)
}
