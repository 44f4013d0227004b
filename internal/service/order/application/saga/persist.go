package saga

import (
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/service/order/domain"
)

// PersistOrderHandler writes the order row. This is the saga's commit point:
// once Save returns, the order exists no matter what the client or the
// notification channel do afterwards.
type PersistOrderHandler struct {
	NextHandler
}

func (h *PersistOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.PersistOrder")
	defer span.End()

	order := domain.NewOrder(orderCtx.Request, orderCtx.Total)
	if err := orderCtx.Repo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order persistence failed")
		return err
	}
	orderCtx.Order = order
	span.AddEvent("order durably recorded")

	return h.executeNext(orderCtx)
}
