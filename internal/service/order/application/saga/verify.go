package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/service/order/domain"
)

// VerifyStockHandler is the first pass over the remote ledger: fetch every
// requested sku, fail fast on unknown or short stock, and fix the order total
// from the prices observed now. No mutation happens here; the verify result
// can go stale the moment it returns, which is why the commit pass relies on
// the conditional decrement rather than on this check.
type VerifyStockHandler struct {
	NextHandler
}

func (h *VerifyStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.VerifyStock")
	defer span.End()

	priced := make([]domain.PricedItem, 0, len(orderCtx.Request.Items))
	var total float64
	for _, item := range orderCtx.Request.Items {
		product, err := orderCtx.Stock.GetProduct(ctx, item.SKU)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock verification failed")
			return err
		}
		if product.Qty < item.Qty {
			err := &domain.InsufficientStockError{SKU: item.SKU, Available: product.Qty, Requested: item.Qty}
			span.RecordError(err)
			span.SetStatus(codes.Error, "insufficient stock")
			return err
		}
		total += product.Price * float64(item.Qty)
		priced = append(priced, domain.PricedItem{SKU: item.SKU, Qty: item.Qty, UnitPrice: product.Price})
	}

	orderCtx.Priced = priced
	orderCtx.Total = total
	span.SetAttributes(attribute.Float64("order.total", total), attribute.Int("order.lines", len(priced)))
	span.AddEvent("all items verified, total computed")

	return h.executeNext(orderCtx)
}
