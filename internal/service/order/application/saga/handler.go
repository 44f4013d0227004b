// Package saga implements order creation as a chain of steps with
// compensating actions, coordinated without any global transaction.
package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

// OrderContext carries one saga execution through the chain.
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	Request *domain.OrderRequest
	// ReservationID correlates every ledger mutation of this run; it doubles
	// as the idempotency key of the published fact.
	ReservationID string

	// Filled by the verify pass.
	Priced []domain.PricedItem
	Total  float64
	// Filled by the persist step.
	Order *domain.Order

	Stock     port.StockGateway
	Repo      domain.OrderRepository
	Publisher port.EventPublisher

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation registers an undo action. Compensations run LIFO so state
// is unwound in reverse order of acquisition.
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation runs every registered compensation. The caller must
// pass a context detached from the (possibly cancelled) request context so a
// client timeout cannot abort the unwind.
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	comps := c.compensations
	c.compensations = nil
	c.compLock.Unlock()

	if len(comps) == 0 {
		return
	}
	logger.Ctx(ctx).Info().Str("reservation_id", c.ReservationID).Int("count", len(comps)).
		Msg("executing saga compensations")
	for _, comp := range comps {
		comp(ctx)
	}
}

// DetachedContext returns a background context that keeps only the span link
// of ctx. Used for compensation and post-commit publishing, which must
// survive client cancellation.
func DetachedContext(ctx context.Context) context.Context {
	spanContext := trace.SpanContextFromContext(ctx)
	return trace.ContextWithRemoteSpanContext(context.Background(), spanContext)
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
