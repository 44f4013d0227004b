package saga

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

const (
	compensationAttempts = 3
	compensationTimeout  = 5 * time.Second
	compensationBackoff  = time.Second
)

var (
	compensationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_compensation_runs_total",
		Help: "Saga compensation executions (stock re-increments).",
	})
	compensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_compensation_failures_total",
		Help: "Compensations that exhausted their retry budget, leaving inventory drift.",
	})
)

// ReserveStockHandler is the commit pass: one conditional decrement per item,
// in request order. Each successful decrement registers a compensating
// release, so a later failure restores the ledger to its pre-saga state
// before the error reaches the caller.
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	for _, line := range orderCtx.Priced {
		line := line
		if err := orderCtx.Stock.Reserve(ctx, line.SKU, line.Qty, orderCtx.ReservationID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock reservation failed")

			var upstream *domain.UpstreamError
			if errors.As(err, &upstream) {
				// The decrement may or may not have applied remotely. The
				// registered compensations still run; this line's outcome
				// stays unknown and needs operator attention.
				logger.Ctx(ctx).Error().Str("integrity_alarm", "reserve_outcome_unknown").
					Str("sku", line.SKU).Int("qty", line.Qty).
					Str("reservation_id", orderCtx.ReservationID).Err(err).
					Msg("reserve call failed without a definite outcome")
			}
			return err
		}

		orderCtx.AddCompensation(func(compCtx context.Context) {
			releaseWithRetry(compCtx, orderCtx, line)
		})
	}

	span.SetAttributes(attribute.Int("order.lines", len(orderCtx.Priced)))
	span.AddEvent("all items reserved")

	return h.executeNext(orderCtx)
}

// releaseWithRetry re-increments one reserved line. Exhausting the budget is
// an integrity alarm: the ledger has drifted and only an operator replay can
// reconcile it.
func releaseWithRetry(ctx context.Context, orderCtx *OrderContext, line domain.PricedItem) {
	compensationRuns.Inc()

	var lastErr error
	for attempt := 1; attempt <= compensationAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, compensationTimeout)
		lastErr = orderCtx.Stock.Release(callCtx, line.SKU, line.Qty, orderCtx.ReservationID)
		cancel()
		if lastErr == nil {
			return
		}
		logger.Ctx(ctx).Warn().Str("sku", line.SKU).Int("attempt", attempt).Err(lastErr).
			Msg("compensating release failed, retrying")
		time.Sleep(compensationBackoff)
	}

	compensationFailures.Inc()
	logger.Ctx(ctx).Error().Str("integrity_alarm", "compensation_failed").
		Str("sku", line.SKU).Int("qty", line.Qty).
		Str("reservation_id", orderCtx.ReservationID).Err(lastErr).
		Msg("unable to restore reserved stock; manual reconciliation required")
}
