package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/application/saga"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted and durably recorded.",
	})
	ordersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order requests that failed validation, verification or reservation.",
	})
)

// OrderApplicationService orchestrates the order-creation saga and serves
// order reads.
type OrderApplicationService struct {
	repo      domain.OrderRepository
	stock     port.StockGateway
	publisher port.EventPublisher
	tracer    trace.Tracer
}

func NewOrderApplicationService(repo domain.OrderRepository, stock port.StockGateway, publisher port.EventPublisher, tracer trace.Tracer) *OrderApplicationService {
	return &OrderApplicationService{repo: repo, stock: stock, publisher: publisher, tracer: tracer}
}

// CreateOrder runs the saga: verify all items, reserve all items, persist the
// order, then notify. Any failure after a successful decrement unwinds the
// ledger through the compensation registry before the error is returned, so
// no error path leaves stock missing or an order row behind.
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()

	if err := req.Validate(); err != nil {
		ordersRejected.Inc()
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	orderCtx := &saga.OrderContext{
		Ctx:           ctx,
		Tracer:        s.tracer,
		Request:       req,
		ReservationID: uuid.New().String(),
		Stock:         s.stock,
		Repo:          s.repo,
		Publisher:     s.publisher,
	}
	span.SetAttributes(attribute.String("reservation.id", orderCtx.ReservationID))

	chain := s.buildChain()
	if err := chain.Handle(orderCtx); err != nil {
		ordersRejected.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "order saga failed")
		logger.Ctx(ctx).Warn().Str("reservation_id", orderCtx.ReservationID).Err(err).
			Msg("order saga failed, compensating")
		// Detached so a cancelled or timed-out request context cannot stop
		// the ledger from being restored.
		orderCtx.TriggerCompensation(saga.DetachedContext(ctx))
		return nil, err
	}

	ordersCreated.Inc()
	logger.Ctx(ctx).Info().Uint64("order_id", orderCtx.Order.ID).
		Float64("total", orderCtx.Order.TotalAmount).
		Str("customer", orderCtx.Order.CustomerName).
		Msg("order created")
	return orderCtx.Order, nil
}

func (s *OrderApplicationService) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	chain := new(saga.VerifyStockHandler)
	chain.
		SetNext(new(saga.ReserveStockHandler)).
		SetNext(new(saga.PersistOrderHandler)).
		SetNext(new(saga.NotifyHandler))
	return chain
}
