package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/shipping/domain"
)

var (
	shipmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipments_created_total",
		Help: "Shipments created from order.created facts.",
	})
	duplicateFacts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipping_duplicate_facts_total",
		Help: "Redelivered order.created facts dropped by the idempotency check.",
	})
)

// ShippingService turns order facts into shipment records and serves lookups.
type ShippingService struct {
	repo domain.ShipmentRepository
}

func NewShippingService(repo domain.ShipmentRepository) *ShippingService {
	return &ShippingService{repo: repo}
}

// CreateFromFact performs idempotent shipment creation. Redelivery is a
// no-op, not an error: the existence check handles the common case and the
// store's uniqueness constraint closes the race between concurrent duplicate
// deliveries.
func (s *ShippingService) CreateFromFact(ctx context.Context, fact *domain.OrderCreatedFact) error {
	orderID := fact.Order.ID

	_, err := s.repo.FindByOrderID(ctx, orderID)
	if err == nil {
		duplicateFacts.Inc()
		logger.Ctx(ctx).Debug().Uint64("order_id", orderID).Msg("duplicate order.created fact dropped")
		return nil
	}
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		return err
	}

	shipment := &domain.Shipment{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		Status:         domain.StatusProcessing,
		TrackingNumber: domain.TrackingNumber(orderID),
	}
	if err := s.repo.Create(ctx, shipment); err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			duplicateFacts.Inc()
			logger.Ctx(ctx).Debug().Uint64("order_id", orderID).Msg("lost creation race, shipment already exists")
			return nil
		}
		return err
	}

	shipmentsCreated.Inc()
	logger.Ctx(ctx).Info().Uint64("order_id", orderID).
		Str("tracking_number", shipment.TrackingNumber).Msg("shipment created")
	return nil
}

func (s *ShippingService) GetShipment(ctx context.Context, orderID uint64) (*domain.Shipment, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}
