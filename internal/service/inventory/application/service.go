package application

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/inventory/domain"
)

var reserveConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inventory_reserve_conflicts_total",
	Help: "Reservation attempts rejected because stock was insufficient.",
}, []string{"sku"})

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Qty   *int     `json:"qty"`
}

// InventoryService owns product reads/writes and the reserve/release
// operations the order saga drives over HTTP.
type InventoryService struct {
	ledger domain.StockLedger
}

func NewInventoryService(ledger domain.StockLedger) *InventoryService {
	return &InventoryService{ledger: ledger}
}

func (s *InventoryService) GetProduct(ctx context.Context, sku string) (*domain.Product, error) {
	return s.ledger.Get(ctx, sku)
}

func (s *InventoryService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.SKU == "" || p.Name == "" {
		return errors.Wrap(domain.ErrInvalidProduct, "sku and name are required")
	}
	if p.Price < 0 || p.Qty < 0 {
		return errors.Wrap(domain.ErrInvalidProduct, "price and qty cannot be negative")
	}
	return s.ledger.Create(ctx, p)
}

func (s *InventoryService) UpdateProduct(ctx context.Context, sku string, patch ProductPatch) (*domain.Product, error) {
	if patch.Qty != nil && *patch.Qty < 0 {
		return nil, errors.Wrap(domain.ErrInvalidProduct, "qty cannot be negative")
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, errors.Wrap(domain.ErrInvalidProduct, "price cannot be negative")
	}

	p, err := s.ledger.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Qty != nil {
		p.Qty = *patch.Qty
	}
	if err := s.ledger.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Reserve performs the atomic conditional decrement for one line of an order.
func (s *InventoryService) Reserve(ctx context.Context, sku string, qty int, orderRef string) error {
	if qty < 1 {
		return errors.Wrap(domain.ErrInvalidProduct, "reserve qty must be at least 1")
	}
	err := s.ledger.Decrement(ctx, sku, qty)
	if errors.Is(err, domain.ErrInsufficientStock) {
		reserveConflicts.WithLabelValues(sku).Inc()
		logger.Ctx(ctx).Warn().Str("sku", sku).Int("qty", qty).Str("order_ref", orderRef).
			Msg("reservation rejected: insufficient stock")
	}
	if err == nil {
		logger.Ctx(ctx).Info().Str("sku", sku).Int("qty", qty).Str("order_ref", orderRef).
			Msg("stock reserved")
	}
	return err
}

// Release is the compensating increment for a previously reserved line.
func (s *InventoryService) Release(ctx context.Context, sku string, qty int, orderRef string) error {
	if qty < 1 {
		return errors.Wrap(domain.ErrInvalidProduct, "release qty must be at least 1")
	}
	err := s.ledger.Increment(ctx, sku, qty)
	if err == nil {
		logger.Ctx(ctx).Info().Str("sku", sku).Int("qty", qty).Str("order_ref", orderRef).
			Msg("stock released")
	}
	return err
}
