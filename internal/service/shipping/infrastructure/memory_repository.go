package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/shipping/domain"
)

// MemoryShipmentRepository enforces the order_id uniqueness invariant under a
// mutex, giving tests the same duplicate-insert semantics as the unique index
// in MySQL.
type MemoryShipmentRepository struct {
	mu sync.RWMutex
	m  map[uint64]domain.Shipment
}

func NewMemoryShipmentRepository() *MemoryShipmentRepository {
	return &MemoryShipmentRepository{m: make(map[uint64]domain.Shipment)}
}

func (r *MemoryShipmentRepository) Create(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[s.OrderID]; ok {
		return domain.ErrDuplicateOrder
	}
	r.m[s.OrderID] = *s
	return nil
}

func (r *MemoryShipmentRepository) FindByOrderID(_ context.Context, orderID uint64) (*domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[orderID]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return &s, nil
}
