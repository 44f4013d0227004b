package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/order/domain"
)

// MemoryOrderRepository backs the local deployment and tests. IDs are
// assigned from a process-local monotonic counter.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	nextID uint64
	m      map[uint64]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{m: make(map[uint64]domain.Order)}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	stored := *order
	stored.Items = copyItems(order.Items)
	r.m[order.ID] = stored
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id uint64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Items = copyItems(o.Items)
	return &o, nil
}

// copyItems keeps the stored snapshot and the caller's slice independent.
func copyItems(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	return out
}
