package infrastructure

import (
	"context"
	"sync"

	"storefront/internal/service/inventory/domain"
)

// MemoryLedger is the in-process StockLedger used by the default local
// deployment and by tests. The mutex gives Decrement the same check-and-set
// guarantee the SQL and Redis backends provide.
type MemoryLedger struct {
	mu sync.RWMutex
	m  map[string]domain.Product
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{m: make(map[string]domain.Product)}
}

func (l *MemoryLedger) Get(_ context.Context, sku string) (*domain.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.m[sku]
	if !ok {
		return nil, domain.ErrUnknownSKU
	}
	return &p, nil
}

func (l *MemoryLedger) Create(_ context.Context, p *domain.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[p.SKU]; ok {
		return domain.ErrDuplicateSKU
	}
	l.m[p.SKU] = *p
	return nil
}

func (l *MemoryLedger) Update(_ context.Context, p *domain.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[p.SKU]; !ok {
		return domain.ErrUnknownSKU
	}
	l.m[p.SKU] = *p
	return nil
}

func (l *MemoryLedger) Decrement(_ context.Context, sku string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.m[sku]
	if !ok {
		return domain.ErrUnknownSKU
	}
	if p.Qty < qty {
		return domain.ErrInsufficientStock
	}
	p.Qty -= qty
	l.m[sku] = p
	return nil
}

func (l *MemoryLedger) Increment(_ context.Context, sku string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.m[sku]
	if !ok {
		return domain.ErrUnknownSKU
	}
	p.Qty += qty
	l.m[sku] = p
	return nil
}
