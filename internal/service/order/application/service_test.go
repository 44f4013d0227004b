package application

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/port"
)

// fakeStockGateway is an in-process ledger with per-call fault injection, so
// tests can force late conflicts and upstream failures at exact points in the
// commit pass.
type fakeStockGateway struct {
	mu       sync.Mutex
	products map[string]port.StockItem

	reserveCalls      int
	failReserveAtCall int   // 0 = never
	reserveFailure    error // returned at failReserveAtCall
	releaseErr        error
	releases          []string
}

func newFakeStock(products ...port.StockItem) *fakeStockGateway {
	m := make(map[string]port.StockItem)
	for _, p := range products {
		m[p.SKU] = p
	}
	return &fakeStockGateway{products: m}
}

func (f *fakeStockGateway) GetProduct(_ context.Context, sku string) (*port.StockItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[sku]
	if !ok {
		return nil, &domain.UnknownSKUError{SKU: sku}
	}
	return &p, nil
}

func (f *fakeStockGateway) Reserve(_ context.Context, sku string, qty int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCalls++
	if f.failReserveAtCall != 0 && f.reserveCalls == f.failReserveAtCall {
		return f.reserveFailure
	}
	p, ok := f.products[sku]
	if !ok {
		return &domain.UnknownSKUError{SKU: sku}
	}
	if p.Qty < qty {
		return &domain.ReservationConflictError{SKU: sku}
	}
	p.Qty -= qty
	f.products[sku] = p
	return nil
}

func (f *fakeStockGateway) Release(_ context.Context, sku string, qty int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	p := f.products[sku]
	p.Qty += qty
	f.products[sku] = p
	f.releases = append(f.releases, sku)
	return nil
}

func (f *fakeStockGateway) qty(sku string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[sku].Qty
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*domain.OrderCreatedEvent
}

func (p *fakePublisher) Publish(_ context.Context, event *domain.OrderCreatedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type failingRepo struct {
	domain.OrderRepository
}

func (failingRepo) Save(context.Context, *domain.Order) error {
	return errors.New("disk on fire")
}

func newService(stock port.StockGateway, repo domain.OrderRepository, pub port.EventPublisher) *OrderApplicationService {
	return NewOrderApplicationService(repo, stock, pub, otel.Tracer("test"))
}

func validRequest(items ...domain.OrderItem) *domain.OrderRequest {
	return &domain.OrderRequest{Items: items, Customer: domain.Customer{Name: "Alice"}}
}

func TestCreateOrderSuccess(t *testing.T) {
	stock := newFakeStock(port.StockItem{SKU: "SKU123", Name: "Widget", Price: 10.0, Qty: 5})
	repo := infrastructure.NewMemoryOrderRepository()
	pub := &fakePublisher{}
	svc := newService(stock, repo, pub)

	order, err := svc.CreateOrder(context.Background(), validRequest(domain.OrderItem{SKU: "SKU123", Qty: 2}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TotalAmount != 20.0 {
		t.Fatalf("expected total 20.0, got %v", order.TotalAmount)
	}
	if got := stock.qty("SKU123"); got != 3 {
		t.Fatalf("expected ledger qty 3, got %d", got)
	}
	stored, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if stored.CustomerName != "Alice" || len(stored.Items) != 1 {
		t.Fatalf("unexpected stored order: %+v", stored)
	}
	if pub.count() != 1 {
		t.Fatalf("expected 1 published fact, got %d", pub.count())
	}
	if pub.events[0].Type != domain.EventTypeOrderCreated || pub.events[0].Order.ID != order.ID {
		t.Fatalf("unexpected fact: %+v", pub.events[0])
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	stock := newFakeStock(port.StockItem{SKU: "SKU123", Price: 10.0, Qty: 1})
	repo := infrastructure.NewMemoryOrderRepository()
	pub := &fakePublisher{}
	svc := newService(stock, repo, pub)

	_, err := svc.CreateOrder(context.Background(), validRequest(domain.OrderItem{SKU: "SKU123", Qty: 2}))
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.SKU != "SKU123" || insufficient.Available != 1 || insufficient.Requested != 2 {
		t.Fatalf("unexpected error detail: %+v", insufficient)
	}
	if got := stock.qty("SKU123"); got != 1 {
		t.Fatalf("ledger changed on verify failure: qty %d", got)
	}
	if pub.count() != 0 {
		t.Fatalf("no fact should be published on failure")
	}
}

func TestCreateOrderUnknownSKU(t *testing.T) {
	stock := newFakeStock()
	svc := newService(stock, infrastructure.NewMemoryOrderRepository(), &fakePublisher{})

	_, err := svc.CreateOrder(context.Background(), validRequest(domain.OrderItem{SKU: "GHOST", Qty: 1}))
	var unknown *domain.UnknownSKUError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSKUError, got %v", err)
	}
	if unknown.SKU != "GHOST" {
		t.Fatalf("wrong sku in error: %s", unknown.SKU)
	}
}

func TestVerifyFailureLeavesAllItemsUntouched(t *testing.T) {
	stock := newFakeStock(
		port.StockItem{SKU: "A", Price: 1.0, Qty: 10},
		port.StockItem{SKU: "B", Price: 2.0, Qty: 1},
	)
	svc := newService(stock, infrastructure.NewMemoryOrderRepository(), &fakePublisher{})

	_, err := svc.CreateOrder(context.Background(), validRequest(
		domain.OrderItem{SKU: "A", Qty: 5},
		domain.OrderItem{SKU: "B", Qty: 3},
	))
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.SKU != "B" {
		t.Fatalf("expected InsufficientStockError for B, got %v", err)
	}
	if stock.qty("A") != 10 || stock.qty("B") != 1 {
		t.Fatalf("verify pass must not mutate: A=%d B=%d", stock.qty("A"), stock.qty("B"))
	}
}

func TestLateConflictCompensatesEarlierDecrements(t *testing.T) {
	stock := newFakeStock(
		port.StockItem{SKU: "A", Price: 1.0, Qty: 10},
		port.StockItem{SKU: "B", Price: 2.0, Qty: 10},
	)
	stock.failReserveAtCall = 2
	stock.reserveFailure = &domain.ReservationConflictError{SKU: "B"}

	repo := infrastructure.NewMemoryOrderRepository()
	pub := &fakePublisher{}
	svc := newService(stock, repo, pub)

	_, err := svc.CreateOrder(context.Background(), validRequest(
		domain.OrderItem{SKU: "A", Qty: 4},
		domain.OrderItem{SKU: "B", Qty: 4},
	))
	var conflict *domain.ReservationConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ReservationConflictError, got %v", err)
	}
	if stock.qty("A") != 10 || stock.qty("B") != 10 {
		t.Fatalf("ledger not restored: A=%d B=%d", stock.qty("A"), stock.qty("B"))
	}
	if _, err := repo.FindByID(context.Background(), 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("no order row may exist on failure, got %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("no fact should be published on failure")
	}
}

func TestUpstreamFailureDuringCommitCompensates(t *testing.T) {
	stock := newFakeStock(
		port.StockItem{SKU: "A", Price: 1.0, Qty: 10},
		port.StockItem{SKU: "B", Price: 2.0, Qty: 10},
	)
	stock.failReserveAtCall = 2
	stock.reserveFailure = &domain.UpstreamError{Service: "inventory", Err: errors.New("timeout")}

	svc := newService(stock, infrastructure.NewMemoryOrderRepository(), &fakePublisher{})

	_, err := svc.CreateOrder(context.Background(), validRequest(
		domain.OrderItem{SKU: "A", Qty: 4},
		domain.OrderItem{SKU: "B", Qty: 4},
	))
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if stock.qty("A") != 10 {
		t.Fatalf("confirmed decrement not compensated: A=%d", stock.qty("A"))
	}
}

func TestPersistFailureReleasesReservedStock(t *testing.T) {
	stock := newFakeStock(port.StockItem{SKU: "A", Price: 1.0, Qty: 10})
	pub := &fakePublisher{}
	svc := newService(stock, failingRepo{}, pub)

	_, err := svc.CreateOrder(context.Background(), validRequest(domain.OrderItem{SKU: "A", Qty: 3}))
	if err == nil {
		t.Fatal("expected error from persistence")
	}
	if stock.qty("A") != 10 {
		t.Fatalf("stock not released after persist failure: %d", stock.qty("A"))
	}
	if pub.count() != 0 {
		t.Fatalf("no fact should be published when the order never committed")
	}
}

// cancellingRepo cancels the request context the instant the order row
// commits, simulating a client that disconnects right at the commit point.
type cancellingRepo struct {
	*infrastructure.MemoryOrderRepository
	cancel context.CancelFunc
}

func (r *cancellingRepo) Save(ctx context.Context, order *domain.Order) error {
	if err := r.MemoryOrderRepository.Save(ctx, order); err != nil {
		return err
	}
	r.cancel()
	return nil
}

// ctxPublisher records the context each fact is published with.
type ctxPublisher struct {
	mu     sync.Mutex
	events []*domain.OrderCreatedEvent
	ctxs   []context.Context
}

func (p *ctxPublisher) Publish(ctx context.Context, event *domain.OrderCreatedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.ctxs = append(p.ctxs, ctx)
}

func TestCancellationAfterCommitDoesNotRetractOrder(t *testing.T) {
	stock := newFakeStock(port.StockItem{SKU: "SKU123", Price: 10.0, Qty: 5})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &cancellingRepo{MemoryOrderRepository: infrastructure.NewMemoryOrderRepository(), cancel: cancel}
	pub := &ctxPublisher{}
	svc := newService(stock, repo, pub)

	order, err := svc.CreateOrder(ctx, validRequest(domain.OrderItem{SKU: "SKU123", Qty: 2}))
	if err != nil {
		t.Fatalf("cancellation after the durable write must not fail the order: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("test setup broken: request context should be cancelled")
	}

	if _, err := repo.FindByID(context.Background(), order.ID); err != nil {
		t.Fatalf("order row must survive cancellation: %v", err)
	}
	if stock.qty("SKU123") != 3 {
		t.Fatalf("committed order must not be compensated: qty %d", stock.qty("SKU123"))
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected exactly 1 published fact, got %d", len(pub.events))
	}
	if pub.events[0].Order.ID != order.ID {
		t.Fatalf("unexpected fact: %+v", pub.events[0])
	}
	if pubErr := pub.ctxs[0].Err(); pubErr != nil {
		t.Fatalf("publish must run on a context detached from the request, got %v", pubErr)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newService(newFakeStock(), infrastructure.NewMemoryOrderRepository(), &fakePublisher{})

	cases := []struct {
		name string
		req  *domain.OrderRequest
	}{
		{"empty items", &domain.OrderRequest{Customer: domain.Customer{Name: "A"}}},
		{"zero qty", validRequest(domain.OrderItem{SKU: "X", Qty: 0})},
		{"empty sku", validRequest(domain.OrderItem{Qty: 1})},
		{"missing customer name", &domain.OrderRequest{Items: []domain.OrderItem{{SKU: "X", Qty: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tc.req)
			var validation *domain.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRepeatedOrderAfterStockDrop(t *testing.T) {
	stock := newFakeStock(port.StockItem{SKU: "SKU123", Price: 10.0, Qty: 5})
	repo := infrastructure.NewMemoryOrderRepository()
	pub := &fakePublisher{}
	svc := newService(stock, repo, pub)

	req := validRequest(domain.OrderItem{SKU: "SKU123", Qty: 2})
	for i := 0; i < 2; i++ {
		if _, err := svc.CreateOrder(context.Background(), req); err != nil {
			t.Fatalf("order %d failed: %v", i+1, err)
		}
	}
	// qty is now 1; a third identical order must be rejected with the
	// observed availability, and the ledger must not move.
	_, err := svc.CreateOrder(context.Background(), req)
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 1 || insufficient.Requested != 2 {
		t.Fatalf("unexpected availability report: %+v", insufficient)
	}
	if stock.qty("SKU123") != 1 {
		t.Fatalf("ledger moved on rejection: %d", stock.qty("SKU123"))
	}
	if pub.count() != 2 {
		t.Fatalf("expected 2 published facts, got %d", pub.count())
	}
}
