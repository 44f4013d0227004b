package application

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"

	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/infrastructure"
)

func TestBuildInvoice(t *testing.T) {
	order := &domain.Order{
		ID:           42,
		CustomerName: "Alice",
		TotalAmount:  20.0,
		Items:        []domain.OrderItem{{SKU: "SKU123", Qty: 2}},
	}

	inv := buildInvoice(order)
	if inv.InvoiceID != "INV-000042" {
		t.Fatalf("unexpected invoice id %s", inv.InvoiceID)
	}
	if inv.Subtotal != 20.0 || inv.Tax != 2.0 || inv.Total != 22.0 {
		t.Fatalf("bad totals: subtotal=%v tax=%v total=%v", inv.Subtotal, inv.Tax, inv.Total)
	}
	if inv.BilledTo != "Alice" || len(inv.LineItems) != 1 {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
}

func TestBuildInvoiceRoundsToCents(t *testing.T) {
	order := &domain.Order{ID: 1, CustomerName: "Bob", TotalAmount: 19.99}

	inv := buildInvoice(order)
	if inv.Tax != 2.0 {
		t.Fatalf("expected tax 2.00, got %v", inv.Tax)
	}
	if inv.Total != 21.99 {
		t.Fatalf("expected total 21.99, got %v", inv.Total)
	}
}

func TestInvoiceUnknownOrder(t *testing.T) {
	svc := newService(newFakeStock(), infrastructure.NewMemoryOrderRepository(), &fakePublisher{})

	if _, err := svc.Invoice(context.Background(), 999); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestRenderPDF(t *testing.T) {
	inv := &Invoice{
		InvoiceID: "INV-000001",
		OrderID:   1,
		BilledTo:  "Alice",
		LineItems: []domain.OrderItem{{SKU: "SKU123", Qty: 2}},
		Subtotal:  20.0,
		Tax:       2.0,
		Total:     22.0,
	}
	out, err := inv.RenderPDF()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
}
