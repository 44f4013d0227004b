package application

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"storefront/internal/service/order/domain"
)

// Invoice is a read-only view derived from an order. Flat 10% tax.
type Invoice struct {
	InvoiceID string             `json:"invoice_id"`
	OrderID   uint64             `json:"order_id"`
	BilledTo  string             `json:"billed_to"`
	LineItems []domain.OrderItem `json:"line_items"`
	Subtotal  float64            `json:"subtotal"`
	Tax       float64            `json:"tax"`
	Total     float64            `json:"total"`
}

const taxRate = 0.10

func (s *OrderApplicationService) Invoice(ctx context.Context, orderID uint64) (*Invoice, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return buildInvoice(order), nil
}

func buildInvoice(order *domain.Order) *Invoice {
	return &Invoice{
		InvoiceID: fmt.Sprintf("INV-%06d", order.ID),
		OrderID:   order.ID,
		BilledTo:  order.CustomerName,
		LineItems: order.Items,
		Subtotal:  order.TotalAmount,
		Tax:       round2(order.TotalAmount * taxRate),
		Total:     round2(order.TotalAmount * (1 + taxRate)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RenderPDF draws the invoice as a one-or-more page A4 PDF.
func (inv *Invoice) RenderPDF() ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Invoice ID: %s", inv.InvoiceID))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Order ID: %d", inv.OrderID))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Billed To: %s", inv.BilledTo))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Items")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	for _, item := range inv.LineItems {
		pdf.Cell(0, 6, fmt.Sprintf("- %s x %d", item.SKU, item.Qty))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Subtotal: %.2f", inv.Subtotal))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Tax (10%%): %.2f", inv.Tax))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Total: %.2f", inv.Total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
