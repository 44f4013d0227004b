package port

import "context"

// StockItem is the order service's view of one inventory record.
type StockItem struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// StockGateway is the outbound port to the inventory service. Every call is
// a remote call and must be bounded by a timeout in the adapter.
//
// Reserve is the ledger's atomic conditional decrement; Release is its
// compensating increment. orderRef correlates ledger mutations with the saga
// run that caused them.
type StockGateway interface {
	GetProduct(ctx context.Context, sku string) (*StockItem, error)
	Reserve(ctx context.Context, sku string, qty int, orderRef string) error
	Release(ctx context.Context, sku string, qty int, orderRef string) error
}
