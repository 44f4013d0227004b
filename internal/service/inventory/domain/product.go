package domain

import "github.com/pkg/errors"

// Product is one stock-keeping unit. Qty is never negative: the only mutation
// paths are the ledger's conditional decrement, the compensating increment,
// and validated restocks.
type Product struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

var (
	ErrUnknownSKU        = errors.New("unknown sku")
	ErrDuplicateSKU      = errors.New("sku already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidProduct    = errors.New("invalid product")
)
