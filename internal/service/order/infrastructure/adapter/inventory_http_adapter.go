package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

// InventoryHTTPAdapter implements port.StockGateway against the inventory
// service's HTTP API. Every call gets its own deadline; a remote call without
// a timeout would be a correctness bug on the saga path.
type InventoryHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
	timeout time.Duration
}

func NewInventoryHTTPAdapter(client *httpclient.Client, baseURL string, timeout time.Duration) *InventoryHTTPAdapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InventoryHTTPAdapter{client: client, baseURL: baseURL, timeout: timeout}
}

func (a *InventoryHTTPAdapter) GetProduct(ctx context.Context, sku string) (*port.StockItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var item port.StockItem
	err := a.client.DoJSON(ctx, http.MethodGet, a.productURL(sku), nil, &item)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, &domain.UnknownSKUError{SKU: sku}
		}
		return nil, &domain.UpstreamError{Service: "inventory", Err: err}
	}
	return &item, nil
}

type reservePayload struct {
	Qty      int    `json:"qty"`
	OrderRef string `json:"order_ref"`
}

func (a *InventoryHTTPAdapter) Reserve(ctx context.Context, sku string, qty int, orderRef string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := a.client.DoJSON(ctx, http.MethodPost, a.productURL(sku)+"/reserve", reservePayload{Qty: qty, OrderRef: orderRef}, nil)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Code {
			case http.StatusConflict:
				return &domain.ReservationConflictError{SKU: sku}
			case http.StatusNotFound:
				return &domain.UnknownSKUError{SKU: sku}
			}
		}
		return &domain.UpstreamError{Service: "inventory", Err: err}
	}
	return nil
}

func (a *InventoryHTTPAdapter) Release(ctx context.Context, sku string, qty int, orderRef string) error {
	// Callers manage the retry budget; only the per-call deadline lives here.
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := a.client.DoJSON(ctx, http.MethodPost, a.productURL(sku)+"/release", reservePayload{Qty: qty, OrderRef: orderRef}, nil)
	if err != nil {
		return &domain.UpstreamError{Service: "inventory", Err: err}
	}
	return nil
}

func (a *InventoryHTTPAdapter) productURL(sku string) string {
	return fmt.Sprintf("%s/products/%s", a.baseURL, url.PathEscape(sku))
}
