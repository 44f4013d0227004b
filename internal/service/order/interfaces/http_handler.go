package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/application"
	"storefront/internal/service/order/domain"
)

const serviceName = "order-service"

var tracer = otel.Tracer(serviceName)

type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("GET /orders/{id}/invoice", h.getInvoice)
	mux.HandleFunc("GET /orders/{id}/invoice.pdf", h.getInvoicePDF)
}

type createOrderResponse struct {
	ID           uint64             `json:"id"`
	TotalAmount  float64            `json:"total_amount"`
	Items        []domain.OrderItem `json:"items"`
	CustomerName string             `json:"customer_name"`
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "order.CreateOrder")
	defer span.End()

	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(ctx, &req)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		ID:           order.ID,
		TotalAmount:  order.TotalAmount,
		Items:        order.Items,
		CustomerName: order.CustomerName,
	})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "order.GetOrder")
	defer span.End()

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	order, err := h.service.GetOrder(ctx, id)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResponse{
		ID:           order.ID,
		TotalAmount:  order.TotalAmount,
		Items:        order.Items,
		CustomerName: order.CustomerName,
	})
}

func (h *OrderHandler) getInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "order.GetInvoice")
	defer span.End()

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.Invoice(ctx, id)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *OrderHandler) getInvoicePDF(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "order.GetInvoicePDF")
	defer span.End()

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.Invoice(ctx, id)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	raw, err := invoice.RenderPDF()
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, invoice.InvoiceID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to write invoice pdf")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid order id")
		return 0, false
	}
	return id, true
}

// writeOrderError maps the error taxonomy to HTTP statuses. Business
// rejections carry a machine-readable error code so clients can tell a
// permanent validation failure from a retryable conflict.
func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		unknownSKU    *domain.UnknownSKUError
		insufficient  *domain.InsufficientStockError
		conflict      *domain.ReservationConflictError
		upstream      *domain.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.As(err, &unknownSKU):
		writeError(w, http.StatusBadRequest, "unknown_sku", unknownSKU.Error())
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":     "insufficient_stock",
			"detail":    insufficient.Error(),
			"sku":       insufficient.SKU,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "reservation_conflict", conflict.Error())
	case errors.As(err, &upstream):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", upstream.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}
