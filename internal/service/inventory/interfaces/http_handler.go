package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
)

const serviceName = "inventory-service"

var tracer = otel.Tracer(serviceName)

// InventoryHandler exposes the product HTTP API consumed by clients and by
// the order service's reservation coordinator.
type InventoryHandler struct {
	service *application.InventoryService
}

func NewInventoryHandler(service *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /products", h.createProduct)
	mux.HandleFunc("GET /products/{sku}", h.getProduct)
	mux.HandleFunc("PUT /products/{sku}", h.updateProduct)
	mux.HandleFunc("POST /products/{sku}/reserve", h.reserve)
	mux.HandleFunc("POST /products/{sku}/release", h.release)
}

func (h *InventoryHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "inventory.CreateProduct")
	defer span.End()

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.CreateProduct(ctx, &p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *InventoryHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "inventory.GetProduct")
	defer span.End()

	sku := r.PathValue("sku")
	span.SetAttributes(attribute.String("product.sku", sku))

	p, err := h.service.GetProduct(ctx, sku)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *InventoryHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "inventory.UpdateProduct")
	defer span.End()

	var patch application.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.service.UpdateProduct(ctx, r.PathValue("sku"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type reserveRequest struct {
	Qty      int    `json:"qty"`
	OrderRef string `json:"order_ref"`
}

func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "inventory.Reserve")
	defer span.End()

	sku := r.PathValue("sku")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	span.SetAttributes(attribute.String("product.sku", sku), attribute.Int("reserve.qty", req.Qty))

	if err := h.service.Reserve(ctx, sku, req.Qty, req.OrderRef); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reserved"})
}

func (h *InventoryHandler) release(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(extract(r), "inventory.Release")
	defer span.End()

	sku := r.PathValue("sku")
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Release(ctx, sku, req.Qty, req.OrderRef); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSKU):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrDuplicateSKU):
		writeError(w, http.StatusConflict, "SKU already exists")
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient stock")
	case errors.Is(err, domain.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
