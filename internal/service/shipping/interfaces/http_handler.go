package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/shipping/application"
	"storefront/internal/service/shipping/domain"
)

var tracer = otel.Tracer("shipping-service")

type ShippingHandler struct {
	service *application.ShippingService
}

func NewShippingHandler(service *application.ShippingService) *ShippingHandler {
	return &ShippingHandler{service: service}
}

func (h *ShippingHandler) RegisterRoutes(mux *http.ServeMux) {
	// Liveness only: the background consumer reconnects on its own and must
	// not gate health.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /shipping/{order_id}", h.getShipment)
}

type shipmentResponse struct {
	OrderID        uint64 `json:"order_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

func (h *ShippingHandler) getShipment(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, "shipping.GetShipment")
	defer span.End()

	orderID, err := strconv.ParseUint(r.PathValue("order_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	shipment, err := h.service.GetShipment(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, shipmentResponse{
		OrderID:        shipment.OrderID,
		Status:         string(shipment.Status),
		TrackingNumber: shipment.TrackingNumber,
	})
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
