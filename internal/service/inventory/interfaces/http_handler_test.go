package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/infrastructure"
)

func newTestMux() *http.ServeMux {
	svc := application.NewInventoryService(infrastructure.NewMemoryLedger())
	mux := http.NewServeMux()
	NewInventoryHandler(svc).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("bad json body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestProductCRUD(t *testing.T) {
	mux := newTestMux()

	rec, body := do(t, mux, http.MethodPost, "/products",
		`{"sku":"SKU123","name":"Widget","price":10.0,"qty":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, mux, http.MethodPost, "/products",
		`{"sku":"SKU123","name":"Widget","price":10.0,"qty":5}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate sku must be 409, got %d", rec.Code)
	}

	rec, body = do(t, mux, http.MethodGet, "/products/SKU123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["name"] != "Widget" || body["qty"] != 5.0 {
		t.Fatalf("unexpected product: %v", body)
	}

	rec, body = do(t, mux, http.MethodPut, "/products/SKU123", `{"price":12.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["price"] != 12.5 || body["qty"] != 5.0 {
		t.Fatalf("partial update touched other fields: %v", body)
	}

	rec, body = do(t, mux, http.MethodGet, "/products/GHOST", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body["detail"] != "Not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReserveAndReleaseEndpoints(t *testing.T) {
	mux := newTestMux()
	if rec, _ := do(t, mux, http.MethodPost, "/products",
		`{"sku":"SKU123","name":"Widget","price":10.0,"qty":5}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed failed: %d", rec.Code)
	}

	rec, body := do(t, mux, http.MethodPost, "/products/SKU123/reserve", `{"qty":3,"order_ref":"r-1"}`)
	if rec.Code != http.StatusOK || body["status"] != "reserved" {
		t.Fatalf("reserve failed: %d %v", rec.Code, body)
	}

	// only 2 left, the conflicting reserve must not move the ledger
	rec, _ = do(t, mux, http.MethodPost, "/products/SKU123/reserve", `{"qty":3,"order_ref":"r-2"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on insufficient stock, got %d", rec.Code)
	}
	_, body = do(t, mux, http.MethodGet, "/products/SKU123", "")
	if body["qty"] != 2.0 {
		t.Fatalf("expected qty 2, got %v", body["qty"])
	}

	rec, body = do(t, mux, http.MethodPost, "/products/SKU123/release", `{"qty":3,"order_ref":"r-1"}`)
	if rec.Code != http.StatusOK || body["status"] != "released" {
		t.Fatalf("release failed: %d %v", rec.Code, body)
	}
	_, body = do(t, mux, http.MethodGet, "/products/SKU123", "")
	if body["qty"] != 5.0 {
		t.Fatalf("expected qty restored to 5, got %v", body["qty"])
	}

	rec, _ = do(t, mux, http.MethodPost, "/products/GHOST/reserve", `{"qty":1,"order_ref":"r-3"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sku, got %d", rec.Code)
	}
	rec, _ = do(t, mux, http.MethodPost, "/products/SKU123/reserve", `{"qty":0,"order_ref":"r-4"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for qty 0, got %d", rec.Code)
	}
}
