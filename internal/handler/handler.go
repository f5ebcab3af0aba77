// Package handler exposes the order service over HTTP: order placement and
// retrieval, plus the service info endpoint.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

// CacheSizer reports the order cache size for the info endpoint.
type CacheSizer interface {
	CacheSize() int
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Version reported by the info endpoint.
	Version string
	// Hostname of the serving container, reported by the info endpoint.
	Hostname string
}

// Handler implements the HTTP boundary, delegating business logic to the
// order service and catalog client.
type Handler struct {
	orders   *order.Service
	catalog  order.CatalogSource
	cache    CacheSizer
	version  string
	hostname string
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, orders *order.Service, catalog order.CatalogSource, cache CacheSizer) *Handler {
	return &Handler{
		orders:   orders,
		catalog:  catalog,
		cache:    cache,
		version:  cfg.Version,
		hostname: cfg.Hostname,
	}
}

// Routes returns the service's route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/v2/store/order", h.PlaceOrder)
	r.Get("/v2/store/order/{orderID}", h.GetOrder)
	r.Get("/v2/store/info", h.Info)
	return r
}

// Info reports service metadata and the current orders cache size.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":         "order service",
		"version":         h.version,
		"container":       h.hostname,
		"ordersCacheSize": strconv.Itoa(h.cache.CacheSize()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorBody mirrors the storefront's error response shape.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, label, message string) {
	writeJSON(w, status, errorBody{Error: label, Message: message})
}
