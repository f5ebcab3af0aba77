package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/petstoreapp/order-service/internal/catalog"
	"github.com/petstoreapp/order-service/internal/domain/order"
	"github.com/petstoreapp/order-service/internal/domain/product"
)

const (
	maxBodyBytes  = 1 << 20
	maxEmailChars = 255
)

// orderRequest is the wire shape of an inbound order update.
type orderRequest struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Products []lineItemRequest `json:"products"`
	Status   string            `json:"status"`
	Complete bool              `json:"complete"`
}

type lineItemRequest struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// toDomain maps the wire request to a domain order change. An unrecognized
// status string is dropped, which the merge treats as "leave unchanged".
func (req orderRequest) toDomain() order.Order {
	items := make([]order.LineItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = order.LineItem{
			ProductID: p.ID,
			Quantity:  p.Quantity,
			Name:      p.Name,
			PhotoURL:  p.PhotoURL,
		}
	}
	return order.Order{
		ID:       req.ID,
		Email:    req.Email,
		Items:    items,
		Status:   order.ParseStatus(req.Status),
		Complete: req.Complete,
	}
}

// PlaceOrder applies an order update: creates or mutates the order, then
// enriches the result with current catalog data.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req orderRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", "invalid request body")
		return
	}
	if len(req.Email) > maxEmailChars {
		writeError(w, http.StatusBadRequest, "Validation failed",
			"email must not exceed 255 characters")
		return
	}

	o, err := h.orders.ApplyUpdate(ctx, req.toDomain())
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	h.enrich(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

// GetOrder returns a single order by ID with enriched product information.
// This path never creates.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "orderID")
	if !order.ValidID(id) {
		writeError(w, http.StatusBadRequest, "Invalid argument", order.ErrInvalidID.Error())
		return
	}

	o, err := h.orders.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}

	h.enrich(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

// enrich refreshes the order's display fields from the catalog. An
// unavailable catalog skips enrichment: the order is served with its
// denormalized fields as stored.
func (h *Handler) enrich(ctx context.Context, o *order.Order) {
	available, err := h.catalog.ListAvailable(ctx)
	if err != nil {
		zctx.From(ctx).Warn("Skipping enrichment, catalog unavailable", zap.Error(err))
		return
	}
	order.Enrich(ctx, o, product.NewCatalog(available))
}

// writeServiceError maps domain errors to the storefront's error responses.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var pna *order.ProductsNotAvailableError
	switch {
	case errors.Is(err, order.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid argument", order.ErrInvalidID.Error())
	case errors.As(err, &pna):
		writeError(w, http.StatusBadRequest, "Invalid argument", pna.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found", err.Error())
	case errors.Is(err, catalog.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Service communication error",
			"unable to validate product information")
	default:
		zctx.From(ctx).Error("Unexpected error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error",
			"an unexpected error occurred")
	}
}
