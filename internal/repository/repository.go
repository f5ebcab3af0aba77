// Package repository defines durable keyed storage for orders and its two
// backends: an ephemeral in-memory map and PostgreSQL. The backend is
// selected by configuration, never by which file happens to be wired.
package repository

import (
	"context"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

// OrderRepository is the system of record for orders. Get returns
// order.ErrNotFound for unknown IDs; Upsert inserts or replaces the full
// record under its ID.
type OrderRepository interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Upsert(ctx context.Context, o *order.Order) error
}
