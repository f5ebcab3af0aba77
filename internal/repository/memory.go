package repository

import (
	"context"
	"sync"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

var _ OrderRepository = (*MemoryRepository)(nil)

// MemoryRepository keeps orders in a process-local map. It backs ephemeral
// deployments with no durable store: orders silently vanish on restart, and
// a lookup after that is an ordinary not-found.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]*order.Order)}
}

// Get returns a copy of the stored order or order.ErrNotFound.
func (r *MemoryRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	o, ok := r.orders[id]
	r.mu.RUnlock()

	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

// Upsert stores a copy of the order under its ID.
func (r *MemoryRepository) Upsert(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	r.orders[o.ID] = o.Clone()
	r.mu.Unlock()
	return nil
}
