// Package storage implements the store/cache duality: a write-through Store
// that pairs the durable order repository with the optional in-memory cache.
package storage

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/petstoreapp/order-service/internal/cache"
	"github.com/petstoreapp/order-service/internal/domain/order"
	"github.com/petstoreapp/order-service/internal/repository"
)

var _ order.Store = (*Store)(nil)

// Store reads cache-first and writes through: every Put hits the durable
// repository synchronously, then mirrors into the cache best-effort. The
// repository always wins over the cache; cache entries are never trusted
// over store entries written after them.
//
// With a nil cache the Store degrades to the bare repository. Whether the
// repository itself is durable (PostgreSQL) or ephemeral (in-memory map) is
// a configuration choice made at wiring time, not here.
type Store struct {
	repo  repository.OrderRepository
	cache *cache.Cache // nil disables the fast path
}

// New creates a Store over the given repository and optional cache.
func New(repo repository.OrderRepository, c *cache.Cache) *Store {
	return &Store{repo: repo, cache: c}
}

// Get tries the cache first, falls through to the repository on a miss, and
// re-populates the cache on a repository hit. A miss in both surfaces the
// repository's order.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*order.Order, error) {
	if s.cache != nil {
		if o, ok := s.cache.Get(id); ok {
			return o, nil
		}
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(o)
	}
	return o, nil
}

// Put writes the durable repository synchronously, then mirrors into the
// cache. A repository failure is fatal to the write and the cache is left
// untouched: a failed Put never presents a cache-only write as success.
func (s *Store) Put(ctx context.Context, o *order.Order) error {
	if err := s.repo.Upsert(ctx, o); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Set(o)
		zctx.From(ctx).Debug("Cached order", zap.String("order_id", o.ID))
	}
	return nil
}

// CacheSize returns the number of cached orders, or zero without a cache.
// Exposed for the info endpoint.
func (s *Store) CacheSize() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Size()
}
