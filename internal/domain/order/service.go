package order

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/petstoreapp/order-service/internal/domain/product"
)

// Store is the keyed order storage the service writes through. Get returns
// ErrNotFound for unknown IDs. Put is durable: a failed Put means the order
// was not persisted.
type Store interface {
	Get(ctx context.Context, id string) (*Order, error)
	Put(ctx context.Context, o *Order) error
}

// CatalogSource lists the products currently available for purchase. It must
// be treated as unreliable: callers degrade on error rather than crash.
type CatalogSource interface {
	ListAvailable(ctx context.Context) ([]product.Product, error)
}

// Service is the order aggregate mutation engine. It merges partial order
// updates into the stored order, validating referenced products against the
// catalog before any write.
//
// Updates to a single order ID are serialized through a sharded lock; the
// read-modify-write in ApplyUpdate is otherwise not atomic across store and
// cache. Updates to distinct IDs proceed independently.
type Service struct {
	store   Store
	catalog CatalogSource
	locks   [64]sync.Mutex
}

// NewService creates an order Service backed by the given store and catalog.
func NewService(store Store, catalog CatalogSource) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
	}
}

// lockID locks the shard owning id and returns the unlock function.
func (s *Service) lockID(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// ApplyUpdate merges an incoming partial or complete order change into the
// stored order and returns the new authoritative state.
//
// When the change carries no ID a fresh session-derived ID is assigned. An
// unknown ID materializes a fresh empty order (lazy creation); the creation
// itself is persisted before the merge. Referenced products are validated
// against the catalog before any write: validation failure or an unavailable
// catalog leaves the stored order untouched.
func (s *Service) ApplyUpdate(ctx context.Context, change Order) (*Order, error) {
	if change.ID == "" {
		change.ID = NewID()
	} else if !ValidID(change.ID) {
		return nil, ErrInvalidID
	}
	lg := zctx.From(ctx).With(zap.String("order_id", change.ID))

	if len(change.Items) > 0 {
		available, err := s.catalog.ListAvailable(ctx)
		if err != nil {
			// Fail closed: unvalidated products never reach the store.
			return nil, errors.Wrap(err, "validate products")
		}
		if missing := missingProducts(change.Items, product.NewCatalog(available)); len(missing) > 0 {
			lg.Warn("Product validation failed", zap.Int64s("missing_ids", missing))
			return nil, &ProductsNotAvailableError{IDs: missing}
		}
	}

	unlock := s.lockID(change.ID)
	defer unlock()

	existing, err := s.store.Get(ctx, change.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = New(change.ID)
		// Lazy creation is itself a write.
		if err := s.store.Put(ctx, existing); err != nil {
			return nil, errors.Wrap(err, "persist new order")
		}
		lg.Info("Created order")
	case err != nil:
		return nil, errors.Wrap(err, "load order")
	}

	merge(existing, change, lg)

	if err := s.store.Put(ctx, existing); err != nil {
		return nil, errors.Wrap(err, "store order")
	}
	return existing, nil
}

// GetByID returns an existing order. Unlike ApplyUpdate it never creates:
// an unknown ID yields ErrNotFound, a blank ID yields ErrInvalidID before
// any lookup.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			zctx.From(ctx).Warn("Order not found", zap.String("order_id", id))
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load order")
	}
	return o, nil
}

// missingProducts returns the IDs referenced by items that are absent from
// the catalog, in first-reference order without duplicates.
func missingProducts(items []LineItem, catalog product.Catalog) []int64 {
	var missing []int64
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		if _, ok := catalog.Lookup(item.ProductID); !ok {
			missing = append(missing, item.ProductID)
		}
	}
	return missing
}

// merge folds the incoming change into the existing order.
//
// Email is last-writer-wins, including clearing. Status changes only when the
// change specifies one. Completion clears the cart and skips the line-item
// merge entirely. Otherwise exactly one incoming item is a delta against the
// cart, more than one replaces the cart verbatim, and zero leaves it alone.
func merge(existing *Order, change Order, lg *zap.Logger) {
	existing.Email = change.Email
	if change.Status != "" {
		existing.Status = change.Status
	}

	if change.Complete {
		lg.Info("Completing order, clearing line items")
		existing.Items = []LineItem{}
		existing.Complete = true
		return
	}
	existing.Complete = false

	switch len(change.Items) {
	case 0:
		// Existing cart untouched.
	case 1:
		mergeLineItem(existing, change.Items[0], lg)
	default:
		// Full cart replacement, no merge and no clamping.
		existing.Items = append([]LineItem{}, change.Items...)
	}
}

// mergeLineItem applies a single-item delta to the cart. Quantities are
// signed; the resulting quantity is clamped to [0, MaxQuantity], with zero
// removing the line item.
func mergeLineItem(o *Order, in LineItem, lg *zap.Logger) {
	for i := range o.Items {
		if o.Items[i].ProductID != in.ProductID {
			continue
		}
		q := o.Items[i].Quantity + in.Quantity
		switch {
		case q <= 0:
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			lg.Info("Removed line item",
				zap.Int64("product_id", in.ProductID),
				zap.Int("quantity", q))
		case q <= MaxQuantity:
			o.Items[i].Quantity = q
		default:
			o.Items[i].Quantity = MaxQuantity
			lg.Warn("Quantity capped at maximum",
				zap.Int64("product_id", in.ProductID),
				zap.Int("requested", q))
		}
		return
	}

	if in.Quantity <= 0 {
		// Non-positive quantity for a product not in the cart is a no-op.
		lg.Info("Ignoring non-positive quantity for absent line item",
			zap.Int64("product_id", in.ProductID),
			zap.Int("quantity", in.Quantity))
		return
	}
	if in.Quantity > MaxQuantity {
		lg.Warn("Quantity capped at maximum",
			zap.Int64("product_id", in.ProductID),
			zap.Int("requested", in.Quantity))
		in.Quantity = MaxQuantity
	}
	o.Items = append(o.Items, in)
}
