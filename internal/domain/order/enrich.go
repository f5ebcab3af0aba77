package order

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/petstoreapp/order-service/internal/domain/product"
)

// Enrich overwrites each line item's denormalized display fields with the
// current catalog values, in place. Line items whose product is missing from
// the catalog keep their stale fields; a missing product is logged, never an
// error, since enrichment is display-only and must not fail the request.
func Enrich(ctx context.Context, o *Order, catalog product.Catalog) {
	lg := zctx.From(ctx)
	for i := range o.Items {
		p, ok := catalog.Lookup(o.Items[i].ProductID)
		if !ok {
			lg.Warn("Product missing from catalog during enrichment",
				zap.String("order_id", o.ID),
				zap.Int64("product_id", o.Items[i].ProductID))
			continue
		}
		o.Items[i].Name = p.Name
		o.Items[i].PhotoURL = p.PhotoURL
	}
}
