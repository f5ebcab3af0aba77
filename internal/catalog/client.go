// Package catalog implements the HTTP client for the external product
// catalog service.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/petstoreapp/order-service/internal/domain/product"
	"github.com/petstoreapp/order-service/pkg/httpmiddleware"
)

// ErrUnavailable is returned when the product catalog cannot be reached or
// yields an unusable response. Callers degrade: validation fails closed,
// enrichment is skipped.
var ErrUnavailable = errors.New("product catalog unavailable")

// listPath is the catalog endpoint serving products available for purchase.
const listPath = "/v2/product/findByStatus?status=available"

// ClientConfig configures the catalog Client.
type ClientConfig struct {
	// BaseURL of the product catalog service, without trailing slash.
	BaseURL string
	// Timeout bounds each outbound request.
	Timeout time.Duration
	// MemoTTL is how long a fetched product list is served from memory.
	// Zero disables memoization.
	MemoTTL time.Duration
}

// Client fetches the available-product list. Responses are memoized for
// MemoTTL and concurrent fetches are collapsed into one request; Flush drops
// the memo, so the scheduled cache flush also refreshes catalog data.
type Client struct {
	base string
	http *http.Client
	ttl  time.Duration

	sf singleflight.Group

	mu        sync.RWMutex
	cached    []product.Product
	fetchedAt time.Time
}

var _ interface{ Flush() } = (*Client)(nil)

// NewClient creates a catalog Client. Outbound requests are traced through
// otelhttp.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		ttl: cfg.MemoTTL,
	}
}

// ListAvailable returns the current product catalog. The result is a copy;
// callers may keep or mutate it freely.
func (c *Client) ListAvailable(ctx context.Context) ([]product.Product, error) {
	if products, ok := c.memoized(); ok {
		return products, nil
	}

	v, err, _ := c.sf.Do("list", func() (interface{}, error) {
		products, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = products
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	products := v.([]product.Product)
	return append([]product.Product(nil), products...), nil
}

// Flush drops the memoized product list; the next ListAvailable refetches.
func (c *Client) Flush() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// memoized returns a copy of the cached list while it is still fresh.
func (c *Client) memoized() ([]product.Product, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cached == nil || time.Since(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return append([]product.Product(nil), c.cached...), true
}

// fetch performs one request against the catalog service. Every failure mode
// maps to ErrUnavailable: the caller cannot distinguish an unreachable
// catalog from a broken one, and must not trust either.
func (c *Client) fetch(ctx context.Context) ([]product.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+listPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")
	addTracingHeaders(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("catalog.products", len(products)))
	zctx.From(ctx).Info("Retrieved products from catalog service",
		zap.Int("count", len(products)))
	return products, nil
}

// addTracingHeaders forwards the request and session identifiers captured by
// the inbound middleware, so a storefront session remains traceable across
// services.
func addTracingHeaders(ctx context.Context, req *http.Request) {
	if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if id := httpmiddleware.SessionFromContext(ctx); id != "" {
		req.Header.Set("X-Session-Id", id)
	}
	req.Header.Set("X-Source-Service", "order-service")
}

// decodeProducts parses the catalog payload: a JSON array of product objects.
// Unknown fields are skipped.
func decodeProducts(data []byte) ([]product.Product, error) {
	d := jx.DecodeBytes(data)
	products := []product.Product{}

	if err := d.Arr(func(d *jx.Decoder) error {
		var p product.Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				p.ID, err = d.Int64()
			case "name":
				p.Name, err = d.Str()
			case "photoURL":
				p.PhotoURL, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}
