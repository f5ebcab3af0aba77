package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petstoreapp/order-service/internal/domain/product"
	"github.com/petstoreapp/order-service/pkg/httpmiddleware"
)

const productsPayload = `[
	{"id": 1, "name": "Ball", "photoURL": "ball.jpg", "status": "available", "tags": ["dog"]},
	{"id": 2, "name": "Leash", "photoURL": "leash.jpg"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
		MemoTTL: ttl,
	})
}

func TestClient_ListAvailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/product/findByStatus", r.URL.Path)
		assert.Equal(t, "available", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productsPayload))
	}, 0)

	products, err := c.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []product.Product{
		{ID: 1, Name: "Ball", PhotoURL: "ball.jpg"},
		{ID: 2, Name: "Leash", PhotoURL: "leash.jpg"},
	}, products)
}

func TestClient_ForwardsTracingHeaders(t *testing.T) {
	var gotSession, gotSource string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Session-Id")
		gotSource = r.Header.Get("X-Source-Service")
		_, _ = w.Write([]byte(`[]`))
	}, 0)

	ctx := httpmiddleware.WithSession(context.Background(), "session-42")
	_, err := c.ListAvailable(ctx)
	require.NoError(t, err)

	assert.Equal(t, "session-42", gotSession)
	assert.Equal(t, "order-service", gotSource)
}

func TestClient_MemoizesWithinTTL(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(productsPayload))
	}, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		products, err := c.ListAvailable(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_FlushForcesRefetch(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(productsPayload))
	}, time.Minute)

	ctx := context.Background()
	_, err := c.ListAvailable(ctx)
	require.NoError(t, err)

	c.Flush()

	_, err = c.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 0)

	_, err := c.ListAvailable(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}, 0)

	_, err := c.ListAvailable(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient(ClientConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})

	_, err := c.ListAvailable(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ResultIsACopy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productsPayload))
	}, time.Minute)

	ctx := context.Background()
	first, err := c.ListAvailable(ctx)
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := c.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ball", second[0].Name)
}
