package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

const testID = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func testOrder() *order.Order {
	o := order.New(testID)
	o.Items = []order.LineItem{{ProductID: 1, Quantity: 2}}
	return o
}

func TestCache_SetGet(t *testing.T) {
	c := New()

	_, ok := c.Get(testID)
	assert.False(t, ok)

	c.Set(testOrder())
	got, ok := c.Get(testID)
	require.True(t, ok)
	assert.Equal(t, testOrder(), got)
	assert.Equal(t, 1, c.Size())
}

func TestCache_IgnoresOrdersWithoutID(t *testing.T) {
	c := New()
	c.Set(nil)
	c.Set(&order.Order{})
	assert.Zero(t, c.Size())
}

func TestCache_ClonesOnBothPaths(t *testing.T) {
	c := New()
	o := testOrder()
	c.Set(o)

	// Mutating the original must not reach the cache.
	o.Items[0].Quantity = 9
	got, ok := c.Get(testID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Items[0].Quantity)

	// Mutating a returned copy must not reach the cache either.
	got.Items[0].Quantity = 7
	again, ok := c.Get(testID)
	require.True(t, ok)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestCache_Flush(t *testing.T) {
	c := New()
	c.Set(testOrder())
	require.Equal(t, 1, c.Size())

	c.Flush()
	assert.Zero(t, c.Size())
	_, ok := c.Get(testID)
	assert.False(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := New()
	c.Set(testOrder())

	c.Get(testID)
	c.Get("missing")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestRunFlusher(t *testing.T) {
	c := New()
	c.Set(testOrder())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunFlusher(ctx, 10*time.Millisecond, c)
	}()

	assert.Eventually(t, func() bool { return c.Size() == 0 },
		time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flusher did not stop on context cancellation")
	}
}
