package cache

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Flushable is anything that can drop all of its cached state at once.
// Both the order cache and the catalog client's memo satisfy it.
type Flushable interface {
	Flush()
}

// RunFlusher flushes every target on a fixed wall-clock interval until the
// context is cancelled. The interval is independent of access patterns: a
// blunt full eviction that bounds in-memory growth without per-entry expiry.
// It blocks; run it in its own goroutine.
func RunFlusher(ctx context.Context, interval time.Duration, targets ...Flushable) {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lg.Info("Flushing caches on scheduled interval",
				zap.Duration("interval", interval))
			for _, t := range targets {
				t.Flush()
			}
		}
	}
}
