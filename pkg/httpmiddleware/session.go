package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

type sessionIDKey struct{}

// WithSession returns a context carrying the given storefront session ID, as
// if it had been captured by SessionTracing.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionFromContext returns the storefront session ID stored by
// SessionTracing, or "" when the request carried none.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// SessionTracing captures the storefront session identifier from the
// X-Session-Id header (either casing) into the request context and annotates
// the contextual logger with it. Outbound calls to collaborating services
// forward the ID so a session can be traced across the storefront.
func SessionTracing() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Session-Id")
			if id == "" {
				id = r.Header.Get("x-session-id")
			}
			if !validHeaderValue(id) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
			ctx = zctx.With(ctx, zap.String("session_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
