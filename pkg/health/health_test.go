package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	rec := probe(t, h.LiveEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	h.AddLivenessCheck("broken", time.Second, func(context.Context) error {
		return errors.New("boom")
	})
	rec = probe(t, h.LiveEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestReadyEndpoint_ManualGate(t *testing.T) {
	h := New()

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")

	h.SetReady(true)
	rec = probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)

	h.SetReady(false)
	rec = probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("database", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database")
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestChecksRunUnderTimeout(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "deadline exceeded")
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
