package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/clock"
)

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestLiveness(t *testing.T) {
	r := newRouter(New(clock.New(0)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_AllUp(t *testing.T) {
	h := New(clock.New(0))
	h.RegisterCheck("postgres", func() error { return nil })
	r := newRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "up", resp.Checks["postgres"])
}

func TestReadiness_DependencyDown(t *testing.T) {
	h := New(clock.New(0))
	h.RegisterCheck("redis", func() error { return errors.New("connection refused") })
	r := newRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Contains(t, resp.Checks["redis"], "down")
}

func TestStatus_ReportsLedgerTime(t *testing.T) {
	r := newRouter(New(clock.New(42)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 42, resp.LedgerTime)
}
