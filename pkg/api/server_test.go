package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/types"
)

func newTestServer() (*Server, *history.Store) {
	store := history.NewStore()
	reg := metrics.NewHealthRegistry("test")
	return NewServer(store, nil, reg, "test"), store
}

func get(t *testing.T, s *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(out))
	}
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()

	var resp HealthzResponse
	w := get(t, s, "/healthz", &resp)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer()

	paths := []string{
		"/v1/errors/recent",
		"/v1/errors/stats",
		"/v1/recovery/recent",
		"/v1/recovery/stats",
		"/v1/health/summary",
		"/v1/health/services",
		"/healthz",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
	}
}

func TestErrorsRecent(t *testing.T) {
	s, store := newTestServer()

	for _, id := range []string{"e-1", "e-2", "e-3"} {
		store.Record(&types.ClassifiedError{
			ID:   id,
			Kind: types.ErrorKindPortConflict,
		})
	}

	var errs []*types.ClassifiedError
	get(t, s, "/v1/errors/recent?limit=2", &errs)

	require.Len(t, errs, 2)
	assert.Equal(t, "e-3", errs[0].ID)
	assert.Equal(t, "e-2", errs[1].ID)
}

func TestErrorsRecentBadLimitFallsBack(t *testing.T) {
	s, store := newTestServer()
	store.Record(&types.ClassifiedError{ID: "e-1", Kind: types.ErrorKindUnknown})

	var errs []*types.ClassifiedError
	w := get(t, s, "/v1/errors/recent?limit=bogus", &errs)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, errs, 1)
}

func TestErrorsStats(t *testing.T) {
	s, store := newTestServer()

	store.Record(&types.ClassifiedError{
		ID: "e-1", Kind: types.ErrorKindPortConflict, AutoRecoverable: true,
	})
	store.Record(&types.ClassifiedError{ID: "e-2", Kind: types.ErrorKindUnknown})
	store.MarkResolved("e-1")

	var stats history.ErrorStats
	get(t, s, "/v1/errors/stats", &stats)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ResolvedCount)
	assert.Equal(t, 1, stats.AutoRecoverableCount)
}

func TestRecoveryEndpoints(t *testing.T) {
	s, store := newTestServer()

	store.RecordAction(&types.RecoveryAction{
		ID: "a-1", ErrorID: "e-1", ActionType: types.ActionRestartService, Success: true,
	})
	store.RecordAction(&types.RecoveryAction{
		ID: "a-2", ErrorID: "e-1", ActionType: types.ActionPruneDiskSpace, Success: false,
	})

	var actions []*types.RecoveryAction
	get(t, s, "/v1/recovery/recent", &actions)
	require.Len(t, actions, 2)
	assert.Equal(t, "a-2", actions[0].ID)

	var stats history.RecoveryStats
	get(t, s, "/v1/recovery/stats", &stats)
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
}

func TestHealthSummary(t *testing.T) {
	s, _ := newTestServer()
	s.healthReg.Update("cache", true, "")
	s.healthReg.Update("database", false, "connection refused")

	var summary metrics.SystemHealth
	get(t, s, "/v1/health/summary", &summary)

	assert.Len(t, summary.Components, 2)
}

func TestHealthServicesEmptyFleet(t *testing.T) {
	s, _ := newTestServer()

	var services []ServiceHealth
	w := get(t, s, "/v1/health/services", &services)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, services)
}
