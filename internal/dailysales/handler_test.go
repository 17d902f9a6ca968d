package dailysales

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	store    string
	from, to time.Time
	days     []Rollup
	err      error
}

func (s *stubLister) ListByStore(_ context.Context, store string, from, to time.Time) ([]Rollup, error) {
	s.store, s.from, s.to = store, from, to
	return s.days, s.err
}

func newTestRouter(l Lister) http.Handler {
	h := NewHandler(nil, l)
	h.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r
}

func TestHandlerDefaultsToLastSevenDays(t *testing.T) {
	lister := &stubLister{days: []Rollup{{StoreCode: "01", Date: "2026-10-18", TransactionCount: 1, TotalAmount: 488}}}
	rec := httptest.NewRecorder()
	newTestRouter(lister).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores/01/daily-sales", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01", lister.store)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), lister.from)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), lister.to)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-10-12", resp.From)
	assert.Equal(t, "2026-10-18", resp.To)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, int64(488), resp.Days[0].TotalAmount)
}

func TestHandlerExplicitRange(t *testing.T) {
	lister := &stubLister{days: []Rollup{}}
	rec := httptest.NewRecorder()
	newTestRouter(lister).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores/01/daily-sales?from=2026-10-01&to=2026-10-05", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), lister.from)
	assert.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), lister.to)
}

func TestHandlerRejectsBadRanges(t *testing.T) {
	paths := []string{
		"/api/stores/01/daily-sales?from=yesterday",
		"/api/stores/01/daily-sales?to=2026/10/05",
		"/api/stores/01/daily-sales?from=2026-10-06&to=2026-10-05",
		"/api/stores/01/daily-sales?from=2024-01-01&to=2026-10-05",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		newTestRouter(&stubLister{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHandlerStorageFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubLister{err: errors.New("connection reset")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores/01/daily-sales", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestParseRangeCountsDaysInclusively(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	from, to, err := parseRange("2025-01-01", "2026-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, MaxRangeDays, inclusiveDays(from, to))

	_, _, err = parseRange("2025-01-01", "2026-01-02", now)
	assert.ErrorIs(t, err, ErrInvalidRange)

	from, to, err = parseRange("2026-10-05", "2026-10-05", now)
	require.NoError(t, err)
	assert.Equal(t, 1, inclusiveDays(from, to))
}
