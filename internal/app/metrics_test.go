package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsInstrument(t *testing.T) {
	m := NewMetrics()
	ok := m.Instrument("GET /ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})
	missing := m.Instrument("GET /missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	empty := m.Instrument("POST /empty", func(http.ResponseWriter, *http.Request) {})

	for range 3 {
		ok(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	missing(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	empty(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/empty", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `advent_http_requests_total{code="200",route="GET /ok"} 3`)
	assert.Contains(t, body, `advent_http_requests_total{code="404",route="GET /missing"} 1`)
	assert.Contains(t, body, `advent_http_requests_total{code="200",route="POST /empty"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsArrivals(t *testing.T) {
	m := NewMetrics()
	var obs sequencer.Observer = sequencer.ObserverFunc(m.Arrived)
	obs.Arrived(sequencer.Arrival{WaypointID: 1})
	obs.Arrived(sequencer.Arrival{WaypointID: 2})

	assert.Contains(t, scrape(t, m), "advent_santa_arrivals_total 2")
}
