package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry           *prometheus.Registry
	DaysOpened         *prometheus.CounterVec
	Resets             prometheus.Counter
	SantaArrivals      prometheus.Counter
	PersistenceDegrade prometheus.Counter
	Requests           *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DaysOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advent_days_opened_total",
			Help: "Days newly opened by visitors.",
		}, []string{"day"}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advent_resets_total",
			Help: "Opened sets cleared by visitors or admins.",
		}),
		SantaArrivals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advent_santa_arrivals_total",
			Help: "Waypoints reached by the map animation.",
		}),
		PersistenceDegrade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advent_persistence_degraded_total",
			Help: "Visitor sessions that fell back to in-memory opened sets.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advent_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.Registry.MustRegister(
		m.DaysOpened,
		m.Resets,
		m.SantaArrivals,
		m.PersistenceDegrade,
		m.Requests,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Arrived counts sequencer arrivals.
func (m *Metrics) Arrived(sequencer.Arrival) {
	m.SantaArrivals.Inc()
}

// Instrument counts requests for route by response code.
func (m *Metrics) Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return promhttp.InstrumentHandlerCounter(m.Requests.MustCurryWith(prometheus.Labels{"route": route}), next)
}
