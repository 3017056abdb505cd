package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/projection"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

// Deps are the collaborators a Server is built from. Santa and Auth may be
// nil.
type Deps struct {
	Config   *Config
	Table    *calendar.Table
	Clock    *calendar.Clock
	Visitors *Visitors
	Santa    *sequencer.Sequencer
	Viewport projection.Mercator
	Auth     *Authenticator
	Metrics  *Metrics
	Logger   *zap.Logger
}

// Server serves the calendar HTTP API.
type Server struct {
	cfg      *Config
	table    *calendar.Table
	clock    *calendar.Clock
	visitors *Visitors
	santa    *sequencer.Sequencer
	viewport projection.Mercator
	auth     *Authenticator
	metrics  *Metrics
	logger   *zap.Logger
}

// NewServer wires a Server. Visitor controllers that start out degraded are
// counted on the persistence metric.
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Config == nil {
		d.Config = DefaultConfig()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	s := &Server{
		cfg:      d.Config,
		table:    d.Table,
		clock:    d.Clock,
		visitors: d.Visitors,
		santa:    d.Santa,
		viewport: d.Viewport,
		auth:     d.Auth,
		metrics:  d.Metrics,
		logger:   d.Logger,
	}

	prev := s.visitors.OnCreate
	s.visitors.OnCreate = func(id string, c *calendar.Controller) {
		if c.Degraded() {
			s.metrics.PersistenceDegrade.Inc()
		}
		if prev != nil {
			prev(id, c)
		}
	}
	return s
}

// Routes returns the HTTP handler with every route registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.Instrument(pattern, h))
	}
	admin := s.auth.Require

	handle("GET /health", s.handleHealth)
	handle("GET /api/config", s.handleConfig)
	handle("GET /api/calendar", s.handleCalendar)
	handle("GET /api/calendar.ics", s.handleICS)
	handle("GET /api/days/{n}", s.handleDay)
	handle("POST /api/days/{n}/open", s.handleOpen)
	handle("POST /api/reset", s.handleReset)
	handle("GET /api/grand-prize", s.handleGrandPrize)
	handle("GET /api/markers", s.handleMarkers)
	handle("GET /api/santa", s.handleSanta)

	handle("POST /api/santa/start", admin(s.handleSantaStart))
	handle("POST /api/santa/stop", admin(s.handleSantaStop))
	handle("POST /api/santa/visit/{n}", admin(s.handleSantaVisit))
	handle("POST /api/santa/fly/{id}", admin(s.handleSantaFly))
	handle("GET /api/admin/clock", admin(s.handleGetClock))
	handle("POST /api/admin/clock", admin(s.handleSetClock))
	handle("DELETE /api/admin/clock", admin(s.handleClearClock))
	handle("POST /api/admin/reset", admin(s.handleAdminReset))

	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// controller returns the requesting visitor's controller, issuing the
// visitor cookie on first contact.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) *calendar.Controller {
	id := visitorID(w, r, s.cfg.Visitors.Cookie)
	return s.visitors.Get(r.Context(), id)
}

// trackDegrade counts a controller's transition into degraded mode during fn.
func (s *Server) trackDegrade(c *calendar.Controller, fn func()) {
	before := c.Degraded()
	fn()
	if !before && c.Degraded() {
		s.metrics.PersistenceDegrade.Inc()
	}
}
