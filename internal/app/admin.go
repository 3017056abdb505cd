package app

import (
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// handleSanta returns the current animation snapshot.
func (s *Server) handleSanta(w http.ResponseWriter, r *http.Request) {
	if s.santa == nil {
		http.Error(w, ErrSantaUnavailable, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.santa.Snapshot())
}

// handleSantaStart starts the continuous loop.
func (s *Server) handleSantaStart(w http.ResponseWriter, r *http.Request) {
	if s.santa == nil {
		http.Error(w, ErrSantaUnavailable, http.StatusServiceUnavailable)
		return
	}
	if !s.santa.Start() {
		http.Error(w, ErrSantaBusy, http.StatusConflict)
		return
	}
	s.logger.Info("santa started")
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "started"})
}

// handleSantaStop cancels whatever program runs.
func (s *Server) handleSantaStop(w http.ResponseWriter, r *http.Request) {
	if s.santa == nil {
		http.Error(w, ErrSantaUnavailable, http.StatusServiceUnavailable)
		return
	}
	s.santa.Stop()
	s.logger.Info("santa stopped")
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "stopped"})
}

// handleSantaVisit flies over the centers of one unlocked day.
// URL: /api/santa/visit/{n}?date=2025-12-15
func (s *Server) handleSantaVisit(w http.ResponseWriter, r *http.Request) {
	if s.santa == nil {
		http.Error(w, ErrSantaUnavailable, http.StatusServiceUnavailable)
		return
	}
	n, ok := parsePathInt(r, "n")
	if !ok {
		http.Error(w, ErrInvalidDay, http.StatusBadRequest)
		return
	}
	day, ok := s.table.Day(n)
	if !ok {
		http.Error(w, ErrUnknownDayMsg, http.StatusNotFound)
		return
	}
	if calendar.ComputeState(day, requestDate(r, s.clock, s.logger), nil) == calendar.Locked {
		http.Error(w, ErrDayLockedMsg, http.StatusForbidden)
		return
	}

	ids := make([]int, len(day.Items))
	for i, it := range day.Items {
		ids[i] = it.ID
	}
	if !s.santa.VisitDay(ids) {
		http.Error(w, ErrSantaBusy, http.StatusConflict)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "visiting"})
}

// handleSantaFly flies a single leg to one center.
func (s *Server) handleSantaFly(w http.ResponseWriter, r *http.Request) {
	if s.santa == nil {
		http.Error(w, ErrSantaUnavailable, http.StatusServiceUnavailable)
		return
	}
	id, ok := parsePathInt(r, "id")
	if !ok {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	if _, err := s.santa.Lookup(id); err != nil {
		http.Error(w, ErrUnknownWaypointMsg, http.StatusNotFound)
		return
	}
	if !s.santa.FlyTo(id) {
		http.Error(w, ErrSantaBusy, http.StatusConflict)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "flying"})
}

func (s *Server) clockResponse() ClockResponse {
	resp := ClockResponse{Today: s.clock.Today().Format(calendar.DateLayout)}
	if d, ok := s.clock.Override(); ok {
		resp.Override = d.Format(calendar.DateLayout)
	}
	return resp
}

// handleGetClock reports the virtual clock.
func (s *Server) handleGetClock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.clockResponse())
}

// handleSetClock pins the virtual date for every visitor.
func (s *Server) handleSetClock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	d, err := calendar.ParseDateOverride(req.Date)
	if err != nil {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return
	}
	s.clock.SetOverride(d)
	s.logger.Info("virtual clock pinned", zap.String("date", d.Format(calendar.DateLayout)))
	writeJSON(w, s.logger, http.StatusOK, s.clockResponse())
}

// handleClearClock returns the virtual clock to wall-clock time.
func (s *Server) handleClearClock(w http.ResponseWriter, r *http.Request) {
	s.clock.ClearOverride()
	s.logger.Info("virtual clock override cleared")
	writeJSON(w, s.logger, http.StatusOK, s.clockResponse())
}

// handleAdminReset clears the opened set of any visitor.
// URL: /api/admin/reset?visitor=<id>
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("visitor")
	if id == "" {
		http.Error(w, ErrMissingVisitor, http.StatusBadRequest)
		return
	}
	c := s.visitors.Get(r.Context(), id)
	s.trackDegrade(c, func() { c.Reset(r.Context()) })
	s.metrics.Resets.Inc()
	s.logger.Info("opened set reset by admin", zap.String("visitor", id))
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "reset"})
}
