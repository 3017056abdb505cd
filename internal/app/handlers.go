package app

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleConfig returns table metadata and the map viewport.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	roles := make([]string, len(calendar.Roles))
	for i, role := range calendar.Roles {
		roles[i] = role.String()
	}
	resp := ConfigResponse{
		Name:           s.table.Name,
		PrizePerCenter: s.table.PrizePerItem,
		TrackingFrom:   s.table.TrackingFrom,
		Today:          s.clock.Today().Format(calendar.DateLayout),
		Days:           len(s.table.Days),
		GrandPrizeDay:  s.table.GrandPrize.Index,
		Roles:          roles,
		Map:            s.viewport,
		SantaEnabled:   s.santa != nil,
	}
	if d, ok := s.clock.Override(); ok {
		resp.DateOverride = d.Format(calendar.DateLayout)
	}
	writeJSON(w, s.logger, http.StatusOK, resp)
}

// handleCalendar returns the visitor's state of every cell.
// Query param: date (optional override, YYYY-MM-DD)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	at := requestDate(r, s.clock, s.logger)
	writeJSON(w, s.logger, http.StatusOK, s.calendarResponse(c, at))
}

// handleDay returns the content of one day, or the grand prize payload for
// the terminal index.
// URL: /api/days/{n}?date=2025-12-15
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	n, ok := parsePathInt(r, "n")
	if !ok {
		http.Error(w, ErrInvalidDay, http.StatusBadRequest)
		return
	}
	c := s.controller(w, r)
	at := requestDate(r, s.clock, s.logger)

	state, err := c.StateAt(n, at)
	if err != nil {
		http.Error(w, ErrUnknownDayMsg, http.StatusNotFound)
		return
	}
	if state == calendar.Locked {
		http.Error(w, ErrDayLockedMsg, http.StatusForbidden)
		return
	}

	if n == s.table.GrandPrize.Index {
		writeJSON(w, s.logger, http.StatusOK, NewGrandPrizeResponse(s.table.GrandPrize, state))
		return
	}
	day, _ := s.table.Day(n)
	writeJSON(w, s.logger, http.StatusOK, NewDayResponse(s.table, day, state))
}

// handleOpen reveals a day for the visitor.
// URL: /api/days/{n}/open?date=2025-12-15
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	n, ok := parsePathInt(r, "n")
	if !ok {
		http.Error(w, ErrInvalidDay, http.StatusBadRequest)
		return
	}
	c := s.controller(w, r)
	at := requestDate(r, s.clock, s.logger)

	if _, known := c.Lookup(n); !known {
		http.Error(w, ErrUnknownDayMsg, http.StatusNotFound)
		return
	}

	wasOpened := c.Opened().Has(n)
	var opened calendar.OpenedSet
	s.trackDegrade(c, func() {
		opened, ok = c.OpenAt(r.Context(), n, at)
	})
	if !ok {
		http.Error(w, ErrDayLockedMsg, http.StatusForbidden)
		return
	}
	if !wasOpened {
		s.metrics.DaysOpened.WithLabelValues(strconv.Itoa(n)).Inc()
	}

	state, _ := c.StateAt(n, at)
	writeJSON(w, s.logger, http.StatusOK, OpenResponse{Day: n, State: state, Opened: opened.Sorted()})
}

// handleReset clears the visitor's own opened set.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	s.trackDegrade(c, func() { c.Reset(r.Context()) })
	s.metrics.Resets.Inc()
	writeJSON(w, s.logger, http.StatusOK, s.calendarResponse(c, s.clock.Today()))
}

// handleGrandPrize returns the grand prize payload once its date is reached.
func (s *Server) handleGrandPrize(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	at := requestDate(r, s.clock, s.logger)
	st := c.GrandPrizeStateAt(at)
	if st.State == calendar.Locked {
		http.Error(w, ErrDayLockedMsg, http.StatusForbidden)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, NewGrandPrizeResponse(s.table.GrandPrize, st.State))
}

// handleMarkers lists every center with its pixel position and whether its
// day is unlocked.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	c := s.controller(w, r)
	at := requestDate(r, s.clock, s.logger)

	visited := map[int]bool{}
	for _, id := range c.VisitedItems(at) {
		visited[id] = true
	}

	markers := []Marker{}
	for _, day := range s.table.Days {
		for _, it := range day.Items {
			markers = append(markers, Marker{
				ID:          it.ID,
				Name:        it.Name,
				Location:    it.Location(),
				Day:         day.Index,
				Visited:     visited[it.ID],
				Recruitment: s.table.RecruitmentCount(it.ID),
				Pixel:       s.viewport.Project(it.Waypoint.Lat, it.Waypoint.Lng),
			})
		}
	}
	writeJSON(w, s.logger, http.StatusOK, markers)
}

// handleICS serves the subscription feed of activation dates.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := WriteSubscriptionICS(&buf, s.table, s.clock.Now()); err != nil {
		s.logger.Error("error generating ics", zap.Error(err))
		http.Error(w, ErrFailedToGenerateICS, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("error writing ics", zap.Error(err))
	}
}

func (s *Server) calendarResponse(c *calendar.Controller, at time.Time) CalendarResponse {
	return CalendarResponse{
		Today:      at.Format(calendar.DateLayout),
		Degraded:   c.Degraded(),
		Opened:     c.Opened().Sorted(),
		Days:       c.StatesAt(at),
		GrandPrize: c.GrandPrizeStateAt(at),
	}
}
