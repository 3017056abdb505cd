package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("error encoding response", zap.Error(err))
	}
}

// parsePathInt reads an integer path value.
func parsePathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, false
	}
	return n, true
}

// requestDate returns the virtual date a request is evaluated at: the ?date=
// query parameter when it parses, the clock otherwise.
func requestDate(r *http.Request, clock *calendar.Clock, logger *zap.Logger) time.Time {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return clock.Today()
	}
	d, err := calendar.ParseDateOverride(raw)
	if err != nil {
		logger.Debug("ignoring date parameter", zap.String("date", raw), zap.Error(err))
		return clock.Today()
	}
	return d
}
