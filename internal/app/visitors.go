package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

// Visitors hands out one calendar controller per visitor id. Controllers are
// kept in a bounded LRU cache so an in-memory (degraded) set survives for as
// long as the visitor stays active.
type Visitors struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *calendar.Controller]
	table  *calendar.Table
	clock  *calendar.Clock
	sets   *store.OpenedSets
	logger *zap.Logger

	// OnCreate runs for every newly built controller.
	OnCreate func(id string, c *calendar.Controller)
}

// NewVisitors builds the cache. sets may be nil, which keeps every opened
// set in memory only.
func NewVisitors(size int, table *calendar.Table, clock *calendar.Clock, sets *store.OpenedSets, logger *zap.Logger) (*Visitors, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.NewWithEvict[string, *calendar.Controller](size, func(_ string, c *calendar.Controller) {
		c.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("visitor cache: %w", err)
	}
	return &Visitors{cache: cache, table: table, clock: clock, sets: sets, logger: logger}, nil
}

// Key returns the storage key for a visitor.
func (v *Visitors) Key(id string) string {
	if v.sets == nil {
		return store.DefaultNamespace + ":" + id
	}
	return v.sets.Key(id)
}

// Get returns the controller for id, restoring its opened set on first use.
func (v *Visitors) Get(ctx context.Context, id string) *calendar.Controller {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.cache.Get(id); ok {
		return c
	}

	var opened calendar.OpenedStore
	if v.sets != nil {
		opened = v.sets
	}
	c := calendar.NewController(ctx, v.table, v.clock, opened, v.Key(id), v.logger.With(zap.String("visitor", id)))
	v.cache.Add(id, c)
	if v.OnCreate != nil {
		v.OnCreate(id, c)
	}
	return c
}

// Len returns the number of cached controllers.
func (v *Visitors) Len() int { return v.cache.Len() }

// Purge drops every cached controller.
func (v *Visitors) Purge() { v.cache.Purge() }

// visitorID returns the visitor cookie, issuing a fresh id when the cookie
// is missing or not a uuid.
func visitorID(w http.ResponseWriter, r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookie,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
