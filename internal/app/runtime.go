package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

// Runtime is the assembled service: every collaborator the HTTP server, the
// MCP server and the CLI commands share.
type Runtime struct {
	Config   *Config
	Table    *calendar.Table
	Clock    *calendar.Clock
	KV       store.KV
	Sets     *store.OpenedSets
	Visitors *Visitors
	Santa    *sequencer.Sequencer
	Driver   *sequencer.Driver
	Auth     *Authenticator
	Metrics  *Metrics
	Logger   *zap.Logger
}

// NewRuntime builds every collaborator from cfg. A storage driver that
// cannot be opened is fatal; a broken individual opened set is not.
func NewRuntime(ctx context.Context, cfg *Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	table, err := loadTable(cfg.Calendar.TableFile)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := calendar.NewClock(nil, loc)
	ApplyDateOverride(clock, cfg.Calendar.DateOverride, logger)

	kv, err := store.Open(ctx, cfg.Storage, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	sets := store.NewOpenedSets(kv, cfg.Storage.Namespace)

	visitors, err := NewVisitors(cfg.Visitors.CacheSize, table, clock, sets, logger.Named("calendar"))
	if err != nil {
		kv.Close()
		return nil, err
	}

	authFile, err := ResolveAuthFile(cfg.Auth.File)
	if err != nil {
		kv.Close()
		return nil, err
	}
	auth, err := LoadAuthenticator(authFile, logger.Named("auth"))
	if err != nil {
		kv.Close()
		return nil, err
	}

	rt := &Runtime{
		Config:   cfg,
		Table:    table,
		Clock:    clock,
		KV:       kv,
		Sets:     sets,
		Visitors: visitors,
		Auth:     auth,
		Metrics:  NewMetrics(),
		Logger:   logger,
	}

	if cfg.Santa.Enabled {
		opts := append(cfg.Santa.Options(),
			sequencer.WithObserver(sequencer.ObserverFunc(rt.Metrics.Arrived)),
			sequencer.WithLogger(logger.Named("santa")),
		)
		rt.Santa = sequencer.New(Waypoints(table), cfg.Map, opts...)
		rt.Driver = sequencer.NewDriver(rt.Santa, logger.Named("santa"))
		rt.Driver.Interval = cfg.Santa.GetFrameInterval()
		rt.Driver.StartDelay = cfg.Santa.GetStartDelay()
	}

	logger.Info("runtime ready",
		zap.String("calendar", table.Name),
		zap.Int("days", len(table.Days)),
		zap.String("storage", string(cfg.Storage.Driver)),
		zap.Bool("santa", rt.Santa != nil),
		zap.Bool("auth", auth.Enabled()))
	return rt, nil
}

// Server builds the HTTP server over the runtime.
func (rt *Runtime) Server() *Server {
	return NewServer(Deps{
		Config:   rt.Config,
		Table:    rt.Table,
		Clock:    rt.Clock,
		Visitors: rt.Visitors,
		Santa:    rt.Santa,
		Viewport: rt.Config.Map,
		Auth:     rt.Auth,
		Metrics:  rt.Metrics,
		Logger:   rt.Logger.Named("http"),
	})
}

// Close releases cached controllers and the storage backend.
func (rt *Runtime) Close() error {
	if rt.Santa != nil {
		rt.Santa.Stop()
	}
	rt.Visitors.Purge()
	return rt.KV.Close()
}

// Waypoints lists every center of the table as an animation target.
func Waypoints(table *calendar.Table) []sequencer.Waypoint {
	items := table.Items()
	out := make([]sequencer.Waypoint, len(items))
	for i, it := range items {
		out[i] = sequencer.Waypoint{ID: it.ID, Lat: it.Waypoint.Lat, Lng: it.Waypoint.Lng}
	}
	return out
}

func loadTable(path string) (*calendar.Table, error) {
	if path == "" {
		return calendar.DefaultTable()
	}
	return calendar.LoadTable(path)
}
