package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// DefaultWatchDebounce batches the burst of events an editor save produces.
const DefaultWatchDebounce = 250 * time.Millisecond

// ConfigWatcher reloads the config file when it changes and applies the
// calendar date override to the virtual clock.
type ConfigWatcher struct {
	Path     string
	Clock    *calendar.Clock
	Debounce time.Duration
	Logger   *zap.Logger

	// Applied is the date_override value last pushed to the clock. A reload
	// only touches the clock when the file value differs from it.
	Applied string

	// OnReload runs after every successful reload.
	OnReload func(*Config)
}

// NewConfigWatcher creates a watcher for path.
func NewConfigWatcher(path string, clock *calendar.Clock, logger *zap.Logger) *ConfigWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigWatcher{Path: path, Clock: clock, Debounce: DefaultWatchDebounce, Logger: logger}
}

// Run watches until ctx is done. The parent directory is watched so that
// atomic replace-by-rename saves are seen.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(cw.Path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	cw.Logger.Info("watching config", zap.String("path", abs))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			cw.Logger.Debug("config event", zap.String("op", event.Op.String()))
			timer.Reset(cw.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cw.Logger.Error("config watcher error", zap.Error(err))

		case <-timer.C:
			cw.reload()
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := Load(cw.Path)
	if err != nil {
		cw.Logger.Warn("config reload failed, keeping previous settings", zap.Error(err))
		return
	}
	if v := cfg.Calendar.DateOverride; v != cw.Applied {
		ApplyDateOverride(cw.Clock, v, cw.Logger)
		cw.Applied = v
	}
	if cw.OnReload != nil {
		cw.OnReload(cfg)
	}
}

// ApplyDateOverride pins the clock to value, or clears the override when
// value is empty or invalid.
func ApplyDateOverride(clock *calendar.Clock, value string, logger *zap.Logger) {
	if value == "" {
		clock.ClearOverride()
		return
	}
	d, err := calendar.ParseDateOverride(value)
	if err != nil {
		logger.Warn("invalid date override, using wall clock", zap.String("value", value), zap.Error(err))
		clock.ClearOverride()
		return
	}
	if cur, ok := clock.Override(); ok && cur.Equal(d) {
		return
	}
	clock.SetOverride(d)
	logger.Info("virtual clock pinned", zap.String("date", d.Format(calendar.DateLayout)))
}
