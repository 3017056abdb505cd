package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/advent-kalender/internal/logging"
	"github.com/klabast/wb-services/advent-kalender/internal/projection"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

// Constants
const (
	DefaultConfigFile = "advent-kalender.yaml"
	DefaultPort       = 8080
	DefaultCacheSize  = 1024
	DefaultCookieName = "advent_visitor"

	RouteOrderLongitude = "longitude"
	RouteOrderShuffle   = "shuffle"

	// Error messages
	ErrUnknownDayMsg       = "Unknown day"
	ErrDayLockedMsg        = "Day is locked"
	ErrInvalidDateFormat   = "Invalid date format"
	ErrInvalidDay          = "Invalid day"
	ErrInvalidRequest      = "Invalid request"
	ErrMissingVisitor      = "Missing visitor"
	ErrInternalServer      = "Internal server error"
	ErrSantaUnavailable    = "Santa is not configured"
	ErrSantaBusy           = "Santa is busy"
	ErrUnknownWaypointMsg  = "Unknown center"
	ErrFailedToGenerateICS = "Failed to generate calendar feed"

	// ICS constants
	ICSProductID = "-//CARSK//Advent Kalender//EN"
	ICSUIDDomain = "advent-kalender"
)

// Config is the service configuration, stored as YAML.
type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Calendar CalendarConfig      `yaml:"calendar"`
	Storage  store.Config        `yaml:"storage"`
	Santa    SantaConfig         `yaml:"santa"`
	Map      projection.Mercator `yaml:"map"`
	Auth     AuthConfig          `yaml:"auth"`
	Logging  logging.Config      `yaml:"logging"`
	Visitors VisitorConfig       `yaml:"visitors"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// CalendarConfig configures the schedule and the virtual clock.
type CalendarConfig struct {
	TableFile    string `yaml:"table_file"`
	DateOverride string `yaml:"date_override"`
	Timezone     string `yaml:"timezone"`
}

// SantaConfig configures the map animation.
type SantaConfig struct {
	Enabled       bool    `yaml:"enabled"`
	RouteOrder    string  `yaml:"route_order"`
	Seed          int64   `yaml:"seed"`
	LegDuration   string  `yaml:"leg_duration"`
	Dwell         string  `yaml:"dwell"`
	LoopPause     string  `yaml:"loop_pause"`
	Arc           float64 `yaml:"arc"`
	FrameInterval string  `yaml:"frame_interval"`
	StartDelay    string  `yaml:"start_delay"`
}

// AuthConfig locates the admin credentials file.
type AuthConfig struct {
	File string `yaml:"file"`
}

// VisitorConfig configures visitor identity and the controller cache.
type VisitorConfig struct {
	CacheSize int    `yaml:"cache_size"`
	Cookie    string `yaml:"cookie"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ShutdownTimeout: "10s",
		},
		Calendar: CalendarConfig{
			Timezone: "Local",
		},
		Storage: store.Config{
			Driver:    store.DriverFile,
			DSN:       store.DefaultFilePath,
			Namespace: store.DefaultNamespace,
		},
		Santa: SantaConfig{
			Enabled:       true,
			RouteOrder:    RouteOrderLongitude,
			LegDuration:   sequencer.DefaultLegDuration.String(),
			Dwell:         sequencer.DefaultDwell.String(),
			LoopPause:     sequencer.DefaultLoopPause.String(),
			Arc:           sequencer.DefaultLoopArc,
			FrameInterval: sequencer.DefaultFrameInterval.String(),
			StartDelay:    sequencer.DefaultStartDelay.String(),
		},
		Map: projection.Default(),
		Logging: logging.Config{
			Level: "info",
		},
		Visitors: VisitorConfig{
			CacheSize: DefaultCacheSize,
			Cookie:    DefaultCookieName,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("ADVENT_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid ADVENT_PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	if driver := os.Getenv("ADVENT_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = store.Driver(driver)
	}
	if dsn := os.Getenv("ADVENT_STORAGE_DSN"); dsn != "" {
		c.Storage.DSN = dsn
	}
	if date := os.Getenv("ADVENT_DATE"); date != "" {
		c.Calendar.DateOverride = date
	}
	if file := os.Getenv("AUTH_FILE"); file != "" {
		c.Auth.File = file
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Storage.Driver {
	case "", store.DriverFile, store.DriverSQLite, store.DriverPostgres, store.DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %s", c.Storage.Driver)
	}
	switch c.Santa.RouteOrder {
	case "", RouteOrderLongitude, RouteOrderShuffle:
	default:
		return fmt.Errorf("unknown santa.route_order %q", c.Santa.RouteOrder)
	}
	if c.Visitors.CacheSize <= 0 {
		return fmt.Errorf("visitors.cache_size must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// Location resolves the calendar timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Calendar.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.timezone %q: %w", c.Calendar.Timezone, err)
	}
	return loc, nil
}

// Options translates the santa section into sequencer options.
func (s SantaConfig) Options() []sequencer.Option {
	opts := []sequencer.Option{
		sequencer.WithLegDuration(parseDuration(s.LegDuration, sequencer.DefaultLegDuration)),
		sequencer.WithDwell(parseDuration(s.Dwell, sequencer.DefaultDwell)),
		sequencer.WithLoopPause(parseDuration(s.LoopPause, sequencer.DefaultLoopPause)),
		sequencer.WithArc(s.Arc),
	}
	if s.RouteOrder == RouteOrderShuffle {
		opts = append(opts, sequencer.WithShuffle(s.Seed))
	}
	return opts
}

// GetFrameInterval returns the driver tick interval.
func (s SantaConfig) GetFrameInterval() time.Duration {
	return parseDuration(s.FrameInterval, sequencer.DefaultFrameInterval)
}

// GetStartDelay returns the delay before the loop starts.
func (s SantaConfig) GetStartDelay() time.Duration {
	return parseDuration(s.StartDelay, sequencer.DefaultStartDelay)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
