package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
	"github.com/klabast/wb-services/advent-kalender/internal/store"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.Server.Port = 9090
	cfg.Storage = store.Config{Driver: store.DriverSQLite, DSN: "advent.db", Namespace: "test"}
	cfg.Calendar.DateOverride = "2025-12-15"
	cfg.Santa.RouteOrder = RouteOrderShuffle
	cfg.Santa.Seed = 2025
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADVENT_PORT", "7000")
	t.Setenv("ADVENT_STORAGE_DRIVER", "postgres")
	t.Setenv("ADVENT_STORAGE_DSN", "postgres://localhost/advent")
	t.Setenv("ADVENT_DATE", "2025-12-24")
	t.Setenv("AUTH_FILE", "/etc/advent/auth.secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, store.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/advent", cfg.Storage.DSN)
	assert.Equal(t, "2025-12-24", cfg.Calendar.DateOverride)
	assert.Equal(t, "/etc/advent/auth.secret", cfg.Auth.File)

	t.Setenv("ADVENT_PORT", "http")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"driver", func(c *Config) { c.Storage.Driver = "redis" }},
		{"route order", func(c *Config) { c.Santa.RouteOrder = "random" }},
		{"cache size", func(c *Config) { c.Visitors.CacheSize = 0 }},
		{"timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, sequencer.DefaultFrameInterval, cfg.Santa.GetFrameInterval())
	assert.Equal(t, sequencer.DefaultStartDelay, cfg.Santa.GetStartDelay())

	cfg.Server.ShutdownTimeout = "soon"
	cfg.Santa.StartDelay = "-1s"
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, sequencer.DefaultStartDelay, cfg.Santa.GetStartDelay())
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Calendar.Timezone = "America/Toronto"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", loc.String())
}
