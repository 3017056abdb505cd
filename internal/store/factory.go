package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config selects and parameterises a driver. DSN is a file path for the
// file and sqlite drivers and a connection string for postgres.
type Config struct {
	Driver    Driver `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	Namespace string `yaml:"namespace"`
}

// Open selects a KV implementation from cfg. An empty driver means file.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (KV, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}
	switch driver {
	case DriverFile:
		return NewFile(cfg.DSN, logger)
	case DriverSQLite:
		return NewSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.DSN)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
