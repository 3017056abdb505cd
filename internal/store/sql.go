package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	// DefaultSQLitePath is used when the sqlite driver gets no DSN.
	DefaultSQLitePath = "data/advent.db"
	// DefaultPostgresDSN is used when the postgres driver gets no DSN.
	DefaultPostgresDSN = "postgres://localhost/advent?sslmode=disable"
)

type dialect struct {
	driverName string
	ddl        string
	get        string
	put        string
	del        string
}

var sqliteDialect = dialect{
	driverName: "sqlite",
	ddl: `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`,
	get: `SELECT value FROM kv WHERE key = ?`,
	put: `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	del: `DELETE FROM kv WHERE key = ?`,
}

var postgresDialect = dialect{
	driverName: "pgx",
	ddl: `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL
	)`,
	get: `SELECT value FROM kv WHERE key = $1`,
	put: `INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
	del: `DELETE FROM kv WHERE key = $1`,
}

// SQL is a KV backed by a single kv table.
type SQL struct {
	db *sql.DB
	d  dialect
}

// NewSQLite opens (and creates if needed) a SQLite database at path.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open(sqliteDialect.driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect)
}

// NewPostgres connects to Postgres using dsn.
func NewPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		dsn = DefaultPostgresDSN
	}
	db, err := sql.Open(postgresDialect.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQL(ctx, db, postgresDialect)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQL{db: db, d: d}, nil
}

// DB exposes the underlying handle for tests.
func (s *SQL) DB() *sql.DB { return s.db }

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.d.put, key, value); err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.d.del, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error { return s.db.Close() }
