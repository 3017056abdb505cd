package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	// TmpSuffix is appended to the document while it is being written.
	TmpSuffix = ".tmp"
	// BackupSuffix is appended to the previous document on every save.
	BackupSuffix = ".backup"
	// FilePermissions for the data document.
	FilePermissions = 0o644
	// DefaultFilePath is used when the file driver gets no DSN.
	DefaultFilePath = "data/opened.json"
)

// File keeps every key in a single JSON document. Each write replaces the
// document through a temp file and a rename, keeping the prior version as
// a backup next to it.
type File struct {
	mu     sync.RWMutex
	path   string
	data   map[string]json.RawMessage
	logger *zap.Logger
	closed bool
}

// NewFile opens or creates the document at path. A leftover temp file from
// an interrupted save is ignored; the last committed document wins.
func NewFile(path string, logger *zap.Logger) (*File, error) {
	if path == "" {
		path = DefaultFilePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	f := &File{path: path, data: map[string]json.RawMessage{}, logger: logger}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the location of the document.
func (f *File) Path() string { return f.path }

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrClosed
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *File) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("file store only holds JSON values (key %q)", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	f.data[key] = append(json.RawMessage(nil), value...)
	if err := f.saveLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.saveLocked(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// saveLocked writes the document (caller must hold lock).
func (f *File) saveLocked() error {
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}

	if _, err := os.Stat(f.path); err == nil {
		backup := f.path + BackupSuffix
		if err := copyFile(f.path, backup); err != nil {
			f.logger.Warn("failed to create backup", zap.String("path", backup), zap.Error(err))
		}
	}

	tmp := f.path + TmpSuffix
	if err := os.WriteFile(tmp, data, FilePermissions); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("commit %s: %w", f.path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePermissions)
}
