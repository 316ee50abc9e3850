// Package storage provides the key-value backends that hold persisted widget state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// KV is the minimal persistence surface the session store consumes.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// SQLiteFile is the database name used when the sqlite driver is given a directory.
const SQLiteFile = "sessions.db"

// Open builds the backend selected by driver. path is a directory for the
// file driver and a database file (or its directory) for sqlite; memory ignores it.
func Open(ctx context.Context, driver, path string) (KV, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		return NewFile(path)
	case DriverSQLite:
		if path != ":memory:" && filepath.Ext(path) == "" {
			path = filepath.Join(path, SQLiteFile)
		}
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Close releases backend resources when the backend holds any.
func Close(kv KV) error {
	if closer, ok := kv.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
