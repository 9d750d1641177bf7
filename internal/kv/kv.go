// Package kv is the local key-value storage every persisted value goes
// through. Values are strings; callers choose the encoding.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrQuotaExceeded is returned by a MemoryBackend told to fail writes.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend stores string values under string keys. Writes to the same key
// are last-write-wins; there is no locking beyond what the medium provides.
type Backend interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Options selects and locates a backend.
type Options struct {
	Backend    string
	Dir        string
	SQLitePath string
}

// Open returns the backend named by opts.Backend. The file backend stores
// entries under <Dir>/store; the sqlite backend defaults to <Dir>/plannah.db.
func Open(opts Options) (Backend, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFSBackend(afero.NewOsFs(), filepath.Join(opts.Dir, "store"))
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "plannah.db")
		}
		return NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
