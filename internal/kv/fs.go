package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/pablasso/plannah/internal/util"
)

const entryExt = ".entry"

// FSBackend stores one file per key in a directory.
type FSBackend struct {
	fs  afero.Fs
	dir string
}

// NewFSBackend creates the directory if needed and returns a backend rooted
// there. Use afero.NewOsFs() for real storage or afero.NewMemMapFs() in tests.
func NewFSBackend(fsys afero.Fs, dir string) (*FSBackend, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FSBackend{fs: fsys, dir: dir}, nil
}

func (b *FSBackend) path(key string) string {
	// The "k" prefix keeps keys like ".." from naming a directory.
	return filepath.Join(b.dir, "k"+escapeKey(key)+entryExt)
}

// escapeKey is url.PathEscape with upper-case letters escaped as well, so
// keys that differ only in case get distinct files on case-insensitive
// filesystems. url.PathUnescape reverses it.
func escapeKey(key string) string {
	s := url.PathEscape(key)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '%':
			b.WriteString(s[i : i+3])
			i += 2
		case 'A' <= c && c <= 'Z':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EntryPath returns the file that holds key.
func (b *FSBackend) EntryPath(key string) string {
	return b.path(key)
}

func keyFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, "k") || !strings.HasSuffix(name, entryExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name[1:], entryExt))
	if err != nil {
		return "", false
	}
	return key, true
}

func (b *FSBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(b.fs, b.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes to a temp file and renames it over the entry.
func (b *FSBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	suffix, err := util.GenerateShortID()
	if err != nil {
		return fmt.Errorf("failed to name temp file: %w", err)
	}
	target := b.path(key)
	tmp := filepath.Join(b.dir, ".tmp-"+suffix)

	if err := afero.WriteFile(b.fs, tmp, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := b.fs.Rename(tmp, target); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (b *FSBackend) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.fs.Remove(b.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (b *FSBackend) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := afero.Exists(b.fs, b.path(key))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return ok, nil
}

func (b *FSBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(b.fs, b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := keyFromName(e.Name())
		if ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; files are closed after every operation.
func (b *FSBackend) Close() error { return nil }
