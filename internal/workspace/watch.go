package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long Watch waits for writes to settle.
const DefaultWatchDelay = 300 * time.Millisecond

// ErrNotWatchable is returned for backends with no file to watch.
var ErrNotWatchable = errors.New("storage backend cannot be watched")

// Watch notifies on the returned channel after files in dir that match
// change. Bursts of events within delay produce one notification. The
// channel is closed when ctx is done.
func Watch(ctx context.Context, dir string, delay time.Duration, match func(name string) bool, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if match != nil && !match(event.Name) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(delay)
				fire = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "dir", dir, "error", err)
			}
		}
	}()

	return out, nil
}

// WatchPlan notifies when another process changes the stored plan.
func (w *Workspace) WatchPlan(ctx context.Context, delay time.Duration) (<-chan struct{}, error) {
	switch b := w.backend.(type) {
	case interface{ EntryPath(string) string }:
		target := b.EntryPath(KeyPlan)
		return Watch(ctx, filepath.Dir(target), delay, func(name string) bool {
			return filepath.Clean(name) == filepath.Clean(target)
		}, w.logger)
	case interface{ Path() string }:
		db := b.Path()
		if db == ":memory:" {
			return nil, ErrNotWatchable
		}
		base := filepath.Base(db)
		// Covers the -wal and -journal companions too.
		return Watch(ctx, filepath.Dir(db), delay, func(name string) bool {
			return strings.HasPrefix(filepath.Base(name), base)
		}, w.logger)
	default:
		return nil, ErrNotWatchable
	}
}
