package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultWatchDebounce = 250 * time.Millisecond

type WatcherOpt func(*Watcher)

// WithDebounce sets how long the directory must be quiet before a change is
// signalled.
func WithDebounce(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithIgnore skips events on files for which ignore returns true. Pass a
// FileStore's OwnWrite to ignore the process's own saves.
func WithIgnore(ignore func(path string) bool) WatcherOpt {
	return func(w *Watcher) {
		w.ignore = ignore
	}
}

// Watcher signals when JSON asset files in a directory are created, written,
// removed or renamed. Bursts of events are coalesced into a single signal.
type Watcher struct {
	dir      string
	debounce time.Duration
	ignore   func(path string) bool
	changes  chan struct{}
	ready    chan struct{}
}

func NewWatcher(dir string, opts ...WatcherOpt) *Watcher {
	w := &Watcher{
		dir:      dir,
		debounce: DefaultWatchDebounce,
		changes:  make(chan struct{}, 1),
		ready:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Changes delivers at most one pending signal; receivers should poll it.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	close(w.ready)
	slog.InfoContext(ctx, "watching storage directory", "path", w.dir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if w.ignore != nil && w.ignore(event.Name) {
				slog.DebugContext(ctx, "ignoring own storage write", "path", event.Name)
				continue
			}
			slog.DebugContext(ctx, "storage file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "storage watcher error", "error", err)

		case <-timer.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".json" || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
