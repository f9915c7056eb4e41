// Package watch re-runs extraction when source files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/nodedocs/internal/discover"
	"github.com/phobologic/nodedocs/internal/lang"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Root is the directory tree to watch.
	Root string
	// Debounce is how long the tree must be quiet before OnChange runs.
	Debounce time.Duration
	Logger   *slog.Logger
	// OnChange receives the changed source paths, sorted. Errors are logged.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher watches a tree for changes to supported source files.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}
	lastEvent time.Time
}

// New creates a Watcher. Run starts it.
func New(config Config) (*Watcher, error) {
	if config.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
	}, nil
}

// Run watches until ctx is cancelled. It always closes the underlying
// watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.config.Root, err)
	}
	w.logger.Info("watching for changes", "root", w.config.Root, "debounce", w.config.Debounce)

	ticker := time.NewTicker(max(w.config.Debounce/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && discover.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if lang.ForExtension(filepath.Ext(path)) == "" {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !discover.SkipDir(filepath.Base(path)) {
				if err := w.addWatchesRecursive(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = struct{}{}
	w.lastEvent = time.Now()
	w.pendingMu.Unlock()

	w.logger.Debug("file change detected", "path", path, "op", event.Op.String())
}

// flushPending hands the accumulated changes to OnChange once no event has
// arrived for the debounce period.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 || time.Since(w.lastEvent) < w.config.Debounce {
		w.pendingMu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	sort.Strings(changed)
	if err := w.config.OnChange(ctx, changed); err != nil {
		w.logger.Error("change handler failed", "files", len(changed), "error", err)
	}
}
