// Package watch reformats SQL files in place as they are saved.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapfmt/internal/sqlfiles"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/format"
)

// DefaultDebounce is how long a file must stay quiet before it is formatted.
const DefaultDebounce = 100 * time.Millisecond

// Event reports one formatting pass over a file.
type Event struct {
	Path    string
	Changed bool
	Err     error
}

// Watcher formats the SQL files below a directory whenever they change.
type Watcher struct {
	dir      string
	cfg      *core.FormatConfig
	logger   *slog.Logger
	debounce time.Duration

	// OnEvent, if set, is called after each formatting pass.
	OnEvent func(Event)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for dir.
func New(dir string, cfg *core.FormatConfig, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		dir:      dir,
		cfg:      cfg,
		logger:   logger,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for changes", "dir", w.dir)

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories are watched too
				if err := watchDirRecursive(watcher, event.Name); err == nil {
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !sqlfiles.IsSQL(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// schedule formats path once it has been quiet for the debounce interval.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.format(path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) format(path string) {
	ev := Event{Path: path}
	f, err := sqlfiles.Read(path)
	if err == nil {
		formatted := format.String(f.Content, w.cfg, format.WithLogger(w.logger.With("file", path)))
		ev.Changed, err = f.WriteBack(formatted)
	}
	ev.Err = err

	if err != nil {
		w.logger.Error("format failed", "file", path, "error", err)
	} else if ev.Changed {
		w.logger.Info("formatted", "file", path)
	}
	if w.OnEvent != nil {
		w.OnEvent(ev)
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
// Hidden directories are skipped.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == dir {
				return fmt.Errorf("not a directory: %s", dir)
			}
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
