// Package watcher reloads the module tree when manifests change on disk. It
// watches every directory under the configured roots, coalesces bursts of
// filesystem events behind a debounce window, and triggers one full reload
// cycle per quiet period.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/manifest"
)

// DefaultDebounce is the quiet period after the last relevant event before a
// reload fires. Editors write manifests in several steps; the window
// coalesces them into one cycle.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Roots are the module tree roots to watch, recursively. Missing roots
	// are skipped.
	Roots []string
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// OnReload runs once per quiet period after a relevant change.
	OnReload func(ctx context.Context) error
}

// Watcher owns the fsnotify instance for the module roots.
type Watcher struct {
	opts    Options
	fsw     *fsnotify.Watcher
	started atomic.Bool
}

// New registers every existing directory under the roots for watching.
func New(ctx context.Context, opts Options) (*Watcher, error) {
	if opts.OnReload == nil {
		panic("watcher: reload callback is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{opts: opts, fsw: fsw}
	logger := ctxlog.FromContext(ctx)
	for _, root := range opts.Roots {
		if _, err := os.Stat(root); err != nil {
			logger.Debug("Watch root does not exist, skipping.", "path", root)
			continue
		}
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
		logger.Debug("Watching module root.", "path", root)
	}
	return w, nil
}

// Run blocks processing events until ctx is cancelled; the fsnotify instance
// is closed on return. Run is called at most once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher: Run called more than once")
	}
	defer w.fsw.Close()

	logger := ctxlog.FromContext(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher: event channel closed unexpectedly")
			}

			// Directories created after startup extend the watch before any
			// manifest inside them can change.
			if ev.Has(fsnotify.Create) {
				w.maybeAddTree(ctx, ev.Name)
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("Module tree change detected.", "path", ev.Name, "op", ev.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.opts.Debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			logger.Info("Module tree changed, reloading.")
			if err := w.opts.OnReload(ctx); err != nil {
				logger.Error("Reload failed.", "error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher: error channel closed unexpectedly")
			}
			logger.Warn("Filesystem watcher reported an error.", "error", err)
		}
	}
}

// relevant reports whether ev concerns a file the reload cycle cares about:
// manifests and script entry files, changed in any way.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if base == manifest.ModuleFileName || base == manifest.RoutesFileName {
		return true
	}
	return strings.EqualFold(filepath.Ext(base), ".lua")
}

// addTree registers dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// maybeAddTree extends the watch when a new directory appears.
func (w *Watcher) maybeAddTree(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to watch new directory.", "path", path, "error", err)
	}
}
