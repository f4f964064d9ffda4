package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

const defaultWatchDebounce = 250 * time.Millisecond

type reloader interface {
	Reload(ctx context.Context) error
}

// Watcher reloads the widgets document when the file is changed outside the
// process. It watches the parent directory because atomic writes replace the
// file instead of modifying it.
type Watcher struct {
	path     string
	store    reloader
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func NewWatcher(path string, store reloader, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, store: store, debounce: debounce, fsw: fsw}, nil
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	log := logger.FromContext(ctx).With("path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", "error", err)

		case <-fire:
			fire = nil
			if err := w.store.Reload(ctx); err != nil {
				log.Error("failed to reload widgets document", "error", err)
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
