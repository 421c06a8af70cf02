// Package watch triggers passes when the source tree changes, with a
// debounce window so bursts of sync activity collapse into one pass.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is the quiet period required before a change fires.
const DefaultDebounce = 2 * time.Second

// Watcher monitors the source tree and calls trigger after changes settle.
type Watcher struct {
	root     string
	debounce time.Duration
	trigger  func()

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher over root. trigger is called from a timer
// goroutine once per settled burst of events.
func New(root string, debounce time.Duration, trigger func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		trigger:  trigger,
	}
}

// Run blocks until ctx is cancelled, registering every directory under the
// root (new ones included) and debouncing change events into triggers.
func (w *Watcher) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	defer w.stopTimer()

	if err := w.addDirs(fsw, w.root); err != nil {
		return errors.Errorf("registering watch directories: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if walker.Excluded(filepath.Base(event.Name)) {
				continue
			}
			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("source change")

			// Newly created directories must be watched too.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := w.addDirs(fsw, event.Name); addErr != nil {
						logger.Warn().Str("path", event.Name).Err(addErr).Msg("watching new directory")
					}
				}
			}
			w.bump()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// bump resets the debounce timer; the trigger fires once events go quiet.
func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.trigger)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// addDirs registers dir and every non-excluded directory below it.
func (w *Watcher) addDirs(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && walker.Excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return errors.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
