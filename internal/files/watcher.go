package files

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// Watcher observes the data directory and invokes onChange once per burst
// of relevant file events. A reload is expensive, so events within the
// debounce window coalesce into one callback.
type Watcher struct {
	dir      string
	logger   *slog.Logger
	debounce *debouncer

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the data directory. onChange runs on the
// clock's goroutine after the debounce window closes.
func NewWatcher(dir string, debounce time.Duration, clock clockwork.Clock, logger *slog.Logger, onChange func()) *Watcher {
	return &Watcher{
		dir:      dir,
		logger:   logger.With(slog.String("component", "file_watcher")),
		debounce: newDebouncer(clock, debounce, onChange),
		done:     make(chan struct{}),
	}
}

// Start begins watching. It fails when the directory cannot be watched;
// callers treat that as non-fatal and run without live reload.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	go w.loop()

	w.logger.Info("watching data directory", slog.String("dir", w.dir))
	return nil
}

// Stop ends watching. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			w.fsw.Close()
		}
		w.debounce.Stop()
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debug("data file changed",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			w.debounce.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// relevantEvent keeps create/write/rename of CSV and Excel files. Chmod and
// remove alone never trigger a reload.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	return isSourceFile(filepath.Base(strings.TrimSpace(event.Name)))
}

// debouncer coalesces triggers: fn runs once, debounce after the last
// Trigger call.
type debouncer struct {
	clock clockwork.Clock
	d     time.Duration
	fn    func()

	mu    sync.Mutex
	timer clockwork.Timer
}

func newDebouncer(clock clockwork.Clock, d time.Duration, fn func()) *debouncer {
	return &debouncer{clock: clock, d: d, fn: fn}
}

// Trigger arms the timer, or pushes it out when already armed.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		d.timer = d.clock.AfterFunc(d.d, d.fn)
		return
	}
	d.timer.Reset(d.d)
}

// Stop cancels any pending callback.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
