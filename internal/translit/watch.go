package translit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a rule file into a Reloadable whenever the file changes.
// A file that fails to load or validate leaves the current engine in place.
type Watcher struct {
	path     string
	target   *Reloadable
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	onReload []func(*Engine)

	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
}

// NewWatcher creates a watcher for path feeding target.
func NewWatcher(path string, target *Reloadable, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		target:   target,
		logger:   logger.With("component", "translit"),
		debounce: 100 * time.Millisecond,
		ctx:      ctx,
		cancel:   cancel,
		errChan:  make(chan error, 1),
	}
}

// OnReload registers a callback run after each successful reload.
func (w *Watcher) OnReload(cb func(*Engine)) {
	w.mu.Lock()
	w.onReload = append(w.onReload, cb)
	w.mu.Unlock()
}

// Start begins watching. The directory holding the file is watched so
// editors that replace the file atomically are seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, w.Reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// Reload loads the file now.
func (w *Watcher) Reload() {
	if w.ctx.Err() != nil {
		return
	}

	e, err := LoadEngine(w.path)
	if err != nil {
		w.logger.Warn("rule reload rejected", "path", w.path, "error", err)
		w.report(fmt.Errorf("reload rules: %w", err))
		return
	}

	w.target.Swap(e)
	w.logger.Info("rules reloaded", "path", w.path, "table", e.Name(), "rules", e.Rules())

	w.mu.Lock()
	callbacks := append([]func(*Engine){}, w.onReload...)
	w.mu.Unlock()
	for _, cb := range callbacks {
		cb(e)
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
	}
}

// Errors returns a channel of watch and reload errors. Errors are dropped
// when nobody drains it.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
