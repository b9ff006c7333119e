// Package passthrough re-injects keystrokes the input method does not want
// to keep, so the application sees them after any composition has been
// committed.
package passthrough

import (
	"errors"
	"log/slog"
	"sync"

	"uokeyboard/internal/host"
)

// ErrUnsupported is returned by NewSystem on platforms without a keystroke
// injection API.
var ErrUnsupported = errors.New("passthrough: keystroke injection not supported on this platform")

// Recorder is an in-memory host.KeystrokeEmitter. It keeps every emitted
// key and can forward them to another emitter.
type Recorder struct {
	mu      sync.Mutex
	keys    []host.KeyEvent
	forward host.KeystrokeEmitter
}

// NewRecorder returns a Recorder that forwards to next, which may be nil.
func NewRecorder(next host.KeystrokeEmitter) *Recorder {
	return &Recorder{forward: next}
}

// Emit implements host.KeystrokeEmitter.
func (r *Recorder) Emit(key host.KeyEvent) error {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	next := r.forward
	r.mu.Unlock()

	if next == nil {
		return nil
	}
	return next.Emit(key)
}

// Keys returns a copy of everything emitted so far.
func (r *Recorder) Keys() []host.KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]host.KeyEvent, len(r.keys))
	copy(out, r.keys)
	return out
}

// Reset forgets the recorded keys.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.keys = nil
	r.mu.Unlock()
}

// Logged wraps an emitter and logs each key at debug level and each
// failure at warn level.
type Logged struct {
	next   host.KeystrokeEmitter
	logger *slog.Logger
}

// NewLogged wraps next. A nil logger uses slog.Default.
func NewLogged(next host.KeystrokeEmitter, logger *slog.Logger) *Logged {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logged{next: next, logger: logger.With("component", "passthrough")}
}

// Emit implements host.KeystrokeEmitter.
func (l *Logged) Emit(key host.KeyEvent) error {
	if err := l.next.Emit(key); err != nil {
		l.logger.Warn("emit failed", "code", key.Code, "scan", key.ScanCode(), "error", err)
		return err
	}
	l.logger.Debug("emitted", "code", key.Code, "scan", key.ScanCode())
	return nil
}

// Fanout sends every key to each of its emitters in order.
type Fanout []host.KeystrokeEmitter

// Multi returns an emitter that duplicates keys to all of emitters. Nil
// emitters are skipped.
func Multi(emitters ...host.KeystrokeEmitter) Fanout {
	out := make(Fanout, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Emit implements host.KeystrokeEmitter. Every emitter sees the key even
// when an earlier one fails; the failures are joined.
func (f Fanout) Emit(key host.KeyEvent) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ host.KeystrokeEmitter = (*Recorder)(nil)
	_ host.KeystrokeEmitter = (*Logged)(nil)
	_ host.KeystrokeEmitter = Fanout(nil)
)
