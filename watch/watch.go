package watch

import (
	"path/filepath"
	"sync"
	"time"
)

// Logger receives watcher diagnostics. The default discards everything;
// *livetune.Logger satisfies the interface.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Option configures a Watcher.
type Option func(*Watcher)

// WithConfig replaces the event buffer settings.
func WithConfig(cfg Config) Option {
	return func(w *Watcher) {
		w.cfg = cfg
	}
}

// WithLogger sets the diagnostics sink.
func WithLogger(log Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithPollInterval sets the base interval for the polling fallback.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// Watcher monitors a single file for changes through the best available
// backend. Changes set a consumable flag, wake blocked WaitForChange
// callers, and invoke registered callbacks on the backend's worker
// goroutine.
type Watcher struct {
	path string
	dir  string
	name string

	cfg          Config
	log          Logger
	pollInterval time.Duration

	mu       sync.Mutex
	running  bool
	native   bool
	changed  bool
	active   notifier
	handlers []func()
	sig      chan struct{} // wake-up edge, buffer 1
	stopped  chan struct{} // closed on Stop
}

// New creates a watcher for path. The path is made absolute; its parent
// directory is what the native backends actually watch, since editors
// replace files via rename or delete-and-create.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:         abs,
		dir:          filepath.Dir(abs),
		name:         filepath.Base(abs),
		cfg:          DefaultConfig(),
		log:          nopLogger{},
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(w)
	}
	w.cfg = w.cfg.normalize()

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// OnChange registers a callback invoked for every detected change. The
// callback runs on the backend's worker goroutine and must not block.
func (w *Watcher) OnChange(fn func()) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Start begins watching. A prior run is stopped first, so Start is safe
// to call repeatedly. A native backend that fails to start degrades to
// polling with a logged warning, never an error.
func (w *Watcher) Start() error {
	w.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		// Lost a Start/Start race; the winner's run stands.
		return nil
	}

	native := false
	var active notifier
	if n := newNativeNotifier(w.cfg, w.log); n != nil {
		if err := n.start(w.dir, w.name, w.fire); err != nil {
			w.log.Warnf("watch: native backend failed for %s, falling back to polling: %v", w.path, err)
		} else {
			native = true
			active = n
		}
	} else {
		w.log.Debugf("watch: no native backend on this platform, polling %s", w.path)
	}

	if active == nil {
		p := newPollingNotifier(w.pollInterval)
		if err := p.start(w.dir, w.name, w.fire); err != nil {
			return err
		}
		active = p
	}

	w.active = active
	w.native = native
	w.changed = false
	w.sig = make(chan struct{}, 1)
	w.stopped = make(chan struct{})
	w.running = true
	return nil
}

// Stop halts watching, wakes every blocked WaitForChange caller, and
// returns after the backend worker has exited. Safe to call from any
// goroutine and when not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.native = false
	active := w.active
	w.active = nil
	close(w.stopped)
	w.mu.Unlock()

	// Join outside the lock so the worker's last fire can complete.
	active.stop()
}

// Running reports whether the watcher is started.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Native reports whether the active backend is native rather than the
// polling fallback. False when stopped.
func (w *Watcher) Native() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running && w.native
}

// NativeSupported reports whether this platform has a native backend.
func NativeSupported() bool {
	return nativeSupported
}

// Changed consumes the change flag without blocking.
func (w *Watcher) Changed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.changed
	w.changed = false
	return c
}

// WaitForChange blocks until a change is consumed (true), the timeout
// elapses (false), or the watcher is stopped (false). Only the calling
// goroutine blocks.
func (w *Watcher) WaitForChange(timeout time.Duration) bool {
	w.mu.Lock()
	if w.changed {
		w.changed = false
		w.mu.Unlock()
		return true
	}
	if !w.running {
		w.mu.Unlock()
		return false
	}
	sig, stopped := w.sig, w.stopped
	w.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-sig:
			w.mu.Lock()
			if w.changed {
				w.changed = false
				w.mu.Unlock()
				return true
			}
			w.mu.Unlock()
			// Another waiter consumed the change; keep waiting.
		case <-stopped:
			return false
		case <-timer.C:
			return false
		}
	}
}

// fire is the backend event sink: set the flag, wake one waiter, run
// callbacks. Events arriving while stopping are dropped.
func (w *Watcher) fire() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.changed = true
	sig := w.sig
	handlers := make([]func(), len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	select {
	case sig <- struct{}{}:
	default:
	}

	for _, fn := range handlers {
		safeCall(fn)
	}
}

// safeCall runs a callback with panic recovery so a bad handler cannot
// kill the backend worker.
func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
