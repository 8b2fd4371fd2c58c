package livetune

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/livetune/format"
	"github.com/dshills/livetune/watch"
)

const (
	// tunerEventWait bounds one watcher wait inside a blocking Get.
	tunerEventWait = time.Second
	// tunerPollWait is the sleep between reads when no watcher runs and
	// the cap on waits inside GetTimeout.
	tunerPollWait = 100 * time.Millisecond
)

// HasNativeWatch reports whether this platform has a native change
// notification backend; without one the watch package polls.
func HasNativeWatch() bool {
	return watch.NativeSupported()
}

// TunerOption configures a Tuner at construction. The Set methods
// change the same settings on a live instance.
type TunerOption func(*tunerSettings)

type tunerSettings struct {
	policy      RetryPolicy
	watchCfg    watch.Config
	eventDriven bool
}

// WithTunerRetryPolicy replaces the default read retry policy.
func WithTunerRetryPolicy(policy RetryPolicy) TunerOption {
	return func(s *tunerSettings) { s.policy = policy }
}

// WithTunerWatchConfig passes event buffer sizing to the watcher used
// by blocking reads.
func WithTunerWatchConfig(cfg watch.Config) TunerOption {
	return func(s *tunerSettings) { s.watchCfg = cfg }
}

// WithTunerPolling makes blocking reads sleep between polls instead of
// waiting on a file watcher.
func WithTunerPolling() TunerOption {
	return func(s *tunerSettings) { s.eventDriven = false }
}

// Tuner reads one live-tunable value of type T from a file. The value
// is the first non-comment line that parses as T; everything before it
// that fails to parse is skipped.
//
// TryGet is the non-blocking game-loop entry point. The blocking reads
// (Get, GetTimeout, GetAsync) are meant for debugging and experiments.
type Tuner[T Scalar] struct {
	mu sync.Mutex

	path        string
	fsys        FileSystem
	policy      RetryPolicy
	watchCfg    watch.Config
	eventDriven bool

	// Shared watcher for blocking waits, started lazily.
	watcher *watch.Watcher

	cache   modTimeCache
	value   T
	valid   bool
	lastErr ErrorInfo
}

// NewTuner creates a tuner for path. An empty path uses DefaultFile.
// The file is not touched until the first read.
func NewTuner[T Scalar](path string, opts ...TunerOption) (*Tuner[T], error) {
	if path == "" {
		path = DefaultFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	s := tunerSettings{
		policy:      DefaultRetryPolicy(),
		watchCfg:    watch.DefaultConfig(),
		eventDriven: true,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Tuner[T]{
		path:        abs,
		fsys:        DefaultFS(),
		policy:      s.policy,
		watchCfg:    s.watchCfg,
		eventDriven: s.eventDriven,
	}, nil
}

// TryGet refreshes the value if the file changed and returns the best
// known value without blocking. ok stays false until a valid value has
// been read once; after that the last good value survives failed
// re-reads, with the failure available through LastError.
func (t *Tuner[T]) TryGet() (T, bool) {
	t.refresh()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.valid
}

// Get blocks until a valid value exists and returns it. In event-driven
// mode the wait rides the file watcher with 1s re-check rounds; in
// polling mode it sleeps 100ms between reads.
func (t *Tuner[T]) Get() T {
	for {
		if v, ok := t.TryGet(); ok {
			return v
		}
		if w := t.blockingWatcher(); w != nil {
			w.WaitForChange(tunerEventWait)
		} else {
			time.Sleep(tunerPollWait)
		}
	}
}

// GetTimeout waits up to d for a valid value. On expiry it returns the
// zero value and a Timeout error. Inner waits are capped at 100ms so
// the deadline is honored promptly.
func (t *Tuner[T]) GetTimeout(d time.Duration) (T, error) {
	deadline := time.Now().Add(d)
	for {
		if v, ok := t.TryGet(); ok {
			return v, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, newError(KindTimeout, t.File(), nil)
		}
		wait := remaining
		if wait > tunerPollWait {
			wait = tunerPollWait
		}
		if w := t.blockingWatcher(); w != nil {
			w.WaitForChange(wait)
		} else {
			time.Sleep(wait)
		}
	}
}

// GetAsync calls fn with the value once one exists.
//
// The callback runs on a background goroutine, not the caller's. Do not
// touch thread-affine state from it (rendering contexts, UI); when the
// callback must run on a goroutine you control, use Params with Poll
// instead.
func (t *Tuner[T]) GetAsync(fn func(T)) {
	if fn == nil {
		return
	}
	go func() {
		fn(t.Get())
	}()
}

// refresh runs the single-value pipeline: ensure the file exists, check
// the modtime cache, read with retries, take the first line that parses
// as T.
func (t *Tuner[T]) refresh() {
	t.mu.Lock()
	path := t.path
	policy := t.policy
	t.mu.Unlock()

	t.ensureFile(path)

	now := time.Now()
	var mod time.Time
	if info, err := t.fsys.Stat(path); err == nil {
		mod = info.ModTime()
	}

	t.mu.Lock()
	if t.cache.fresh(now, mod) {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	content, err := ReadFile(t.fsys, path, policy)
	if err != nil {
		t.mu.Lock()
		t.lastErr = errorInfoFrom(err, path)
		// Read failures are not cached; the next call retries.
		t.cache.invalidate()
		t.mu.Unlock()
		return
	}

	v, found, badLine := scanScalar[T](content)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.note(now, mod)
	if found {
		t.value = v
		t.valid = true
		t.lastErr = ErrorInfo{}
		return
	}
	if badLine != "" {
		t.lastErr = errorInfo(KindParse, fmt.Sprintf("Failed to parse value from line: '%s'", badLine), path)
		GetLogger().Warnf("%s", t.lastErr)
	} else {
		t.lastErr = errorInfo(KindParse, "No valid value found in file", path)
		GetLogger().Debugf("%s", t.lastErr)
	}
}

// scanScalar returns the first line of content that parses as T. When
// nothing parses, badLine holds the last candidate line that failed.
func scanScalar[T Scalar](content []byte) (value T, found bool, badLine string) {
	for _, line := range format.ScalarLines(content) {
		if v, ok := convertScalar[T](line); ok {
			return v, true, ""
		}
		badLine = line
	}
	return value, false, badLine
}

// blockingWatcher returns the shared watcher for blocking waits,
// starting it on first use. It returns nil in polling mode or when the
// watcher cannot start; callers then sleep instead.
func (t *Tuner[T]) blockingWatcher() *watch.Watcher {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.eventDriven {
		return nil
	}
	if t.watcher != nil {
		return t.watcher
	}

	w, err := watch.New(t.path, watch.WithConfig(t.watchCfg), watch.WithLogger(GetLogger()))
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		t.lastErr = errorInfo(KindWatcher, "Failed to start file watcher, falling back to polling mode", t.path)
		GetLogger().Warnf("%s", t.lastErr)
		t.eventDriven = false
		return nil
	}
	t.watcher = w
	return w
}

// ensureFile writes the single-value template when path is missing.
func (t *Tuner[T]) ensureFile(path string) {
	_, err := t.fsys.Stat(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return
	}
	wf, ok := t.fsys.(WriteFileSystem)
	if !ok {
		return
	}
	if werr := wf.WriteFile(path, format.Template(format.Plain), 0o644); werr != nil {
		GetLogger().Debugf("could not create template %s: %v", path, werr)
	}
}

// SetFile switches the tuner to a different file. The cache is cleared
// and an active watcher moves to the new path on its next use.
func (t *Tuner[T]) SetFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = abs
	t.cache.invalidate()
	t.stopWatcherLocked()
	return nil
}

// File returns the absolute path of the watched file.
func (t *Tuner[T]) File() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

// RetryPolicy returns the read retry policy.
func (t *Tuner[T]) RetryPolicy() RetryPolicy {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy
}

// SetRetryPolicy replaces the read retry policy.
func (t *Tuner[T]) SetRetryPolicy(policy RetryPolicy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.policy = policy
}

// WatchConfig returns the watcher buffer configuration.
func (t *Tuner[T]) WatchConfig() watch.Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watchCfg
}

// SetWatchConfig replaces the watcher configuration. An active watcher
// is stopped and restarts with the new configuration on its next use.
func (t *Tuner[T]) SetWatchConfig(cfg watch.Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchCfg = cfg
	t.stopWatcherLocked()
}

// EventDriven reports whether blocking reads wait on the file watcher.
func (t *Tuner[T]) EventDriven() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eventDriven
}

// SetEventDriven toggles blocking reads between watcher waits and 100ms
// polling sleeps.
func (t *Tuner[T]) SetEventDriven(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.eventDriven = enabled
	t.stopWatcherLocked()
}

// LastError returns the most recent failure; Kind is KindNone when the
// last read succeeded.
func (t *Tuner[T]) LastError() ErrorInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// HasError reports whether a failure is recorded.
func (t *Tuner[T]) HasError() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr.HasError()
}

// ClearLastError resets the recorded failure.
func (t *Tuner[T]) ClearLastError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = ErrorInfo{}
}

// Reset stops the watcher and clears the modtime cache; the path and
// the last value are kept.
func (t *Tuner[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.invalidate()
	t.stopWatcherLocked()
}

// Close stops the background watcher. The tuner stays usable; a later
// blocking read restarts it.
func (t *Tuner[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopWatcherLocked()
}

func (t *Tuner[T]) stopWatcherLocked() {
	if t.watcher != nil {
		t.watcher.Stop()
		t.watcher = nil
	}
}
