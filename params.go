package livetune

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/livetune/format"
	"github.com/dshills/livetune/watch"
)

// DefaultFile is the parameter file used when none is given.
const DefaultFile = "params.txt"

// Option configures a Params instance.
type Option func(*Params)

// WithFormat pins the file format instead of detecting it from the
// file extension.
func WithFormat(f format.Format) Option {
	return func(p *Params) { p.format = f }
}

// WithRetryPolicy replaces the default read retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Params) { p.policy = policy }
}

// WithFileSystem injects a file system implementation. Meant for tests.
func WithFileSystem(fsys FileSystem) Option {
	return func(p *Params) {
		if fsys != nil {
			p.fsys = fsys
		}
	}
}

// WithLogger overrides the process-wide logger for this instance.
func WithLogger(l *Logger) Option {
	return func(p *Params) {
		if l != nil {
			p.log = l
		}
	}
}

// WithWatchConfig passes event buffer sizing to the watcher started by
// StartWatching.
func WithWatchConfig(cfg watch.Config) Option {
	return func(p *Params) {
		p.watchOpts = append(p.watchOpts, watch.WithConfig(cfg))
	}
}

// WithPollInterval sets the base interval of the watcher's polling
// fallback.
func WithPollInterval(d time.Duration) Option {
	return func(p *Params) {
		if d > 0 {
			p.watchOpts = append(p.watchOpts, watch.WithPollInterval(d))
		}
	}
}

// WithAsyncNotify moves subscription observer delivery to a dedicated
// goroutine with the given channel capacity. This trades the main-thread
// guarantee described in the package documentation for updates that
// never block on observers.
func WithAsyncNotify(buffer int) Option {
	return func(p *Params) {
		if buffer > 0 {
			p.asyncBuffer = buffer
		}
	}
}

// Params keeps bound program variables in sync with one parameter file.
//
// All methods are safe for concurrent use. Update and Poll run the
// reload pipeline on the calling goroutine, so the OnUpdate and OnError
// callbacks and subscription observers also run there. Calling a
// mutating method from inside one of those callbacks is skipped with a
// warning.
type Params struct {
	mu sync.Mutex

	path   string
	format format.Format
	fsys   FileSystem
	policy RetryPolicy
	log    *Logger

	values   map[string]string
	bindings map[string]binding
	cache    modTimeCache
	lastErr  ErrorInfo

	onUpdate func()
	onError  func(ErrorInfo)

	subs        *observerSet
	asyncBuffer int

	watcher   *watch.Watcher
	watchOpts []watch.Option
	pending   atomic.Bool

	inCallback atomic.Bool
}

// New creates a Params for path. An empty path uses DefaultFile. The
// file is not touched until the first Update, Poll, or StartWatching.
func New(path string, opts ...Option) (*Params, error) {
	if path == "" {
		path = DefaultFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	p := &Params{
		path:     abs,
		format:   format.Auto,
		fsys:     DefaultFS(),
		policy:   DefaultRetryPolicy(),
		values:   make(map[string]string),
		bindings: make(map[string]binding),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.subs = newObserverSet(p.logger(), p.asyncBuffer)
	return p, nil
}

// logger returns the instance logger, falling back to the process-wide
// one so SetLogger takes effect on existing instances.
func (p *Params) logger() *Logger {
	if p.log != nil {
		return p.log
	}
	return GetLogger()
}

// guardMutate reports whether op arrived from inside an executing
// callback. Such calls are skipped.
func (p *Params) guardMutate(op string) bool {
	if !p.inCallback.Load() {
		return false
	}
	p.logger().Warnf("%s called during callback execution; skipped", op)
	return true
}

// Update reads the file if it changed and applies new values to bound
// variables, returning true when values were updated. Subscription
// observers and then the OnUpdate callback run synchronously on the
// calling goroutine before Update returns, after the values are applied.
func (p *Params) Update() bool {
	if p.inCallback.Load() {
		p.logger().Debugf("Update called during callback execution; skipped")
		return false
	}
	return p.update()
}

// Poll is the cheap per-frame trigger. While watching it runs the
// pipeline only after the watcher reported a change; otherwise it is
// identical to Update.
func (p *Params) Poll() bool {
	if p.inCallback.Load() {
		p.logger().Debugf("Poll called during callback execution; skipped")
		return false
	}

	p.mu.Lock()
	watching := p.watcher != nil
	p.mu.Unlock()

	if watching && !p.pending.Swap(false) {
		return false
	}
	return p.update()
}

// updateOutcome carries the pipeline result out of the lock.
type updateOutcome struct {
	changed  bool
	changes  []Change
	onUpdate func()
	onError  func(ErrorInfo)
	errInfo  ErrorInfo
}

// update runs the pipeline under the lock, then delivers callbacks
// outside it with the re-entrancy flag set.
func (p *Params) update() bool {
	p.mu.Lock()
	out := p.updateLocked()
	p.mu.Unlock()

	if out.errInfo.HasError() {
		if out.onError != nil {
			p.inCallback.Store(true)
			defer p.inCallback.Store(false)
			out.onError(out.errInfo)
		}
		return false
	}
	if !out.changed {
		return false
	}

	p.inCallback.Store(true)
	defer p.inCallback.Store(false)
	for _, c := range out.changes {
		p.subs.notify(c)
	}
	if out.onUpdate != nil {
		out.onUpdate()
	}
	return true
}

// updateLocked is the pipeline core: ensure the file exists, check the
// modtime cache, read with retries, parse, diff, apply bindings.
func (p *Params) updateLocked() updateOutcome {
	out := updateOutcome{onUpdate: p.onUpdate, onError: p.onError}

	f := format.Resolve(p.format, p.path)
	p.ensureFileLocked(f)

	// Modtime stays zero when the file is missing, so repeated failing
	// triggers coalesce through the cache the same way successes do.
	now := time.Now()
	var mod time.Time
	if info, err := p.fsys.Stat(p.path); err == nil {
		mod = info.ModTime()
	}
	if p.cache.fresh(now, mod) {
		return out
	}

	content, err := ReadFile(p.fsys, p.path, p.policy)
	p.cache.note(now, mod)
	if err != nil {
		out.errInfo = p.failLocked(err)
		return out
	}

	parsed, err := format.Parse(content, f)
	if err != nil {
		out.errInfo = p.failLocked(newError(KindParse, p.path, err))
		return out
	}

	changes := diffValues(p.values, parsed)
	if len(changes) == 0 {
		return out
	}

	p.values = parsed
	for name, b := range p.bindings {
		raw, ok := parsed[name]
		if !ok {
			b.applyDefault()
			continue
		}
		if !b.apply(raw) {
			p.logger().Warnf("Failed to parse value for parameter '%s': '%s'", name, raw)
		}
	}

	p.lastErr = ErrorInfo{}
	out.changed = true
	out.changes = changes
	return out
}

// ensureFileLocked writes the format's starter template when the file
// does not exist. Failures are not fatal; the read path reports the
// missing file.
func (p *Params) ensureFileLocked(f format.Format) {
	_, err := p.fsys.Stat(p.path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return
	}
	wf, ok := p.fsys.(WriteFileSystem)
	if !ok {
		return
	}
	if werr := wf.WriteFile(p.path, format.Template(f), 0o644); werr != nil {
		p.logger().Debugf("could not create template %s: %v", p.path, werr)
	}
}

// failLocked records err as the last error and returns the snapshot.
func (p *Params) failLocked(err error) ErrorInfo {
	info := errorInfoFrom(err, p.path)
	p.lastErr = info
	return info
}

// diffValues lists what changed between two parameter maps, sorted by
// key for deterministic observer ordering.
func diffValues(prev, next map[string]string) []Change {
	var changes []Change
	for k, v := range next {
		old, ok := prev[k]
		switch {
		case !ok:
			changes = append(changes, Change{Key: k, Type: ChangeSet, New: v})
		case old != v:
			changes = append(changes, Change{Key: k, Type: ChangeSet, Old: old, New: v})
		}
	}
	for k, v := range prev {
		if _, ok := next[k]; !ok {
			changes = append(changes, Change{Key: k, Type: ChangeRemove, Old: v})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

// BindBool keeps *ptr in sync with the named parameter. The variable is
// set to def immediately, updated on every reload, and restored to def
// when the key disappears from the file. Binding a name again replaces
// the previous binding; a nil pointer is ignored.
func (p *Params) BindBool(name string, ptr *bool, def bool) {
	if ptr == nil {
		return
	}
	p.bind("BindBool", name, newSlot(ptr, def, ConvertBool))
}

// BindInt binds an int parameter.
func (p *Params) BindInt(name string, ptr *int, def int) {
	if ptr == nil {
		return
	}
	p.bind("BindInt", name, newSlot(ptr, def, ConvertInt))
}

// BindInt64 binds an int64 parameter.
func (p *Params) BindInt64(name string, ptr *int64, def int64) {
	if ptr == nil {
		return
	}
	p.bind("BindInt64", name, newSlot(ptr, def, ConvertInt64))
}

// BindFloat64 binds a float64 parameter.
func (p *Params) BindFloat64(name string, ptr *float64, def float64) {
	if ptr == nil {
		return
	}
	p.bind("BindFloat64", name, newSlot(ptr, def, ConvertFloat64))
}

// BindString binds a string parameter. Surrounding quotes in the file
// value are stripped.
func (p *Params) BindString(name string, ptr *string, def string) {
	if ptr == nil {
		return
	}
	p.bind("BindString", name, newSlot(ptr, def, ConvertString))
}

// BindDuration binds a time.Duration parameter; file values need units
// ("250ms", "1.5s").
func (p *Params) BindDuration(name string, ptr *time.Duration, def time.Duration) {
	if ptr == nil {
		return
	}
	p.bind("BindDuration", name, newSlot(ptr, def, ConvertDuration))
}

func (p *Params) bind(op, name string, b binding) {
	if p.guardMutate(op) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	b.applyDefault()
	if raw, ok := p.values[name]; ok {
		if !b.apply(raw) {
			p.logger().Warnf("Failed to parse value for parameter '%s': '%s'", name, raw)
		}
	}
	p.bindings[name] = b
}

// Unbind removes the named binding. The variable keeps its last value.
func (p *Params) Unbind(name string) {
	if p.guardMutate("Unbind") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.bindings, name)
}

// UnbindAll removes every binding.
func (p *Params) UnbindAll() {
	if p.guardMutate("UnbindAll") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings = make(map[string]binding)
}

// BoundNames returns the bound parameter names, sorted.
func (p *Params) BoundNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.bindings))
	for name := range p.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the raw string value of the named parameter.
func (p *Params) Value(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether the named parameter exists.
func (p *Params) Has(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.values[name]
	return ok
}

// Values returns a copy of the current parameter map.
func (p *Params) Values() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Get returns the named parameter converted to T.
func Get[T Scalar](p *Params, name string) (T, bool) {
	raw, ok := p.Value(name)
	if !ok {
		var zero T
		return zero, false
	}
	return convertScalar[T](raw)
}

// GetOr returns the named parameter converted to T, or def when the
// parameter is missing or does not convert.
func GetOr[T Scalar](p *Params, name string, def T) T {
	if v, ok := Get[T](p, name); ok {
		return v
	}
	return def
}

// OnUpdate registers fn to run after every update that changed values.
// One callback; later calls replace it. Passing nil removes it.
func (p *Params) OnUpdate(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// OnError registers fn to run when an update fails, with the recorded
// failure. Same threading as OnUpdate.
func (p *Params) OnError(fn func(ErrorInfo)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Subscribe registers an observer for changes to keys matching pattern.
// A plain name matches only itself; glob syntax ("*", "physics.*") is
// supported. Observers run on the updating goroutine right before the
// OnUpdate callback, unless WithAsyncNotify moved delivery to a
// dedicated goroutine.
func (p *Params) Subscribe(pattern string, fn Observer) *Subscription {
	return p.subs.subscribe(pattern, fn)
}

// LastError returns the most recent failure; Kind is KindNone when the
// last changed update succeeded.
func (p *Params) LastError() ErrorInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// HasError reports whether a failure is recorded.
func (p *Params) HasError() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr.HasError()
}

// ClearLastError resets the recorded failure.
func (p *Params) ClearLastError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = ErrorInfo{}
}

// File returns the absolute path of the watched file.
func (p *Params) File() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// FileFormat returns the effective format of the watched file.
func (p *Params) FileFormat() format.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return format.Resolve(p.format, p.path)
}

// SetFile switches to a different parameter file. The format is
// re-detected from the new path; use SetFormat to pin it. Values and
// cache are cleared so the next update reloads from scratch, and an
// active watcher moves to the new file. Observers receive a reload
// event whose Old and New carry the previous and current paths.
func (p *Params) SetFile(path string) error {
	if p.guardMutate("SetFile") {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.path
	p.path = abs
	p.format = format.Auto
	p.invalidateLocked()
	p.restartWatcherLocked()
	p.mu.Unlock()

	p.inCallback.Store(true)
	defer p.inCallback.Store(false)
	p.subs.notify(Change{Type: ChangeReload, Old: old, New: abs})
	return nil
}

// SetFormat pins the file format, overriding extension detection.
// Values and cache are cleared for a clean reparse.
func (p *Params) SetFormat(f format.Format) {
	if p.guardMutate("SetFormat") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.format = f
	p.invalidateLocked()
}

// InvalidateCache forgets the cached file state and the current values;
// the next update re-reads the file and reports every key as new.
func (p *Params) InvalidateCache() {
	if p.guardMutate("InvalidateCache") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked()
}

func (p *Params) invalidateLocked() {
	p.cache.invalidate()
	p.values = make(map[string]string)
}

// ResetToDefaults sets every bound variable back to its declared
// default. Stored values and the file are untouched; the next changed
// update re-applies file values.
func (p *Params) ResetToDefaults() {
	if p.guardMutate("ResetToDefaults") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.bindings {
		b.applyDefault()
	}
}

// StartWatching begins watching the file in the background. A change
// observed by the watcher makes the next Poll run the update pipeline;
// an initial update is queued so the first Poll reads the file. Safe to
// call while already watching.
func (p *Params) StartWatching() {
	if p.guardMutate("StartWatching") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher != nil {
		return
	}
	p.pending.Store(true)
	p.startWatcherLocked()
}

// StopWatching stops the background watcher and joins its worker.
func (p *Params) StopWatching() {
	if p.guardMutate("StopWatching") {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return
	}
	p.watcher.Stop()
	p.watcher = nil
}

// Watching reports whether the background watcher is active.
func (p *Params) Watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watcher != nil
}

// startWatcherLocked builds and starts the watcher. Failures are logged
// and recorded, never returned; the polling fallback inside the watch
// package keeps changes flowing without a native backend.
func (p *Params) startWatcherLocked() {
	opts := append([]watch.Option{watch.WithLogger(p.logger())}, p.watchOpts...)
	w, err := watch.New(p.path, opts...)
	if err != nil {
		p.lastErr = errorInfo(KindWatcher, err.Error(), p.path)
		p.logger().Warnf("could not watch %s: %v", p.path, err)
		return
	}
	w.OnChange(func() { p.pending.Store(true) })
	if err := w.Start(); err != nil {
		p.lastErr = errorInfo(KindWatcher, err.Error(), p.path)
		p.logger().Warnf("could not start watching %s: %v", p.path, err)
		return
	}
	p.watcher = w
}

// restartWatcherLocked moves an active watcher to the current path.
func (p *Params) restartWatcherLocked() {
	if p.watcher == nil {
		return
	}
	p.watcher.Stop()
	p.watcher = nil
	p.startWatcherLocked()
}

// Close stops watching and shuts down async subscription delivery. The
// instance stays usable for reads and further updates, but subscription
// observers no longer fire.
func (p *Params) Close() {
	if p.guardMutate("Close") {
		return
	}
	p.mu.Lock()
	if p.watcher != nil {
		p.watcher.Stop()
		p.watcher = nil
	}
	p.mu.Unlock()
	p.subs.close()
}
