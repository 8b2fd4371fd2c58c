package livetune

import (
	"sync"

	"github.com/tidwall/match"
)

// ChangeType classifies a parameter change.
type ChangeType uint8

const (
	// ChangeSet indicates a key was added or its value updated.
	ChangeSet ChangeType = iota
	// ChangeRemove indicates a key disappeared from the file.
	ChangeRemove
	// ChangeReload indicates the whole parameter set was reset; Key is
	// empty and every observer is notified.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeRemove:
		return "remove"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one observed parameter change.
type Change struct {
	// Key is the parameter name. Empty for reload events.
	Key string
	// Type is the kind of change.
	Type ChangeType
	// Old is the previous value; empty when the key was added.
	Old string
	// New is the current value; empty when the key was removed.
	New string
}

// Observer is called with each change matching its subscription.
type Observer func(Change)

// Subscription is an active observer registration. Unsubscribe stops
// deliveries; it is safe to call more than once.
type Subscription struct {
	id    uint64
	owner *observerSet
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.owner != nil {
		s.owner.unsubscribe(s.id)
	}
}

type subEntry struct {
	pattern string
	fn      Observer
}

// observerSet manages keyed change subscriptions for one Params instance.
// Patterns are globs matched with github.com/tidwall/match; a plain name
// matches only itself and "*" matches every key.
type observerSet struct {
	mu     sync.RWMutex
	subs   map[uint64]*subEntry
	nextID uint64
	closed bool

	log *Logger

	// Async delivery, enabled by WithAsyncNotify.
	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
}

// newObserverSet creates the set. A positive asyncBuffer switches
// delivery to a dedicated goroutine with that channel capacity.
func newObserverSet(log *Logger, asyncBuffer int) *observerSet {
	o := &observerSet{
		subs: make(map[uint64]*subEntry),
		log:  log,
		done: make(chan struct{}),
	}
	if asyncBuffer > 0 {
		o.async = true
		o.buffer = make(chan Change, asyncBuffer)
		o.wg.Add(1)
		go o.run()
	}
	return o
}

// subscribe registers an observer for keys matching pattern.
func (o *observerSet) subscribe(pattern string, fn Observer) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.subs[id] = &subEntry{pattern: pattern, fn: fn}

	return &Subscription{id: id, owner: o}
}

func (o *observerSet) unsubscribe(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subs, id)
}

// notify delivers a change to matching observers, either inline or via
// the async goroutine.
func (o *observerSet) notify(c Change) {
	o.mu.RLock()
	closed := o.closed
	o.mu.RUnlock()
	if closed {
		return
	}

	if o.async {
		select {
		case o.buffer <- c:
		case <-o.done:
		}
		return
	}
	o.deliver(c)
}

// deliver invokes every observer matching the change. Observers are
// collected under the read lock and called outside it.
func (o *observerSet) deliver(c Change) {
	o.mu.RLock()
	var fns []Observer
	for _, sub := range o.subs {
		if c.Type == ChangeReload || match.Match(c.Key, sub.pattern) {
			fns = append(fns, sub.fn)
		}
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		o.invoke(fn, c)
	}
}

// invoke calls one observer. Async delivery shields the goroutine from
// observer panics; synchronous delivery lets them reach the caller.
func (o *observerSet) invoke(fn Observer, c Change) {
	if !o.async {
		fn(c)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorf("subscription observer panicked: %v", r)
		}
	}()
	fn(c)
}

// close shuts the set down. Pending async changes are drained first.
// Safe to call more than once.
func (o *observerSet) close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	close(o.done)
	o.wg.Wait()
}

func (o *observerSet) run() {
	defer o.wg.Done()

	for {
		select {
		case c := <-o.buffer:
			o.deliver(c)
		case <-o.done:
			for {
				select {
				case c := <-o.buffer:
					o.deliver(c)
				default:
					return
				}
			}
		}
	}
}
