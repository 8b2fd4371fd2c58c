package livetune

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeRemove, "remove"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestObserverSetSubscribe(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var received atomic.Bool

	sub := o.subscribe("*", func(c Change) {
		received.Store(true)
	})

	o.notify(Change{Key: "speed", Type: ChangeSet, New: "2"})

	if !received.Load() {
		t.Error("observer did not receive notification")
	}

	sub.Unsubscribe()

	received.Store(false)
	o.notify(Change{Key: "speed", Type: ChangeSet, New: "3"})

	if received.Load() {
		t.Error("unsubscribed observer received notification")
	}
}

func TestObserverSetPatternMatching(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var exact, glob, all atomic.Int32

	o.subscribe("gravity", func(c Change) { exact.Add(1) })
	o.subscribe("physics.*", func(c Change) { glob.Add(1) })
	o.subscribe("*", func(c Change) { all.Add(1) })

	o.notify(Change{Key: "gravity", Type: ChangeSet, New: "9.8"})
	o.notify(Change{Key: "physics.gravity", Type: ChangeSet, New: "9.8"})
	o.notify(Change{Key: "physics.drag", Type: ChangeSet, New: "0.1"})
	o.notify(Change{Key: "render.fps", Type: ChangeSet, New: "60"})

	if exact.Load() != 1 {
		t.Errorf("exact observer received %d changes, want 1", exact.Load())
	}
	if glob.Load() != 2 {
		t.Errorf("glob observer received %d changes, want 2", glob.Load())
	}
	if all.Load() != 4 {
		t.Errorf("wildcard observer received %d changes, want 4", all.Load())
	}
}

func TestObserverSetReloadReachesAll(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var exact, glob atomic.Bool

	o.subscribe("gravity", func(c Change) {
		if c.Type == ChangeReload {
			exact.Store(true)
		}
	})
	o.subscribe("physics.*", func(c Change) {
		if c.Type == ChangeReload {
			glob.Store(true)
		}
	})

	// Reload events carry no key and bypass pattern matching.
	o.notify(Change{Type: ChangeReload, Old: "a.txt", New: "b.txt"})

	if !exact.Load() {
		t.Error("exact observer did not receive reload")
	}
	if !glob.Load() {
		t.Error("glob observer did not receive reload")
	}
}

func TestObserverSetChangeFields(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var got Change
	o.subscribe("speed", func(c Change) { got = c })

	o.notify(Change{Key: "speed", Type: ChangeSet, Old: "1", New: "2.5"})

	if got.Key != "speed" {
		t.Errorf("Key = %q, want 'speed'", got.Key)
	}
	if got.Type != ChangeSet {
		t.Errorf("Type = %v, want ChangeSet", got.Type)
	}
	if got.Old != "1" {
		t.Errorf("Old = %q, want '1'", got.Old)
	}
	if got.New != "2.5" {
		t.Errorf("New = %q, want '2.5'", got.New)
	}
}

func TestObserverSetMultipleObservers(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var count1, count2, count3 atomic.Int32

	o.subscribe("*", func(c Change) { count1.Add(1) })
	o.subscribe("*", func(c Change) { count2.Add(1) })
	sub3 := o.subscribe("*", func(c Change) { count3.Add(1) })

	o.notify(Change{Key: "a", Type: ChangeSet})
	sub3.Unsubscribe()
	o.notify(Change{Key: "b", Type: ChangeSet})

	if count1.Load() != 2 || count2.Load() != 2 {
		t.Errorf("observers received %d and %d changes, want 2 and 2",
			count1.Load(), count2.Load())
	}
	if count3.Load() != 1 {
		t.Errorf("unsubscribed observer received %d changes, want 1", count3.Load())
	}
}

func TestSubscriptionUnsubscribeIdempotent(t *testing.T) {
	o := newObserverSet(NullLogger, 0)
	defer o.close()

	var count atomic.Int32
	sub := o.subscribe("*", func(c Change) { count.Add(1) })

	sub.Unsubscribe()
	sub.Unsubscribe()

	var nilSub *Subscription
	nilSub.Unsubscribe()

	o.notify(Change{Key: "a", Type: ChangeSet})
	if count.Load() != 0 {
		t.Errorf("observer received %d changes after unsubscribe, want 0", count.Load())
	}
}

func TestObserverSetAsync(t *testing.T) {
	o := newObserverSet(NullLogger, 16)
	defer o.close()

	var received atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	o.subscribe("*", func(c Change) {
		received.Store(true)
		wg.Done()
	})

	o.notify(Change{Key: "speed", Type: ChangeSet, New: "2"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if !received.Load() {
			t.Error("async observer did not receive notification")
		}
	case <-time.After(1 * time.Second):
		t.Error("timeout waiting for async notification")
	}
}

func TestObserverSetCloseDrainsPending(t *testing.T) {
	o := newObserverSet(NullLogger, 16)

	var count atomic.Int32
	o.subscribe("*", func(c Change) {
		time.Sleep(time.Millisecond)
		count.Add(1)
	})

	for i := 0; i < 5; i++ {
		o.notify(Change{Key: "a", Type: ChangeSet})
	}
	o.close()

	if count.Load() != 5 {
		t.Errorf("drained %d changes on close, want 5", count.Load())
	}
}

func TestObserverSetAsyncPanicRecovered(t *testing.T) {
	o := newObserverSet(NullLogger, 16)
	defer o.close()

	var delivered atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)

	o.subscribe("*", func(c Change) {
		defer wg.Done()
		delivered.Add(1)
		if c.Key == "boom" {
			panic("observer failure")
		}
	})

	o.notify(Change{Key: "boom", Type: ChangeSet})
	o.notify(Change{Key: "ok", Type: ChangeSet})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not survive observer panic")
	}
	if delivered.Load() != 2 {
		t.Errorf("delivered %d changes, want 2", delivered.Load())
	}
}

func TestObserverSetNotifyAfterClose(t *testing.T) {
	o := newObserverSet(NullLogger, 0)

	var count atomic.Int32
	o.subscribe("*", func(c Change) { count.Add(1) })

	o.close()
	o.close()

	o.notify(Change{Key: "a", Type: ChangeSet})
	if count.Load() != 0 {
		t.Errorf("observer received %d changes after close, want 0", count.Load())
	}
}
