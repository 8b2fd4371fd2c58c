package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Polling intervals. The interval starts at the base, doubles once more
// than pollBackoffRuns consecutive polls see no change, and snaps back
// to the base on any change.
const (
	defaultPollInterval = 50 * time.Millisecond
	maxPollInterval     = 500 * time.Millisecond
	pollBackoffRuns     = 10
)

// pollingNotifier is the universal fallback backend: an adaptive-rate
// modtime poll of the watched file. It fires on modtime changes and on
// existence flips in either direction.
type pollingNotifier struct {
	base time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newPollingNotifier(base time.Duration) *pollingNotifier {
	if base <= 0 || base > maxPollInterval {
		base = defaultPollInterval
	}
	return &pollingNotifier{
		base: base,
		done: make(chan struct{}),
	}
}

func (p *pollingNotifier) start(dir, name string, fire func()) error {
	path := filepath.Join(dir, name)

	// Baseline before the loop so a stable pre-existing file does not
	// fire on the first poll.
	var lastMod time.Time
	var existed bool
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
		existed = true
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		interval := p.base
		noChange := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-p.done:
				return
			case <-timer.C:
			}

			changed := false
			if info, err := os.Stat(path); err == nil {
				if !existed || !info.ModTime().Equal(lastMod) {
					changed = true
				}
				existed = true
				lastMod = info.ModTime()
			} else if existed {
				changed = true
				existed = false
			}

			if changed {
				fire()
				interval = p.base
				noChange = 0
			} else {
				noChange++
				if noChange > pollBackoffRuns && interval < maxPollInterval {
					interval *= 2
					if interval > maxPollInterval {
						interval = maxPollInterval
					}
				}
			}
			timer.Reset(interval)
		}
	}()
	return nil
}

func (p *pollingNotifier) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
