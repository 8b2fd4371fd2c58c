//go:build darwin

package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsevents"
)

const nativeSupported = true

// streamLatency coalesces bursts of events before delivery.
const streamLatency = 100 * time.Millisecond

// streamNotifier watches the parent directory through an FSEvents
// stream. Events arrive pre-coalesced, so only the filename filter runs
// here.
type streamNotifier struct {
	stream *fsevents.EventStream

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newNativeNotifier(Config, Logger) notifier {
	return &streamNotifier{done: make(chan struct{})}
}

func (n *streamNotifier) start(dir, name string, fire func()) error {
	dev, err := fsevents.DeviceForPath(dir)
	if err != nil {
		return fmt.Errorf("device for %s: %w", dir, err)
	}

	n.stream = &fsevents.EventStream{
		Paths:   []string{dir},
		Latency: streamLatency,
		Device:  dev,
		Flags:   fsevents.FileEvents | fsevents.NoDefer,
	}
	if err := n.stream.Start(); err != nil {
		return fmt.Errorf("event stream for %s: %w", dir, err)
	}

	n.wg.Add(1)
	go n.run(name, fire)
	return nil
}

func (n *streamNotifier) run(name string, fire func()) {
	defer n.wg.Done()

	for {
		select {
		case <-n.done:
			return
		case events, ok := <-n.stream.Events:
			if !ok {
				return
			}
			for _, ev := range events {
				if filepath.Base(ev.Path) == name {
					fire()
					break
				}
			}
		}
	}
}

func (n *streamNotifier) stop() {
	n.stopOnce.Do(func() {
		close(n.done)
		n.stream.Stop()
		n.wg.Wait()
	})
}
