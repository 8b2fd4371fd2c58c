//go:build freebsd || openbsd || netbsd || dragonfly

package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const nativeSupported = true

// kqueueNotifier watches the parent directory with fsnotify's kqueue
// backend. kqueue holds an open descriptor per watched node, so only
// the directory is registered and events are filtered by name.
type kqueueNotifier struct {
	log Logger
	fw  *fsnotify.Watcher

	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newNativeNotifier(_ Config, log Logger) notifier {
	return &kqueueNotifier{log: log}
}

func (n *kqueueNotifier) start(dir, name string, fire func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("kqueue watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	n.fw = fw

	n.wg.Add(1)
	go n.run(name, fire)
	return nil
}

func (n *kqueueNotifier) run(name string, fire func()) {
	defer n.wg.Done()

	for {
		select {
		case ev, ok := <-n.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				fire()
			}
		case err, ok := <-n.fw.Errors:
			if !ok {
				return
			}
			n.log.Warnf("watch: kqueue error: %v", err)
		}
	}
}

func (n *kqueueNotifier) stop() {
	n.stopOnce.Do(func() {
		n.fw.Close()
		n.wg.Wait()
	})
}
