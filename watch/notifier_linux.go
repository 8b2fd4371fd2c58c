//go:build linux

package watch

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const nativeSupported = true

// settleDelay runs between a create or moved-to event and the fire.
// A rename-into-place arrives as two events in quick succession and the
// data may not be flushed yet.
const settleDelay = 10 * time.Millisecond

// inotifyMask covers every way an editor can touch the watched file:
// in-place writes, atomic renames, and delete-and-recreate.
const inotifyMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_CREATE |
	unix.IN_MOVED_TO | unix.IN_DELETE | unix.IN_MOVED_FROM

// inodeNotifier watches the parent directory with inotify. A self-pipe
// lets stop interrupt the poll immediately.
type inodeNotifier struct {
	fd        int
	wd        int
	pipeRead  int
	pipeWrite int

	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newNativeNotifier(Config, Logger) notifier {
	return &inodeNotifier{fd: -1, wd: -1, pipeRead: -1, pipeWrite: -1}
}

func (n *inodeNotifier) start(dir, name string, fire func()) error {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("inotify init: %w", err)
	}

	wd, err := unix.InotifyAddWatch(fd, dir, inotifyMask)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("inotify watch %s: %w", dir, err)
	}

	var pipeFds [2]int
	if err := unix.Pipe2(pipeFds[:], unix.O_CLOEXEC); err != nil {
		unix.InotifyRmWatch(fd, uint32(wd))
		unix.Close(fd)
		return fmt.Errorf("self-pipe: %w", err)
	}

	n.fd = fd
	n.wd = wd
	n.pipeRead = pipeFds[0]
	n.pipeWrite = pipeFds[1]

	n.wg.Add(1)
	go n.run(name, fire)
	return nil
}

func (n *inodeNotifier) run(name string, fire func()) {
	defer n.wg.Done()

	buf := make([]byte, 64*1024)
	fds := []unix.PollFd{
		{Fd: int32(n.fd), Events: unix.POLLIN},
		{Fd: int32(n.pipeRead), Events: unix.POLLIN},
	}

	for {
		fds[0].Revents = 0
		fds[1].Revents = 0

		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if fds[1].Revents != 0 {
			// stop wrote to the self-pipe.
			return
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		nr, err := unix.Read(n.fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				continue
			}
			return
		}

		if matchInotifyEvents(buf[:nr], name) {
			fire()
		}
	}
}

// matchInotifyEvents scans raw inotify records for events naming the
// watched file. Create and moved-to get the settle delay before the
// batch reports a change.
func matchInotifyEvents(buf []byte, name string) bool {
	notify := false
	settle := false

	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		ev := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(ev.Len)
		end := offset + unix.SizeofInotifyEvent + nameLen
		if end > len(buf) {
			break
		}

		if nameLen > 0 {
			raw := buf[offset+unix.SizeofInotifyEvent : end]
			evName := strings.TrimRight(string(raw), "\x00")
			if evName == name {
				notify = true
				if ev.Mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
					settle = true
				}
			}
		}
		offset = end
	}

	if settle {
		time.Sleep(settleDelay)
	}
	return notify
}

func (n *inodeNotifier) stop() {
	n.stopOnce.Do(func() {
		unix.Write(n.pipeWrite, []byte{'x'})
		n.wg.Wait()

		if n.wd >= 0 {
			unix.InotifyRmWatch(n.fd, uint32(n.wd))
		}
		unix.Close(n.fd)
		unix.Close(n.pipeRead)
		unix.Close(n.pipeWrite)
	})
}
