//go:build windows

package watch

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const nativeSupported = true

// notifyFilter selects record types for the watched directory: content
// writes, size changes, and renames (editors replace files by renaming
// a temp file into place).
const notifyFilter = windows.FILE_NOTIFY_CHANGE_LAST_WRITE |
	windows.FILE_NOTIFY_CHANGE_SIZE |
	windows.FILE_NOTIFY_CHANGE_FILE_NAME

// dirChangeNotifier reads change records from a synchronous
// ReadDirectoryChanges loop on a directory handle. Overflowed buffers
// follow the Config growth policy.
type dirChangeNotifier struct {
	cfg Config
	log Logger

	handle windows.Handle
	done   chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newNativeNotifier(cfg Config, log Logger) notifier {
	return &dirChangeNotifier{
		cfg:    cfg,
		log:    log,
		handle: windows.InvalidHandle,
		done:   make(chan struct{}),
	}
}

func (n *dirChangeNotifier) start(dir, name string, fire func()) error {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.FILE_LIST_DIRECTORY,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return fmt.Errorf("open directory %s: %w", dir, err)
	}

	n.handle = handle
	n.wg.Add(1)
	go n.run(name, fire)
	return nil
}

func (n *dirChangeNotifier) run(name string, fire func()) {
	defer n.wg.Done()

	buf := make([]byte, n.cfg.BufferSize)

	for {
		select {
		case <-n.done:
			return
		default:
		}

		var retlen uint32
		err := windows.ReadDirectoryChanges(
			n.handle,
			&buf[0],
			uint32(len(buf)),
			false, // the watched file sits directly in dir
			notifyFilter,
			&retlen,
			nil,
			0,
		)
		if err != nil {
			if err == windows.ERROR_NOTIFY_ENUM_DIR {
				buf = n.resize(buf)
				fire()
				continue
			}
			// Cancelled or the handle was closed during stop.
			return
		}

		if retlen == 0 {
			// Success with no records: the records did not fit.
			buf = n.resize(buf)
			fire()
			continue
		}

		if matchChangeRecords(buf[:retlen], name) {
			fire()
		}
	}
}

// resize applies the growth policy after an overflow. Events in the
// overflowed window are already lost; the caller fires a conservative
// change so the file is re-checked.
func (n *dirChangeNotifier) resize(buf []byte) []byte {
	next := n.cfg.grow(len(buf))
	if next == len(buf) {
		n.log.Warnf("watch: change buffer overflow at %d bytes, events lost", len(buf))
		return buf
	}
	n.log.Debugf("watch: change buffer grown %d -> %d bytes", len(buf), next)
	return make([]byte, next)
}

// matchChangeRecords walks FILE_NOTIFY_INFORMATION records looking for
// the watched filename. Layout per record: NextEntryOffset, Action,
// FileNameLength in bytes, then UTF-16 name. Comparison is
// case-insensitive to match Windows filesystem semantics.
func matchChangeRecords(buf []byte, name string) bool {
	for len(buf) >= 12 {
		next := *(*uint32)(unsafe.Pointer(&buf[0]))
		nameLen := *(*uint32)(unsafe.Pointer(&buf[8]))

		if nameLen > 0 && int(12+nameLen) <= len(buf) {
			changed := windows.UTF16ToString((*[1 << 15]uint16)(unsafe.Pointer(&buf[12]))[: nameLen/2 : nameLen/2])
			if strings.EqualFold(changed, name) {
				return true
			}
		}

		if next == 0 || int(next) > len(buf) {
			break
		}
		buf = buf[next:]
	}
	return false
}

func (n *dirChangeNotifier) stop() {
	n.stopOnce.Do(func() {
		close(n.done)
		windows.CancelIoEx(n.handle, nil)
		windows.CloseHandle(n.handle)
		n.wg.Wait()
		n.handle = windows.InvalidHandle
	})
}
