// Package watch delivers change notifications for a single file.
//
// The watcher monitors the file's parent directory, because editors
// commonly replace files through rename or delete-and-create rather than
// writing in place. Events are filtered down to the watched filename and
// surfaced through a consumable change flag, a bounded blocking wait, and
// an optional immediate callback.
//
// # Backends
//
// One native backend per platform, selected at Start:
//
//	Linux                            inotify on the parent directory
//	Windows                          ReadDirectoryChanges records
//	macOS                            FSEvents stream
//	FreeBSD/OpenBSD/NetBSD/Dragonfly kqueue (via fsnotify)
//	everything else                  adaptive modtime polling
//
// A native backend that fails to start is not an error: the watcher logs
// a warning and degrades to the polling backend, which is always
// available. Native() reports which path is active.
//
// # Usage
//
//	w, err := watch.New("/etc/app/params.txt")
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	for w.WaitForChange(time.Second) {
//	    reload()
//	}
//
// WaitForChange blocks only its caller. Stop is idempotent, wakes every
// blocked waiter, and returns only after the worker goroutine has
// exited, so the watcher can be restarted or dropped immediately.
package watch
