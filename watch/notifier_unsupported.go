//go:build !linux && !windows && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package watch

const nativeSupported = false

// newNativeNotifier returns nil on platforms without a native backend;
// the watcher goes straight to polling.
func newNativeNotifier(Config, Logger) notifier {
	return nil
}
