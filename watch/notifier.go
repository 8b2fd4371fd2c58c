package watch

// notifier is the per-platform backend contract. start watches dir and
// calls fire for every event that might concern name; backends with
// event names filter before firing, backends without fire
// conservatively. stop is idempotent and blocks until the backend's
// worker goroutine has exited.
type notifier interface {
	start(dir, name string, fire func()) error
	stop()
}
