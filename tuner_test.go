package livetune

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/livetune/watch"
)

func newTunerAt[T Scalar](t *testing.T, content string) (*Tuner[T], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "value.txt")
	if content != "" {
		rewriteFile(t, path, content)
	}
	tun, err := NewTuner[T](path)
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	t.Cleanup(tun.Close)
	return tun, path
}

func TestTunerCreatesTemplate(t *testing.T) {
	tun, path := newTunerAt[float64](t, "")

	if _, ok := tun.TryGet(); ok {
		t.Fatal("TryGet() ok = true on fresh template, want false")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template was not created: %v", err)
	}
	info := tun.LastError()
	if info.Kind != KindParse {
		t.Errorf("LastError().Kind = %v, want KindParse", info.Kind)
	}
	if !strings.Contains(info.Message, "No valid value found") {
		t.Errorf("LastError().Message = %q, want no-valid-value wording", info.Message)
	}
}

func TestTunerReadsFirstParsableLine(t *testing.T) {
	tun, _ := newTunerAt[float64](t, "# tuning value\nnot a number\n2.5\n99\n")

	v, ok := tun.TryGet()
	if !ok {
		t.Fatalf("TryGet() ok = false, want true; last error %v", tun.LastError())
	}
	if v != 2.5 {
		t.Errorf("TryGet() = %v, want 2.5 (first parsable line)", v)
	}
	if tun.HasError() {
		t.Errorf("HasError() = true after success, last = %v", tun.LastError())
	}
}

func TestTunerRecordsLastBadLine(t *testing.T) {
	tun, _ := newTunerAt[int](t, "# comment\nfoo\nbar\n")

	if _, ok := tun.TryGet(); ok {
		t.Fatal("TryGet() ok = true for garbage file, want false")
	}
	info := tun.LastError()
	if info.Kind != KindParse {
		t.Errorf("LastError().Kind = %v, want KindParse", info.Kind)
	}
	if !strings.Contains(info.Message, "'bar'") {
		t.Errorf("LastError().Message = %q, want the last failed line 'bar'", info.Message)
	}
}

func TestTunerStaleValueSurvivesCorruptRewrite(t *testing.T) {
	tun, path := newTunerAt[float64](t, "2.5\n")

	if v, ok := tun.TryGet(); !ok || v != 2.5 {
		t.Fatalf("TryGet() = %v, %v, want 2.5, true", v, ok)
	}

	rewriteFile(t, path, "oops\n")
	v, ok := tun.TryGet()
	if !ok {
		t.Fatal("TryGet() ok = false after corrupt rewrite, want stale true")
	}
	if v != 2.5 {
		t.Errorf("TryGet() = %v after corrupt rewrite, want stale 2.5", v)
	}
	if !tun.HasError() {
		t.Error("HasError() = false after corrupt rewrite, want true")
	}
}

func TestTunerCacheCoalescesReads(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/p/value.txt", []byte("42\n"))

	tun, err := NewTuner[int]("/p/value.txt")
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	defer tun.Close()
	tun.fsys = fsys

	if v, ok := tun.TryGet(); !ok || v != 42 {
		t.Fatalf("TryGet() = %v, %v, want 42, true", v, ok)
	}
	if fsys.reads() != 1 {
		t.Fatalf("reads = %d, want 1", fsys.reads())
	}

	// Unchanged file, immediate retry: served from the cache.
	tun.TryGet()
	if fsys.reads() != 1 {
		t.Errorf("reads = %d after cached TryGet, want 1", fsys.reads())
	}

	// A rewrite bumps the modtime and forces a re-read.
	fsys.put("/p/value.txt", []byte("43\n"))
	if v, ok := tun.TryGet(); !ok || v != 43 {
		t.Errorf("TryGet() = %v, %v after rewrite, want 43, true", v, ok)
	}
	if fsys.reads() != 2 {
		t.Errorf("reads = %d after rewrite, want 2", fsys.reads())
	}
}

func TestTunerReadFailuresNotCached(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/p/value.txt", []byte("42\n"))

	tun, err := NewTuner[int]("/p/value.txt")
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	defer tun.Close()
	tun.fsys = fsys
	tun.SetRetryPolicy(RetryPolicy{})

	tun.TryGet()
	fsys.remove("/p/value.txt")

	// Each failing read goes back to the file instead of coalescing,
	// and the stale value stays served.
	for i := 0; i < 2; i++ {
		if v, ok := tun.TryGet(); !ok || v != 42 {
			t.Fatalf("TryGet() = %v, %v after removal, want stale 42, true", v, ok)
		}
	}
	if fsys.reads() != 3 {
		t.Errorf("reads = %d, want 3 (one success, two uncached failures)", fsys.reads())
	}
	if got := tun.LastError().Kind; got != KindNotFound {
		t.Errorf("LastError().Kind = %v, want KindNotFound", got)
	}
}

func TestTunerResetForcesReread(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/p/value.txt", []byte("42\n"))

	tun, err := NewTuner[int]("/p/value.txt")
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	defer tun.Close()
	tun.fsys = fsys

	tun.TryGet()
	tun.Reset()
	if v, ok := tun.TryGet(); !ok || v != 42 {
		t.Fatalf("TryGet() = %v, %v after Reset, want 42, true", v, ok)
	}
	if fsys.reads() != 2 {
		t.Errorf("reads = %d after Reset, want 2", fsys.reads())
	}
}

func TestTunerGetBlocksUntilValue(t *testing.T) {
	tun, path := newTunerAt[float64](t, "waiting for a value\n")

	result := make(chan float64, 1)
	go func() { result <- tun.Get() }()

	// Let the getter settle into its wait before supplying the value.
	time.Sleep(150 * time.Millisecond)
	rewriteFile(t, path, "3.14\n")

	select {
	case v := <-result:
		if v != 3.14 {
			t.Errorf("Get() = %v, want 3.14", v)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Get() did not return after the value was written")
	}
}

func TestTunerGetTimeoutExpires(t *testing.T) {
	tun, _ := newTunerAt[int](t, "never a number\n")
	tun.SetEventDriven(false)

	start := time.Now()
	v, err := tun.GetTimeout(250 * time.Millisecond)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("GetTimeout() succeeded with no valid value, want timeout")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("GetTimeout() error = %v, want ErrTimeout", err)
	}
	if KindOf(err) != KindTimeout {
		t.Errorf("KindOf(err) = %v, want KindTimeout", KindOf(err))
	}
	if v != 0 {
		t.Errorf("GetTimeout() value = %v, want zero", v)
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("returned after %v, want at least the 250ms deadline", elapsed)
	}
}

func TestTunerGetTimeoutImmediateValue(t *testing.T) {
	tun, _ := newTunerAt[int](t, "7\n")

	v, err := tun.GetTimeout(time.Second)
	if err != nil {
		t.Fatalf("GetTimeout() error = %v, want nil", err)
	}
	if v != 7 {
		t.Errorf("GetTimeout() = %v, want 7", v)
	}
}

func TestTunerGetAsync(t *testing.T) {
	tun, _ := newTunerAt[int](t, "7\n")

	// A nil callback is ignored.
	tun.GetAsync(nil)

	ch := make(chan int, 1)
	tun.GetAsync(func(v int) { ch <- v })

	select {
	case v := <-ch:
		if v != 7 {
			t.Errorf("GetAsync delivered %v, want 7", v)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("GetAsync callback never ran")
	}
}

func TestTunerStringStripsQuotes(t *testing.T) {
	tun, _ := newTunerAt[string](t, "# comment\n\"hello world\"\n")

	v, ok := tun.TryGet()
	if !ok {
		t.Fatalf("TryGet() ok = false, want true")
	}
	if v != "hello world" {
		t.Errorf("TryGet() = %q, want 'hello world'", v)
	}
}

func TestTunerSetFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	rewriteFile(t, first, "1\n")
	rewriteFile(t, second, "2\n")

	tun, err := NewTuner[int](first)
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	defer tun.Close()

	if v, _ := tun.TryGet(); v != 1 {
		t.Fatalf("TryGet() = %v, want 1", v)
	}

	if err := tun.SetFile(second); err != nil {
		t.Fatalf("SetFile failed: %v", err)
	}
	if tun.File() != second {
		t.Errorf("File() = %q, want %q", tun.File(), second)
	}
	if v, _ := tun.TryGet(); v != 2 {
		t.Errorf("TryGet() = %v after SetFile, want 2", v)
	}
}

func TestTunerEventDrivenToggle(t *testing.T) {
	tun, _ := newTunerAt[int](t, "1\n")

	if !tun.EventDriven() {
		t.Error("EventDriven() = false on a new tuner, want true")
	}
	tun.SetEventDriven(false)
	if tun.EventDriven() {
		t.Error("EventDriven() = true after SetEventDriven(false)")
	}
}

func TestTunerConstructionOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value.txt")
	cfg := watch.Config{BufferSize: 8192, AutoGrowBuffer: false, MaxBufferSize: 8192}

	tun, err := NewTuner[int](path,
		WithTunerRetryPolicy(RetryPolicy{}),
		WithTunerWatchConfig(cfg),
		WithTunerPolling(),
	)
	if err != nil {
		t.Fatalf("NewTuner failed: %v", err)
	}
	t.Cleanup(tun.Close)

	if got := tun.RetryPolicy(); got.MaxRetries != 0 {
		t.Errorf("RetryPolicy().MaxRetries = %d, want 0", got.MaxRetries)
	}
	if got := tun.WatchConfig(); got.BufferSize != 8192 || got.AutoGrowBuffer {
		t.Errorf("WatchConfig() = %+v, want the injected config", got)
	}
	if tun.EventDriven() {
		t.Error("EventDriven() = true with WithTunerPolling, want false")
	}
}
