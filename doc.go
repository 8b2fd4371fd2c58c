// Package livetune reloads tunable parameters from a file while the
// program runs.
//
// A process binds program variables to named parameters in a text, JSON,
// YAML, TOML, or Lua file, edits the file in any editor, and sees the new
// values applied without restarting. File changes are detected by the
// watch subpackage (native OS notification with a polling fallback) and
// applied by a read/parse/diff pipeline with bounded read retries, so the
// hot path is cheap enough to call once per frame.
//
// # Basic Usage
//
// Bind variables, start watching, and poll from the main loop:
//
//	params, err := livetune.New("params.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer params.Close()
//
//	var speed float64
//	var debug bool
//	params.BindFloat64("speed", &speed, 1.0)
//	params.BindBool("debug", &debug, false)
//
//	params.StartWatching()
//	for running {
//	    params.Poll() // applies changes, cheap when nothing changed
//	    step(speed, debug)
//	}
//
// Editing params.txt while the loop runs updates speed and debug in
// place:
//
//	# params.txt
//	speed = 2.5
//	debug = true
//
// # Threading Contract
//
// Update and Poll run the whole pipeline on the calling goroutine. The
// OnUpdate and OnError callbacks and subscription observers therefore run
// on that same goroutine, after the new values are applied. Code that
// polls from its main loop can safely touch main-thread-only resources
// from the callbacks.
//
// Two documented exceptions flip this contract: Tuner.GetAsync invokes
// its callback on a background goroutine, and the WithAsyncNotify option
// moves subscription delivery to a dedicated goroutine. Neither is safe
// for thread-affine code.
//
// Calling a mutating method (Update, Poll, Bind*, Unbind, UnbindAll,
// SetFile, SetFormat, InvalidateCache, ResetToDefaults, StartWatching,
// StopWatching, Save, Close) from inside a callback is skipped with a
// warning to prevent recursion.
//
// # Single Values
//
// Tuner reads one scalar from a file whose first parseable line is the
// value, for quick experiments:
//
//	tuner, _ := livetune.NewTuner[float64]("speed.txt")
//	defer tuner.Close()
//
//	if v, ok := tuner.TryGet(); ok {
//	    speed = v
//	}
//
// # File Formats
//
// The format subpackage parses flat key/value documents. The format is
// detected from the file extension (.json, .yaml, .yml, .toml, .lua;
// everything else is key = value lines) or pinned with WithFormat. A
// missing file is created with a minimal template for its format. Lua
// files are evaluated in a sandbox and are read-only to Save.
//
// # Errors and Diagnostics
//
// Nothing in the package is fatal: read and parse failures keep the
// previous values, land in LastError, and reach the optional OnError
// callback. Sentinel errors (ErrFileNotFound, ErrParse, ...) match with
// errors.Is. Diagnostics go to a process-wide leveled Logger that is
// silent by default; install one with SetLogger to see watcher fallback
// and parse warnings.
package livetune
