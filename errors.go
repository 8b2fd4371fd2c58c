package livetune

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned by file and watcher operations. Use errors.Is to match
// them against errors produced anywhere in the package.
var (
	// ErrFileNotFound indicates the watched file doesn't exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileAccessDenied indicates the file could not be stat'd or opened.
	ErrFileAccessDenied = errors.New("file access denied")

	// ErrFileEmpty indicates the file exists but holds no content.
	ErrFileEmpty = errors.New("file is empty")

	// ErrFileRead indicates an I/O fault while reading the file.
	ErrFileRead = errors.New("file read failed")

	// ErrParse indicates the file content could not be parsed.
	ErrParse = errors.New("parse failed")

	// ErrInvalidFormat indicates an operation is not supported for the
	// file's format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrTimeout indicates a bounded wait elapsed without a value.
	ErrTimeout = errors.New("timed out")

	// ErrWatcher indicates a file watcher failure.
	ErrWatcher = errors.New("watcher error")
)

// ErrorKind classifies a failure for last-error reporting.
type ErrorKind uint8

const (
	// KindNone is the sentinel "no error" state.
	KindNone ErrorKind = iota
	// KindNotFound indicates the file doesn't exist.
	KindNotFound
	// KindAccessDenied indicates a stat or open failure.
	KindAccessDenied
	// KindEmpty indicates a zero-length file or read.
	KindEmpty
	// KindRead indicates an I/O fault during read.
	KindRead
	// KindParse indicates unparseable content.
	KindParse
	// KindInvalidFormat indicates an unsupported format operation.
	KindInvalidFormat
	// KindTimeout indicates an elapsed bounded wait.
	KindTimeout
	// KindWatcher indicates a watcher failure.
	KindWatcher
	// KindUnknown indicates an unclassified failure.
	KindUnknown
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "file_not_found"
	case KindAccessDenied:
		return "file_access_denied"
	case KindEmpty:
		return "file_empty"
	case KindRead:
		return "file_read_error"
	case KindParse:
		return "parse_error"
	case KindInvalidFormat:
		return "invalid_format"
	case KindTimeout:
		return "timeout"
	case KindWatcher:
		return "watcher_error"
	default:
		return "unknown"
	}
}

// sentinel returns the matching package-level error, or nil for KindNone.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrFileNotFound
	case KindAccessDenied:
		return ErrFileAccessDenied
	case KindEmpty:
		return ErrFileEmpty
	case KindRead:
		return ErrFileRead
	case KindParse:
		return ErrParse
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindTimeout:
		return ErrTimeout
	case KindWatcher:
		return ErrWatcher
	default:
		return nil
	}
}

// Error is a classified failure tied to a file path.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Path is the file the operation was acting on.
	Path string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// newError builds an *Error for path with the given kind.
func newError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf extracts the ErrorKind from err. It returns KindNone for nil and
// KindUnknown for errors not produced by this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrorInfo is a point-in-time record of a failure, retained as the
// orchestrator's last-error state.
type ErrorInfo struct {
	// Kind classifies the failure; KindNone means no error.
	Kind ErrorKind
	// Message is the human-readable description.
	Message string
	// Path is the file involved.
	Path string
	// Time is when the failure was observed.
	Time time.Time
}

// HasError reports whether the info records an actual failure.
func (i ErrorInfo) HasError() bool {
	return i.Kind != KindNone
}

// String formats the info as "[kind] message (path)".
func (i ErrorInfo) String() string {
	if !i.HasError() {
		return "[none]"
	}
	if i.Path != "" {
		return fmt.Sprintf("[%s] %s (%s)", i.Kind, i.Message, i.Path)
	}
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// errorInfo snapshots err into an ErrorInfo stamped with the current time.
func errorInfo(kind ErrorKind, message, path string) ErrorInfo {
	return ErrorInfo{Kind: kind, Message: message, Path: path, Time: time.Now()}
}

// errorInfoFrom snapshots a package Error into an ErrorInfo.
func errorInfoFrom(err error, path string) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}
	kind := KindOf(err)
	if kind == KindNone {
		kind = KindUnknown
	}
	return ErrorInfo{Kind: kind, Message: err.Error(), Path: path, Time: time.Now()}
}
