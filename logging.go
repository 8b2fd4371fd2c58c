package livetune

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel represents the severity of a diagnostic message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown strings parse
// as LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is the diagnostics sink for the package. The zero value is not
// usable; construct with NewLogger or use NullLogger.
//
// Watcher fallbacks, per-key parse failures, and re-entrant call rejections
// are reported here. Nothing in the package treats a diagnostic as fatal.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	output   io.Writer
	prefix   string
	disabled bool
}

// LoggerConfig configures a Logger.
type LoggerConfig struct {
	// Level is the minimum level to emit.
	Level LogLevel
	// Output is where lines are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to every line.
	Prefix string
}

// NewLogger creates a logger writing to cfg.Output (stderr when nil).
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "livetune"
	}
	return &Logger{
		level:  cfg.Level,
		output: cfg.Output,
		prefix: cfg.Prefix,
	}
}

// NullLogger discards all output. It is the process-wide default: the
// package is silent unless a real logger is installed with SetLogger.
var NullLogger = &Logger{disabled: true}

// SetLevel sets the minimum level to emit.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.log(LogLevelInfo, format, args...)
}

// Warnf logs a warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.log(LogLevelWarn, format, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled || l.output == nil || level < l.level {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	timestamp := time.Now().Format("2006-01-02T15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, level, l.prefix, msg)
	_, _ = l.output.Write([]byte(line))
}

// packageLogger holds the process-wide logger. Defaults to NullLogger.
var packageLogger atomic.Pointer[Logger]

func init() {
	packageLogger.Store(NullLogger)
}

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	return packageLogger.Load()
}

// SetLogger replaces the process-wide logger. Passing nil restores
// NullLogger. Safe to call from any goroutine at any time.
func SetLogger(l *Logger) {
	if l == nil {
		l = NullLogger
	}
	packageLogger.Store(l)
}
