package livetune

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf})

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("low-level messages emitted: %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Errorf("warn/error missing: %q", out)
	}
	if !strings.Contains(out, "[WARN]") {
		t.Errorf("level tag missing: %q", out)
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelError, Output: &buf})

	log.Warnf("first")
	log.SetLevel(LogLevelDebug)
	log.Warnf("second")

	out := buf.String()
	if strings.Contains(out, "first") {
		t.Errorf("message below level emitted: %q", out)
	}
	if !strings.Contains(out, "second") {
		t.Errorf("message after SetLevel missing: %q", out)
	}
}

func TestNullLoggerSilent(t *testing.T) {
	// Must not panic and must stay silent.
	NullLogger.Errorf("nothing to see")

	var nilLogger *Logger
	nilLogger.Warnf("also fine")
}

func TestSetLoggerProcessWide(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	var buf bytes.Buffer
	SetLogger(NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf}))
	GetLogger().Infof("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("process-wide logger not used: %q", buf.String())
	}

	SetLogger(nil)
	if GetLogger() != NullLogger {
		t.Error("SetLogger(nil) did not restore NullLogger")
	}
}

func TestLoggerConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Infof("line")
			}
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "line"); got != 400 {
		t.Errorf("wrote %d lines, want 400", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
