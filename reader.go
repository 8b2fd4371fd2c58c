package livetune

import (
	"errors"
	"io/fs"
	"time"

	"github.com/dshills/livetune/internal/textenc"
)

// RetryPolicy controls how file reads are retried while an external editor
// may still be writing. Pure configuration; no hidden state.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// BackoffMultiplier scales the delay after each retry.
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the standard policy: 3 retries starting at
// 5ms with 1.5x backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      5 * time.Millisecond,
		BackoffMultiplier: 1.5,
	}
}

// normalize clamps nonsensical values so the retry loop always terminates.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = 1
	}
	return p
}

// ReadFile reads the file at path, retrying per policy to survive a
// concurrent writer. Attempt 0 runs immediately; each retry waits the
// current delay and then scales it by the backoff multiplier.
//
// Editors commonly truncate-then-write, so a transient empty or partial
// read is expected: the first successful non-empty read wins, and when
// every attempt fails the error from the last attempt is returned, since
// later attempts observe the file after the writer has finished.
//
// Content is normalized to UTF-8 (BOM stripped, UTF-16 transcoded).
func ReadFile(fsys FileSystem, path string, policy RetryPolicy) ([]byte, error) {
	policy = policy.normalize()
	delay := policy.InitialDelay

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
		}

		content, err := readOnce(fsys, path)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ReadFileOS is ReadFile against the host file system.
func ReadFileOS(path string, policy RetryPolicy) ([]byte, error) {
	return ReadFile(OSFS{}, path, policy)
}

// readOnce performs a single read attempt, classifying every failure.
func readOnce(fsys FileSystem, path string) ([]byte, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindNotFound, path, err)
		}
		return nil, newError(KindAccessDenied, path, err)
	}
	if info.Size() == 0 {
		return nil, newError(KindEmpty, path, nil)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, newError(KindRead, path, err)
	}
	// The file was truncated between stat and read.
	if len(data) == 0 {
		return nil, newError(KindEmpty, path, nil)
	}

	normalized, err := textenc.Normalize(data)
	if err != nil {
		return nil, newError(KindRead, path, err)
	}
	return normalized, nil
}
