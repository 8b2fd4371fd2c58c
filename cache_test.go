package livetune

import (
	"testing"
	"time"
)

func TestCacheFreshWithinWindow(t *testing.T) {
	var c modTimeCache
	now := time.Now()
	mod := now.Add(-time.Minute)

	if c.fresh(now, mod) {
		t.Error("empty cache reported fresh")
	}

	c.note(now, mod)
	if !c.fresh(now.Add(5*time.Millisecond), mod) {
		t.Error("cache not fresh 5ms after note with equal modtime")
	}
}

func TestCacheExpiresAfterWindow(t *testing.T) {
	var c modTimeCache
	now := time.Now()
	mod := now.Add(-time.Minute)

	c.note(now, mod)
	if c.fresh(now.Add(cacheValidity), mod) {
		t.Error("cache fresh at the window boundary, want expired")
	}
}

func TestCacheModTimeMismatch(t *testing.T) {
	var c modTimeCache
	now := time.Now()
	mod := now.Add(-time.Minute)

	c.note(now, mod)
	if c.fresh(now.Add(time.Millisecond), mod.Add(time.Second)) {
		t.Error("cache fresh with different modtime")
	}
}

func TestCacheInvalidate(t *testing.T) {
	var c modTimeCache
	now := time.Now()
	mod := now.Add(-time.Minute)

	c.note(now, mod)
	c.invalidate()
	if c.fresh(now.Add(time.Millisecond), mod) {
		t.Error("invalidated cache reported fresh")
	}
}
