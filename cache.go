package livetune

import "time"

// cacheValidity is the window inside which an unchanged modify time
// short-circuits the update pipeline. Native backends can fire several
// events for one logical save; this absorbs the burst.
const cacheValidity = 10 * time.Millisecond

// modTimeCache remembers the last observed modify time so duplicate
// wake-ups within the validity window skip the read entirely.
type modTimeCache struct {
	modTime   time.Time
	checkedAt time.Time
	exists    bool
}

// fresh reports whether the current observation matches a still-valid
// cache entry, meaning no update work is needed.
func (c *modTimeCache) fresh(now, modTime time.Time) bool {
	return c.exists &&
		now.Sub(c.checkedAt) < cacheValidity &&
		c.modTime.Equal(modTime)
}

// note records an observation. Called after every read attempt, success
// or not, so failing updates are coalesced the same way.
func (c *modTimeCache) note(now, modTime time.Time) {
	c.modTime = modTime
	c.checkedAt = now
	c.exists = true
}

// invalidate forgets the cached observation; the next trigger re-reads.
func (c *modTimeCache) invalidate() {
	*c = modTimeCache{}
}
