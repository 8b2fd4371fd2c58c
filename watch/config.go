package watch

// Buffer limits for the directory-change backend. Other backends ignore
// them.
const (
	minBufferSize     = 4 * 1024
	defaultBufferSize = 64 * 1024
	defaultMaxBuffer  = 1024 * 1024
)

// Config holds event buffer settings for backends that read change
// records into a caller-sized buffer (Windows). A buffer too small for a
// burst of records overflows; the policy below decides what happens next.
type Config struct {
	// BufferSize is the initial change-record buffer size in bytes.
	BufferSize int

	// AutoGrowBuffer doubles the buffer on overflow, up to
	// MaxBufferSize.
	AutoGrowBuffer bool

	// MaxBufferSize caps buffer growth.
	MaxBufferSize int

	// OnOverflow is called after an overflow with the old and new
	// buffer sizes. newSize 0 means the buffer could not grow and
	// events were lost.
	OnOverflow func(oldSize, newSize int)
}

// DefaultConfig returns the default buffer settings: 64 KiB, growing to
// 1 MiB.
func DefaultConfig() Config {
	return Config{
		BufferSize:     defaultBufferSize,
		AutoGrowBuffer: true,
		MaxBufferSize:  defaultMaxBuffer,
	}
}

// normalize clamps sizes so minBufferSize <= BufferSize <= MaxBufferSize
// always holds.
func (c Config) normalize() Config {
	if c.BufferSize < minBufferSize {
		c.BufferSize = minBufferSize
	}
	if c.MaxBufferSize < c.BufferSize {
		c.MaxBufferSize = c.BufferSize
	}
	return c
}

// grow applies the overflow policy to the current buffer size and
// returns the size the next read should use. When the buffer is at its
// cap, or growth is disabled, the size is unchanged and OnOverflow
// reports lost events with newSize 0.
func (c Config) grow(current int) int {
	if c.AutoGrowBuffer && current < c.MaxBufferSize {
		next := current * 2
		if next > c.MaxBufferSize {
			next = c.MaxBufferSize
		}
		if c.OnOverflow != nil {
			c.OnOverflow(current, next)
		}
		return next
	}
	if c.OnOverflow != nil {
		c.OnOverflow(current, 0)
	}
	return current
}
