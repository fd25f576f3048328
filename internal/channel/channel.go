// Package channel implements the single-slot, thread-safe byte buffer
// Controller and Plant use to exchange encoded frames: most-recent-wins,
// no queueing, guarded by a mutex with an atomic open/closed flag.
package channel

import (
	"sync"
	"sync/atomic"
)

// Channel is a single-slot byte buffer. The zero value is closed and
// empty, ready to use.
type Channel struct {
	mu     sync.Mutex
	slot   []byte
	opened atomic.Bool
}

// New returns a closed, empty Channel.
func New() *Channel {
	return &Channel{}
}

// Open marks the channel open for business.
func (c *Channel) Open() { c.opened.Store(true) }

// Close marks the channel closed; Send/Receive remain safe to call but a
// peer polling IsOpen will observe the channel as gone.
func (c *Channel) Close() { c.opened.Store(false) }

// IsOpen reports whether the channel is currently open.
func (c *Channel) IsOpen() bool { return c.opened.Load() }

// Send copies b into the slot under mutual exclusion, replacing whatever
// was there. A reader that doesn't poll in time silently loses the
// overwritten frame; there is no queueing.
func (c *Channel) Send(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = append(c.slot[:0], b...)
}

// Receive returns a copy of the current slot contents. Before the first
// Send, it returns nil (the zero-vector sentinel once decoded).
func (c *Channel) Receive() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slot) == 0 {
		return nil
	}
	out := make([]byte, len(c.slot))
	copy(out, c.slot)
	return out
}
