// Package clock provides the millisecond time source consumed by the polling
// components in internal/logic. Time is always injected; nothing in this
// package reads the wall clock on its own unless asked to.
package clock

import (
	"sync"
	"time"
)

// Millis is a millisecond count since an arbitrary epoch. It is 32 bits wide
// and wraps after roughly 49.7 days, like the firmware millis() counter.
type Millis uint32

// Func returns the current time in milliseconds. Successive calls must be
// non-decreasing modulo 2^32.
type Func func() Millis

// Since returns now - then using unsigned arithmetic, so the result stays
// correct when the counter wraps between the two readings.
func Since(now, then Millis) Millis {
	return now - then
}

// FromTime converts t to milliseconds elapsed since start, truncated to 32 bits.
func FromTime(start, t time.Time) Millis {
	return Millis(uint32(t.Sub(start).Milliseconds()))
}

// Manual is a clock that only moves when told to. The poll loop sets it once
// per tick so every component sees the same instant.
type Manual struct {
	mu  sync.Mutex
	now Millis
}

// NewManual creates a Manual clock reading start.
func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (m *Manual) Now() Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t. Wrapping past 2^32 is allowed.
func (m *Manual) Set(t Millis) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new reading.
func (m *Manual) Advance(d Millis) Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
	return m.now
}

// Func returns m.Now as a Func.
func (m *Manual) Func() Func {
	return m.Now
}
