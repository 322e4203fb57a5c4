package logic

import "github.com/sweeney/lightgun/internal/clock"

// Latch records whether a timeout has elapsed since the last reset. Once
// passed it stays passed until Reset, regardless of later elapsed values.
type Latch struct {
	timeout clock.Millis
	passed  bool
}

// NewLatch creates an unpassed latch for the given timeout.
func NewLatch(timeout clock.Millis) Latch {
	return Latch{timeout: timeout}
}

// Poll marks the latch passed if elapsed has reached the timeout.
func (l *Latch) Poll(elapsed clock.Millis) {
	if !l.passed && elapsed >= l.timeout {
		l.passed = true
	}
}

// Passed reports whether the timeout has elapsed since the last reset.
func (l *Latch) Passed() bool {
	return l.passed
}

// Reset clears the latch.
func (l *Latch) Reset() {
	l.passed = false
}

// Timeout returns the configured timeout.
func (l *Latch) Timeout() clock.Millis {
	return l.timeout
}
