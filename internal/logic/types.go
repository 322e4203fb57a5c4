// Package logic contains the pure polling components of the light gun: the
// indicator Blinker and the trigger Debouncer.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected through a clock.Func.
package logic

import (
	"errors"
	"time"

	"github.com/sweeney/lightgun/internal/clock"
)

// ErrInvalidPeriod is returned by Blinker.SetPeriod when both periods are zero.
var ErrInvalidPeriod = errors.New("blink cycle must be longer than 0ms")

// Level is a binary output level.
type Level string

const (
	High Level = "HIGH"
	Low  Level = "LOW"
)

// Bool reports whether l is High.
func (l Level) Bool() bool {
	return l == High
}

// LevelOf converts a boolean to a Level.
func LevelOf(b bool) Level {
	if b {
		return High
	}
	return Low
}

// EventType names a debounced trigger transition.
type EventType string

const (
	EventPressed      EventType = "PRESSED"
	EventReleased     EventType = "RELEASED"
	EventReleasedLong EventType = "RELEASED_LONG"
)

// Event is a trigger transition to be reported.
type Event struct {
	Timestamp time.Time
	Millis    clock.Millis
	Type      EventType
	// Pressed is the debounced state after the transition.
	Pressed bool
}

// Signals is the output of one Debouncer tick.
type Signals struct {
	// State is the debounced button state (true = pressed).
	State bool
	// Pressed, Released and ReleasedLongPress are true only on the tick
	// the corresponding transition is accepted.
	Pressed           bool
	Released          bool
	ReleasedLongPress bool
}

// Events translates the pulses in s into reportable events. A long release
// produces a single RELEASED_LONG event rather than RELEASED followed by
// RELEASED_LONG.
func (s Signals) Events(ts time.Time, now clock.Millis) []Event {
	var typ EventType
	switch {
	case s.Pressed:
		typ = EventPressed
	case s.ReleasedLongPress:
		typ = EventReleasedLong
	case s.Released:
		typ = EventReleased
	default:
		return nil
	}
	return []Event{{Timestamp: ts, Millis: now, Type: typ, Pressed: s.State}}
}

// EventCounts tracks the number of accepted transitions since startup.
// Releases counts every release, long ones included.
type EventCounts struct {
	Presses      int
	Releases     int
	LongReleases int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
