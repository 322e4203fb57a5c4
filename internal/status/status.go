// Package status provides a thread-safe status tracker for the lightgun daemon.
// It is written by the poll loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/lightgun/internal/clock"
	"github.com/sweeney/lightgun/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	LongPressMs int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Pressed       bool
	LED           logic.Level
	BlinkHighMs   clock.Millis
	BlinkLowMs    clock.Millis
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			LED:       logic.Low,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the trigger state, LED level, and event counts.
// Called from the poll loop on every tick.
func (t *Tracker) Update(pressed bool, led logic.Level, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Pressed = pressed
	t.snap.LED = led
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetBlink records the blink periods currently in use.
func (t *Tracker) SetBlink(high, low clock.Millis) {
	t.mu.Lock()
	t.snap.BlinkHighMs = high
	t.snap.BlinkLowMs = low
	t.mu.Unlock()
}

// SetConfig replaces the displayed config, e.g. after a reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
