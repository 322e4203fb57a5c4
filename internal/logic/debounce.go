package logic

import "github.com/sweeney/lightgun/internal/clock"

// Default debounce timings, in milliseconds.
const (
	DefaultDebounce  clock.Millis = 5
	DefaultLongPress clock.Millis = 1500
)

// DebounceConfig holds the Debouncer timings.
type DebounceConfig struct {
	// Debounce is the minimum time between two accepted transitions.
	Debounce clock.Millis
	// LongPress is how long a press must have been accepted for its
	// release to count as a long press.
	LongPress clock.Millis
}

// DefaultDebounceConfig returns a 5ms debounce with a 1500ms long press.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{Debounce: DefaultDebounce, LongPress: DefaultLongPress}
}

// Debouncer turns a noisy "is pressed" input into a debounced button state
// and one-tick pressed/released/long-release pulses. Call Update once per
// loop tick. Not safe for concurrent use.
type Debouncer struct {
	clk clock.Func

	debounce  Latch
	longPress Latch

	// Time of the last accepted transition. Starts at the clock epoch, so
	// nothing is accepted before Debounce ms have passed on the clock.
	lastChange clock.Millis
	// Last accepted level.
	previous bool

	signals Signals
	counts  EventCounts
}

// NewDebouncer creates a released Debouncer reading time from clk.
func NewDebouncer(cfg DebounceConfig, clk clock.Func) *Debouncer {
	return &Debouncer{
		clk:       clk,
		debounce:  NewLatch(cfg.Debounce),
		longPress: NewLatch(cfg.LongPress),
	}
}

// Update processes one sample. pressed must already be normalized: callers
// reading a pulled-up pin pass !pinHigh. The returned pulses hold only for
// this tick.
func (d *Debouncer) Update(pressed bool) Signals {
	now := d.clk()
	elapsed := clock.Since(now, d.lastChange)

	d.debounce.Poll(elapsed)
	d.longPress.Poll(elapsed)

	d.signals.Pressed = false
	d.signals.Released = false
	d.signals.ReleasedLongPress = false

	if pressed == d.previous || !d.debounce.Passed() {
		return d.signals
	}

	d.signals.State = pressed
	d.signals.Pressed = pressed
	d.signals.Released = !pressed

	if pressed {
		// Restart the long-press window from this press.
		d.longPress.Reset()
		d.counts.Presses++
	} else {
		d.counts.Releases++
		if d.longPress.Passed() {
			d.longPress.Reset()
			d.signals.ReleasedLongPress = true
			d.counts.LongReleases++
		}
	}

	d.debounce.Reset()
	d.lastChange = now
	d.previous = pressed

	return d.signals
}

// Signals returns the result of the most recent Update.
func (d *Debouncer) Signals() Signals {
	return d.signals
}

// IsPressed returns the debounced button state.
func (d *Debouncer) IsPressed() bool {
	return d.signals.State
}

// Config returns the timings the Debouncer was created with.
func (d *Debouncer) Config() DebounceConfig {
	return DebounceConfig{Debounce: d.debounce.Timeout(), LongPress: d.longPress.Timeout()}
}

// Counts returns the number of accepted transitions since creation.
func (d *Debouncer) Counts() EventCounts {
	return d.counts
}
