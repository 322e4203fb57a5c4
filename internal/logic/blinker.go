package logic

import "github.com/sweeney/lightgun/internal/clock"

// Default blink periods, in milliseconds.
const (
	DefaultHighPeriod clock.Millis = 500
	DefaultLowPeriod  clock.Millis = 500
)

// Blinker derives a HIGH/LOW duty-cycle level from the clock. The level is
// High for the first highPeriod ms of every cycle and Low for the rest.
type Blinker struct {
	clk   clock.Func
	high  clock.Millis
	low   clock.Millis
	state Level
}

// NewBlinker creates a Blinker with 500ms/500ms periods. State is Low until
// the first Update.
func NewBlinker(clk clock.Func) *Blinker {
	return &Blinker{
		clk:   clk,
		high:  DefaultHighPeriod,
		low:   DefaultLowPeriod,
		state: Low,
	}
}

// SetPeriod replaces both periods. The new cycle is used from the next
// Update on. Either period may be zero, but not both: that returns
// ErrInvalidPeriod and keeps the current periods.
func (b *Blinker) SetPeriod(high, low clock.Millis) error {
	if uint64(high)+uint64(low) == 0 {
		return ErrInvalidPeriod
	}
	b.high = high
	b.low = low
	return nil
}

// Update recomputes the level for the current time and returns it.
func (b *Blinker) Update() Level {
	cycle := uint64(b.high) + uint64(b.low)
	t := uint64(b.clk()) % cycle
	if t < uint64(b.high) {
		b.state = High
	} else {
		b.state = Low
	}
	return b.state
}

// State returns the level computed by the last Update.
func (b *Blinker) State() Level {
	return b.state
}

// Periods returns the configured high and low periods.
func (b *Blinker) Periods() (high, low clock.Millis) {
	return b.high, b.low
}
