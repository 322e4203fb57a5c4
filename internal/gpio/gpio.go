// Package gpio provides trigger and LED pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// ButtonReader reads the trigger button.
type ButtonReader interface {
	// Read returns true while the button is pressed.
	// The trigger is wired to ground with a pull-up, so the raw line is
	// inverted: raw low = pressed.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// LED drives the indicator output.
type LED interface {
	// Set drives the LED on (true) or off (false).
	Set(on bool) error

	// Close releases GPIO resources, leaving the LED off.
	Close() error
}

// Defaults (BCM numbering)
const (
	DefaultChip       = "gpiochip0"
	DefaultPinTrigger = 17
	DefaultPinLED     = 27
)

// Pressed converts a raw line value of a pulled-up button to its logical state.
func Pressed(raw int) bool {
	return raw == 0
}
