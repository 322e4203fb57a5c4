//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealButton reads the trigger from actual hardware using the Linux GPIO character device.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests the trigger line as a pulled-up input.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("lightgun-trigger"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", pin, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Read returns true while the trigger is held.
func (b *RealButton) Read() (bool, error) {
	raw, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read trigger pin: %w", err)
	}
	return Pressed(raw), nil
}

// Close releases the trigger line and chip.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives the indicator LED through an output line.
type RealLED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealLED requests the LED line as an output, initially off.
func NewRealLED(chipName string, pin int) (*RealLED, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("lightgun-led"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pin, err)
	}

	return &RealLED{chip: chip, line: line}, nil
}

// Set drives the LED line high (on) or low (off).
func (l *RealLED) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("write LED pin: %w", err)
	}
	return nil
}

// Close turns the LED off and releases the line.
// The line is reconfigured to an input with pull-down (the Pi boot default)
// so nothing is left driven after exit.
func (l *RealLED) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("turn off LED: %w", err))
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure LED pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED pin: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
