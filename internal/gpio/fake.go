package gpio

import "errors"

// FakeButton is a test double that returns scripted trigger states.
type FakeButton struct {
	// Samples contains scripted pressed values to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples []bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButton) Read() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the button to the beginning of samples.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeLED records every value written to it.
type FakeLED struct {
	// Writes contains every value passed to Set, in order.
	Writes []bool

	// On is the last value written.
	On bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeLED creates an off FakeLED.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// Set records the value.
func (f *FakeLED) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, on)
	f.On = on
	return nil
}

// Close turns the fake off and marks it closed.
func (f *FakeLED) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
