package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/lightgun/internal/clock"
	"github.com/sweeney/lightgun/internal/gpio"
	"github.com/sweeney/lightgun/internal/logic"
	"github.com/sweeney/lightgun/internal/mqtt"
)

// timeline builds one sample per millisecond: released until each press
// start, pressed until the matching release.
func timeline(length int, presses ...[2]int) []bool {
	samples := make([]bool, length)
	for _, p := range presses {
		for i := p[0]; i < p[1] && i < length; i++ {
			samples[i] = true
		}
	}
	return samples
}

type rig struct {
	button    *gpio.FakeButton
	led       *gpio.FakeLED
	publisher *mqtt.FakePublisher
	clk       *clock.Manual
	debouncer *logic.Debouncer
	blinker   *logic.Blinker
	start     time.Time
	// ledChanges records the clock reading of every LED write.
	ledChanges []clock.Millis
}

func newRig(samples []bool) *rig {
	clk := clock.NewManual(0)
	return &rig{
		button:    gpio.NewFakeButton(samples),
		led:       gpio.NewFakeLED(),
		publisher: mqtt.NewFakePublisher(),
		clk:       clk,
		debouncer: logic.NewDebouncer(logic.DefaultDebounceConfig(), clk.Func()),
		blinker:   logic.NewBlinker(clk.Func()),
		start:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// run drives n 1ms ticks the same way the daemon loop does: read, debounce,
// publish, switch blink profile, blink, write the LED on change.
func (r *rig) run(t *testing.T, n int) {
	t.Helper()
	var written *logic.Level

	for i := 0; i < n; i++ {
		now := clock.Millis(i)
		r.clk.Set(now)
		ts := r.start.Add(time.Duration(i) * time.Millisecond)

		pressed, err := r.button.Read()
		if err != nil {
			t.Fatalf("t=%d: read: %v", i, err)
		}

		sig := r.debouncer.Update(pressed)
		for _, ev := range sig.Events(ts, now) {
			if err := r.publisher.Publish(ev); err != nil {
				t.Fatalf("t=%d: publish: %v", i, err)
			}
		}

		switch {
		case sig.Pressed:
			if err := r.blinker.SetPeriod(100, 100); err != nil {
				t.Fatal(err)
			}
		case sig.Released:
			if err := r.blinker.SetPeriod(500, 500); err != nil {
				t.Fatal(err)
			}
		}

		level := r.blinker.Update()
		if written == nil || *written != level {
			if err := r.led.Set(level.Bool()); err != nil {
				t.Fatalf("t=%d: led: %v", i, err)
			}
			written = &level
			r.ledChanges = append(r.ledChanges, now)
		}
	}
}

func TestIntegrationLongAndShortPress(t *testing.T) {
	// Long press with contact bounce at both edges, then a short press.
	samples := timeline(3500, [2]int{100, 1900}, [2]int{3000, 3200})
	samples[101] = false // bounce inside the debounce window
	samples[1901] = true // bounce after release

	r := newRig(samples)
	r.run(t, len(samples))

	want := []struct {
		typ     logic.EventType
		millis  clock.Millis
		pressed bool
	}{
		{logic.EventPressed, 100, true},
		{logic.EventReleasedLong, 1900, false},
		{logic.EventPressed, 3000, true},
		{logic.EventReleased, 3200, false},
	}

	events := r.publisher.Events
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].Type != w.typ || events[i].Millis != w.millis || events[i].Pressed != w.pressed {
			t.Errorf("event %d: got %s@%d pressed=%v, want %s@%d pressed=%v",
				i, events[i].Type, events[i].Millis, events[i].Pressed, w.typ, w.millis, w.pressed)
		}
	}

	counts := r.debouncer.Counts()
	if counts.Presses != 2 || counts.Releases != 2 || counts.LongReleases != 1 {
		t.Errorf("counts: got %+v, want 2/2/1", counts)
	}

	// The long release payload carries the millis reading and a UTC timestamp.
	var parsed mqtt.Payload
	if err := json.Unmarshal(r.publisher.Payloads[1], &parsed); err != nil {
		t.Fatalf("payload 1 is not valid JSON: %v", err)
	}
	if parsed.Trigger.Event != "RELEASED_LONG" {
		t.Errorf("payload 1 event: got %s, want RELEASED_LONG", parsed.Trigger.Event)
	}
	if parsed.Trigger.Millis != 1900 {
		t.Errorf("payload 1 millis: got %d, want 1900", parsed.Trigger.Millis)
	}
	if parsed.Trigger.Timestamp != "2026-01-01T12:00:01Z" {
		t.Errorf("payload 1 timestamp: got %s", parsed.Trigger.Timestamp)
	}
}

func TestIntegrationLEDFollowsBlinkProfile(t *testing.T) {
	samples := timeline(3000, [2]int{1000, 2000})
	r := newRig(samples)
	r.run(t, len(samples))

	// Writes only happen on change, so consecutive writes alternate.
	for i := 1; i < len(r.led.Writes); i++ {
		if r.led.Writes[i] == r.led.Writes[i-1] {
			t.Fatalf("write %d repeats previous level", i)
		}
	}
	if !r.led.Writes[0] {
		t.Error("expected LED on at t=0 with 500/500")
	}

	var idle, held int
	for _, at := range r.ledChanges {
		switch {
		case at > 0 && at < 1000:
			idle++
		case at > 1000 && at < 2000:
			held++
		}
	}
	// 500/500 toggles once in (0, 1000); 100/100 toggles at every 100ms in (1000, 2000).
	if idle != 1 {
		t.Errorf("idle toggles: got %d, want 1", idle)
	}
	if held != 9 {
		t.Errorf("held toggles: got %d, want 9", held)
	}
}

func TestIntegrationPublishFailureDoesNotStopDebouncing(t *testing.T) {
	samples := timeline(200, [2]int{50, 150})
	r := newRig(samples)
	r.publisher.PublishError = errors.New("broker down")

	for i := range samples {
		now := clock.Millis(i)
		r.clk.Set(now)
		pressed, _ := r.button.Read()
		sig := r.debouncer.Update(pressed)
		for _, ev := range sig.Events(r.start, now) {
			if err := r.publisher.Publish(ev); err == nil {
				t.Fatal("expected publish error")
			}
		}
	}

	if len(r.publisher.Events) != 0 {
		t.Errorf("expected no recorded events, got %d", len(r.publisher.Events))
	}
	counts := r.debouncer.Counts()
	if counts.Presses != 1 || counts.Releases != 1 {
		t.Errorf("counts: got %+v, want 1 press and 1 release", counts)
	}
	if r.debouncer.IsPressed() {
		t.Error("expected released at end")
	}
}
