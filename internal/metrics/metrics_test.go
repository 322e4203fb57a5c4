package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/lightgun/internal/logic"
)

func TestObserveSignals(t *testing.T) {
	pressed := triggerEvents.WithLabelValues(string(logic.EventPressed))
	long := triggerEvents.WithLabelValues(string(logic.EventReleasedLong))
	released := triggerEvents.WithLabelValues(string(logic.EventReleased))

	beforePressed := testutil.ToFloat64(pressed)
	beforeLong := testutil.ToFloat64(long)
	beforeReleased := testutil.ToFloat64(released)

	ObserveSignals(logic.Signals{State: true, Pressed: true})
	if got := testutil.ToFloat64(triggerPressed); got != 1 {
		t.Errorf("pressed gauge: got %v, want 1", got)
	}

	ObserveSignals(logic.Signals{State: true})
	ObserveSignals(logic.Signals{Released: true, ReleasedLongPress: true})
	if got := testutil.ToFloat64(triggerPressed); got != 0 {
		t.Errorf("pressed gauge: got %v, want 0", got)
	}

	if got := testutil.ToFloat64(pressed) - beforePressed; got != 1 {
		t.Errorf("PRESSED delta: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(long) - beforeLong; got != 1 {
		t.Errorf("RELEASED_LONG delta: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(released) - beforeReleased; got != 0 {
		t.Errorf("RELEASED delta: got %v, want 0 for a long release", got)
	}
}

func TestSetLED(t *testing.T) {
	SetLED(logic.High)
	if got := testutil.ToFloat64(ledOn); got != 1 {
		t.Errorf("led gauge: got %v, want 1", got)
	}
	SetLED(logic.Low)
	if got := testutil.ToFloat64(ledOn); got != 0 {
		t.Errorf("led gauge: got %v, want 0", got)
	}
}

func TestGPIOError(t *testing.T) {
	c := gpioErrors.WithLabelValues("trigger")
	before := testutil.ToFloat64(c)
	GPIOError("trigger")
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("gpio errors delta: got %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetLED(logic.High)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "lightgun_led_on 1") {
		t.Errorf("expected lightgun_led_on in metrics output")
	}
}
