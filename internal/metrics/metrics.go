// Package metrics provides Prometheus metrics for the trigger and indicator LED.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/lightgun/internal/logic"
)

var (
	triggerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightgun",
		Subsystem: "trigger",
		Name:      "events_total",
		Help:      "Debounced trigger transitions by type",
	}, []string{"event"})

	triggerPressed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightgun",
		Subsystem: "trigger",
		Name:      "pressed",
		Help:      "1 while the debounced trigger is held",
	})

	ledOn = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightgun",
		Subsystem: "led",
		Name:      "on",
		Help:      "1 while the indicator LED is driven high",
	})

	gpioErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightgun",
		Subsystem: "gpio",
		Name:      "errors_total",
		Help:      "GPIO read/write failures by pin role",
	}, []string{"pin"})
)

// ObserveSignals records one debouncer tick.
func ObserveSignals(s logic.Signals) {
	for _, e := range s.Events(time.Time{}, 0) {
		triggerEvents.WithLabelValues(string(e.Type)).Inc()
	}
	triggerPressed.Set(boolToFloat(s.State))
}

// SetLED records the indicator level.
func SetLED(l logic.Level) {
	ledOn.Set(boolToFloat(l.Bool()))
}

// GPIOError counts a failed read or write on the pin with the given role
// ("trigger" or "led").
func GPIOError(pin string) {
	gpioErrors.WithLabelValues(pin).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
