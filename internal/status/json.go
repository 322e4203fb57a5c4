package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Trigger       string     `json:"trigger"`
	LED           string     `json:"led"`
	Blink         BlinkJSON  `json:"blink"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// BlinkJSON reports the blink periods in use.
type BlinkJSON struct {
	HighMs uint32 `json:"high_ms"`
	LowMs  uint32 `json:"low_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pressed      int `json:"pressed"`
	Released     int `json:"released"`
	ReleasedLong int `json:"released_long"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	LongPressMs int64  `json:"long_press_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// TriggerString renders the trigger state for display.
func TriggerString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

func buildInner(snap Snapshot) StatusInner {
	led := string(snap.LED)
	if led == "" {
		led = "UNKNOWN"
	}

	return StatusInner{
		Trigger:       TriggerString(snap.Pressed),
		LED:           led,
		Blink:         BlinkJSON{HighMs: uint32(snap.BlinkHighMs), LowMs: uint32(snap.BlinkLowMs)},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Pressed:      snap.Counts.Presses,
			Released:     snap.Counts.Releases,
			ReleasedLong: snap.Counts.LongReleases,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			LongPressMs: snap.Config.LongPressMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
