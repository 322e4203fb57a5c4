package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabledWithZeroInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(startTime)

	if hb := h.Check(startTime.Add(15*time.Minute), 0, EventCounts{}); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
	if hb := h.Check(startTime.Add(15*time.Minute), -1*time.Minute, EventCounts{}); hb != nil {
		t.Error("expected nil heartbeat with negative interval")
	}
}

func TestHeartbeatBeforeInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(startTime)

	if hb := h.Check(startTime.Add(14*time.Minute), 15*time.Minute, EventCounts{}); hb != nil {
		t.Error("expected nil heartbeat before interval elapsed")
	}
}

func TestHeartbeatAtInterval(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(startTime)
	checkTime := startTime.Add(15 * time.Minute)
	counts := EventCounts{Presses: 3, Releases: 2, LongReleases: 1}

	hb := h.Check(checkTime, 15*time.Minute, counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if !hb.Timestamp.Equal(checkTime) {
		t.Errorf("Timestamp: got %v, want %v", hb.Timestamp, checkTime)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", hb.Uptime)
	}
	if hb.Counts != counts {
		t.Errorf("Counts: got %+v, want %+v", hb.Counts, counts)
	}
}

func TestHeartbeatUpdatesLastTime(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeat(startTime)

	t1 := startTime.Add(15 * time.Minute)
	if hb := h.Check(t1, 15*time.Minute, EventCounts{}); hb == nil {
		t.Fatal("expected first heartbeat")
	}

	if hb := h.Check(t1.Add(time.Second), 15*time.Minute, EventCounts{}); hb != nil {
		t.Error("expected no heartbeat 1s after the previous one")
	}

	t2 := t1.Add(15 * time.Minute)
	hb := h.Check(t2, 15*time.Minute, EventCounts{})
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 30*time.Minute {
		t.Errorf("Uptime: got %v, want 30m", hb.Uptime)
	}
}
