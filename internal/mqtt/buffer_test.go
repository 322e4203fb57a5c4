package mqtt

import "testing"

func pushN(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
}

func payloadBytes(msgs []bufferedMsg) []byte {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = m.payload[0]
	}
	return out
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferKeepsOrder(t *testing.T) {
	rb := newRingBuffer(10)
	pushN(rb, 0, 5)

	if rb.len() != 5 {
		t.Fatalf("expected len 5, got %d", rb.len())
	}
	if got := payloadBytes(rb.drainAll()); string(got) != string([]byte{0, 1, 2, 3, 4}) {
		t.Errorf("unexpected order: %v", got)
	}
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	rb := newRingBuffer(5)
	pushN(rb, 0, 8)

	if rb.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", rb.dropped)
	}
	if got := payloadBytes(rb.drainAll()); string(got) != string([]byte{3, 4, 5, 6, 7}) {
		t.Errorf("expected newest 5 messages, got %v", got)
	}
	if rb.dropped != 0 {
		t.Error("drain should reset dropped count")
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	pushN(rb, 0, 3)
	if n := len(rb.drainAll()); n != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", n)
	}

	pushN(rb, 10, 14)
	if got := payloadBytes(rb.drainAll()); string(got) != string([]byte{10, 11, 12, 13}) {
		t.Errorf("cycle 2: unexpected items %v", got)
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	pushN(rb, 0, 2)

	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}
	if rb.dropped != 2 {
		t.Errorf("dropped: got %d, want 2", rb.dropped)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 || !got[0].retained {
		t.Errorf("qos/retained not preserved: %+v", got[0])
	}
}
