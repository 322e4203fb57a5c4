package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/lightgun/internal/logic"
)

// DefaultBufferSize is how many messages are kept while the broker is unreachable.
const DefaultBufferSize = 256

// RealPublisher publishes to an actual MQTT broker.
// Messages published while offline are buffered and replayed, oldest first,
// when the connection comes back. The publisher counts as online only after
// the replay has finished, so live messages never overtake buffered ones.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	buf    *ringBuffer
	online bool   // guarded by mu; set by onConnect, cleared by onConnectionLost
	epoch  uint64 // guarded by mu; bumped on every connection loss
}

func newRealPublisher(client paho.Client, bufferSize int) *RealPublisher {
	return &RealPublisher{client: client, buf: newRingBuffer(bufferSize)}
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is retried in the background, so an unreachable broker is not an error.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newRealPublisher(nil, DefaultBufferSize)

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, buffering until connected", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a trigger event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) - lifecycle events should arrive
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// send publishes msg, or buffers it while offline or replaying. The online
// check and the push happen under one lock so onConnect cannot drain the
// buffer in between.
func (p *RealPublisher) send(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.online {
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.publish(msg)
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays messages buffered while offline. paho runs it on its
// own goroutine, so waiting on tokens here does not block the poll loop.
// Messages sent during the replay are buffered and picked up by the next
// pass; the publisher goes online once a pass finds the buffer empty.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	epoch := p.epoch
	p.mu.Unlock()

	replayed := 0
	for {
		p.mu.Lock()
		if p.epoch != epoch {
			// Lost again mid-replay; the next onConnect takes over.
			p.mu.Unlock()
			log.Printf("mqtt: connection lost during replay")
			return
		}
		dropped := p.buf.dropped
		msgs := p.buf.drainAll()
		if len(msgs) == 0 {
			p.online = true
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		if dropped > 0 {
			log.Printf("mqtt: buffer overflowed, %d oldest messages dropped", dropped)
		}
		for _, msg := range msgs {
			if err := p.publish(msg); err != nil {
				log.Printf("mqtt: replay: %v", err)
			}
		}
		replayed += len(msgs)
	}

	if replayed > 0 {
		log.Printf("mqtt: connected, replayed %d buffered messages", replayed)
	} else {
		log.Printf("mqtt: connected")
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.online = false
	p.epoch++
	p.mu.Unlock()
	log.Printf("mqtt: connection lost, buffering: %v", err)
}
