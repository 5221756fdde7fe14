package nats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/ledanim/internal/events"
)

// Bridge connects the event bus to NATS in both directions: animation requests
// arriving on ledanim.control.*.animation become AnimationRequestedEvents, and
// LEDStateChangedEvents are mirrored to ledanim.leds.<led>.state.
type Bridge struct {
	url         string
	eventBus    *events.Bus
	conn        *nats.Conn
	subs        []*nats.Subscription
	unsubscribe func()
	logger      *slog.Logger
	mu          sync.Mutex
}

// NewBridge creates a new NATS/event bus bridge.
func NewBridge(url string, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and wires both directions.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("ledanim-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url)

	sub, err := conn.Subscribe(SubjectControlPrefix+".*.animation", b.handleAnimation)
	if err != nil {
		b.cleanup()
		return err
	}
	b.subs = append(b.subs, sub)
	if err := conn.Flush(); err != nil {
		b.cleanup()
		return err
	}

	b.unsubscribe = b.eventBus.Subscribe(b.forwardState)

	b.logger.Info("NATS bridge subscribed to control subjects")
	return nil
}

// handleAnimation turns an incoming request into a bus event.
func (b *Bridge) handleAnimation(msg *nats.Msg) {
	m, err := UnmarshalAnimation(msg.Data)
	if err != nil {
		b.logger.Warn("Failed to unmarshal animation request", "error", err, "subject", msg.Subject)
		return
	}

	led := m.LED
	if led == "" {
		led = LEDFromSubject(msg.Subject)
	}
	if led == "" || m.Animation == "" {
		b.logger.Warn("Incomplete animation request", "subject", msg.Subject)
		return
	}

	timestamp := m.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(time.RFC3339)
	}

	b.eventBus.Publish(events.AnimationRequestedEvent{
		LED:       led,
		Animation: m.Animation,
		Source:    "nats",
		Timestamp: timestamp,
	})
	b.logger.Debug("Published animation request", "led", led, "animation", m.Animation, "reason", m.Reason)
}

// forwardState mirrors a bus state change onto NATS.
func (b *Bridge) forwardState(e events.LEDStateChangedEvent) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := StateMessage{
		LED:       e.LED,
		Pin:       e.Pin,
		Animation: e.Animation,
		TaskState: e.TaskState,
		Output:    e.Output,
		Timestamp: e.Timestamp,
	}.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal state", "error", err, "led", e.LED)
		return
	}

	if err := conn.Publish(SubjectLEDState(e.LED), data); err != nil {
		b.logger.Debug("Failed to publish state", "error", err, "led", e.LED)
	}
}

// cleanup unsubscribes and closes connection. Callers hold b.mu.
func (b *Bridge) cleanup() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop closes the bridge connection.
func (b *Bridge) Stop() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	// forwardState takes b.mu
	if unsubscribe != nil {
		unsubscribe()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
