package nats

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned when the controller has no live connection.
var ErrNotConnected = errors.New("not connected to NATS")

// Controller drives a running daemon over NATS. It sends animation requests
// and watches LED state. When the daemon is unreachable it stays usable and
// reports ErrNotConnected from publishes.
type Controller struct {
	url       string
	conn      *nats.Conn
	subs      []*nats.Subscription
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
}

// NewController creates a controller for the daemon at url.
func NewController(url string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		url:    url,
		logger: logger.With("component", "nats-control"),
	}
}

// Connect establishes a connection to the NATS server.
// On failure the controller stays in offline mode.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := []nats.Option{
		nats.Name("ledanim-control"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			if err != nil {
				c.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(c.url, opts...)
	if err != nil {
		c.logger.Warn("Failed to connect to NATS, running in offline mode", "error", err)
		return err
	}

	c.conn = conn
	c.connected = true
	c.logger.Debug("Connected to NATS", "url", c.url)
	return nil
}

// SetAnimation asks the daemon to play animation on led.
func (c *Controller) SetAnimation(led, animation, reason string) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if conn == nil || !connected {
		return ErrNotConnected
	}

	data, err := AnimationMessage{
		LED:       led,
		Animation: animation,
		Timestamp: time.Now().Format(time.RFC3339),
		Reason:    reason,
	}.Marshal()
	if err != nil {
		return err
	}

	if err := conn.Publish(SubjectLEDAnimation(led), data); err != nil {
		return err
	}
	// Flush so short-lived CLI invocations do not exit with the request buffered.
	if err := conn.Flush(); err != nil {
		return err
	}

	c.logger.Info("Sent animation request", "led", led, "animation", animation)
	return nil
}

// WatchStates calls fn for every state change of led, or of every LED when led is "*".
func (c *Controller) WatchStates(led string, fn func(StateMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}

	sub, err := c.conn.Subscribe(SubjectLEDState(led), func(msg *nats.Msg) {
		m, err := UnmarshalState(msg.Data)
		if err != nil {
			c.logger.Warn("Failed to unmarshal state", "error", err, "subject", msg.Subject)
			return
		}
		fn(m)
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)
	return nil
}

// IsConnected returns true if connected to NATS.
func (c *Controller) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn != nil && c.conn.IsConnected()
}

// Close closes the controller connection.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}
