//go:build linux && !tinygo

package gpio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const defaultChip = "gpiochip0"

// cdev implements Output on the Linux GPIO character device.
type cdev struct {
	chip   string
	logger *slog.Logger
	mu     sync.Mutex
	lines  map[uint8]*gpiocdev.Line
}

func newCdev(chip string, logger *slog.Logger) (Output, error) {
	if chip == "" {
		chip = defaultChip
	}
	return &cdev{
		chip:   chip,
		logger: logger,
		lines:  make(map[uint8]*gpiocdev.Line),
	}, nil
}

func (c *cdev) Name() string {
	return DriverGPIOCdev
}

// Configure requests the line as an output, initially low.
func (c *cdev) Configure(pin uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[pin]; ok {
		return nil
	}

	line, err := gpiocdev.RequestLine(c.chip, int(pin),
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("ledanim"),
	)
	if err != nil {
		return fmt.Errorf("request line %d on %s: %w", pin, c.chip, err)
	}
	c.lines[pin] = line
	c.logger.Debug("GPIO line requested", "chip", c.chip, "pin", pin)
	return nil
}

func (c *cdev) Write(pin uint8, on bool) error {
	c.mu.Lock()
	line, ok := c.lines[pin]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("pin %d: %w", pin, ErrNotConfigured)
	}

	value := 0
	if on {
		value = 1
	}
	return line.SetValue(value)
}

// Close releases all requested lines.
func (c *cdev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for pin, line := range c.lines {
		if err := line.Close(); err != nil {
			c.logger.Warn("Error closing GPIO line", "pin", pin, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.lines = make(map[uint8]*gpiocdev.Line)
	return firstErr
}
