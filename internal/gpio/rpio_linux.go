//go:build linux && !tinygo

package gpio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioOutput implements Output with direct Raspberry Pi register access.
type rpioOutput struct {
	logger     *slog.Logger
	mu         sync.Mutex
	configured map[uint8]rpio.Pin
}

func newRPIO(logger *slog.Logger) (Output, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open rpio: %w", err)
	}
	return &rpioOutput{
		logger:     logger,
		configured: make(map[uint8]rpio.Pin),
	}, nil
}

func (r *rpioOutput) Name() string {
	return DriverRPIO
}

func (r *rpioOutput) Configure(pin uint8) error {
	p := rpio.Pin(pin)
	p.Output()
	p.Low()

	r.mu.Lock()
	r.configured[pin] = p
	r.mu.Unlock()
	return nil
}

func (r *rpioOutput) Write(pin uint8, on bool) error {
	r.mu.Lock()
	p, ok := r.configured[pin]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("pin %d: %w", pin, ErrNotConfigured)
	}

	if on {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Close drives every configured pin low and unmaps the GPIO registers.
func (r *rpioOutput) Close() error {
	r.mu.Lock()
	for _, p := range r.configured {
		p.Low()
	}
	r.configured = make(map[uint8]rpio.Pin)
	r.mu.Unlock()

	return rpio.Close()
}
