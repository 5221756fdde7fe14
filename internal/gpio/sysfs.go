//go:build !tinygo

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Output using the Linux LED class interface.
// Pin numbers index the board's LED devices.
type sysfs struct {
	root       string
	leds       map[uint8]string // pin -> sysfs name mapping
	mu         sync.Mutex
	configured map[uint8]bool
}

// newSysfs creates a sysfs backend with board-specific LED mappings.
func newSysfs(root string, leds map[uint8]string) *sysfs {
	if root == "" {
		root = sysfsLEDPath
	}
	return &sysfs{
		root:       root,
		leds:       leds,
		configured: make(map[uint8]bool),
	}
}

func (s *sysfs) Name() string {
	return DriverSysfs
}

func (s *sysfs) ledPath(pin uint8) (string, error) {
	sysfsName, ok := s.leds[pin]
	if !ok {
		return "", fmt.Errorf("pin %d has no LED on this board", pin)
	}
	return filepath.Join(s.root, sysfsName), nil
}

// Configure takes the LED away from its kernel trigger so it can be driven manually.
func (s *sysfs) Configure(pin uint8) error {
	ledPath, err := s.ledPath(pin)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(ledPath); os.IsNotExist(statErr) {
		return fmt.Errorf("LED for pin %d not found at %s", pin, ledPath)
	}

	triggerPath := filepath.Join(ledPath, "trigger")
	if writeErr := os.WriteFile(triggerPath, []byte("none"), 0644); writeErr != nil {
		return fmt.Errorf("failed to set LED trigger to none: %w", writeErr)
	}

	s.mu.Lock()
	s.configured[pin] = true
	s.mu.Unlock()
	return nil
}

// Write sets the LED brightness to 1 or 0.
func (s *sysfs) Write(pin uint8, on bool) error {
	s.mu.Lock()
	configured := s.configured[pin]
	s.mu.Unlock()
	if !configured {
		return fmt.Errorf("pin %d: %w", pin, ErrNotConfigured)
	}

	ledPath, err := s.ledPath(pin)
	if err != nil {
		return err
	}

	brightnessValue := "0"
	if on {
		brightnessValue = "1"
	}

	brightnessPath := filepath.Join(ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(brightnessValue), 0644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func (s *sysfs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = make(map[uint8]bool)
	return nil
}

// Pins returns the pin numbers mapped to LEDs on this board.
func (s *sysfs) Pins() []uint8 {
	out := make([]uint8, 0, len(s.leds))
	for pin := range s.leds {
		out = append(out, pin)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
