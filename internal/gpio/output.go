// Package gpio drives single digital output pins on the boards ledanim runs on.
//
// Every backend implements Output. Pins are plain numbers; what a number means
// depends on the backend (a line offset on a gpiochip, a BCM pin on a Raspberry Pi,
// an index into the board's LED class devices for sysfs).
package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Output is the hardware boundary used by LED schedulers.
type Output interface {
	// Configure prepares pin for output. It must be called before Write.
	Configure(pin uint8) error

	// Write drives pin high (on) or low.
	Write(pin uint8, on bool) error

	// Close releases every pin the backend opened.
	Close() error

	// Name identifies the backend in logs and the API.
	Name() string
}

// Driver names accepted by New.
const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverNoop     = "noop"
	DriverSysfs    = "sysfs"
	DriverGPIOCdev = "gpiocdev"
	DriverRPIO     = "rpio"
	DriverMachine  = "machine"
)

var (
	// ErrUnsupported is returned when a driver is not available on this platform.
	ErrUnsupported = errors.New("gpio driver not supported on this platform")
	// ErrNotConfigured is returned by Write for a pin that was never configured.
	ErrNotConfigured = errors.New("pin not configured for output")
)

// Config selects and parameterises a backend.
type Config struct {
	Driver string

	// Chip is the gpiochip device used by the gpiocdev driver.
	Chip string

	// SysfsLEDs maps pin numbers to /sys/class/leds entries for the sysfs driver.
	SysfsLEDs map[uint8]string

	// SysfsRoot overrides /sys/class/leds.
	SysfsRoot string
}

// ParseSysfsLEDs parses a "pin=name,pin=name" mapping for the sysfs driver,
// e.g. "0=usr_led,1=sys_led". An empty string yields a nil map.
func ParseSysfsLEDs(s string) (map[uint8]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	leds := make(map[uint8]string)
	for _, entry := range strings.Split(s, ",") {
		pinStr, name, ok := strings.Cut(strings.TrimSpace(entry), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("sysfs LED mapping %q: want pin=name", entry)
		}
		pin, err := strconv.ParseUint(strings.TrimSpace(pinStr), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("sysfs LED mapping %q: %w", entry, err)
		}
		if _, dup := leds[uint8(pin)]; dup {
			return nil, fmt.Errorf("sysfs LED mapping: pin %d mapped twice", pin)
		}
		leds[uint8(pin)] = name
	}
	return leds, nil
}
