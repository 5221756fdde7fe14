//go:build tinygo

package gpio

import (
	"fmt"
	"log/slog"
	"machine"
)

// machineOutput drives microcontroller pins through TinyGo's machine package.
type machineOutput struct{}

// New returns the machine backend; it is the only hardware backend on TinyGo targets.
func New(cfg Config, logger *slog.Logger) (Output, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(nil), nil
	case DriverNoop:
		return newNoop(logger), nil
	case DriverMachine, DriverAuto, "":
		return machineOutput{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", cfg.Driver, ErrUnsupported)
	}
}

func (machineOutput) Name() string {
	return DriverMachine
}

func (machineOutput) Configure(pin uint8) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (machineOutput) Write(pin uint8, on bool) error {
	machine.Pin(pin).Set(on)
	return nil
}

func (machineOutput) Close() error {
	return nil
}
