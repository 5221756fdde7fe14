//go:build !linux && !tinygo

package gpio

import (
	"fmt"
	"log/slog"
)

func newCdev(_ string, _ *slog.Logger) (Output, error) {
	return nil, fmt.Errorf("%s: %w", DriverGPIOCdev, ErrUnsupported)
}

func newRPIO(_ *slog.Logger) (Output, error) {
	return nil, fmt.Errorf("%s: %w", DriverRPIO, ErrUnsupported)
}
