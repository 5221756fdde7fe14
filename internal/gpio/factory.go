//go:build !tinygo

package gpio

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	deviceTreeModelPath = "/proc/device-tree/model"
	gpioChipDevice      = "/dev/gpiochip0"
)

// New creates the backend selected by cfg. DriverAuto detects the board and
// falls back to a no-op backend if no controllable LEDs are found.
func New(cfg Config, logger *slog.Logger) (Output, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(nil), nil
	case DriverNoop:
		return newNoop(logger), nil
	case DriverSysfs:
		if len(cfg.SysfsLEDs) == 0 {
			return nil, fmt.Errorf("sysfs driver needs at least one LED mapping")
		}
		return newSysfs(cfg.SysfsRoot, cfg.SysfsLEDs), nil
	case DriverGPIOCdev:
		return newCdev(cfg.Chip, logger)
	case DriverRPIO:
		return newRPIO(logger)
	case DriverMachine:
		return nil, fmt.Errorf("%s: %w (build with tinygo)", DriverMachine, ErrUnsupported)
	case DriverAuto, "":
		return detect(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", cfg.Driver)
	}
}

// detect picks a backend for the board we are running on.
func detect(cfg Config, logger *slog.Logger) Output {
	boardModel := detectBoard()
	logger.Info("Detecting board for GPIO control", "board_model", boardModel)

	if len(cfg.SysfsLEDs) > 0 {
		logger.Info("Using configured sysfs LED mapping")
		return newSysfs(cfg.SysfsRoot, cfg.SysfsLEDs)
	}

	switch {
	case strings.Contains(boardModel, "NanoPC-T6"):
		logger.Info("Detected NanoPC-T6, using sysfs LEDs")
		return newSysfs(cfg.SysfsRoot, map[uint8]string{
			0: "usr_led",
			1: "sys_led",
		})

	case strings.Contains(boardModel, "Orange Pi"):
		logger.Info("Detected Orange Pi, using sysfs LEDs")
		return newSysfs(cfg.SysfsRoot, map[uint8]string{
			0: "blue_led",
			1: "green_led",
		})

	case strings.Contains(boardModel, "Raspberry Pi"):
		if _, err := os.Stat(gpioChipDevice); err == nil {
			if out, cdevErr := newCdev(cfg.Chip, logger); cdevErr == nil {
				logger.Info("Detected Raspberry Pi, using GPIO character device")
				return out
			}
		}
		out, err := newRPIO(logger)
		if err == nil {
			logger.Info("Detected Raspberry Pi, using rpio register access")
			return out
		}
		logger.Warn("Raspberry Pi GPIO unavailable", "error", err)
	}

	logger.Info("No GPIO support detected, using no-op backend", "board_model", boardModel)
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
