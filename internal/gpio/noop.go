package gpio

import "log/slog"

// noop implements Output for systems without controllable LEDs.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

func (n *noop) Name() string {
	return DriverNoop
}

func (n *noop) Configure(pin uint8) error {
	n.logger.Debug("GPIO not available (no-op), configure ignored", "pin", pin)
	return nil
}

// Write logs the request but drives nothing.
func (n *noop) Write(pin uint8, on bool) error {
	n.logger.Debug("GPIO not available (no-op)", "pin", pin, "on", on)
	return nil
}

func (n *noop) Close() error {
	return nil
}
