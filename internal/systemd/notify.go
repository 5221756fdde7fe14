// Package systemd reports daemon lifecycle to the service manager over sd_notify.
package systemd

import (
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends READY, STOPPING, STATUS and watchdog pings. Outside systemd
// (no NOTIFY_SOCKET) every call is a no-op.
type Notifier struct {
	logger   *slog.Logger
	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewNotifier creates a notifier talking to the socket in NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger.With("component", "systemd"),
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdog: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
		stop: make(chan struct{}),
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// Ready tells systemd start-up finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

// Stopping tells systemd shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// StartWatchdog pings the watchdog at half the configured interval until Close.
// It returns false when the unit has no WatchdogSec.
func (n *Notifier) StartWatchdog() bool {
	interval, err := n.watchdog()
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return false
	}
	if interval <= 0 {
		return false
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-n.stop:
				return
			case <-ticker.C:
				n.send(daemon.SdNotifyWatchdog)
			}
		}
	}()
	n.logger.Info("systemd watchdog enabled", "interval", interval)
	return true
}

// Close stops the watchdog loop.
func (n *Notifier) Close() {
	n.stopOnce.Do(func() { close(n.stop) })
	n.wg.Wait()
}
