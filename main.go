package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledanim/cmd"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/api"
	"github.com/smazurov/ledanim/internal/config"
	"github.com/smazurov/ledanim/internal/events"
	"github.com/smazurov/ledanim/internal/gpio"
	"github.com/smazurov/ledanim/internal/led"
	"github.com/smazurov/ledanim/internal/logging"
	"github.com/smazurov/ledanim/internal/metrics"
	"github.com/smazurov/ledanim/internal/nats"
	"github.com/smazurov/ledanim/internal/pins"
	"github.com/smazurov/ledanim/internal/systemd"
	"github.com/smazurov/ledanim/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"ledanim.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Board settings
	BoardFile       string `help:"LED and animation definitions" default:"leds.toml" toml:"board.file" env:"BOARD_FILE"`
	BoardDebounceMs int    `help:"Board file reload debounce in milliseconds" default:"500" toml:"board.debounce_ms" env:"BOARD_DEBOUNCE_MS"`

	// GPIO settings
	GPIODriver    string `help:"GPIO driver (auto, gpiocdev, rpio, sysfs, noop, memory)" default:"auto" toml:"gpio.driver" env:"GPIO_DRIVER"`
	GPIOChip      string `help:"gpiochip used by the gpiocdev driver" default:"gpiochip0" toml:"gpio.chip" env:"GPIO_CHIP"`
	GPIOSysfsLEDs string `help:"Pin to /sys/class/leds mapping for the sysfs driver (0=usr_led,1=sys_led)" default:"" toml:"gpio.sysfs_leds" env:"GPIO_SYSFS_LEDS"`
	GPIOSysfsRoot string `help:"LED class directory used by the sysfs driver" default:"/sys/class/leds" toml:"gpio.sysfs_root" env:"GPIO_SYSFS_ROOT"`

	// NATS settings
	NATSEnabled bool   `help:"Run the embedded NATS server" default:"true" toml:"nats.enabled" env:"NATS_ENABLED"`
	NATSHost    string `help:"NATS listen host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NATSPort    int    `help:"NATS listen port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Observability settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username (empty disables auth)" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED    string `help:"LED scheduler logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingGPIO   string `help:"GPIO logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingNATS   string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":    opts.LoggingLED,
				"gpio":   opts.LoggingGPIO,
				"config": opts.LoggingConfig,
				"nats":   opts.LoggingNATS,
				"api":    opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting", "version", version.String())

		eventBus := events.New()

		// Logs reach SSE clients through the bus
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		sysfsLEDs, err := gpio.ParseSysfsLEDs(opts.GPIOSysfsLEDs)
		if err != nil {
			logger.Error("Invalid sysfs LED mapping", "error", err)
			os.Exit(1)
		}
		out, err := gpio.New(gpio.Config{
			Driver:    opts.GPIODriver,
			Chip:      opts.GPIOChip,
			SysfsLEDs: sysfsLEDs,
			SysfsRoot: opts.GPIOSysfsRoot,
		}, logging.GetLogger("gpio"))
		if err != nil {
			logger.Error("Failed to open GPIO backend", "driver", opts.GPIODriver, "error", err)
			os.Exit(1)
		}

		registry := pins.Default()
		metrics.WatchRegistry(registry)

		board := led.NewBoard(out, animation.NewLibrary(), eventBus, logging.GetLogger("led"),
			led.WithRegistry(registry),
			led.WithMetrics(metrics.Recorder{}),
		)

		boardCfg, err := config.LoadBoard(opts.BoardFile)
		if err != nil {
			logger.Error("Invalid board file", "path", opts.BoardFile, "error", err)
			os.Exit(1)
		}

		watcher := config.NewConfigWatcher(
			opts.BoardFile,
			config.LoadBoard,
			logging.GetLogger("config"),
			config.WithDebounce[config.Board](time.Duration(opts.BoardDebounceMs)*time.Millisecond),
			config.WithErrorHandler[config.Board](func(loadErr error) {
				eventBus.Publish(events.BoardReloadedEvent{
					Error:     loadErr.Error(),
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}),
		)
		watcher.OnReload(func(cfg config.Board) {
			reloaded := events.BoardReloadedEvent{
				LEDs:       len(cfg.LEDs),
				Animations: len(cfg.Animations),
				Timestamp:  time.Now().Format(time.RFC3339),
			}
			if applyErr := board.Apply(cfg); applyErr != nil {
				logger.Warn("Board reload applied with errors", "error", applyErr)
				reloaded.Error = applyErr.Error()
			} else {
				logger.Info("Board reloaded", "leds", len(cfg.LEDs), "animations", len(cfg.Animations))
			}
			eventBus.Publish(reloaded)
		})

		var natsServer *nats.Server
		var bridge *nats.Bridge
		if opts.NATSEnabled {
			natsServer = nats.NewServer(nats.ServerOptions{
				Host:   opts.NATSHost,
				Port:   opts.NATSPort,
				Logger: logging.GetLogger("nats"),
			})
			bridge = nats.NewBridge(natsServer.ClientURL(), eventBus, logging.GetLogger("nats"))
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Board:        board,
			EventBus:     eventBus,
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = metrics.Handler()
		}
		server := api.NewServer(apiOpts)

		notifier := systemd.NewNotifier(logger)

		hooks.OnStart(func() {
			board.Start()
			if applyErr := board.Apply(boardCfg); applyErr != nil {
				// Pin-invalid LEDs stay listed; keep serving the rest.
				logger.Warn("Some LEDs failed to start", "error", applyErr)
			}

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Failed to start board watcher, hot-reload disabled", "error", startErr)
			}

			if natsServer != nil {
				if startErr := natsServer.Start(); startErr != nil {
					logger.Warn("Failed to start NATS server, remote control disabled", "error", startErr)
				} else if startErr := bridge.Start(); startErr != nil {
					logger.Warn("Failed to start NATS bridge", "error", startErr)
				}
			}

			notifier.Ready()
			notifier.Status(strconv.Itoa(len(board.Statuses())) + " LEDs")
			notifier.StartWatchdog()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping board watcher", "error", stopErr)
			}
			if bridge != nil {
				bridge.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}

			// LEDs go dark before the backend is released
			if closeErr := board.Close(); closeErr != nil {
				logger.Warn("Error closing LEDs", "error", closeErr)
			}
			if closeErr := out.Close(); closeErr != nil {
				logger.Warn("Error closing GPIO backend", "error", closeErr)
			}
			notifier.Close()
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateBlinkCmd())
	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateAnimationsCmd())
	cli.Root().AddCommand(cmd.CreateSetCmd())
	cli.Root().AddCommand(cmd.CreateWatchCmd())

	cli.Run()
}
