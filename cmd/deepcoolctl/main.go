package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/config"
	"codeberg.org/mutker/deepcoolctl/internal/display"
	"codeberg.org/mutker/deepcoolctl/internal/driver"
	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/hid"
	"codeberg.org/mutker/deepcoolctl/internal/logger"
	"codeberg.org/mutker/deepcoolctl/internal/pid"
	"codeberg.org/mutker/deepcoolctl/internal/sensor"
	"codeberg.org/mutker/deepcoolctl/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug(), cfg.Verbose(), logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		if errors.IsCode(err, errors.ErrAlreadyRunning) {
			logger.Fatal().Err(err).Msg("Another instance is already running")
		}
		logger.Warn().Err(err).Msg("Failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	collector, err := telemetry.NewService(telemetryConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close telemetry")
		}
	}()

	var locator hid.Locator
	var opener hid.Opener
	if !cfg.Monitor {
		backend, err := hid.NewBackend()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize HID backend")
		}
		defer func() {
			if err := backend.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to shut down HID backend")
			}
		}()
		locator, opener = backend, backend
	}

	drv, err := driver.New(driverConfig(), locator, opener, sensor.NewHwmon(cfg.Sensor), collector)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize driver")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := drv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Error in main loop")
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func driverConfig() driver.Config {
	return driver.Config{
		Interval:  time.Duration(cfg.Interval) * time.Second,
		VendorID:  cfg.VendorID,
		ProductID: cfg.ProductID,
		Monitor:   cfg.Monitor,
		Display: display.Config{
			Unit:               cfg.DisplayUnit(),
			ShowWarning:        cfg.ShowWarning,
			WarningTemperature: cfg.WarningTemperature,
		},
	}
}

func telemetryConfig() telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry
	if cfg.TelemetryDB != "" {
		tc.DBPath = cfg.TelemetryDB
	}

	return tc
}
