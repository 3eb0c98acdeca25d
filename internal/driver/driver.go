// Package driver runs the update loop: it polls the sensors on a timer,
// encodes a report, and writes it through the one live device session,
// reacquiring the device with backoff whenever it goes away.
package driver

import (
	"context"
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/display"
	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/hid"
	"codeberg.org/mutker/deepcoolctl/internal/logger"
	"codeberg.org/mutker/deepcoolctl/internal/sensor"
	"codeberg.org/mutker/deepcoolctl/internal/telemetry"
)

const (
	temperatureWindowSize = 5
	shutdownWriteTimeout  = time.Second
)

// State of the update loop.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

type Config struct {
	Interval  time.Duration
	VendorID  uint16
	ProductID uint16
	Display   display.Config

	// Monitor logs sensor readings without touching the device, so the
	// service can be exercised before udev rules are in place.
	Monitor bool

	// Reconnect backoff schedule; zero values take the defaults.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Driver owns the single live device session. Only Run touches it, so no
// locking is needed around session state.
type Driver struct {
	cfg       Config
	locator   hid.Locator
	opener    hid.Opener
	sensors   sensor.Provider
	collector telemetry.Collector
	backoff   *Backoff

	state              State
	session            hid.Session
	temperatureHistory []float64
}

func New(
	cfg Config,
	locator hid.Locator,
	opener hid.Opener,
	sensors sensor.Provider,
	collector telemetry.Collector,
) (*Driver, error) {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return nil, errFactory.WithData(ErrInvalidInterval, cfg.Interval.String())
	}
	if sensors == nil {
		return nil, errFactory.New(ErrMissingSensor)
	}
	if !cfg.Monitor && (locator == nil || opener == nil) {
		return nil, errFactory.New(ErrMissingBackend)
	}
	if collector == nil {
		collector = telemetry.Noop()
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = defaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}

	return &Driver{
		cfg:       cfg,
		locator:   locator,
		opener:    opener,
		sensors:   sensors,
		collector: collector,
		backoff:   NewBackoff(cfg.BackoffInitial, cfg.BackoffMax),
	}, nil
}

// Run drives the state machine until ctx is canceled. Steady-state
// failures (device absent, denied, unplugged, sensor hiccups) are handled
// here and never propagate.
func (d *Driver) Run(ctx context.Context) error {
	if d.cfg.Monitor {
		return d.monitor(ctx)
	}

	for {
		switch d.state {
		case StateDisconnected:
			if !d.waitBackoff(ctx) {
				d.state = StateShuttingDown
				continue
			}
			d.state = StateConnecting

		case StateConnecting:
			d.connect(ctx)

		case StateConnected:
			d.serve(ctx)

		case StateShuttingDown:
			d.shutdown()
			return nil
		}
	}
}

// waitBackoff blocks for the current backoff delay. It returns false when
// the context is canceled during the wait.
func (d *Driver) waitBackoff(ctx context.Context) bool {
	delay := d.backoff.Next()
	if delay == 0 {
		return ctx.Err() == nil
	}

	logger.Debug().Dur("delay", delay).Msg("Waiting before reconnect attempt")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (d *Driver) connect(ctx context.Context) {
	desc, err := d.locator.Find(d.cfg.VendorID, d.cfg.ProductID)
	if err != nil {
		if errors.IsCode(err, hid.ErrDeviceNotFound) {
			logger.Debug().Err(err).Msg("Display device not present")
		} else {
			logger.Warn().Err(err).Msg("Device discovery failed")
		}
		d.state = StateDisconnected

		return
	}

	session, err := d.opener.Open(desc)
	if err != nil {
		if errors.IsCode(err, hid.ErrPermissionDenied) {
			// Self-resolves once the operator installs the udev rule;
			// keep retrying rather than aborting.
			logger.Warn().Err(err).
				Str("path", desc.Path).
				Msg("Device access denied; check udev rules for the display device")
		} else {
			logger.Warn().Err(err).Str("path", desc.Path).Msg("Failed to open display device")
		}
		d.state = StateDisconnected

		return
	}

	d.session = session

	// Greet the panel with the loading animation; a failure here means
	// the device disappeared between enumeration and open.
	if err := d.session.WriteReport(ctx, display.EncodeLoading()); err != nil {
		d.teardown(err)
		return
	}

	d.backoff.Reset()
	logger.Info().
		Str("product", desc.Product).
		Msg("Display connected")
	d.state = StateConnected
}

func (d *Driver) serve(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for d.state == StateConnected {
		select {
		case <-ctx.Done():
			d.state = StateShuttingDown
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	sample, err := d.sensors.Sample(ctx)
	if err != nil {
		// Sensor trouble is independent of the device session: skip
		// this update and try again next tick.
		logger.Warn().Err(err).Msg("Sensor read failed; skipping update")
		return
	}

	report := display.Encode(sample, d.cfg.Display)
	if err := d.session.WriteReport(ctx, report); err != nil {
		d.teardown(err)
		return
	}

	d.record(ctx, sample, true)
}

// teardown closes the failed session before any reconnect attempt so at
// most one handle to the device ever exists.
func (d *Driver) teardown(cause error) {
	if err := d.session.Close(); err != nil {
		logger.Debug().Err(err).Msg("Failed to close device session")
	}
	d.session = nil

	logger.Warn().Err(cause).Msg("Lost display device; reconnecting")
	d.state = StateDisconnected
}

// shutdown leaves the panel on the loading animation rather than a stale
// temperature, then releases the handle.
func (d *Driver) shutdown() {
	if d.session == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), shutdownWriteTimeout)
	defer cancel()

	if err := d.session.WriteReport(writeCtx, display.EncodeLoading()); err != nil {
		logger.Debug().Err(err).Msg("Failed to write shutdown frame")
	}
	if err := d.session.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close device session")
	}
	d.session = nil

	logger.Info().Msg("Display released")
}

func (d *Driver) monitor(ctx context.Context) error {
	logger.Info().Msg("Monitor mode activated. Logging sensor readings...")

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sample, err := d.sensors.Sample(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("Sensor read failed")
				continue
			}

			logger.Info().
				Float64("temperature", sample.TemperatureCelsius).
				Float64("load_percent", sample.LoadPercent).
				Int("fan_rpm", sample.FanRPM).
				Msg("")

			d.record(ctx, sample, false)
		}
	}
}

func (d *Driver) record(ctx context.Context, sample sensor.Sample, connected bool) {
	average := d.updateTemperatureHistory(sample.TemperatureCelsius)

	snapshot := &telemetry.Snapshot{
		Timestamp:          sample.Timestamp,
		TemperatureCelsius: sample.TemperatureCelsius,
		AverageTemperature: average,
		LoadPercent:        sample.LoadPercent,
		FanRPM:             sample.FanRPM,
		Alarm:              display.IsAlarm(sample, d.cfg.Display),
		Connected:          connected,
	}

	if err := d.collector.Record(ctx, snapshot); err != nil {
		logger.Debug().Err(err).Msg("Failed to record telemetry")
	}
}

func (d *Driver) updateTemperatureHistory(current float64) float64 {
	d.temperatureHistory = append(d.temperatureHistory, current)
	if len(d.temperatureHistory) > temperatureWindowSize {
		d.temperatureHistory = d.temperatureHistory[1:]
	}

	sum := 0.0
	for _, temperature := range d.temperatureHistory {
		sum += temperature
	}

	return sum / float64(len(d.temperatureHistory))
}
