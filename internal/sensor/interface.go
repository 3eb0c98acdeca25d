package sensor

import (
	"context"
	"time"
)

// Sample is a single point-in-time reading of the host sensors. It is
// produced once per tick and handed straight to the report encoder.
type Sample struct {
	// TemperatureCelsius is the package temperature reported by the
	// CPU's hwmon chip, always in degrees Celsius regardless of the
	// configured display unit.
	TemperatureCelsius float64

	// LoadPercent is the aggregate CPU utilization since the previous
	// sample, 0-100. Zero until two readings exist.
	LoadPercent float64

	// FanRPM is the cooler fan speed if the chip exposes one, 0 otherwise.
	FanRPM int

	Timestamp time.Time
}

// Provider reads the current sensor state. Implementations are polled by
// the driver loop and must never block longer than a local file read.
type Provider interface {
	Sample(ctx context.Context) (Sample, error)
}
