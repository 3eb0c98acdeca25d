package telemetry

import (
	"context"
	"time"
)

// Collector records what the service rendered each tick.
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for telemetry data storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Snapshot is one tick of rendered display state.
type Snapshot struct {
	Timestamp          time.Time
	TemperatureCelsius float64
	AverageTemperature float64
	LoadPercent        float64
	FanRPM             int
	Alarm              bool
	Connected          bool
}
