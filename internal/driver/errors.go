package driver

import "codeberg.org/mutker/deepcoolctl/internal/errors"

const (
	ErrInvalidInterval = errors.ErrorCode("driver_invalid_interval")
	ErrMissingSensor   = errors.ErrorCode("driver_missing_sensor_provider")
	ErrMissingBackend  = errors.ErrorCode("driver_missing_hid_backend")
)
