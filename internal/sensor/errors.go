package sensor

import "codeberg.org/mutker/deepcoolctl/internal/errors"

const (
	ErrChipNotFound       = errors.ErrorCode("sensor_chip_not_found")
	ErrNoTemperatureInput = errors.ErrorCode("sensor_no_temperature_input")
	ErrTemperatureRead    = errors.ErrorCode("sensor_temperature_read_failed")
	ErrLoadRead           = errors.ErrorCode("sensor_load_read_failed")
	ErrMalformedStatLine  = errors.ErrorCode("sensor_malformed_stat_line")
)
