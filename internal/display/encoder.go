// Package display encodes sensor samples into the proprietary HID output
// reports understood by the DeepCool AK-series cooler panel. Encoding is
// pure byte math; nothing here touches the device.
package display

import (
	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/sensor"
)

// Unit is the temperature unit rendered on the panel.
type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitFahrenheit Unit = "fahrenheit"
)

const ErrUnknownUnit = errors.ErrorCode("display_unknown_unit")

// ParseUnit validates a configured unit string.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitCelsius, UnitFahrenheit:
		return Unit(s), nil
	default:
		return "", errors.New().WithData(ErrUnknownUnit, s)
	}
}

// Report layout, captured from the vendor application's USB traffic:
// [report id, mode, usage bar, hundreds, tens, units, alarm].
const (
	ReportID     = 0x10
	ReportLength = 7

	// mode byte selects the unit glyph shown next to the digits
	modeCelsius    = 19
	modeFahrenheit = 35
	modePercentage = 76
	modeLoading    = 170 // plays the built-in loading animation

	// three seven-segment digits
	maxDisplayValue = 999
	minDisplayValue = 0

	// the usage bar has ten squares and always lights at least one
	barMin = 1
	barMax = 10

	offsetMode     = 1
	offsetBar      = 2
	offsetHundreds = 3
	offsetTens     = 4
	offsetUnits    = 5
	offsetAlarm    = 6
)

// Report is one encoded HID output report, never mutated after encoding.
type Report []byte

// Config holds the display-facing configuration, immutable for the
// process lifetime.
type Config struct {
	Unit        Unit
	ShowWarning bool

	// WarningTemperature is expressed in Unit, matching what the
	// operator sees on the panel.
	WarningTemperature float64
}

// Encode maps a sensor sample to a display report. It is deterministic
// and total: out-of-range values saturate instead of failing.
func Encode(sample sensor.Sample, cfg Config) Report {
	value := sample.TemperatureCelsius
	if cfg.Unit == UnitFahrenheit {
		value = CelsiusToFahrenheit(value)
	}

	alarm := byte(0)
	if IsAlarm(sample, cfg) {
		alarm = 1
	}

	hundreds, tens, units := splitDigits(clampValue(int(value)))
	bar := encodeBar(sample.LoadPercent)

	return Report{ReportID, modeByte(cfg.Unit), bar, hundreds, tens, units, alarm}
}

// EncodeLoading returns the frame that plays the panel's loading
// animation, written on connect and as the final frame on shutdown.
func EncodeLoading() Report {
	return Report{ReportID, modeLoading, 0, 0, 0, 0, 0}
}

// IsAlarm reports whether the sample trips the high-temperature warning.
// The threshold is compared in the configured unit.
func IsAlarm(sample sensor.Sample, cfg Config) bool {
	if !cfg.ShowWarning {
		return false
	}

	value := sample.TemperatureCelsius
	if cfg.Unit == UnitFahrenheit {
		value = CelsiusToFahrenheit(value)
	}

	return value >= cfg.WarningTemperature
}

// CelsiusToFahrenheit converts a temperature reading for display.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

func modeByte(unit Unit) byte {
	if unit == UnitFahrenheit {
		return modeFahrenheit
	}

	return modeCelsius
}

// encodeBar maps 0-100% load onto the 1-10 square usage indicator.
func encodeBar(loadPercent float64) byte {
	squares := int(loadPercent / 100.0 * barMax)
	if squares < barMin {
		squares = barMin
	}
	if squares > barMax {
		squares = barMax
	}

	return byte(squares)
}

func clampValue(value int) int {
	if value < minDisplayValue {
		return minDisplayValue
	}
	if value > maxDisplayValue {
		return maxDisplayValue
	}

	return value
}

func splitDigits(value int) (hundreds, tens, units byte) {
	return byte(value / 100), byte(value % 100 / 10), byte(value % 10)
}
