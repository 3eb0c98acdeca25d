package display_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/display"
	"codeberg.org/mutker/deepcoolctl/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func celsiusConfig() display.Config {
	return display.Config{
		Unit:               display.UnitCelsius,
		ShowWarning:        true,
		WarningTemperature: 90,
	}
}

func sample(temperature, load float64) sensor.Sample {
	return sensor.Sample{
		TemperatureCelsius: temperature,
		LoadPercent:        load,
		Timestamp:          time.Unix(1700000000, 0),
	}
}

func TestEncodeDeterministic(t *testing.T) {
	s := sample(45.0, 30.0)
	cfg := celsiusConfig()

	first := display.Encode(s, cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, display.Encode(s, cfg), "Encode must be deterministic")
	}
}

func TestEncodeDigits(t *testing.T) {
	report := display.Encode(sample(45.0, 0), celsiusConfig())

	require.Len(t, report, display.ReportLength)
	assert.EqualValues(t, display.ReportID, report[0])
	assert.EqualValues(t, 0, report[3], "hundreds")
	assert.EqualValues(t, 4, report[4], "tens")
	assert.EqualValues(t, 5, report[5], "units")
}

func TestEncodeClampsHigh(t *testing.T) {
	cfg := celsiusConfig()
	cfg.ShowWarning = false

	over := display.Encode(sample(1200.0, 0), cfg)
	max := display.Encode(sample(999.0, 0), cfg)

	assert.Equal(t, max, over, "over-range temperature must encode like the maximum")
	assert.EqualValues(t, 9, over[3])
	assert.EqualValues(t, 9, over[4])
	assert.EqualValues(t, 9, over[5])
}

func TestEncodeClampsLow(t *testing.T) {
	under := display.Encode(sample(-15.0, 0), celsiusConfig())
	zero := display.Encode(sample(0.0, 0), celsiusConfig())

	assert.Equal(t, zero, under, "below-range temperature must encode like the minimum")
	assert.EqualValues(t, 0, under[3])
	assert.EqualValues(t, 0, under[4])
	assert.EqualValues(t, 0, under[5])
}

func TestEncodeUnitConversion(t *testing.T) {
	fahrenheit := celsiusConfig()
	fahrenheit.Unit = display.UnitFahrenheit

	// 0°C reads 32 under Fahrenheit configuration
	report := display.Encode(sample(0.0, 0), fahrenheit)
	assert.EqualValues(t, 0, report[3])
	assert.EqualValues(t, 3, report[4])
	assert.EqualValues(t, 2, report[5])

	// cross-check: the converted value encodes to the same digits under Celsius
	converted := display.Encode(sample(display.CelsiusToFahrenheit(0.0), 0), celsiusConfig())
	assert.Equal(t, report[3:6], converted[3:6])
}

func TestEncodeUnitModeBytes(t *testing.T) {
	c := display.Encode(sample(50, 0), celsiusConfig())

	f := celsiusConfig()
	f.Unit = display.UnitFahrenheit
	fr := display.Encode(sample(50, 0), f)

	assert.NotEqual(t, c[1], fr[1], "unit glyph byte must differ between units")
}

func TestEncodeUsageBar(t *testing.T) {
	tests := []struct {
		name string
		load float64
		want byte
	}{
		{"idle lights one square", 0, 1},
		{"half load", 50, 5},
		{"full load", 100, 10},
		{"over-range load clamps", 250, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := display.Encode(sample(40, tt.load), celsiusConfig())
			assert.Equal(t, tt.want, report[2])
		})
	}
}

func TestEncodeAlarm(t *testing.T) {
	cfg := celsiusConfig()

	cool := display.Encode(sample(60, 0), cfg)
	assert.EqualValues(t, 0, cool[6])

	hot := display.Encode(sample(95, 0), cfg)
	assert.EqualValues(t, 1, hot[6])

	cfg.ShowWarning = false
	suppressed := display.Encode(sample(95, 0), cfg)
	assert.EqualValues(t, 0, suppressed[6])
}

func TestEncodeAlarmThresholdInConfiguredUnit(t *testing.T) {
	cfg := display.Config{
		Unit:               display.UnitFahrenheit,
		ShowWarning:        true,
		WarningTemperature: 200, // °F
	}

	// 90°C is 194°F, below a 200°F threshold
	assert.False(t, display.IsAlarm(sample(90, 0), cfg))
	// 95°C is 203°F
	assert.True(t, display.IsAlarm(sample(95, 0), cfg))
}

func TestEncodeLoading(t *testing.T) {
	frame := display.EncodeLoading()

	require.Len(t, frame, display.ReportLength)
	assert.EqualValues(t, display.ReportID, frame[0])
	assert.EqualValues(t, 170, frame[1])
}

func TestParseUnit(t *testing.T) {
	unit, err := display.ParseUnit("celsius")
	require.NoError(t, err)
	assert.Equal(t, display.UnitCelsius, unit)

	unit, err = display.ParseUnit("fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, display.UnitFahrenheit, unit)

	_, err = display.ParseUnit("kelvin")
	require.Error(t, err)
}
