package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// newTestHwmon builds a fake hwmon tree with a decoy chip and the chip
// under test, plus a /proc/stat stand-in.
func newTestHwmon(t *testing.T, chipName string) *Hwmon {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "hwmon", "hwmon0", "name"), "nvme\n")
	writeFile(t, filepath.Join(dir, "hwmon", "hwmon0", "temp1_input"), "35000\n")

	writeFile(t, filepath.Join(dir, "hwmon", "hwmon1", "name"), chipName+"\n")
	writeFile(t, filepath.Join(dir, "hwmon", "hwmon1", "temp1_input"), "45000\n")
	writeFile(t, filepath.Join(dir, "hwmon", "hwmon1", "fan1_input"), "1200\n")

	writeFile(t, filepath.Join(dir, "stat"), "cpu  0 0 0 0 0 0 0 0 0 0\n")

	h := NewHwmon("")
	h.root = filepath.Join(dir, "hwmon")
	h.statPath = filepath.Join(dir, "stat")

	return h
}

func TestSampleReadsConfiguredChip(t *testing.T) {
	h := newTestHwmon(t, "k10temp")
	h.chip = "k10temp"

	sample, err := h.Sample(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 45.0, sample.TemperatureCelsius, 0.001)
	assert.Equal(t, 1200, sample.FanRPM)
	assert.False(t, sample.Timestamp.IsZero())
}

func TestSampleProbesKnownChips(t *testing.T) {
	h := newTestHwmon(t, "coretemp")

	sample, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.0, sample.TemperatureCelsius, 0.001)
}

func TestSampleChipMissing(t *testing.T) {
	h := newTestHwmon(t, "unrelated")
	h.chip = "k10temp"

	_, err := h.Sample(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, ErrChipNotFound))
}

func TestSampleRecoversFromChipRemoval(t *testing.T) {
	h := newTestHwmon(t, "k10temp")

	_, err := h.Sample(context.Background())
	require.NoError(t, err)

	// Simulate the hwmon entry vanishing (module unload)
	require.NoError(t, os.RemoveAll(filepath.Join(h.root, "hwmon1")))

	_, err = h.Sample(context.Background())
	require.Error(t, err)
	assert.Empty(t, h.tempPath, "provider must rediscover on the next tick")

	// The chip comes back under a different hwmon number
	writeFile(t, filepath.Join(h.root, "hwmon4", "name"), "k10temp\n")
	writeFile(t, filepath.Join(h.root, "hwmon4", "temp1_input"), "52000\n")

	sample, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 52.0, sample.TemperatureCelsius, 0.001)
}

func TestLoadDeltaBetweenSamples(t *testing.T) {
	h := newTestHwmon(t, "k10temp")

	// First sample only primes the counters
	sample, err := h.Sample(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sample.LoadPercent)

	// busy=100, total=200 against the zeroed baseline
	writeFile(t, h.statPath, "cpu  50 0 50 100 0 0 0 0 0 0\n")

	sample, err = h.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, sample.LoadPercent, 0.001)
}

func TestParseStatLine(t *testing.T) {
	busy, total, err := parseStatLine("cpu  100 0 100 600 100 0 0 0 0 0")
	require.NoError(t, err)
	assert.EqualValues(t, 200, busy)
	assert.EqualValues(t, 900, total)

	_, _, err = parseStatLine("cpu  1 2 3")
	require.Error(t, err)

	_, _, err = parseStatLine("cpu  a b c d e f g h")
	require.Error(t, err)
}
