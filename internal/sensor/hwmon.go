package sensor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"codeberg.org/mutker/deepcoolctl/internal/logger"
)

const (
	defaultHwmonRoot = "/sys/class/hwmon"
	defaultStatPath  = "/proc/stat"

	milliDegreesPerDegree = 1000
)

// Chips probed in order when no chip name is configured. Covers AMD
// (k10temp, zenpower) and Intel (coretemp) package sensors.
var defaultChips = []string{"k10temp", "zenpower", "coretemp", "cpu_thermal"}

// Hwmon reads CPU temperature and fan speed from the Linux hwmon sysfs
// tree and CPU load from /proc/stat. It is not safe for concurrent use;
// the driver loop is its only caller.
type Hwmon struct {
	root     string
	statPath string
	chip     string

	tempPath string
	fanPath  string

	prevBusy  uint64
	prevTotal uint64
	hasPrev   bool
}

// NewHwmon returns a provider bound to the given hwmon chip name. An empty
// chip name probes a list of common CPU sensor chips.
func NewHwmon(chip string) *Hwmon {
	return &Hwmon{
		root:     defaultHwmonRoot,
		statPath: defaultStatPath,
		chip:     chip,
	}
}

func (h *Hwmon) Sample(_ context.Context) (Sample, error) {
	errFactory := errors.New()

	if h.tempPath == "" {
		if err := h.discover(); err != nil {
			return Sample{}, err
		}
	}

	raw, err := os.ReadFile(h.tempPath)
	if err != nil {
		// hwmon numbering shifts when modules reload; rediscover next tick.
		if errors.Is(err, fs.ErrNotExist) {
			h.tempPath = ""
			h.fanPath = ""
		}
		return Sample{}, errFactory.Wrap(ErrTemperatureRead, err)
	}

	milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return Sample{}, errFactory.Wrap(ErrTemperatureRead, err)
	}

	sample := Sample{
		TemperatureCelsius: float64(milli) / milliDegreesPerDegree,
		Timestamp:          time.Now(),
	}

	if h.fanPath != "" {
		if rpm, err := readSysfsInt(h.fanPath); err == nil {
			sample.FanRPM = rpm
		}
	}

	load, err := h.readLoad()
	if err != nil {
		// Load only drives the usage bar; a failed read is not worth
		// skipping the temperature update for.
		logger.Debug().Err(err).Msg("Failed to read CPU load")
	} else {
		sample.LoadPercent = load
	}

	return sample, nil
}

// discover walks the hwmon tree looking for the configured chip (or the
// first known CPU chip) and resolves its temperature and fan inputs.
func (h *Hwmon) discover() error {
	errFactory := errors.New()

	entries, err := os.ReadDir(h.root)
	if err != nil {
		return errFactory.Wrap(ErrChipNotFound, err)
	}

	candidates := defaultChips
	if h.chip != "" {
		candidates = []string{h.chip}
	}

	for _, want := range candidates {
		for _, entry := range entries {
			dir := filepath.Join(h.root, entry.Name())

			raw, err := os.ReadFile(filepath.Join(dir, "name"))
			if err != nil {
				continue
			}
			if strings.TrimSpace(string(raw)) != want {
				continue
			}

			tempPath, err := findTemperatureInput(dir)
			if err != nil {
				return err
			}

			h.tempPath = tempPath
			if fans, _ := filepath.Glob(filepath.Join(dir, "fan*_input")); len(fans) > 0 {
				sort.Strings(fans)
				h.fanPath = fans[0]
			}

			logger.Debug().
				Str("chip", want).
				Str("temperature_input", h.tempPath).
				Str("fan_input", h.fanPath).
				Msg("Detected CPU sensor chip")

			return nil
		}
	}

	return errFactory.WithData(ErrChipNotFound, struct {
		Root  string
		Chips []string
	}{
		Root:  h.root,
		Chips: candidates,
	})
}

func findTemperatureInput(dir string) (string, error) {
	// temp1 is the package sensor on every chip we probe for
	path := filepath.Join(dir, "temp1_input")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	inputs, _ := filepath.Glob(filepath.Join(dir, "temp*_input"))
	if len(inputs) == 0 {
		return "", errors.New().WithData(ErrNoTemperatureInput, dir)
	}
	sort.Strings(inputs)

	return inputs[0], nil
}

func readSysfsInt(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, err
	}

	return value, nil
}
