// Package config loads and validates the service configuration from the
// TOML config file, environment, and command line flags. Configuration is
// immutable after Load; a reload would require restarting the service.
package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/deepcoolctl/internal/display"
	"codeberg.org/mutker/deepcoolctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "deepcoolctl"
	configType = "toml"
	configDir  = "/etc/deepcoolctl"

	// DeepCool AK-series digital display
	DefaultVendorID  = 0x3633
	DefaultProductID = 0x0003

	DefaultInterval           = 2
	DefaultWarningTemperature = 90.0
	DefaultLogLevel           = "info"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

type Config struct {
	// Interval between display updates, in seconds
	Interval int `mapstructure:"interval"`

	// Unit shown on the panel: "celsius" or "fahrenheit"
	Unit string `mapstructure:"unit"`

	// USB identifiers of the display device
	VendorID  uint16 `mapstructure:"vendor_id"`
	ProductID uint16 `mapstructure:"product_id"`

	// High-temperature warning indicator
	ShowWarning        bool    `mapstructure:"show_warning"`
	WarningTemperature float64 `mapstructure:"warning_temperature"`

	// Hwmon chip name; empty probes common CPU sensor chips
	Sensor string `mapstructure:"sensor"`

	// Monitor logs sensor readings without opening the device
	Monitor bool `mapstructure:"monitor"`

	LogLevel string `mapstructure:"log_level"`

	// Local history of rendered state
	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`
}

// Load reads configuration from flags, environment (DEEPCOOLCTL_ prefix),
// and the config file, then validates it. Validation failures are fatal
// by design: a misconfigured service should not start.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("config", "", "Path to the configuration file")
	flags.Int("interval", DefaultInterval, "Seconds between display updates")
	flags.String("unit", string(display.UnitCelsius), "Temperature unit: celsius or fahrenheit")
	flags.String("sensor", "", "Hwmon chip name to read temperature from")
	flags.Bool("monitor", false, "Log sensor readings without writing to the device")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning, error")
	flags.Bool("telemetry", false, "Record rendered state to a local database")
	flags.String("database", "", "Path to the telemetry database")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	for flagName, key := range map[string]string{
		"interval":  "interval",
		"unit":      "unit",
		"sensor":    "sensor",
		"monitor":   "monitor",
		"log-level": "log_level",
		"telemetry": "telemetry",
		"database":  "database",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix("DEEPCOOLCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	config.Unit = strings.ToLower(config.Unit)
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("unit", string(display.UnitCelsius))
	v.SetDefault("vendor_id", DefaultVendorID)
	v.SetDefault("product_id", DefaultProductID)
	v.SetDefault("show_warning", true)
	v.SetDefault("warning_temperature", DefaultWarningTemperature)
	v.SetDefault("sensor", "")
	v.SetDefault("monitor", false)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "")
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	errFactory := errors.New()

	// Explicit path from flag or environment wins over the search path
	path, _ := flags.GetString("config")
	if path == "" {
		path = os.Getenv("DEEPCOOLCTL_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").
				WithData(err.Error())
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(configDir)
	v.AddConfigPath("/etc")

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults; anything else is fatal
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").
				WithData(err.Error())
		}
	}

	return nil
}

// Validate checks the loaded configuration. Safety-relevant fields never
// fall back to guessed values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if _, err := display.ParseUnit(c.Unit); err != nil {
		return errFactory.Wrap(errors.ErrInvalidUnit, err)
	}

	if !validLogLevels[c.LogLevel] {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.VendorID == 0 || c.ProductID == 0 {
		return errFactory.WithData(errors.ErrInvalidDeviceID, struct {
			VendorID  uint16
			ProductID uint16
		}{
			VendorID:  c.VendorID,
			ProductID: c.ProductID,
		})
	}

	if c.ShowWarning && c.WarningTemperature <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.WarningTemperature)
	}

	return nil
}

// DisplayUnit returns the validated display unit.
func (c *Config) DisplayUnit() display.Unit {
	unit, _ := display.ParseUnit(c.Unit)
	return unit
}

// Debug reports whether debug logging is configured.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Verbose reports whether info-level logging is configured.
func (c *Config) Verbose() bool {
	return c.LogLevel == "debug" || c.LogLevel == "info"
}
