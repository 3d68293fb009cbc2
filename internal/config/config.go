// Package config loads the optional YAML settings file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/harness"
)

// EnvConfig names the environment variable holding the settings file path.
const EnvConfig = "SIMTEMP_CONFIG"

type Config struct {
	Device      string `yaml:"device"`
	SysfsRoot   string `yaml:"sysfs_root"`
	RecordDir   string `yaml:"record_dir"`
	MetricsAddr string `yaml:"metrics_addr"`
	Checks      Checks `yaml:"checks"`
}

// Checks holds the test run parameters. Zero values take the defaults;
// thresholds and Restore are pointers so an explicit 0 or false survives.
type Checks struct {
	CadenceIntervalMs   int           `yaml:"cadence_interval_ms"`
	CadenceMin          int           `yaml:"cadence_min"`
	CadenceMax          int           `yaml:"cadence_max"`
	ThresholdMilliC     *int          `yaml:"threshold_mc"`
	MaxAlertLatency     int           `yaml:"max_alert_latency"`
	FastIntervalMs      int           `yaml:"fast_interval_ms"`
	FastThresholdMilliC *int          `yaml:"fast_threshold_mc"`
	FastMin             int           `yaml:"fast_min"`
	FastMax             int           `yaml:"fast_max"`
	SampleCap           int           `yaml:"sample_cap"`
	AlertCap            int           `yaml:"alert_cap"`
	ActorIterations     int           `yaml:"actor_iterations"`
	ActorTimeout        time.Duration `yaml:"actor_timeout"`
	ReaderDelay         time.Duration `yaml:"reader_delay"`
	WriterDelay         time.Duration `yaml:"writer_delay"`
	Restore             *bool         `yaml:"restore"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfig, "cannot read config file", err,
			map[string]any{"path": path})
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeConfig, "cannot parse config file", err,
			map[string]any{"path": path})
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device == "" {
		c.Device = defaults.DevicePath
	}
	if c.SysfsRoot == "" {
		c.SysfsRoot = defaults.SysfsRoot
	}

	ch := &c.Checks
	setInt(&ch.CadenceIntervalMs, defaults.CadenceIntervalMs)
	setInt(&ch.CadenceMin, defaults.CadenceMin)
	setInt(&ch.CadenceMax, defaults.CadenceMax)
	setIntPtr(&ch.ThresholdMilliC, defaults.ThresholdMilliC)
	setInt(&ch.MaxAlertLatency, defaults.MaxAlertLatency)
	setInt(&ch.FastIntervalMs, defaults.FastIntervalMs)
	setIntPtr(&ch.FastThresholdMilliC, defaults.FastThresholdMilliC)
	setInt(&ch.FastMin, defaults.FastMin)
	setInt(&ch.FastMax, defaults.FastMax)
	setInt(&ch.SampleCap, defaults.SampleCap)
	setInt(&ch.AlertCap, defaults.AlertCap)
	setInt(&ch.ActorIterations, defaults.ActorIterations)
	if ch.ActorTimeout == 0 {
		ch.ActorTimeout = defaults.ActorTimeout
	}
	if ch.ReaderDelay == 0 {
		ch.ReaderDelay = defaults.ReaderDelay
	}
	if ch.WriterDelay == 0 {
		ch.WriterDelay = defaults.WriterDelay
	}
	if ch.Restore == nil {
		restore := true
		ch.Restore = &restore
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setIntPtr(v **int, def int) {
	if *v == nil {
		*v = &def
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	ch := c.Checks
	switch {
	case c.Device == "":
		return invalid("device is required")
	case c.SysfsRoot == "":
		return invalid("sysfs_root is required")
	case ch.CadenceIntervalMs < 1 || ch.FastIntervalMs < 1:
		return invalid("sampling intervals must be at least 1ms")
	case ch.CadenceMin > ch.CadenceMax:
		return invalid(fmt.Sprintf("cadence_min %d exceeds cadence_max %d", ch.CadenceMin, ch.CadenceMax))
	case ch.FastMin > ch.FastMax:
		return invalid(fmt.Sprintf("fast_min %d exceeds fast_max %d", ch.FastMin, ch.FastMax))
	case ch.SampleCap < ch.CadenceMax || ch.SampleCap < ch.FastMax:
		return invalid(fmt.Sprintf("sample_cap %d is below a pass window", ch.SampleCap))
	case ch.AlertCap < ch.MaxAlertLatency:
		return invalid(fmt.Sprintf("alert_cap %d is below max_alert_latency %d", ch.AlertCap, ch.MaxAlertLatency))
	case ch.ActorIterations < 1:
		return invalid("actor_iterations must be positive")
	case ch.ActorTimeout <= 0 || ch.ReaderDelay < 0 || ch.WriterDelay < 0:
		return invalid("actor timings must not be negative")
	}
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeConfig, "invalid config: "+msg)
}

// Settings converts the check parameters for the test harness.
func (c *Config) Settings() harness.Settings {
	ch := c.Checks
	return harness.Settings{
		Window:              defaults.CountWindow,
		CadenceIntervalMs:   ch.CadenceIntervalMs,
		CadenceMin:          ch.CadenceMin,
		CadenceMax:          ch.CadenceMax,
		ThresholdMilliC:     intOr(ch.ThresholdMilliC, defaults.ThresholdMilliC),
		MaxAlertLatency:     ch.MaxAlertLatency,
		AlertCap:            ch.AlertCap,
		FastIntervalMs:      ch.FastIntervalMs,
		FastThresholdMilliC: intOr(ch.FastThresholdMilliC, defaults.FastThresholdMilliC),
		FastMin:             ch.FastMin,
		FastMax:             ch.FastMax,
		SampleCap:           ch.SampleCap,
		ActorIterations:     ch.ActorIterations,
		ActorTimeout:        ch.ActorTimeout,
		ReaderDelay:         ch.ReaderDelay,
		WriterDelay:         ch.WriterDelay,
		Restore:             ch.Restore == nil || *ch.Restore,
	}
}
