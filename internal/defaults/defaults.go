// Package defaults holds the paths and check parameters shared by the
// config loader and the CLI.
package defaults

import "time"

// Device locations exposed by the simtemp driver.
const (
	// DevicePath is the character device streaming binary samples.
	DevicePath = "/dev/simtemp"

	// SysfsRoot is the directory holding the configuration knobs.
	SysfsRoot = "/sys/class/misc/simtemp"
)

// Cadence check (T2).
const (
	CadenceIntervalMs = 100
	CadenceMin        = 9
	CadenceMax        = 11
)

// Threshold latency check (T3).
const (
	// ThresholdMilliC sits just below the NORMAL mode mean of 25000 mC.
	ThresholdMilliC = 24990
	MaxAlertLatency = 3
	AlertCap        = 20
)

// Error path and fast sampling check (T4).
const (
	FastIntervalMs      = 1
	FastThresholdMilliC = 45000
	FastMin             = 900
	FastMax             = 1100
	SampleCap           = 1500
)

// Concurrent access check (T5).
const (
	ActorIterations = 5
	ActorTimeout    = 2 * time.Second
	ReaderDelay     = 100 * time.Millisecond
	WriterDelay     = 150 * time.Millisecond
)

// CountWindow is the span of device time a timed count observes.
const CountWindow = time.Second

// MetricsShutdownTimeout bounds the graceful stop of the metrics server.
const MetricsShutdownTimeout = 5 * time.Second

// DriverThresholdMilliC is the driver's alert threshold after load, used
// when a recording carries no threshold of its own.
const DriverThresholdMilliC = 45000

// HistorySize bounds the samples kept in memory for statistics and charts.
const HistorySize = 600
