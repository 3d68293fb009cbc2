// Package cli wires the simtemp commands: an interactive monitor (the
// default), the driver test run, knob inspection, a live dashboard and a
// summary of recorded samples.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/config"
	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/logging"
)

const (
	name           = "simtemp"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the application with os.Args and standard streams.
func Execute(ctx context.Context) error {
	return NewApp(os.Stdin, os.Stdout).Run(ctx, os.Args)
}

// NewApp builds the command tree reading commands from in and writing
// program output to out. Logs always go to stderr.
func NewApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Monitor and verify the simtemp temperature sensor driver",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `Streams samples from /dev/simtemp and accepts knob commands while doing so.

Run without a subcommand to start the interactive monitor. Commands typed
while monitoring:
  write <sampling_mc|threshold_mc|mode> <value>
  read <knob>
  show
  help
  exit`,
		Reader: in,
		Writer: out,
		Flags:  globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
		Action: monitorAction,
		Commands: []*cli.Command{
			monitorCmd(),
			testCmd(),
			configCmd(),
			dashboardCmd(),
			historyCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML settings file",
			Sources: cli.EnvVars(config.EnvConfig),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Sources: cli.EnvVars(logging.EnvLogLevel),
			Value:   "warn",
		},
		&cli.StringFlag{
			Name:    "device",
			Usage:   "character device streaming samples",
			Sources: cli.EnvVars("SIMTEMP_DEVICE"),
			Value:   defaults.DevicePath,
		},
		&cli.StringFlag{
			Name:    "sysfs-root",
			Usage:   "directory holding the configuration knobs",
			Sources: cli.EnvVars("SIMTEMP_SYSFS_ROOT"),
			Value:   defaults.SysfsRoot,
		},
		&cli.BoolFlag{
			Name:  "simulate",
			Usage: "use the in-process simulated driver instead of the device",
		},
		&cli.StringFlag{
			Name:    "record",
			Usage:   "append every sample to daily CSV files in this directory",
			Sources: cli.EnvVars("SIMTEMP_RECORD_DIR"),
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve Prometheus metrics on this address (empty disables)",
			Sources: cli.EnvVars("SIMTEMP_METRICS_ADDR"),
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
}
