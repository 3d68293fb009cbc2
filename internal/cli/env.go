package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/config"
	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/harness"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/metrics"
	"github.com/luki/simtemp/internal/render"
	"github.com/luki/simtemp/internal/sample"
	"github.com/luki/simtemp/internal/simdev"
)

// env is what every command needs: resolved settings, the knob port and a
// way to open the sample stream, real or simulated.
type env struct {
	cfg     *config.Config
	port    knob.Port
	sim     *simdev.Device
	clock   sample.Clock
	color   bool
	in      io.Reader
	out     io.Writer
	metrics *metrics.Server
}

type simMode int

const (
	simPaced simMode = iota
	simVirtual
)

// setup loads the settings file, applies flag overrides and starts the
// metrics server when configured.
func setup(cmd *cli.Command, mode simMode) (*env, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cmd.IsSet("device") || cfg.Device == "" {
		cfg.Device = cmd.String("device")
	}
	if cmd.IsSet("sysfs-root") || cfg.SysfsRoot == "" {
		cfg.SysfsRoot = cmd.String("sysfs-root")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("record") {
		cfg.RecordDir = cmd.String("record")
	}

	root := cmd.Root()
	e := &env{
		cfg:   cfg,
		clock: sample.SystemClock{},
		color: !cmd.Bool("no-color"),
		in:    root.Reader,
		out:   root.Writer,
	}

	if cmd.Bool("simulate") {
		if mode == simVirtual {
			e.sim = simdev.NewVirtual()
		} else {
			e.sim = simdev.NewPaced()
		}
		e.port = knob.WithMetrics(e.sim)
		e.clock = e.sim
		slog.Info("using simulated driver", slog.Bool("virtual", mode == simVirtual))
	} else {
		e.port = knob.WithMetrics(knob.NewSysfsPort(cfg.SysfsRoot))
	}

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Start(cfg.MetricsAddr)
		if err != nil {
			e.close()
			return nil, err
		}
		e.metrics = srv
	}
	return e, nil
}

// open returns the sample stream. The simulated stream is the simulated
// driver itself, so closing it stops generation but keeps its knobs usable.
func (e *env) open() (harness.Stream, error) {
	if e.sim != nil {
		return e.sim, nil
	}
	f, err := device.Open(e.cfg.Device)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (e *env) exists(path string) bool {
	if e.sim != nil {
		return true
	}
	return device.Exists(path)
}

// terminal returns a sink on the program output. In-place rendering is used
// only when the output is an interactive terminal.
func (e *env) terminal(inPlace bool) *render.Terminal {
	tty := isTTY(e.out)
	return render.NewTerminal(e.out,
		render.WithInPlace(inPlace && tty),
		render.WithColor(e.color && tty),
		render.WithClock(e.clock),
	)
}

func (e *env) close() {
	if e.sim != nil {
		e.sim.Close()
	}
	if e.metrics != nil {
		if err := e.metrics.Shutdown(context.Background()); err != nil {
			slog.Warn("metrics shutdown failed", slog.String("error", err.Error()))
		}
	}
}
