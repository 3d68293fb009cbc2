package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/dashboard"
	"github.com/luki/simtemp/internal/monitor"
	"github.com/luki/simtemp/internal/store"
)

func dashboardCmd() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Full-screen live view with charts and session statistics.",
		Description: `Keys:
  m        cycle the simulation mode
  + / -    raise or lower the threshold by 1°C
  p        pause the display
  q        quit`,
		Action: dashboardAction,
	}
}

func dashboardAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd, simPaced)
	if err != nil {
		return err
	}
	defer e.close()

	src, err := e.open()
	if err != nil {
		return err
	}
	defer src.Close()

	opts := dashboard.Options{Clock: e.clock}
	if e.cfg.RecordDir != "" {
		rec, err := store.NewRecorder(e.cfg.RecordDir, e.clock)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("recording failed", slog.String("error", err.Error()))
			}
		}()
		opts.RecordDir = rec.Dir()
		opts.Observers = []monitor.Observer{rec}
	}
	return dashboard.Run(ctx, src, e.port, opts)
}
