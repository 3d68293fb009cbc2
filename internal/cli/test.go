package cli

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/harness"
)

func testCmd() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Run the driver checks T1 to T5 and print a verdict for each.",
		Description: `Checks, in order:
  T1  the device node exists
  T2  samples arrive at the configured cadence
  T3  an alert follows a lowered threshold promptly
  T4  fast sampling keeps up and invalid knobs are rejected
  T5  concurrent knob readers and writers finish without deadlock

Knob values found before the run are written back afterwards unless
--no-restore is given. The exit status is non-zero when any check fails.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-restore",
				Usage: "leave the knobs as the checks set them",
			},
		},
		Action: testAction,
	}
}

func testAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd, simVirtual)
	if err != nil {
		return err
	}
	defer e.close()

	settings := e.cfg.Settings()
	if cmd.Bool("no-restore") {
		settings.Restore = false
	}

	term := e.terminal(false)
	runner := &harness.Runner{
		DevicePath: e.cfg.Device,
		Exists:     e.exists,
		Open:       e.open,
		Port:       e.port,
		Out:        term,
		Settings:   settings,
	}
	rep := runner.Run(ctx)
	term.Close()

	if err := rep.WriteSummary(e.out, e.color && isTTY(e.out)); err != nil {
		return errors.Wrap(errors.ErrCodeIO, "cannot write summary", err)
	}
	if rep.RestoreErr != nil {
		return errors.Wrap(errors.ErrCodeConfig, "cannot restore knobs", rep.RestoreErr)
	}
	if !rep.Passed() {
		return errors.NewWithContext(errors.ErrCodeInternal, "checks failed",
			map[string]any{"failed": strings.Join(rep.Failed(), ",")})
	}
	return nil
}
