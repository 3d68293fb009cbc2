package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/command"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/knob"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change the driver knobs.",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print every knob value.",
				Action: configShowAction,
			},
			{
				Name:      "set",
				Usage:     "Write one knob.",
				ArgsUsage: "<sampling_mc|threshold_mc|mode> <value>",
				Description: `Writes value to the knob. Modes may be given by name (normal, noisy, ramp)
or number. The driver's errno is reported when it rejects the write.`,
				Action: configSetAction,
			},
		},
	}
}

func configShowAction(_ context.Context, cmd *cli.Command) error {
	e, err := setup(cmd, simVirtual)
	if err != nil {
		return err
	}
	defer e.close()

	snap := knob.ReadAll(e.port)
	fmt.Fprintln(e.out, "Current Configuration:")
	for _, k := range knob.All {
		fmt.Fprintln(e.out, command.Describe(k, snap.Get(k)))
	}
	if len(snap.Errs) > 0 {
		return errors.NewWithContext(errors.ErrCodeIO, "some knobs could not be read",
			map[string]any{"failed": len(snap.Errs)})
	}
	return nil
}

func configSetAction(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return errors.New(errors.ErrCodeInvalidRequest, "usage: config set <knob> <value>")
	}
	name, value := cmd.Args().Get(0), cmd.Args().Get(1)
	k, ok := knob.Parse(name)
	if !ok {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "unknown knob",
			map[string]any{"knob": name})
	}
	if k == knob.KnobMode {
		m, err := knob.ParseMode(value)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid mode", err)
		}
		value = strconv.Itoa(int(m))
	}

	e, err := setup(cmd, simVirtual)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.port.Write(k, value); err != nil {
		fmt.Fprintf(e.out, "could not write %s to %s: %d\n", value, k, knob.Errno(err))
		return err
	}
	fmt.Fprintln(e.out, command.Describe(k, value))
	return nil
}
