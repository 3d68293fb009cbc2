package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/chart"
	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/history"
	"github.com/luki/simtemp/internal/store"
	"github.com/luki/simtemp/internal/viewer"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Summarize samples recorded with --record.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "recording directory (default: --record, then ~/.simtemp-data)",
			},
			&cli.StringFlag{
				Name:  "day",
				Usage: "day to summarize as YYYY-MM-DD (default: most recent)",
			},
			&cli.BoolFlag{
				Name:    "browse",
				Aliases: []string{"b"},
				Usage:   "scrub through the day in a full-screen browser",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "list recorded days and exit",
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "alert threshold in °C used to color the chart",
				Value: defaults.DriverThresholdMilliC / 1000.0,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "chart width in columns",
				Value: 60,
			},
		},
		Action: historyAction,
	}
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	dir := cmd.String("dir")
	if dir == "" {
		dir = cmd.String("record")
	}
	if dir == "" {
		dir = store.DataDir()
	}

	if cmd.Bool("browse") {
		return viewer.Run(ctx, dir, cmd.String("day"), cmd.Float("threshold"))
	}

	days, err := store.ListDays(dir)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeIO, "cannot list recordings", err,
			map[string]any{"dir": dir})
	}
	if cmd.Bool("list") {
		for _, d := range days {
			fmt.Fprintln(out, d)
		}
		return nil
	}

	day := cmd.String("day")
	if day == "" {
		if len(days) == 0 {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest, "no recordings found",
				map[string]any{"dir": dir})
		}
		day = days[0]
	}
	records, err := store.LoadDay(dir, day)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "%s: no samples\n", day)
		return nil
	}

	buf := history.NewBuffer(len(records), nil)
	for _, r := range records {
		buf.Push(history.Point{Temp: float64(r.TempMilliC) / 1000, Time: r.Time, Alert: r.Alert})
	}
	st := buf.Stats()
	threshold := cmd.Float("threshold")
	width := max(int(cmd.Int("width")), 10)

	fmt.Fprintf(out, "%s: %d samples, %d alerts\n", day, st.Count, st.Alerts)
	fmt.Fprintf(out, "  from %s to %s\n", st.First.Format("15:04:05"), st.Last.Format("15:04:05"))
	fmt.Fprintf(out, "  min %.2f°C  peak %.2f°C  avg %.2f°C\n", st.Min, st.Peak, st.Avg)

	points := buf.LastNPoints(width)
	lo, hi := chart.Range(points, threshold)
	fmt.Fprintln(out, "  "+chart.RenderSparklinePoints(points, width, lo, hi, threshold))
	fmt.Fprintln(out, "  "+chart.RenderTimeline(points, width))
	return nil
}
