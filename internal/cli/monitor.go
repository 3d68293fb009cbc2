package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/luki/simtemp/internal/chart"
	"github.com/luki/simtemp/internal/command"
	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/history"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/monitor"
	"github.com/luki/simtemp/internal/store"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Stream samples while accepting knob commands (default).",
		Description: `Prints every sample the driver produces, marking alerts, and reads commands
from standard input at the same time:

  write sampling_mc 250
  write threshold_mc 42000
  write mode 1
  read mode
  show
  exit`,
		Action: monitorAction,
	}
}

func monitorAction(ctx context.Context, cmd *cli.Command) error {
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

	hist := history.NewBuffer(defaults.HistorySize, e.clock)
	observers := []monitor.Observer{hist}

	var rec *store.Recorder
	if e.cfg.RecordDir != "" {
		rec, err = store.NewRecorder(e.cfg.RecordDir, e.clock)
		if err != nil {
			return err
		}
		observers = append(observers, rec)
		slog.Info("recording samples", slog.String("dir", rec.Dir()))
	}

	term := e.terminal(true)
	sess := monitor.NewSession(src, e.port, e.in, term)
	sess.Observers = observers
	if isTTY(e.out) && isInteractive(e.in) {
		sess.Prompt = command.DefaultPrompt
	}

	runErr := sess.Run(ctx)
	term.Close()

	writeStats(e.out, hist, liveThreshold(e.port))
	if rec != nil {
		if err := rec.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isTTY(f)
}

// trendWidth is the number of most recent samples in the exit trend line.
const trendWidth = 60

// writeStats prints the session summary shown after monitoring: one line
// of statistics and a sparkline of the latest temperatures.
func writeStats(w io.Writer, hist *history.Buffer, threshold float64) {
	st := hist.Stats()
	if st.Count == 0 {
		fmt.Fprintln(w, "No samples received.")
		return
	}
	fmt.Fprintf(w, "Session: %d samples, %d alerts, min %.2f°C, peak %.2f°C, avg %.2f°C over %s\n",
		st.Count, st.Alerts, st.Min, st.Peak, st.Avg, st.Last.Sub(st.First).Round(time.Millisecond))

	values := hist.LastN(trendWidth)
	lo, hi := min(st.Min, threshold)-1, max(st.Peak, threshold)+1
	fmt.Fprintf(w, "Trend:   %s\n", chart.RenderSparkline(values, len(values), lo, hi, threshold))
}

// liveThreshold reads the alert threshold in °C, falling back to the
// driver default when the knob cannot be read.
func liveThreshold(p knob.Port) float64 {
	v, err := p.Read(knob.KnobThreshold)
	if err == nil {
		if mC, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return float64(mC) / 1000
		}
	}
	return defaults.DriverThresholdMilliC / 1000.0
}
