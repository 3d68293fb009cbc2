package dashboard

import (
	"context"
	stderrors "errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/monitor"
	"github.com/luki/simtemp/internal/sample"
)

// feed is the render.Sink the stream monitor writes to while the dashboard
// owns the terminal. Sends give up once ctx is done.
type feed struct {
	ctx    context.Context
	events chan<- tea.Msg
}

func (f feed) send(msg tea.Msg) {
	select {
	case f.events <- msg:
	case <-f.ctx.Done():
	}
}

func (f feed) Sample(s sample.Sample) { f.send(sampleMsg(s)) }
func (f feed) Warn(msg string)        { f.send(warnMsg(msg)) }
func (f feed) Line(string)            {}
func (f feed) Prompt(string)          {}

// Options tune a dashboard run.
type Options struct {
	Clock     sample.Clock
	RecordDir string
	Observers []monitor.Observer
	// ProgramOptions are passed to tea.NewProgram after the defaults.
	ProgramOptions []tea.ProgramOption
}

// Run shows the dashboard until the user quits or ctx is cancelled, then
// waits for the stream monitor to observe the stop before returning.
func Run(ctx context.Context, src device.Source, port knob.Port, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 64)
	mon := monitor.New(src, feed{ctx: ctx, events: events}, opts.Observers...)
	monErr := make(chan error, 1)
	go func() {
		monErr <- mon.Run(ctx)
	}()

	progOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)
	p := tea.NewProgram(New(events, port, opts.Clock, opts.RecordDir), progOpts...)
	_, runErr := p.Run()
	cancel()

	if stderrors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	err := <-monErr
	if err != nil {
		slog.Error("dashboard stream failed", slog.String("error", err.Error()))
	}
	if runErr != nil {
		return runErr
	}
	return err
}
