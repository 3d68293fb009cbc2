package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/render"
)

// DefaultPrompt is shown before every input line on interactive terminals.
const DefaultPrompt = "Enter a command ('exit' to stop): "

// Loop reads commands line by line and applies them through Port. It never
// touches the device; its only link to the stream monitor is returning,
// after which the caller raises the shared stop signal.
type Loop struct {
	In     io.Reader
	Port   knob.Port
	Sink   render.Sink
	Prompt string // empty disables prompts
}

// Run returns nil on "exit", end of input or cancellation of ctx, and an IO
// error if reading input fails. The line reader may outlive Run while it is
// blocked on input that never arrives.
func (l *Loop) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(l.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	for {
		if l.Prompt != "" {
			l.Sink.Prompt(l.Prompt)
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return errors.Wrap(errors.ErrCodeIO, "command input failed", err)
				}
				slog.Debug("command input closed")
				return nil
			}
			if l.Apply(Parse(line)) {
				return nil
			}
		}
	}
}

// Apply executes one command and reports whether it asked to stop.
func (l *Loop) Apply(cmd Command) (stop bool) {
	commandsTotal.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case Empty:
	case Exit:
		l.Sink.Line("Stopping...")
		return true
	case Write:
		if err := l.Port.Write(cmd.Knob, cmd.Value); err != nil {
			l.Sink.Warn(fmt.Sprintf("could not write %s to %s: %d", cmd.Value, cmd.Knob, knob.Errno(err)))
			return false
		}
		l.Sink.Line(fmt.Sprintf("%s = %s", cmd.Knob, cmd.Value))
		if cmd.Knob == knob.KnobMode {
			l.Sink.Line("Mode changed")
		}
	case Read:
		v, err := l.Port.Read(cmd.Knob)
		if err != nil {
			l.Sink.Warn(fmt.Sprintf("could not read %s: %d", cmd.Knob, knob.Errno(err)))
			return false
		}
		l.Sink.Line(Describe(cmd.Knob, v))
	case Show:
		snap := knob.ReadAll(l.Port)
		for _, k := range knob.All {
			l.Sink.Line(Describe(k, snap.Get(k)))
		}
	case Help:
		for _, u := range Usage {
			l.Sink.Line(u)
		}
	default:
		l.Sink.Warn(cmd.Reason + " (type 'help')")
	}
	return false
}

// Describe renders "knob = value", naming the mode when it parses.
func Describe(k knob.Knob, v string) string {
	if k == knob.KnobMode {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 2 {
			return fmt.Sprintf("%s = %s (%s)", k, v, knob.Mode(n))
		}
	}
	return fmt.Sprintf("%s = %s", k, v)
}
