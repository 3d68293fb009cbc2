package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/luki/simtemp/internal/command"
	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/render"
)

// Session pairs the stream monitor with the command loop. The two share
// nothing but a cancellation: the loop ending stops the monitor, and a
// monitor failure stops the loop.
type Session struct {
	ID        string
	Source    device.Source
	Port      knob.Port
	In        io.Reader
	Sink      render.Sink
	Prompt    string
	Observers []Observer
}

// NewSession returns a session with a fresh ID.
func NewSession(src device.Source, port knob.Port, in io.Reader, sink render.Sink) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Source: src,
		Port:   port,
		In:     in,
		Sink:   sink,
	}
}

// Run prints the current configuration and then streams until the user
// exits, input ends, ctx is cancelled or the device wait fails.
func (s *Session) Run(ctx context.Context) error {
	log := slog.With(slog.String("session", s.ID))
	start := time.Now()
	log.Info("monitoring session started")

	PrintConfig(s.Sink, s.Port)
	s.Sink.Line("Listening for samples and commands...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mon := New(s.Source, s.Sink, s.Observers...)
	loop := &command.Loop{
		In:     s.In,
		Port:   s.Port,
		Sink:   s.Sink,
		Prompt: s.Prompt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mon.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		log.Error("monitoring session failed", slog.String("error", err.Error()))
	} else {
		log.Info("monitoring session finished", slog.Duration("duration", time.Since(start)))
	}
	return err
}

// PrintConfig writes the current knob values, one per line, under a
// "Current Configuration:" heading. Knobs that cannot be read show their
// errno and are also reported as warnings.
func PrintConfig(sink render.Sink, port knob.Port) knob.Snapshot {
	snap := knob.ReadAll(port)
	sink.Line("Current Configuration:")
	for _, k := range knob.All {
		sink.Line(fmt.Sprintf("%s = %s", k, snap.Get(k)))
		if err, failed := snap.Errs[k]; failed {
			sink.Warn(fmt.Sprintf("could not read %s: %v", k, err))
		}
	}
	return snap
}
