package harness

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luki/simtemp/internal/knob"
)

// concurrency runs a knob reader and a knob writer side by side and passes
// only if each finishes within ActorTimeout of being waited on. Values are
// not checked. An actor that misses its deadline is asked to stop but may
// stay blocked inside a knob call.
func (r *Runner) concurrency(ctx context.Context) Verdict {
	s := r.Settings
	start := time.Now()
	v := Verdict{Name: "T5", Title: "concurrent access"}
	r.Out.Line("Test 5: Run read and config write concurrently.")

	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	var g errgroup.Group
	g.Go(func() error {
		defer close(readerDone)
		return r.readActor(actx)
	})
	g.Go(func() error {
		defer close(writerDone)
		return r.writeActor(actx)
	})

	readerOK := join(readerDone, s.ActorTimeout)
	writerOK := join(writerDone, s.ActorTimeout)

	switch {
	case !readerOK:
		v.Detail = "Reader actor did not finish in time"
	case !writerOK:
		v.Detail = "Writer actor did not finish in time"
	default:
		v.Err = g.Wait()
		v.Passed = v.Err == nil
		v.Detail = "No deadlocks, actors exited safely"
	}

	r.report(v)
	v.Elapsed = time.Since(start)
	return v
}

func join(done <-chan struct{}, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

func (r *Runner) readActor(ctx context.Context) error {
	for i := 0; i < r.Settings.ActorIterations; i++ {
		snap := knob.ReadAll(r.Port)
		r.Out.Line(fmt.Sprintf("Read actor read values: sampling = %s, threshold = %s, mode = %s",
			snap.Sampling, snap.Threshold, snap.Mode))
		if err := sleep(ctx, r.Settings.ReaderDelay); err != nil {
			return err
		}
	}
	return nil
}

// writeActor writes sampling 101, 102, ..., threshold 46000, 46100, ... and
// cycles mode NORMAL, NOISY, RAMP. Rejected writes are reported, not fatal.
func (r *Runner) writeActor(ctx context.Context) error {
	sampling, threshold, mode := 101, 46000, knob.ModeNormal
	for i := 0; i < r.Settings.ActorIterations; i++ {
		for _, w := range []write{
			{knob.KnobSampling, sampling},
			{knob.KnobThreshold, threshold},
			{knob.KnobMode, int(mode)},
		} {
			if err := knob.WriteInt(r.Port, w.k, w.v); err != nil {
				r.Out.Warn(fmt.Sprintf("write actor: %s = %d returned %d", w.k, w.v, knob.Errno(err)))
			}
		}
		r.Out.Line(fmt.Sprintf("Write actor wrote values: sampling = %d, threshold = %d, mode = %d",
			sampling, threshold, int(mode)))
		sampling++
		threshold += 100
		mode = mode.Next()
		if err := sleep(ctx, r.Settings.WriterDelay); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
