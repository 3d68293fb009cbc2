// Package harness verifies a live simtemp driver with five checks run in
// sequence: device existence, sampling cadence, threshold latency, error path
// plus fast sampling, and deadlock freedom under concurrent knob access.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/luki/simtemp/internal/defaults"
	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/render"
)

// Stream is an open sample source the runner must close.
type Stream interface {
	device.Source
	Close() error
}

// Settings are the check parameters and pass windows.
type Settings struct {
	Window time.Duration // device time measured by the counting checks

	CadenceIntervalMs int
	CadenceMin        int
	CadenceMax        int

	ThresholdMilliC int
	MaxAlertLatency int
	AlertCap        int

	FastIntervalMs      int
	FastThresholdMilliC int
	FastMin             int
	FastMax             int
	SampleCap           int

	ActorIterations int
	ActorTimeout    time.Duration
	ReaderDelay     time.Duration
	WriterDelay     time.Duration

	// Restore writes the knob values found before the run back afterwards.
	Restore bool
}

// DefaultSettings returns the standard check parameters.
func DefaultSettings() Settings {
	return Settings{
		Window:              defaults.CountWindow,
		CadenceIntervalMs:   defaults.CadenceIntervalMs,
		CadenceMin:          defaults.CadenceMin,
		CadenceMax:          defaults.CadenceMax,
		ThresholdMilliC:     defaults.ThresholdMilliC,
		MaxAlertLatency:     defaults.MaxAlertLatency,
		AlertCap:            defaults.AlertCap,
		FastIntervalMs:      defaults.FastIntervalMs,
		FastThresholdMilliC: defaults.FastThresholdMilliC,
		FastMin:             defaults.FastMin,
		FastMax:             defaults.FastMax,
		SampleCap:           defaults.SampleCap,
		ActorIterations:     defaults.ActorIterations,
		ActorTimeout:        defaults.ActorTimeout,
		ReaderDelay:         defaults.ReaderDelay,
		WriterDelay:         defaults.WriterDelay,
		Restore:             true,
	}
}

// invalidKnob is written by the error-path check; the driver has no such
// attribute and must reject it.
const invalidKnob = knob.Knob("mod")

// Runner executes the checks against one device and its knobs.
type Runner struct {
	DevicePath string
	Exists     func(path string) bool
	Open       func() (Stream, error)
	Port       knob.Port
	Out        render.Sink
	Settings   Settings
}

// Run executes T1 to T5 and returns their verdicts in order. Check failures
// never surface as errors; they are recorded in the report.
func (r *Runner) Run(ctx context.Context) Report {
	rep := Report{ID: uuid.NewString(), Started: time.Now()}
	log := slog.With(slog.String("run", rep.ID))
	log.Info("test run started", slog.String("device", r.DevicePath))
	r.Out.Line("Test Mode enabled...")

	var snap knob.Snapshot
	if r.Settings.Restore {
		snap = knob.ReadAll(r.Port)
	}

	add := func(v Verdict) {
		observe(v)
		log.Info("check finished",
			slog.String("check", v.Name),
			slog.Bool("passed", v.Passed),
			slog.Int("count", v.Count),
			slog.Duration("elapsed", v.Elapsed))
		rep.Verdicts = append(rep.Verdicts, v)
	}

	add(r.existence())

	stream, err := r.Open()
	if err != nil {
		log.Error("device open failed", slog.String("error", err.Error()))
		r.Out.Warn(fmt.Sprintf("cannot open %s: %v", r.DevicePath, err))
		for _, c := range []struct{ name, title string }{
			{"T2", "cadence"}, {"T3", "threshold latency"}, {"T4", "error path and fast sampling"},
		} {
			add(Verdict{Name: c.name, Title: c.title, Detail: "device unavailable", Err: err})
		}
	} else {
		add(r.cadence(ctx, stream))
		add(r.thresholdLatency(ctx, stream))
		add(r.fastSampling(ctx, stream))
		if err := stream.Close(); err != nil {
			log.Warn("device close failed", slog.String("error", err.Error()))
		}
	}

	add(r.concurrency(ctx))

	if r.Settings.Restore {
		rep.RestoreErr = knob.Restore(r.Port, snap)
		if rep.RestoreErr != nil {
			r.Out.Warn(fmt.Sprintf("could not restore configuration: %v", rep.RestoreErr))
		}
	}

	log.Info("test run finished", slog.Bool("passed", rep.Passed()), slog.Any("failed", rep.Failed()))
	return rep
}

func (r *Runner) existence() Verdict {
	start := time.Now()
	r.Out.Line(fmt.Sprintf("Test 1: Load/unload. Verify if %s exists", r.DevicePath))
	v := Verdict{Name: "T1", Title: "existence", Passed: r.Exists(r.DevicePath)}
	if v.Passed {
		v.Detail = r.DevicePath + " exists"
		r.Out.Line("T1: Passed " + v.Detail)
	} else {
		v.Detail = r.DevicePath + " does not exist"
		r.Out.Line("T1: Not passed " + v.Detail)
	}
	v.Elapsed = time.Since(start)
	return v
}

// setup writes knobs in order and stops at the first rejection.
func (r *Runner) setup(writes ...write) error {
	for _, w := range writes {
		if err := knob.WriteInt(r.Port, w.k, w.v); err != nil {
			return err
		}
	}
	return nil
}

type write struct {
	k knob.Knob
	v int
}

func (r *Runner) cadence(ctx context.Context, src device.Source) Verdict {
	s := r.Settings
	start := time.Now()
	v := Verdict{Name: "T2", Title: "cadence"}
	r.Out.Line(fmt.Sprintf("Test 2: Verifying sampling_ms = %dms", s.CadenceIntervalMs))

	if err := r.setup(write{knob.KnobSampling, s.CadenceIntervalMs}); err != nil {
		v.Err, v.Detail = err, "sampling write returned "+strconv.Itoa(knob.Errno(err))
	} else {
		v.Count, v.Err = CountForDuration(ctx, src, s.Window, s.SampleCap)
		v.Passed = v.Err == nil && v.Count >= s.CadenceMin && v.Count <= s.CadenceMax
		v.Detail = fmt.Sprintf("Samples: %d/s", v.Count)
	}

	r.report(v)
	v.Elapsed = time.Since(start)
	return v
}

func (r *Runner) thresholdLatency(ctx context.Context, src device.Source) Verdict {
	s := r.Settings
	start := time.Now()
	v := Verdict{Name: "T3", Title: "threshold latency"}
	r.Out.Line(fmt.Sprintf("Test 3: Verifying threshold. mode = Normal mode, threshold = %s°C",
		strconv.FormatFloat(float64(s.ThresholdMilliC)/1000, 'f', -1, 64)))

	err := r.setup(
		write{knob.KnobMode, int(knob.ModeNormal)},
		write{knob.KnobThreshold, s.ThresholdMilliC},
	)
	if err != nil {
		v.Err, v.Detail = err, "setup write returned "+strconv.Itoa(knob.Errno(err))
	} else {
		v.Count, v.Err = CountUntilAlert(ctx, src, s.AlertCap)
		v.Passed = v.Err == nil && v.Count <= s.MaxAlertLatency
		v.Detail = fmt.Sprintf("Samples until threshold crossed: %d", v.Count)
	}

	r.report(v)
	v.Elapsed = time.Since(start)
	return v
}

// fastSampling couples the error-path probe with the fast cadence count:
// the check passes only if both hold.
func (r *Runner) fastSampling(ctx context.Context, src device.Source) Verdict {
	s := r.Settings
	start := time.Now()
	v := Verdict{Name: "T4", Title: "error path and fast sampling"}
	r.Out.Line(fmt.Sprintf("Test 4: Verifying error paths and fast sampling at %dms", s.FastIntervalMs))

	errno := knob.Errno(knob.WriteInt(r.Port, invalidKnob, int(knob.ModeNoisy)))

	err := r.setup(
		write{knob.KnobThreshold, s.FastThresholdMilliC},
		write{knob.KnobMode, int(knob.ModeRamp)},
		write{knob.KnobSampling, s.FastIntervalMs},
	)
	if err != nil {
		v.Err = err
	} else {
		v.Count, v.Err = CountForDuration(ctx, src, s.Window, s.SampleCap)
	}
	v.Passed = errno == knob.EINVAL && v.Err == nil && v.Count >= s.FastMin && v.Count <= s.FastMax
	v.Detail = fmt.Sprintf("Samples: %d/s. Write returned %d expected %d(EINVAL)", v.Count, errno, knob.EINVAL)

	r.report(v)
	v.Elapsed = time.Since(start)
	return v
}

func (r *Runner) report(v Verdict) {
	line := fmt.Sprintf("%s: Passed. %s", v.Name, v.Detail)
	if !v.Passed {
		line = fmt.Sprintf("%s: Not Passed. %s", v.Name, v.Detail)
	}
	if v.Err != nil {
		line += fmt.Sprintf(" (%v)", v.Err)
	}
	r.Out.Line(line)
}
