// Package monitor runs the stream monitor: a single loop that waits for
// device readiness, reads one sample per ready event and hands it to the
// rendering sink and any observers, until the shared stop signal is seen.
package monitor

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/render"
	"github.com/luki/simtemp/internal/sample"
)

// State is the monitor lifecycle state.
type State int32

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Observer receives every decoded sample after it has been rendered.
type Observer interface {
	Observe(sample.Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(sample.Sample)

func (f ObserverFunc) Observe(s sample.Sample) { f(s) }

// Monitor owns a Source for the duration of Run.
type Monitor struct {
	src       device.Source
	sink      render.Sink
	observers []Observer
	limiter   *rate.Limiter
	state     atomic.Int32
}

// New returns a stopped monitor.
func New(src device.Source, sink render.Sink, observers ...Observer) *Monitor {
	return &Monitor{
		src:       src,
		sink:      sink,
		observers: observers,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
	monitorState.Set(float64(s))
}

// Run streams samples until ctx is done, the wait itself fails or the device
// hangs up. ctx is checked once per iteration, so a stop takes effect after
// the blocking wait in progress returns. Per-sample read and decode errors
// are reported and skipped; a wait failure or hangup ends the run and is
// returned.
func (m *Monitor) Run(ctx context.Context) error {
	m.setState(Running)
	defer m.setState(Stopped)

	for {
		if ctx.Err() != nil {
			m.setState(Stopping)
			return nil
		}

		n, err := m.src.Wait()
		if err != nil {
			return err
		}

		for range n {
			s, err := m.src.ReadSample()
			if stderrors.Is(err, device.ErrHangup) {
				slog.Error("device hung up, stopping monitor", slog.String("error", err.Error()))
				m.sink.Warn("Device closed: " + err.Error())
				return err
			}
			if err != nil {
				m.sampleError(err)
				continue
			}
			m.deliver(s)
		}
	}
}

func (m *Monitor) deliver(s sample.Sample) {
	samplesTotal.Inc()
	temperature.Set(float64(s.TempMilliC))
	if s.Alert() {
		alertsTotal.Inc()
	}

	m.sink.Sample(s)
	for _, o := range m.observers {
		o.Observe(s)
	}
}

func (m *Monitor) sampleError(err error) {
	code := string(errors.ErrCodeIO)
	if errors.IsCode(err, errors.ErrCodeDecode) {
		code = string(errors.ErrCodeDecode)
	}
	sampleErrors.WithLabelValues(code).Inc()

	if !m.limiter.Allow() {
		return
	}
	slog.Warn("sample read failed", slog.String("code", code), slog.String("error", err.Error()))
	m.sink.Warn("Error reading sample: " + err.Error())
}
