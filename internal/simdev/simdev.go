// Package simdev is an in-process stand-in for the simtemp driver. A Device
// is both a device.Source and a knob.Port and follows the driver's rules:
// a single latest-sample register, NEW_SAMPLE set on every record, the alert
// bit set when the temperature exceeds the threshold, and integer-only knob
// writes.
//
// A virtual Device produces the next sample the moment it is waited on and
// advances its own clock by one sampling period, so timing checks run in
// microseconds and deterministically. A paced Device produces samples from a
// timer goroutine in real time.
package simdev

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/knob"
	"github.com/luki/simtemp/internal/sample"
)

// Driver generation constants.
const (
	MeanMilliC  = 25000
	StepMilliC  = 100
	NoiseMilliC = 1500
	RangeMilliC = 40000
	SumAverage  = 1530

	DefaultSamplingMs      = 100
	DefaultThresholdMilliC = 45000
	DefaultMode            = knob.ModeRamp
)

// bootOffset is the virtual time since boot of the first virtual sample.
const bootOffset = time.Second

// Device is a simulated sensor.
type Device struct {
	mu        sync.Mutex
	sampling  int
	threshold int
	mode      int
	temp      int32
	latest    sample.Sample
	fresh     bool
	closed    bool
	rng       *rand.Rand

	virtual bool
	elapsed time.Duration // virtual time since boot
	epoch   time.Time     // virtual wall time at boot
	clock   sample.Clock

	ready chan struct{}
	reset chan struct{} // sampling changed, restart the period
	stop  chan struct{}
	done  chan struct{}
}

// Option configures a Device.
type Option func(*Device)

// WithSeed makes the NORMAL and NOISY generators reproducible.
func WithSeed(seed uint64) Option {
	return func(d *Device) {
		d.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithKnobs sets the initial knob values.
func WithKnobs(samplingMs, thresholdMilliC int, mode knob.Mode) Option {
	return func(d *Device) {
		d.sampling = samplingMs
		d.threshold = thresholdMilliC
		d.mode = int(mode)
	}
}

// WithTemperature sets the starting temperature.
func WithTemperature(mC int32) Option {
	return func(d *Device) {
		d.temp = mC
	}
}

func newDevice(opts []Option) *Device {
	d := &Device{
		sampling:  DefaultSamplingMs,
		threshold: DefaultThresholdMilliC,
		mode:      int(DefaultMode),
		temp:      MeanMilliC,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		epoch:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		clock:     sample.SystemClock{},
		ready:     make(chan struct{}, 1),
		reset:     make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewVirtual returns a Device running on its own virtual clock.
func NewVirtual(opts ...Option) *Device {
	d := newDevice(opts)
	d.virtual = true
	d.elapsed = bootOffset
	close(d.done)
	return d
}

// NewPaced returns a Device that emits samples in real time until Close.
func NewPaced(opts ...Option) *Device {
	d := newDevice(opts)
	go d.run()
	return d
}

func (d *Device) run() {
	defer close(d.done)
	for {
		timer := time.NewTimer(d.period())
		select {
		case <-d.stop:
			timer.Stop()
			return
		case <-d.reset:
			timer.Stop()
		case <-timer.C:
			d.mu.Lock()
			d.generate(uint64(d.clock.SinceBoot().Nanoseconds()))
			d.mu.Unlock()
			select {
			case d.ready <- struct{}{}:
			default:
			}
		}
	}
}

func (d *Device) period() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.periodLocked()
}

func (d *Device) periodLocked() time.Duration {
	return time.Duration(max(d.sampling, 1)) * time.Millisecond
}

// generate replaces the sample register. Callers hold mu.
func (d *Device) generate(ts uint64) {
	switch knob.Mode(d.mode) {
	case knob.ModeNormal:
		d.temp = d.normal()
	case knob.ModeRamp:
		d.temp = saturatingAdd(d.temp, StepMilliC)
	case knob.ModeNoisy:
		noise := int32(d.rng.IntN(2*NoiseMilliC+1)) - NoiseMilliC
		d.temp = saturatingAdd(saturatingAdd(d.temp, StepMilliC), noise)
	}

	flags := uint32(sample.FlagNewSample)
	if int(d.temp) > d.threshold {
		flags |= sample.FlagThresholdCrossed
	}
	d.latest = sample.Sample{TimestampNs: ts, TempMilliC: d.temp, Flags: flags}
	d.fresh = true
}

// normal approximates a bell curve with the sum of six random bytes.
func (d *Device) normal() int32 {
	var sum int32
	for range 6 {
		sum += int32(d.rng.IntN(256))
	}
	return MeanMilliC + sum*RangeMilliC/SumAverage
}

func saturatingAdd(a, b int32) int32 {
	s := int64(a) + int64(b)
	switch {
	case s > math.MaxInt32:
		return math.MaxInt32
	case s < math.MinInt32:
		return math.MinInt32
	}
	return int32(s)
}

func (d *Device) closedError() error {
	return errors.Wrap(errors.ErrCodeIO, "simulated device closed", unix.EBADF)
}

// Wait blocks until a sample is ready. A virtual device never blocks: it
// advances its clock by one period and generates the sample.
func (d *Device) Wait() (int, error) {
	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return 0, d.closedError()
		}
		if d.virtual && !d.fresh {
			d.elapsed += d.periodLocked()
			d.generate(uint64(d.elapsed.Nanoseconds()))
		}
		if d.fresh {
			d.mu.Unlock()
			return 1, nil
		}
		d.mu.Unlock()

		select {
		case <-d.ready:
		case <-d.stop:
		}
	}
}

// ReadSample returns the register and clears its fresh state. Reading a
// stale register fails with EAGAIN, as a non-blocking read of the driver does.
func (d *Device) ReadSample() (sample.Sample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return sample.Sample{}, d.closedError()
	}
	if !d.fresh {
		return sample.Sample{}, errors.Wrap(errors.ErrCodeIO, "no sample ready", unix.EAGAIN)
	}
	d.fresh = false
	return d.latest, nil
}

// Close stops sample generation. Close is idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()
	<-d.done
	return nil
}

// Read implements knob.Port.
func (d *Device) Read(k knob.Knob) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch k {
	case knob.KnobSampling:
		return strconv.Itoa(d.sampling), nil
	case knob.KnobThreshold:
		return strconv.Itoa(d.threshold), nil
	case knob.KnobMode:
		return strconv.Itoa(d.mode), nil
	}
	return "", knob.ConfigError(k, "read", knob.EINVAL, unix.ENOENT)
}

// Write implements knob.Port. Values must parse as a base-10 int; any other
// input is rejected with -EINVAL and leaves the knob unchanged.
func (d *Device) Write(k knob.Knob, value string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if !k.Known() {
		return knob.ConfigError(k, "write", knob.EINVAL, unix.ENOENT)
	}
	if err != nil {
		return knob.ConfigError(k, "write", knob.EINVAL, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch k {
	case knob.KnobSampling:
		d.sampling = int(v)
		select {
		case d.reset <- struct{}{}:
		default:
		}
	case knob.KnobThreshold:
		d.threshold = int(v)
	case knob.KnobMode:
		d.mode = int(v)
	}
	return nil
}

// Now implements sample.Clock on the device's own timeline.
func (d *Device) Now() time.Time {
	if !d.virtual {
		return d.clock.Now()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.epoch.Add(d.elapsed)
}

// SinceBoot implements sample.Clock on the device's own timeline.
func (d *Device) SinceBoot() time.Duration {
	if !d.virtual {
		return d.clock.SinceBoot()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elapsed
}
