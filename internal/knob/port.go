package knob

import (
	stderrors "errors"
	"log/slog"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/luki/simtemp/internal/errors"
)

// EINVAL is the negative errno surfaced for rejected knob operations.
var EINVAL = -int(unix.EINVAL)

// Port reads and writes knobs on the live driver.
type Port interface {
	Read(k Knob) (string, error)
	Write(k Knob, value string) error
}

// ConfigError builds the CONFIG error returned by Port implementations.
func ConfigError(k Knob, op string, errno int, cause error) error {
	return errors.WrapWithContext(errors.ErrCodeConfig,
		"knob "+op+" failed", cause, map[string]any{
			"knob":  string(k),
			"op":    op,
			"errno": errno,
		})
}

// Errno maps a Port result to the driver convention: 0 on success, a
// negative errno otherwise. Errors without an errno report -EINVAL.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		if v, ok := se.Context["errno"].(int); ok {
			return v
		}
	}
	return EINVAL
}

// WriteInt writes an integer value.
func WriteInt(p Port, k Knob, v int) error {
	return p.Write(k, strconv.Itoa(v))
}

// Snapshot holds one reading of every knob. Failed reads hold the errno
// as their value and are listed in Errs.
type Snapshot struct {
	Sampling  string
	Threshold string
	Mode      string
	Errs      map[Knob]error
}

// Get returns the value stored for k.
func (s Snapshot) Get(k Knob) string {
	switch k {
	case KnobSampling:
		return s.Sampling
	case KnobThreshold:
		return s.Threshold
	case KnobMode:
		return s.Mode
	}
	return ""
}

// ReadAll reads all three knobs.
func ReadAll(p Port) Snapshot {
	s := Snapshot{Errs: map[Knob]error{}}
	read := func(k Knob) string {
		v, err := p.Read(k)
		if err != nil {
			s.Errs[k] = err
			return strconv.Itoa(Errno(err))
		}
		return v
	}
	s.Sampling = read(KnobSampling)
	s.Threshold = read(KnobThreshold)
	s.Mode = read(KnobMode)
	return s
}

// Restore writes every successfully read value of s back and returns the
// first write error.
func Restore(p Port, s Snapshot) error {
	var first error
	for _, k := range All {
		if _, failed := s.Errs[k]; failed {
			continue
		}
		if err := p.Write(k, s.Get(k)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// instrumented counts and logs every rejected operation of the wrapped port.
type instrumented struct {
	next Port
}

// WithMetrics wraps p so failures are counted and logged as warnings.
func WithMetrics(p Port) Port {
	return &instrumented{next: p}
}

func (i *instrumented) Read(k Knob) (string, error) {
	v, err := i.next.Read(k)
	if err != nil {
		knobErrors.WithLabelValues(string(k), "read").Inc()
		slog.Warn("knob read failed",
			slog.String("knob", string(k)),
			slog.Int("errno", Errno(err)),
			slog.String("error", err.Error()))
	}
	return v, err
}

func (i *instrumented) Write(k Knob, value string) error {
	err := i.next.Write(k, value)
	if err != nil {
		knobErrors.WithLabelValues(string(k), "write").Inc()
		slog.Warn("knob write failed",
			slog.String("knob", string(k)),
			slog.String("value", value),
			slog.Int("errno", Errno(err)),
			slog.String("error", err.Error()))
		return err
	}
	knobWrites.WithLabelValues(string(k)).Inc()
	return nil
}
