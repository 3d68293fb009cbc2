// Package sample decodes the fixed-layout binary records streamed by the
// simtemp character device and derives alert state and wall-clock time.
package sample

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"

	simerrors "github.com/luki/simtemp/internal/errors"
)

// RecordSize is the exact size of one packed driver record:
// timestamp_ns (u64), temp_mC (i32), flags (u32), little-endian, no padding.
const RecordSize = 8 + 4 + 4

// Flag bits carried in Sample.Flags.
const (
	FlagNewSample        uint32 = 0x1
	FlagThresholdCrossed uint32 = 0x2
)

// ErrShortRecord is the cause of every decode failure.
var ErrShortRecord = errors.New("record size mismatch")

// Sample is one decoded driver record.
type Sample struct {
	TimestampNs uint64 // monotonic nanoseconds since boot
	TempMilliC  int32  // millidegrees Celsius
	Flags       uint32
}

// Decode parses exactly RecordSize bytes. Any other length is a DECODE error;
// a partial sample is never returned.
func Decode(b []byte) (Sample, error) {
	if len(b) != RecordSize {
		return Sample{}, simerrors.WrapWithContext(simerrors.ErrCodeDecode,
			"invalid sample record", ErrShortRecord, map[string]any{
				"want": RecordSize,
				"got":  len(b),
			})
	}
	return Sample{
		TimestampNs: binary.LittleEndian.Uint64(b[0:8]),
		TempMilliC:  int32(binary.LittleEndian.Uint32(b[8:12])),
		Flags:       binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Encode returns the driver wire form of s.
func (s Sample) Encode() []byte {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(b[0:8], s.TimestampNs)
	binary.LittleEndian.PutUint32(b[8:12], uint32(s.TempMilliC))
	binary.LittleEndian.PutUint32(b[12:16], s.Flags)
	return b
}

// Alert reports whether the threshold-crossed bit is set.
func (s Sample) Alert() bool {
	return s.Flags&FlagThresholdCrossed != 0
}

// AlertBit returns the alert state as 0 or 1.
func (s Sample) AlertBit() int {
	if s.Alert() {
		return 1
	}
	return 0
}

// Fresh reports whether the driver marked the record as a new sample.
func (s Sample) Fresh() bool {
	return s.Flags&FlagNewSample != 0
}

// Celsius returns the temperature in degrees Celsius.
func (s Sample) Celsius() float64 {
	return float64(s.TempMilliC) / 1000
}

// FormatCelsius renders millidegrees as degrees with the shortest exact
// decimal form, always keeping one fractional digit (25000 -> "25.0",
// 24987 -> "24.987").
func FormatCelsius(mC int32) string {
	s := strconv.FormatFloat(float64(mC)/1000, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
