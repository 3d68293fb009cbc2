package sample

import (
	"time"

	"golang.org/x/sys/unix"
)

// isoLayout is ISO-8601 UTC with millisecond precision and a literal Z.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Clock supplies the two readings needed to place a boot-relative
// timestamp on the wall clock.
type Clock interface {
	Now() time.Time
	SinceBoot() time.Duration
}

// SystemClock reads the real wall clock and CLOCK_MONOTONIC, the clock the
// driver stamps samples with.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// SinceBoot returns the monotonic time since boot, or 0 if unavailable.
func (SystemClock) SinceBoot() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}

// WallTime places a boot-relative timestamp on the wall clock. The boot
// epoch is estimated as now - since-boot and recomputed on every call.
func WallTime(c Clock, timestampNs uint64) time.Time {
	boot := c.Now().Add(-c.SinceBoot())
	return boot.Add(time.Duration(timestampNs)).UTC()
}

// WallClock formats timestampNs as ISO-8601 UTC placed on c's wall clock.
func WallClock(c Clock, timestampNs uint64) string {
	return FormatISO(WallTime(c, timestampNs))
}

// FormatISO renders t in UTC with millisecond precision and a Z suffix.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
