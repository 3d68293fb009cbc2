package harness

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/luki/simtemp/internal/device"
	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/sample"
)

// visit is called for every decoded sample with its 1-based index and
// returns true once counting is complete.
type visit func(i int, s sample.Sample) bool

// scan drives src until done reports completion or limit read attempts have
// been made. Failed reads use up an attempt but are not counted; a device
// hangup ends the scan with its error. ctx is checked before every wait.
func scan(ctx context.Context, src device.Source, limit int, done visit) (bool, error) {
	attempts, i := 0, 0
	for attempts < limit {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		n, err := src.Wait()
		if err != nil {
			return false, err
		}
		for range n {
			attempts++
			s, err := src.ReadSample()
			if stderrors.Is(err, device.ErrHangup) {
				return false, err
			}
			if err != nil {
				slog.Debug("check sample skipped", slog.String("error", err.Error()))
				continue
			}
			i++
			if done(i, s) {
				return true, nil
			}
		}
	}
	return false, nil
}

// CountForDuration returns the 1-based index of the first sample whose
// timestamp is at least window after the first sample read. It gives up
// with a TIMEOUT error after limit reads.
func CountForDuration(ctx context.Context, src device.Source, window time.Duration, limit int) (int, error) {
	var t0 uint64
	count := 0
	reached, err := scan(ctx, src, limit, func(i int, s sample.Sample) bool {
		if i == 1 {
			t0 = s.TimestampNs
		}
		if s.TimestampNs-t0 >= uint64(window.Nanoseconds()) {
			count = i
			return true
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	if !reached {
		return 0, errors.NewWithContext(errors.ErrCodeTimeout, "window not reached",
			map[string]any{"window": window.String(), "limit": limit})
	}
	return count, nil
}

// CountUntilAlert returns the 1-based index of the first sample carrying the
// alert bit. It gives up with a TIMEOUT error after limit reads.
func CountUntilAlert(ctx context.Context, src device.Source, limit int) (int, error) {
	count := 0
	reached, err := scan(ctx, src, limit, func(i int, s sample.Sample) bool {
		if s.Alert() {
			count = i
			return true
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	if !reached {
		return 0, errors.NewWithContext(errors.ErrCodeTimeout, "no alert observed",
			map[string]any{"limit": limit})
	}
	return count, nil
}
