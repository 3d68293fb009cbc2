// Package device owns the simtemp character device: it opens the file
// non-blocking, registers it with a poll.Multiplexer and reads exactly one
// record per readiness event.
package device

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/luki/simtemp/internal/errors"
	"github.com/luki/simtemp/internal/poll"
	"github.com/luki/simtemp/internal/sample"
)

// Source yields samples in driver order. Wait blocks until at least one
// record is ready and returns how many ready events it observed.
type Source interface {
	Wait() (int, error)
	ReadSample() (sample.Sample, error)
}

// ErrHangup is the cause of the IO error returned once the driver side of
// the device has gone away. No further samples will arrive.
var ErrHangup = stderrors.New("device hung up")

// File is an open device descriptor plus its multiplexer. It is owned by a
// single session and must be closed on every exit path.
type File struct {
	path string
	fd   int
	mux  *poll.Multiplexer
	buf  []byte
}

// Open opens path read-only and non-blocking and registers it for read
// readiness. Failures are IO errors and fatal to the caller's session.
func Open(path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "failed to open device", err,
			map[string]any{"path": path})
	}
	mux, err := poll.New(fd)
	if err != nil {
		unix.Close(fd)
		return nil, errors.WrapWithContext(errors.ErrCodeIO, "failed to register device", err,
			map[string]any{"path": path})
	}
	slog.Debug("device opened", slog.String("path", path), slog.Int("fd", fd))
	return &File{
		path: path,
		fd:   fd,
		mux:  mux,
		// one spare byte so an oversized record is detected rather than truncated
		buf: make([]byte, sample.RecordSize+1),
	}, nil
}

// Path returns the device path.
func (f *File) Path() string {
	return f.path
}

// Wait blocks until the device is readable.
func (f *File) Wait() (int, error) {
	ready, err := f.mux.Wait()
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeIO, "device wait failed", err,
			map[string]any{"path": f.path})
	}
	return len(ready), nil
}

// ReadSample performs one read and decodes it. A short or oversized read is
// a DECODE error; a failed read is an IO error. Neither closes the file.
// End of file, or a failed read after a hangup event, is an IO error
// wrapping ErrHangup.
func (f *File) ReadSample() (sample.Sample, error) {
	n, err := unix.Read(f.fd, f.buf)
	if (err == nil && n == 0) || (err != nil && f.mux.Hangup()) {
		ctx := map[string]any{"path": f.path}
		if err != nil {
			ctx["read_error"] = err.Error()
		}
		return sample.Sample{}, errors.WrapWithContext(errors.ErrCodeIO, "device hung up", ErrHangup, ctx)
	}
	if err != nil {
		return sample.Sample{}, errors.WrapWithContext(errors.ErrCodeIO, "device read failed", err,
			map[string]any{"path": f.path})
	}
	return sample.Decode(f.buf[:n])
}

// Close unregisters the multiplexer and closes the descriptor.
func (f *File) Close() error {
	if f.fd < 0 {
		return nil
	}
	muxErr := f.mux.Close()
	closeErr := unix.Close(f.fd)
	f.fd = -1
	slog.Debug("device closed", slog.String("path", f.path))
	if muxErr != nil {
		return fmt.Errorf("close %s: %w", f.path, muxErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", f.path, closeErr)
	}
	return nil
}

// Exists reports whether the device node is present.
func Exists(path string) bool {
	var st unix.Stat_t
	return unix.Stat(path, &st) == nil
}
