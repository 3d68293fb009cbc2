//go:build !linux

package poll

import "errors"

// ErrUnsupported is returned on platforms without epoll.
var ErrUnsupported = errors.New("poll: epoll is only available on linux")

// Multiplexer is unavailable off linux.
type Multiplexer struct{}

// New always fails off linux.
func New(int) (*Multiplexer, error) { return nil, ErrUnsupported }

// Wait always fails off linux.
func (m *Multiplexer) Wait() ([]int, error) { return nil, ErrUnsupported }

// Close is a no-op off linux.
func (m *Multiplexer) Close() error { return nil }
