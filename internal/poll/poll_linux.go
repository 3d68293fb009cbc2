package poll

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxEvents bounds the events returned by one Wait.
const maxEvents = 8

// Multiplexer is an epoll instance watching one descriptor for input.
type Multiplexer struct {
	epfd   int
	fd     int
	events []unix.EpollEvent
	hangup bool
}

// New registers fd for read readiness.
func New(fd int) (*Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl add fd %d: %w", fd, err)
	}
	return &Multiplexer{
		epfd:   epfd,
		fd:     fd,
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

// Wait blocks until at least one registered descriptor is readable or hung
// up and returns the ready descriptors. Interrupted waits are retried.
func (m *Multiplexer) Wait() ([]int, error) {
	for {
		n, err := unix.EpollWait(m.epfd, m.events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("epoll_wait: %w", err)
		}
		ready := make([]int, 0, n)
		m.hangup = false
		for _, ev := range m.events[:n] {
			if ev.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				m.hangup = true
			}
			if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				ready = append(ready, int(ev.Fd))
			}
		}
		if len(ready) > 0 {
			return ready, nil
		}
	}
}

// Hangup reports whether the last Wait saw EPOLLHUP or EPOLLERR.
func (m *Multiplexer) Hangup() bool {
	return m.hangup
}

// Close unregisters the descriptor and closes the epoll instance.
func (m *Multiplexer) Close() error {
	if m.epfd < 0 {
		return nil
	}
	delErr := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, m.fd, nil)
	closeErr := unix.Close(m.epfd)
	m.epfd = -1
	if delErr != nil && delErr != unix.EBADF {
		return fmt.Errorf("epoll_ctl del fd %d: %w", m.fd, delErr)
	}
	return closeErr
}
