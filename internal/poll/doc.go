// Package poll blocks until a registered file descriptor is readable.
//
// A Multiplexer wraps one epoll instance registered for read readiness on a
// single descriptor. Wait blocks with no timeout; callers observe
// cancellation between calls. Close unregisters the descriptor and releases
// the epoll instance but leaves the descriptor itself to its owner.
package poll
