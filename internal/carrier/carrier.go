// Package carrier defines the datagram transport the protocol engine
// consumes, plus the concrete UDP implementation and a set of
// stateful fault-injecting wrappers used by the test suite.
package carrier

import "errors"

// ErrWouldBlock is returned by Recv when no datagram is immediately
// available. It is never a fatal error: callers treat it as "no data
// this tick" and move on.
var ErrWouldBlock = errors.New("carrier: would block")

// Carrier is the abstract "packet carrier" the protocol engine
// borrows for the lifetime of a connection. Implementations must be
// non-blocking: a Recv that would otherwise block returns
// ErrWouldBlock instead of suspending the caller.
type Carrier interface {
	// Send transmits one datagram, fire-and-forget.
	Send(data []byte) error
	// Recv returns one datagram if immediately available, or
	// ErrWouldBlock if none is. Any other error is fatal.
	Recv(maxLen int) ([]byte, error)
}
