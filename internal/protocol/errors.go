package protocol

import "github.com/pkg/errors"

// ErrConnectionReset is returned by Recv once the close sentinel has
// been received, or after a local Close — any further use of the
// engine keeps returning it.
var ErrConnectionReset = errors.New("protocol: connection reset")

// wrapFatal tags a non-WouldBlock carrier error as fatal, attaching a
// stack trace the way the dnsproxy-style cmd front ends print on exit.
func wrapFatal(err error) error {
	return errors.Wrap(err, "protocol: fatal carrier error")
}
