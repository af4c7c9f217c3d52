package carrier

import (
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/higebu/netfd"
	"github.com/sirupsen/logrus"
)

// pollDeadline is how far in the future SetReadDeadline is pushed on
// every Recv, turning Go's blocking UDPConn into the non-blocking
// carrier the engine requires: a read that would block returns
// os.ErrDeadlineExceeded almost immediately instead of suspending.
const pollDeadline = time.Millisecond

// UDP adapts a *net.UDPConn to the Carrier interface.
type UDP struct {
	conn *net.UDPConn
	log  logrus.FieldLogger
}

// NewUDP wraps conn. windowCapacity sizes the kernel socket buffers
// (via the raw file descriptor) so that a full send/receive window's
// worth of datagrams can sit in the kernel without being dropped
// before the application ever sees them.
func NewUDP(conn *net.UDPConn, windowCapacity int, log logrus.FieldLogger) *UDP {
	tuneSocketBuffers(conn, windowCapacity, log)
	return &UDP{conn: conn, log: log}
}

func tuneSocketBuffers(conn *net.UDPConn, windowCapacity int, log logrus.FieldLogger) {
	const assumedDatagramSize = 576
	size := windowCapacity * assumedDatagramSize

	fd := netfd.GetFdFromConn(conn)
	if fd < 0 {
		log.Warn("carrier: could not extract raw fd, skipping socket buffer tuning")
		return
	}
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size); err != nil {
		log.WithError(err).Warn("carrier: SO_RCVBUF tuning failed")
	}
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, size); err != nil {
		log.WithError(err).Warn("carrier: SO_SNDBUF tuning failed")
	}
}

// Send transmits one datagram on the connected socket.
func (u *UDP) Send(data []byte) error {
	_, err := u.conn.Write(data)
	return err
}

// Recv returns one datagram, or ErrWouldBlock if none arrives within
// pollDeadline.
func (u *UDP) Recv(maxLen int) ([]byte, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(pollDeadline)); err != nil {
		return nil, err
	}
	buf := make([]byte, maxLen)
	n, err := u.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrWouldBlock
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrWouldBlock
		}
		return nil, err
	}
	return buf[:n], nil
}
