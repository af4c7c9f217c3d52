// Package protocol implements the engine that drives send/receive,
// generates cumulative ACKs, retransmits on timeout, handles close,
// and chunks application payloads into segments — the component the
// rest of this repo's cmd/ front ends are built around.
package protocol

import (
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"rudp-go/internal/carrier"
	"rudp-go/internal/metrics"
	"rudp-go/pkg/window"
	"rudp-go/pkg/wire"
)

const maxRecvLen = 8192

const (
	// DefaultResendTimeout is the wall-clock interval after which an
	// unacknowledged send window is retransmitted. There is no per-packet
	// RTO or backoff: the same interval re-fires every timeout.
	DefaultResendTimeout = time.Second
	// DefaultSegmentSize is the largest chunk Send carves an application
	// payload into before handing it to the send window.
	DefaultSegmentSize = 512
	// DefaultWindowCapacity is N in the spec's SenderWindow/ReceiverWindow.
	DefaultWindowCapacity = 10000
)

// Config configures a new Engine. Zero-valued fields fall back to the
// defaults above; Now defaults to time.Now, the injectable clock seam
// that lets tests freeze time deterministically.
type Config struct {
	Name           string
	SegmentSize    int
	ResendTimeout  time.Duration
	WindowCapacity int
	Now            func() time.Time
	Log            logrus.FieldLogger
}

func (c Config) withDefaults() Config {
	if c.SegmentSize <= 0 {
		c.SegmentSize = DefaultSegmentSize
	}
	if c.ResendTimeout <= 0 {
		c.ResendTimeout = DefaultResendTimeout
	}
	if c.WindowCapacity <= 0 {
		c.WindowCapacity = DefaultWindowCapacity
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Log == nil {
		c.Log = logrus.StandardLogger()
	}
	if c.Name == "" {
		c.Name = "protocol"
	}
	return c
}

// Engine is one endpoint of the reliable transport. It owns its
// windows and carrier exclusively; the caller must not invoke Send,
// Recv, Flush, or Close concurrently without its own serialization.
type Engine struct {
	id   xid.ID
	name string
	log  logrus.FieldLogger

	carrier carrier.Carrier
	send    *window.Sender
	recv    *window.Receiver

	open          bool
	lastAckTime   time.Time
	resendTimeout time.Duration
	segmentSize   int
	now           func() time.Time

	events *eventBus

	packetsSent          atomic.Uint64
	packetsRetransmitted atomic.Uint64
	bytesDelivered       atomic.Uint64
	checksumFailures     atomic.Uint64
	connectionResets     atomic.Uint64
}

// New builds an Engine bound to c, starting in the OPEN state.
func New(c carrier.Carrier, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	id := xid.New()
	return &Engine{
		id:            id,
		name:          cfg.Name,
		log:           cfg.Log.WithFields(logrus.Fields{"session": id.String(), "name": cfg.Name}),
		carrier:       c,
		send:          window.NewSender(cfg.WindowCapacity),
		recv:          window.NewReceiver(cfg.WindowCapacity),
		open:          true,
		lastAckTime:   cfg.Now(),
		resendTimeout: cfg.ResendTimeout,
		segmentSize:   cfg.SegmentSize,
		now:           cfg.Now,
		events:        newEventBus(),
	}
}

// ID returns the engine's session identifier, also used as the
// Prometheus metric label.
func (e *Engine) ID() string { return e.id.String() }

// IsOpen reports whether the connection is still OPEN.
func (e *Engine) IsOpen() bool { return e.open }

// OnEvent registers handler for lifecycle notifications of the given type.
func (e *Engine) OnEvent(t EventType, handler EventHandler) {
	e.events.On(t, handler)
}

func (e *Engine) fire(t EventType, seq int32) {
	e.events.fire(Event{Type: t, SessionID: e.id.String(), SeqNum: seq, Timestamp: e.now()})
}

// Send segments data into chunks of at most segmentSize bytes and
// buffers each as a data packet in the send window. It never touches
// the carrier and never blocks.
func (e *Engine) Send(data []byte) error {
	for i := 0; i < len(data); i += e.segmentSize {
		end := i + e.segmentSize
		if end > len(data) {
			end = len(data)
		}
		chunk := append([]byte(nil), data[i:end]...)
		if _, err := e.send.PutPacket(&wire.Packet{Payload: chunk}); err != nil {
			return err
		}
	}
	return nil
}

// Recv returns the next reassembled application payload, or nil if
// none is ready yet. It never blocks. It fails with ErrConnectionReset
// once the connection has been closed, locally or by the peer.
func (e *Engine) Recv() ([]byte, error) {
	if !e.open {
		return nil, ErrConnectionReset
	}

	if payload := e.tryReceive(); payload != nil {
		return payload, nil
	}

	data, err := e.carrier.Recv(maxRecvLen)
	switch {
	case err == carrier.ErrWouldBlock:
		// No data this tick.
	case err != nil:
		return nil, wrapFatal(err)
	default:
		if pkt, ok := wire.Decode(data); ok {
			closed, dispatchErr := e.dispatch(pkt)
			if dispatchErr != nil {
				return nil, wrapFatal(dispatchErr)
			}
			if closed {
				return nil, nil
			}
		} else {
			e.checksumFailures.Add(1)
			e.fire(EventChecksumFailure, 0)
			e.log.Debug("dropped frame: checksum mismatch")
		}
	}

	if e.now().Sub(e.lastAckTime) > e.resendTimeout {
		e.lastAckTime = e.now()
		if err := e.flushOnce(); err != nil {
			return nil, wrapFatal(err)
		}
	}

	return e.tryReceive(), nil
}

// Flush blocks, retransmitting and dispatching incoming ACKs, until
// every segment buffered through Send has been confirmed by the peer.
func (e *Engine) Flush() error {
	for e.open && e.send.Confirmed() < e.send.Write() {
		if err := e.flushOnce(); err != nil {
			return wrapFatal(err)
		}

		for e.open && e.send.Confirmed() < e.send.Write() {
			data, err := e.carrier.Recv(maxRecvLen)
			if err == carrier.ErrWouldBlock {
				break
			}
			if err != nil {
				return wrapFatal(err)
			}

			pkt, ok := wire.Decode(data)
			if !ok {
				e.checksumFailures.Add(1)
				e.fire(EventChecksumFailure, 0)
				continue
			}
			closed, dispatchErr := e.dispatch(pkt)
			if dispatchErr != nil {
				return wrapFatal(dispatchErr)
			}
			if closed {
				return nil
			}
		}

		time.Sleep(e.resendTimeout)
	}
	return nil
}

// Close sends a single close-sentinel packet and moves the engine to
// CLOSED. There is no retry: losing the sentinel is acceptable, and
// the peer is expected to notice via its own idle timeout.
func (e *Engine) Close() error {
	if !e.open {
		return nil
	}
	err := e.transmit(wire.NewClose())
	e.open = false
	e.fire(EventClose, wire.CloseSeq)
	e.log.Info("closed")
	return err
}

// Snapshot implements metrics.Source.
func (e *Engine) Snapshot() metrics.Snapshot {
	gap := e.recv.Confirmed() - e.recv.Read() + 1
	if gap < 0 {
		gap = 0
	}
	return metrics.Snapshot{
		SessionID:            e.id.String(),
		PacketsSent:          float64(e.packetsSent.Load()),
		PacketsRetransmitted: float64(e.packetsRetransmitted.Load()),
		BytesDelivered:       float64(e.bytesDelivered.Load()),
		ChecksumFailures:     float64(e.checksumFailures.Load()),
		ConnectionResets:     float64(e.connectionResets.Load()),
		SendWindowInFlight:   float64(e.send.Outstanding()),
		RecvWindowGap:        float64(gap),
	}
}

// tryReceive pops the next in-order packet from the receive window,
// returning its payload if non-empty.
func (e *Engine) tryReceive() []byte {
	pkt := e.recv.GetPacket()
	if pkt != nil && len(pkt.Payload) > 0 {
		e.bytesDelivered.Add(uint64(len(pkt.Payload)))
		return pkt.Payload
	}
	return nil
}

// dispatch applies one decoded packet to engine state. closed reports
// whether this packet was the close sentinel, in which case the
// caller must stop processing and return immediately.
func (e *Engine) dispatch(pkt *wire.Packet) (closed bool, err error) {
	if pkt.SeqNum == wire.CloseSeq {
		e.open = false
		e.connectionResets.Add(1)
		e.fire(EventConnectionReset, pkt.SeqNum)
		e.log.Info("peer closed")
		return true, nil
	}

	e.send.UpdateConfirmed(pkt.AckNum)
	e.lastAckTime = e.now()

	if len(pkt.Payload) > 0 {
		e.recv.PutPacket(pkt)
		if err := e.transmit(wire.NewAck(0)); err != nil {
			return false, err
		}
	}
	return false, nil
}

// flushOnce emits one ACK-only packet carrying the current confirmed
// cursor, then re-emits every outstanding slot in ascending order.
func (e *Engine) flushOnce() error {
	if err := e.transmit(wire.NewAck(0)); err != nil {
		return err
	}
	for i := e.send.Confirmed() + 1; i <= e.send.Write(); i++ {
		pkt := e.send.GetPacket(i)
		if pkt == nil {
			continue
		}
		if err := e.transmit(pkt); err != nil {
			return err
		}
		e.packetsRetransmitted.Add(1)
		e.fire(EventRetransmit, pkt.SeqNum)
	}
	return nil
}

// transmit sets pkt's piggybacked ack from the current receive
// confirmed cursor, encodes it, and hands it to the carrier.
func (e *Engine) transmit(pkt *wire.Packet) error {
	pkt.AckNum = e.recv.Confirmed()
	data := pkt.Encode()
	if err := e.carrier.Send(data); err != nil {
		return err
	}
	e.packetsSent.Add(1)
	e.log.WithFields(logrus.Fields{"seq": pkt.SeqNum, "ack": pkt.AckNum, "bytes": len(pkt.Payload)}).Debug("sent")
	return nil
}
