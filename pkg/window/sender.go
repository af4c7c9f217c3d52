// Package window implements the fixed-capacity ring buffers that hold
// outstanding outbound packets and the not-yet-contiguous inbound
// packets: the arena+index design from §9 — the sequence number itself
// is the handle, so there is no pointer chasing on the hot path.
package window

import (
	"fmt"

	"rudp-go/pkg/wire"
)

// ErrWindowFull is returned by Sender.PutPacket when the caller would
// push the number of outstanding (unconfirmed) packets past capacity.
// The distilled design left this unguarded (Open Question (i)); this
// implementation refuses the write instead of silently overwriting an
// in-flight slot.
var ErrWindowFull = fmt.Errorf("window: send window full")

// Sender is the fixed-capacity ring of outstanding outbound packets,
// keyed by monotonically increasing sequence numbers. It never
// discards a slot on confirmation — the ring simply reuses it as
// Write advances.
type Sender struct {
	size      int32
	buf       []*wire.Packet
	write     int32 // highest sequence number assigned so far; -1 before first PutPacket
	confirmed int32 // highest sequence number known-delivered; -1 initially
}

// NewSender allocates a Sender with the given capacity.
func NewSender(size int) *Sender {
	return &Sender{
		size:      int32(size),
		buf:       make([]*wire.Packet, size),
		write:     -1,
		confirmed: -1,
	}
}

// Write returns the highest sequence number assigned so far (-1 before
// the first PutPacket); the next PutPacket assigns Write()+1.
func (s *Sender) Write() int32 { return s.write }

// Confirmed returns the highest sequence number known-delivered.
func (s *Sender) Confirmed() int32 { return s.confirmed }

// Outstanding reports how many packets are currently in (confirmed, write].
func (s *Sender) Outstanding() int32 { return s.write - s.confirmed }

// PutPacket assigns the next sequence number to p, stores it, and
// returns it. It fails with ErrWindowFull if doing so would exceed
// the window's capacity.
func (s *Sender) PutPacket(p *wire.Packet) (*wire.Packet, error) {
	if s.write-s.confirmed >= s.size {
		return nil, ErrWindowFull
	}
	s.write++
	p.SeqNum = s.write
	s.buf[s.write%s.size] = p
	return p, nil
}

// GetPacket returns the packet assigned to sequence number i, or nil
// if i is outside (confirmed, write].
func (s *Sender) GetPacket(i int32) *wire.Packet {
	if s.confirmed < i && i <= s.write {
		return s.buf[i%s.size]
	}
	return nil
}

// UpdateConfirmed clamps i into [confirmed, write] and advances
// Confirmed to it; it never regresses and never exceeds Write.
func (s *Sender) UpdateConfirmed(i int32) {
	if i > s.confirmed {
		s.confirmed = i
	}
	if s.confirmed > s.write {
		s.confirmed = s.write
	}
}
