package window

import "rudp-go/pkg/wire"

// Receiver is the fixed-capacity ring of inbound packets, reassembled
// into a contiguous in-order prefix for application consumption.
type Receiver struct {
	size      int32
	buf       []*wire.Packet
	read      int32 // next sequence number the application will consume
	confirmed int32 // highest seq for which [read, confirmed] is fully filled; -1 initially
}

// NewReceiver allocates a Receiver with the given capacity.
func NewReceiver(size int) *Receiver {
	return &Receiver{
		size:      int32(size),
		buf:       make([]*wire.Packet, size),
		read:      0,
		confirmed: -1,
	}
}

// Read returns the next sequence number the application will consume.
func (r *Receiver) Read() int32 { return r.read }

// Confirmed returns the highest contiguously-filled sequence number.
func (r *Receiver) Confirmed() int32 { return r.confirmed }

// PutPacket stores p if its sequence number falls within the window
// [read, read+size]; packets outside the window are dropped. Storing
// the same sequence number twice is idempotent for identical content.
// Confirmed is then advanced by walking forward while consecutive
// slots are occupied.
func (r *Receiver) PutPacket(p *wire.Packet) {
	if p.SeqNum < r.read || p.SeqNum > r.read+r.size {
		return
	}
	r.buf[p.SeqNum%r.size] = p

	for i := r.confirmed + 1; i < r.read+r.size; i++ {
		if r.buf[i%r.size] != nil {
			r.confirmed = i
		} else {
			break
		}
	}
}

// GetPacket pops the next in-order packet, or nil if the application
// has caught up with Confirmed. Returned packets form a strictly
// increasing sequence starting at 0.
func (r *Receiver) GetPacket() *wire.Packet {
	if r.read > r.confirmed {
		return nil
	}
	p := r.buf[r.read%r.size]
	r.buf[r.read%r.size] = nil
	r.read++
	return p
}
