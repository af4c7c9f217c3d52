package wire

// CloseSeq is the reserved sequence number that marks a close sentinel.
const CloseSeq int32 = -1

// NoAck is the ack_num value meaning "nothing accepted yet".
const NoAck int32 = -1

// Packet is the single wire frame this protocol speaks: data, ACK-only,
// and close are all the same frame shape, distinguished by SeqNum and
// whether Payload is empty. There is no separate packet-kind hierarchy.
type Packet struct {
	SeqNum  int32
	AckNum  int32
	ChkSum  int32
	Payload []byte
}

// NewAck builds an ACK-only packet: SeqNum is ignored by the receiver
// because Payload is empty, so it is left at its zero value.
func NewAck(ackNum int32) *Packet {
	return &Packet{AckNum: ackNum}
}

// NewClose builds the close sentinel.
func NewClose() *Packet {
	return &Packet{SeqNum: CloseSeq, AckNum: NoAck}
}

// Encode serializes the packet, computing the checksum over the frame
// with ChkSum temporarily zeroed, as required by §4.2.
func (p *Packet) Encode() []byte {
	b := NewByteBuf()
	b.WriteInt(p.SeqNum)
	b.WriteInt(p.AckNum)
	b.WriteInt(0)
	b.WriteData(p.Payload)
	chk := b.Checksum()

	out := NewByteBuf()
	out.WriteInt(p.SeqNum)
	out.WriteInt(p.AckNum)
	out.WriteInt(chk)
	out.WriteData(p.Payload)
	return out.AsBytes()
}

// Decode parses a wire frame and verifies its checksum. It returns
// (nil, false) for anything that doesn't check out — truncated reads
// or a checksum mismatch — matching the spec's "silently dropped, not
// an error" policy: the decoder never itself returns an error to the
// caller, and MalformedFrame never reaches the application.
func Decode(data []byte) (pkt *Packet, ok bool) {
	defer func() {
		if recover() != nil {
			pkt, ok = nil, false
		}
	}()

	b := WrapByteBuf(data)
	seq := b.ReadInt()
	ack := b.ReadInt()
	chk := b.ReadInt()
	payload := b.ReadData()

	verify := NewByteBuf()
	verify.WriteInt(seq)
	verify.WriteInt(ack)
	verify.WriteInt(0)
	verify.WriteData(payload)
	if verify.Checksum() != chk {
		return nil, false
	}

	return &Packet{SeqNum: seq, AckNum: ack, ChkSum: chk, Payload: payload}, true
}
