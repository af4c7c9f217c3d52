package carrier

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Drop wraps a Carrier and discards inbound or outbound datagrams
// with probability p. It is stateful only in the sense that it holds
// its own *rand.Rand, seeded by the caller, so tests can freeze it.
type Drop struct {
	base Carrier
	p    float64
	rng  *rand.Rand
}

// NewDrop wraps base so that each Send/Recv independently drops with
// probability p.
func NewDrop(base Carrier, p float64, rng *rand.Rand) *Drop {
	return &Drop{base: base, p: p, rng: rng}
}

func (d *Drop) Send(data []byte) error {
	if d.rng.Float64() < d.p {
		return nil
	}
	return d.base.Send(data)
}

func (d *Drop) Recv(maxLen int) ([]byte, error) {
	data, err := d.base.Recv(maxLen)
	if err != nil {
		return nil, err
	}
	if d.rng.Float64() < d.p {
		return nil, ErrWouldBlock
	}
	return data, nil
}

// Corrupt wraps a Carrier and, with probability p, shuffles the bytes
// of a datagram before passing it through — simulating bit-level
// corruption that the packet checksum must then catch.
type Corrupt struct {
	base Carrier
	p    float64
	rng  *rand.Rand
}

// NewCorrupt wraps base so that each Send/Recv independently corrupts
// with probability p.
func NewCorrupt(base Carrier, p float64, rng *rand.Rand) *Corrupt {
	return &Corrupt{base: base, p: p, rng: rng}
}

func (c *Corrupt) shuffle(data []byte) []byte {
	out := append([]byte(nil), data...)
	c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (c *Corrupt) Send(data []byte) error {
	if c.rng.Float64() < c.p {
		data = c.shuffle(data)
	}
	return c.base.Send(data)
}

func (c *Corrupt) Recv(maxLen int) ([]byte, error) {
	data, err := c.base.Recv(maxLen)
	if err != nil {
		return nil, err
	}
	if c.rng.Float64() < c.p {
		data = c.shuffle(data)
	}
	return data, nil
}

// Reorder wraps a Carrier and buffers datagrams; on each Recv it adds
// any datagram just read to the buffer and then, with probability p,
// shuffles the buffer and releases one datagram from it (possibly the
// one just read); otherwise it returns ErrWouldBlock and keeps holding
// the buffer, simulating out-of-order delivery from the underlying
// network.
type Reorder struct {
	base Carrier
	p    float64
	rng  *rand.Rand
	buf  [][]byte
}

// NewReorder wraps base with a reorder probability p.
func NewReorder(base Carrier, p float64, rng *rand.Rand) *Reorder {
	return &Reorder{base: base, p: p, rng: rng}
}

func (r *Reorder) Send(data []byte) error {
	return r.base.Send(data)
}

func (r *Reorder) Recv(maxLen int) ([]byte, error) {
	data, err := r.base.Recv(maxLen)
	if err == nil {
		r.buf = append(r.buf, data)
	} else if err != ErrWouldBlock {
		return nil, err
	}

	if len(r.buf) == 0 {
		return nil, ErrWouldBlock
	}
	if r.rng.Float64() >= r.p {
		return nil, ErrWouldBlock
	}

	r.rng.Shuffle(len(r.buf), func(i, j int) { r.buf[i], r.buf[j] = r.buf[j], r.buf[i] })
	out := r.buf[len(r.buf)-1]
	r.buf = r.buf[:len(r.buf)-1]
	return out, nil
}

// Debug wraps a Carrier and logs through the ambient logrus logger
// every Send and every Recv that returns a datagram or a fatal error;
// a Recv that returns ErrWouldBlock is not logged.
type Debug struct {
	base Carrier
	log  logrus.FieldLogger
}

// NewDebug wraps base with logging through log.
func NewDebug(base Carrier, log logrus.FieldLogger) *Debug {
	return &Debug{base: base, log: log}
}

func (d *Debug) Send(data []byte) error {
	err := d.base.Send(data)
	d.log.WithFields(logrus.Fields{"bytes": len(data), "err": err}).Debug("carrier send")
	return err
}

func (d *Debug) Recv(maxLen int) ([]byte, error) {
	data, err := d.base.Recv(maxLen)
	if err != nil && err != ErrWouldBlock {
		d.log.WithError(err).Debug("carrier recv")
	} else if err == nil {
		d.log.WithField("bytes", len(data)).Debug("carrier recv")
	}
	return data, err
}
