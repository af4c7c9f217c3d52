package carrier

import (
	"math/rand"
	"testing"
)

type memCarrier struct {
	queue [][]byte
	sent  [][]byte
}

func (m *memCarrier) Send(data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}

func (m *memCarrier) Recv(maxLen int) ([]byte, error) {
	if len(m.queue) == 0 {
		return nil, ErrWouldBlock
	}
	data := m.queue[0]
	m.queue = m.queue[1:]
	return data, nil
}

func TestDropAlwaysDropsAtProbabilityOne(t *testing.T) {
	base := &memCarrier{queue: [][]byte{{1, 2, 3}}}
	d := NewDrop(base, 1.0, rand.New(rand.NewSource(1)))

	if err := d.Send([]byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.sent) != 0 {
		t.Errorf("expected send to be dropped, but base carrier received %d datagrams", len(base.sent))
	}

	if _, err := d.Recv(8); err != ErrWouldBlock {
		t.Errorf("expected ErrWouldBlock, got %v", err)
	}
}

func TestDropNeverDropsAtProbabilityZero(t *testing.T) {
	base := &memCarrier{queue: [][]byte{{1, 2, 3}}}
	d := NewDrop(base, 0.0, rand.New(rand.NewSource(1)))

	if err := d.Send([]byte("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.sent) != 1 {
		t.Errorf("expected send to pass through, got %d datagrams", len(base.sent))
	}

	data, err := d.Recv(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected passthrough datagram, got %v", data)
	}
}

func TestCorruptAlwaysShufflesAtProbabilityOne(t *testing.T) {
	base := &memCarrier{}
	c := NewCorrupt(base, 1.0, rand.New(rand.NewSource(42)))

	original := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := c.Send(append([]byte(nil), original...)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.sent) != 1 {
		t.Fatalf("expected exactly one send")
	}
	// The shuffled bytes are a permutation of the original, and with this
	// many elements it would be astronomically unlikely to land back in
	// the same order, so an unchanged slice indicates shuffle didn't run.
	same := true
	for i := range original {
		if base.sent[0][i] != original[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("expected corrupted datagram to differ from the original")
	}
}

func TestReorderBuffersThenReleases(t *testing.T) {
	base := &memCarrier{queue: [][]byte{{0}, {1}, {2}}}
	r := NewReorder(base, 1.0, rand.New(rand.NewSource(7)))

	seen := map[byte]bool{}
	for i := 0; i < 3; i++ {
		data, err := r.Recv(8)
		if err != nil {
			t.Fatalf("unexpected error on iteration %d: %v", i, err)
		}
		seen[data[0]] = true
	}
	for _, want := range []byte{0, 1, 2} {
		if !seen[want] {
			t.Errorf("expected datagram %d to have been released eventually", want)
		}
	}
}
