package window

import (
	"testing"

	"rudp-go/pkg/wire"
)

func TestSenderPutPacketAssignsSeq(t *testing.T) {
	s := NewSender(4)
	p0, err := s.PutPacket(&wire.Packet{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p0.SeqNum != 0 {
		t.Errorf("expected first seq_num 0, got %d", p0.SeqNum)
	}
	p1, _ := s.PutPacket(&wire.Packet{})
	if p1.SeqNum != 1 {
		t.Errorf("expected second seq_num 1, got %d", p1.SeqNum)
	}
}

func TestSenderGetPacketRespectsWindow(t *testing.T) {
	s := NewSender(4)
	s.PutPacket(&wire.Packet{})
	s.PutPacket(&wire.Packet{})

	if s.GetPacket(0) == nil {
		t.Errorf("expected slot 0 to be retrievable")
	}
	if s.GetPacket(2) != nil {
		t.Errorf("expected slot 2 (not yet written) to be nil")
	}

	s.UpdateConfirmed(0)
	if s.GetPacket(0) != nil {
		t.Errorf("expected slot 0 to be nil once confirmed")
	}
	if s.GetPacket(1) == nil {
		t.Errorf("expected slot 1 still retrievable")
	}
}

func TestSenderUpdateConfirmedMonotonicity(t *testing.T) {
	s := NewSender(10)
	for i := 0; i < 5; i++ {
		s.PutPacket(&wire.Packet{})
	}

	s.UpdateConfirmed(3)
	if s.Confirmed() != 3 {
		t.Fatalf("expected confirmed 3, got %d", s.Confirmed())
	}

	// Must never regress.
	s.UpdateConfirmed(1)
	if s.Confirmed() != 3 {
		t.Errorf("confirmed regressed: %d", s.Confirmed())
	}

	// Must never exceed write.
	s.UpdateConfirmed(1000)
	if s.Confirmed() != s.Write() {
		t.Errorf("expected confirmed clamped to write %d, got %d", s.Write(), s.Confirmed())
	}
}

func TestSenderWindowFull(t *testing.T) {
	s := NewSender(2)
	if _, err := s.PutPacket(&wire.Packet{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.PutPacket(&wire.Packet{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.PutPacket(&wire.Packet{}); err != ErrWindowFull {
		t.Errorf("expected ErrWindowFull, got %v", err)
	}

	s.UpdateConfirmed(0)
	if _, err := s.PutPacket(&wire.Packet{}); err != nil {
		t.Errorf("expected room to open up after confirmation, got %v", err)
	}
}
