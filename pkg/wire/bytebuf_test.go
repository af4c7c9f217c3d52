package wire

import "bytes"

import "testing"

func TestByteBufWriteReadInt(t *testing.T) {
	b := NewByteBuf()
	b.WriteInt(666)
	b.WriteInt(-1)

	r := WrapByteBuf(b.AsBytes())
	if v := r.ReadInt(); v != 666 {
		t.Errorf("expected 666, got %d", v)
	}
	if v := r.ReadInt(); v != -1 {
		t.Errorf("expected -1, got %d", v)
	}
}

func TestByteBufWriteReadData(t *testing.T) {
	b := NewByteBuf()
	b.WriteData([]byte("hello, world"))

	r := WrapByteBuf(b.AsBytes())
	data := r.ReadData()
	if !bytes.Equal(data, []byte("hello, world")) {
		t.Errorf("expected %q, got %q", "hello, world", data)
	}
}

func TestByteBufReadDataEmpty(t *testing.T) {
	b := NewByteBuf()
	b.WriteData(nil)

	r := WrapByteBuf(b.AsBytes())
	data := r.ReadData()
	if len(data) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(data))
	}
}

func TestByteBufAsBytesNonDestructive(t *testing.T) {
	b := NewByteBuf()
	b.WriteInt(42)
	first := b.AsBytes()
	second := b.AsBytes()
	if !bytes.Equal(first, second) {
		t.Errorf("AsBytes should be idempotent: %v != %v", first, second)
	}
}

func TestByteBufReadPastWritePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic reading past write cursor")
		}
	}()
	b := NewByteBuf()
	b.WriteInt(1)
	r := WrapByteBuf(b.AsBytes())
	r.ReadInt()
	r.ReadInt() // past write
}

func TestByteBufChecksumKnownValue(t *testing.T) {
	b := NewByteBuf()
	b.WriteData([]byte("abc"))
	sum := b.Checksum()
	if sum < 0 || sum > 0xFFFF {
		t.Errorf("checksum %d out of 16-bit range", sum)
	}
	// Folding 00 00 00 03 61 62 63 by hand gives 26052.
	if sum != 26052 {
		t.Errorf("expected checksum 26052, got %d", sum)
	}

	// Recomputing over the same bytes must be deterministic.
	again := WrapByteBuf(b.AsBytes())
	if again.Checksum() != sum {
		t.Errorf("checksum not stable across re-derivation: %d != %d", again.Checksum(), sum)
	}
}
