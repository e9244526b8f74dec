package wire

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteU16(0x1234)
	w.WriteU32(0xDEADBEEF)
	w.WriteI16(-17)
	w.WriteF32(3.5)
	w.WriteVector3(1.0, -2.5, 0.25)
	w.WriteBytes([]byte{1, 2, 3})
	if err := w.WriteNamed("wing"); err != nil {
		t.Fatalf("WriteNamed: %v", err)
	}

	r := NewReader(w.Bytes(), false)
	if v, err := r.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0x1234 {
		t.Fatalf("ReadU16 = %v, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -17 {
		t.Fatalf("ReadI16 = %v, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 3.5 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
	if x, y, z, err := r.ReadVector3(); err != nil || x != 1.0 || y != -2.5 || z != 0.25 {
		t.Fatalf("ReadVector3 = %v %v %v, %v", x, y, z, err)
	}
	if b, err := r.ReadBytes(3); err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("ReadBytes = %v, %v", b, err)
	}
	if name, err := r.ReadNamed(); err != nil || name != "wing" {
		t.Fatalf("ReadNamed = %q, %v", name, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{1, 2}, false)
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected short-read error")
	}
}

func TestReaderFlip(t *testing.T) {
	w := NewWriter()
	w.WriteU32(0x00000040)
	flipped := append([]byte(nil), w.Bytes()...)
	FlipBytes(flipped, 4)

	r := NewReader(flipped, true)
	v, err := r.ReadU32()
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if v != 0x00000040 {
		t.Fatalf("ReadU32 after flip round-trip = %#x, want %#x", v, 0x00000040)
	}
}

func TestFlipBytesReversesEachRecord(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x41}
	FlipBytes(buf, 4)
	want := []byte{0x40, 0x00, 0x00, 0x00, 0x41, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf, want) {
		t.Fatalf("FlipBytes = %v, want %v", buf, want)
	}
}

func TestWriteNamedRejectsOversizeName(t *testing.T) {
	w := NewWriter()
	long := make([]byte, 256)
	if err := w.WriteNamed(string(long)); err == nil {
		t.Fatal("expected error for name > 255 bytes")
	}
}

func TestSkipAdvancesWithoutInterpreting(t *testing.T) {
	w := NewWriter()
	w.WriteU32(1)
	w.WriteU32(2)
	w.WriteU32(3)

	r := NewReader(w.Bytes(), false)
	if _, err := r.ReadU32(); err != nil {
		t.Fatal(err)
	}
	if err := r.Skip(4); err != nil {
		t.Fatal(err)
	}
	v, err := r.ReadU32()
	if err != nil || v != 3 {
		t.Fatalf("ReadU32 after Skip = %v, %v", v, err)
	}
}
