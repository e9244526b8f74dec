package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates a byte stream in a single growable buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteU16 appends a big-endian u16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteU32 appends a big-endian u32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteI16 appends a big-endian signed i16.
func (w *Writer) WriteI16(v int16) {
	w.WriteU16(uint16(v))
}

// WriteF32 appends a big-endian IEEE-754 float32.
func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

// WriteVector3 appends three consecutive float32s (a TIE_3).
func (w *Writer) WriteVector3(x, y, z float64) {
	w.WriteF32(float32(x))
	w.WriteF32(float32(y))
	w.WriteF32(float32(z))
}

// WriteBytes appends an opaque byte slice verbatim (never flipped).
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// WriteNamed appends a u8 length prefix followed by the name's bytes,
// matching the PROP/MESHMAP section's `u8 namelen; name[namelen]` records.
func (w *Writer) WriteNamed(name string) error {
	if len(name) > 0xFF {
		return fmt.Errorf("wire: name %q exceeds 255 bytes", name)
	}
	w.WriteU8(uint8(len(name)))
	w.buf.WriteString(name)
	return nil
}

// Reader parses a byte stream produced by Writer, optionally flipping
// multi-byte scalars according to the endian handshake (flip=true
// means the peer's native byte order differs from the wire's
// big-endian convention).
type Reader struct {
	buf  []byte
	pos  int
	flip bool
}

// NewReader wraps buf for sequential reading. flip is decided once,
// at handshake time, and applies to every subsequent scalar read.
func NewReader(buf []byte, flip bool) *Reader {
	return &Reader{buf: buf, flip: flip}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("wire: short read: need %d bytes, have %d", n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a u16, flipping if required.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	cp := append([]byte(nil), b...)
	if r.flip {
		FlipBytes(cp, 2)
	}
	return binary.BigEndian.Uint16(cp), nil
}

// ReadU32 reads a u32, flipping if required.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	cp := append([]byte(nil), b...)
	if r.flip {
		FlipBytes(cp, 4)
	}
	return binary.BigEndian.Uint32(cp), nil
}

// ReadI16 reads a signed i16, flipping if required.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadF32 reads an IEEE-754 float32, flipping if required.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadVector3 reads three consecutive float32s (a TIE_3) as float64s.
func (r *Reader) ReadVector3() (x, y, z float64, err error) {
	var fx, fy, fz float32
	if fx, err = r.ReadF32(); err != nil {
		return
	}
	if fy, err = r.ReadF32(); err != nil {
		return
	}
	if fz, err = r.ReadF32(); err != nil {
		return
	}
	return float64(fx), float64(fy), float64(fz), nil
}

// ReadBytes reads n opaque bytes verbatim (never flipped).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadNamed reads a u8-length-prefixed name string.
func (r *Reader) ReadNamed() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Skip advances the cursor n bytes without interpreting them, used by
// the unpacker to ignore unknown tags inside a section.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}
