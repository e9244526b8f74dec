// Package wire implements the hand-framed TCP transport shared by the
// master, slaves, and observers: blocking, all-or-error send/recv
// primitives and a byte-order-aware cursor for building and parsing
// the sectioned wire formats described by the scene codec and the
// slave/observer protocols.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// SendAll writes every byte of buf to conn, retrying partial writes:
// blocking, all-or-error.
func SendAll(conn net.Conn, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := conn.Write(buf[total:])
		if err != nil {
			return fmt.Errorf("wire: send_all: %w", err)
		}
		total += n
	}
	return nil
}

// RecvAll reads exactly len(buf) bytes from conn into buf, retrying
// partial reads. A closed socket surfaces as an error the caller
// propagates upward (io.EOF wrapped the same as any other read error).
func RecvAll(conn net.Conn, buf []byte) error {
	_, err := io.ReadFull(conn, buf)
	if err != nil {
		return fmt.Errorf("wire: recv_all: %w", err)
	}
	return nil
}

// SendU32Blob writes a length-prefixed blob: a big-endian u32 length
// followed by the raw bytes. Used for the scene push, the observer
// frame download, and OP_MESG strings.
func SendU32Blob(conn net.Conn, blob []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(blob)))
	if err := SendAll(conn, hdr[:]); err != nil {
		return err
	}
	return SendAll(conn, blob)
}

// RecvU32Blob reads a length-prefixed blob written by SendU32Blob.
// maxLen bounds the accepted length to reject corrupt/hostile framing.
func RecvU32Blob(conn net.Conn, maxLen uint32) ([]byte, error) {
	var hdr [4]byte
	if err := RecvAll(conn, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxLen {
		return nil, fmt.Errorf("wire: blob length %d exceeds bound %d", n, maxLen)
	}
	buf := make([]byte, n)
	if n > 0 {
		if err := RecvAll(conn, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// FlipBytes reverses the byte order of each fixed-size record within
// buf in place. recordSize is the size of one scalar (2, 4, or 8); buf
// must be a whole multiple of recordSize. Opaque byte arrays are never
// passed through FlipBytes.
func FlipBytes(buf []byte, recordSize int) {
	for off := 0; off+recordSize <= len(buf); off += recordSize {
		rec := buf[off : off+recordSize]
		for i, j := 0, len(rec)-1; i < j; i, j = i+1, j-1 {
			rec[i], rec[j] = rec[j], rec[i]
		}
	}
}
