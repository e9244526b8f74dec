package wire

import (
	"bytes"
	"net"
	"testing"
)

func TestSendAllRecvAllRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte{0x5A}, 4096)
	done := make(chan error, 1)
	go func() { done <- SendAll(client, payload) }()

	got := make([]byte, len(payload))
	if err := RecvAll(server, got); err != nil {
		t.Fatalf("RecvAll: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("round-tripped payload mismatch")
	}
}

func TestRecvAllOnClosedSocketErrors(t *testing.T) {
	client, server := net.Pipe()
	server.Close()
	buf := make([]byte, 4)
	if err := RecvAll(client, buf); err == nil {
		t.Fatal("expected error reading from closed peer")
	}
}

func TestSendU32BlobRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	blob := []byte("a packed scene blob")
	done := make(chan error, 1)
	go func() { done <- SendU32Blob(client, blob) }()

	got, err := RecvU32Blob(server, 1<<20)
	if err != nil {
		t.Fatalf("RecvU32Blob: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendU32Blob: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("RecvU32Blob = %q, want %q", got, blob)
	}
}

func TestRecvU32BlobRejectsOverMaxLen(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() { SendU32Blob(client, make([]byte, 100)) }()

	if _, err := RecvU32Blob(server, 10); err == nil {
		t.Fatal("expected length-bound rejection")
	}
}
