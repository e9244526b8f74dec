package master

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/sem"
	"github.com/tienet-go/tienet/shared/wire"
)

// TestServeFrameFlowBeforeEvents plays both ends of one OP_FRAME round
// trip over a net.Pipe, with the client side doing exactly what
// observerclient.client.loop does: read the flow byte before sending
// its event queue. If serveFrame ever reads the event queue before
// sending the flow byte again, both ends block in RecvAll forever and
// this test times out instead of passing -- a regression guard for
// that deadlock.
func TestServeFrameFlowBeforeEvents(t *testing.T) {
	ctx := newTestContext(t)
	ctx.aggregator.readyPix = make([]byte, 3*64*64)
	ctx.aggregator.readyW, ctx.aggregator.readyH = 64, 64

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	s := &observerSession{conn: serverConn, frameReady: sem.NewBinarySemaphore(1)}

	serveErr := make(chan error, 1)
	go func() { serveErr <- ctx.observers.serveFrame(s) }()

	clientErr := make(chan error, 1)
	go func() { clientErr <- playObserverFrameRequest(clientConn) }()

	select {
	case err := <-clientErr:
		if err != nil {
			t.Fatalf("observer side of OP_FRAME round trip: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OP_FRAME round trip deadlocked: flow byte must be sent before the event queue is read")
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serveFrame: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveFrame did not return after the client finished its round trip")
	}
}

// TestShotBroadcastCarriesNameList: after a probe result arrives,
// every observer's next OP_FRAME reply must lead
// with an OpShotUpdate flow byte carrying the in/out hits and the mesh
// name list, before the ordinary OpNop frame sequence.
func TestShotBroadcastCarriesNameList(t *testing.T) {
	ctx := newTestContext(t)
	ctx.aggregator.readyPix = make([]byte, 3*64*64)
	ctx.aggregator.readyW, ctx.aggregator.readyH = 64, 64

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	s := &observerSession{conn: serverConn, frameReady: sem.NewBinarySemaphore(0)}
	ctx.observers.add("test", s)

	pr := proto.ProbeResultPayload{
		Hit:       true,
		InHit:     [3]float64{1, 0, 0},
		OutHit:    [3]float64{3, 0, 0},
		MeshNames: []string{"wing"},
	}
	ctx.observers.broadcastShot(pr) // queues the shot and posts the frame semaphore

	serveErr := make(chan error, 1)
	go func() { serveErr <- ctx.observers.serveFrame(s) }()

	clientErr := make(chan error, 1)
	go func() {
		flowBuf := make([]byte, 1)
		if err := wire.RecvAll(clientConn, flowBuf); err != nil {
			clientErr <- err
			return
		}
		if flowBuf[0] != proto.OpShotUpdate {
			clientErr <- fmt.Errorf("first flow byte = %d, want OpShotUpdate", flowBuf[0])
			return
		}
		got, err := proto.RecvProbeResultPayload(clientConn)
		if err != nil {
			clientErr <- err
			return
		}
		if len(got.MeshNames) != 1 || got.MeshNames[0] != "wing" {
			clientErr <- fmt.Errorf("MeshNames = %v, want [wing]", got.MeshNames)
			return
		}
		if got.InHit != pr.InHit || got.OutHit != pr.OutHit {
			clientErr <- fmt.Errorf("hits = %v/%v, want %v/%v", got.InHit, got.OutHit, pr.InHit, pr.OutHit)
			return
		}
		clientErr <- playObserverFrameRequest(clientConn)
	}()

	select {
	case err := <-clientErr:
		if err != nil {
			t.Fatalf("observer side: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("shot-update round trip timed out")
	}
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serveFrame: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveFrame did not return")
	}
}

// TestServeMesgRoundTrip drives one OP_MESG exchange: a u8-length
// script upload answered by a u8-length reply (here the configured
// bridge's error text, since the test context carries the noop
// bridge).
func TestServeMesgRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	s := &observerSession{conn: serverConn, frameReady: sem.NewBinarySemaphore(0)}
	serveErr := make(chan error, 1)
	go func() { serveErr <- ctx.observers.serveMesg(s) }()

	script := []byte("print(1)")
	if err := wire.SendAll(clientConn, append([]byte{uint8(len(script))}, script...)); err != nil {
		t.Fatalf("send script: %v", err)
	}
	lenBuf := make([]byte, 1)
	if err := wire.RecvAll(clientConn, lenBuf); err != nil {
		t.Fatalf("recv reply length: %v", err)
	}
	reply := make([]byte, lenBuf[0])
	if err := wire.RecvAll(clientConn, reply); err != nil {
		t.Fatalf("recv reply: %v", err)
	}
	if len(reply) == 0 {
		t.Fatal("expected a non-empty reply from the noop bridge's error text")
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serveMesg: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serveMesg did not return")
	}
}

// playObserverFrameRequest reproduces observerclient.client.loop's
// OP_FRAME leg: read the flow byte first, and only then upload the
// (empty) event queue, before reading the frame and overlay back.
func playObserverFrameRequest(conn net.Conn) error {
	flowBuf := make([]byte, 1)
	if err := wire.RecvAll(conn, flowBuf); err != nil {
		return err
	}
	if flowBuf[0] != proto.OpNop {
		return nil
	}

	if err := wire.SendAll(conn, []byte{0}); err != nil { // u8 event count = 0
		return err
	}

	if _, err := wire.RecvU32Blob(conn, proto.FrameMaxLen); err != nil {
		return err
	}
	overlayBuf := make([]byte, proto.OverlayWireSize)
	return wire.RecvAll(conn, overlayBuf)
}
