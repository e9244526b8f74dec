package master

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/sem"
	"github.com/tienet-go/tienet/shared/wire"
)

// observerSession is one observer connection's per-connection state,
// driven through the NEW -> INIT -> FRAME/MESG -> QUIT lifecycle by
// its own goroutine.
type observerSession struct {
	conn       net.Conn
	flip       bool // true once the endian probe shows the observer's byte order differs
	controller bool
	frameReady *sem.BinarySemaphore

	mu    sync.Mutex
	shots []proto.ProbeResultPayload // probe results awaiting OP_SHOT delivery on the next OP_FRAME
}

// queueShot appends a probe result for delivery ahead of this
// session's next frame.
func (s *observerSession) queueShot(pr proto.ProbeResultPayload) {
	s.mu.Lock()
	s.shots = append(s.shots, pr)
	s.mu.Unlock()
}

func (s *observerSession) drainShots() []proto.ProbeResultPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.shots
	s.shots = nil
	return out
}

// observerHub accepts observer connections, runs the request loop for
// each, and fans frame-ready and shot-result notifications out to
// every live session.
type observerHub struct {
	ctx *Context

	mu            sync.Mutex
	sessions      map[string]*observerSession
	listener      net.Listener
	hasController bool
}

func newObserverHub(ctx *Context) *observerHub {
	return &observerHub{ctx: ctx, sessions: map[string]*observerSession{}}
}

// Listen accepts observer connections on addr until Close.
func (h *observerHub) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("master: observer listen: %w", err)
	}
	h.listener = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				log.Printf("master: observer listener closed: %v", err)
				return
			}
			go h.handle(conn)
		}
	}()
	return nil
}

// Close stops accepting observers and drops every live session.
func (h *observerHub) Close() {
	if h.listener != nil {
		h.listener.Close()
	}
	h.mu.Lock()
	for _, s := range h.sessions {
		s.conn.Close()
	}
	h.mu.Unlock()
}

// notifyFrameReady posts every live session's frame semaphore.
func (h *observerHub) notifyFrameReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.frameReady.Post()
	}
}

// broadcastShot queues the probe result on every live session and
// nudges each session's frame semaphore so the delivery isn't deferred
// until the next rendered frame happens to complete. The result itself
// rides the next OP_FRAME reply as an OpShotUpdate flow byte followed
// by the self-delimiting probe payload, keeping the per-session stream
// lock-step instead of interleaving an asynchronous broadcast into it.
func (h *observerHub) broadcastShot(pr proto.ProbeResultPayload) {
	h.mu.Lock()
	for _, s := range h.sessions {
		s.queueShot(pr)
		s.frameReady.Post()
	}
	h.mu.Unlock()
}

func (h *observerHub) add(id string, s *observerSession) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasController {
		s.controller = true
		h.hasController = true
	}
	h.sessions[id] = s
}

func (h *observerHub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
	// No controller promotion on disconnect: once the controller is
	// gone, no session is controller until the master restarts.
}

// handle runs one observer connection's full session lifetime: the
// OP_INIT endian handshake, then a loop of OP_FRAME/OP_MESG/OP_QUIT
// requests until the connection drops or the observer quits.
func (h *observerHub) handle(conn net.Conn) {
	id := conn.RemoteAddr().String()
	defer conn.Close()

	if err := h.doInitHandshake(conn); err != nil {
		log.Printf("master: observer %s: init handshake: %v", id, err)
		return
	}

	// The observer alone decides whether to flip its own subsequent
	// reads. Both ends here write canonical big-endian via wire.Writer,
	// so the master never needs to flip anything it reads back; flip is
	// carried on the session for a peer that writes its native order.
	s := &observerSession{conn: conn, flip: false, frameReady: sem.NewBinarySemaphore(0)}
	h.add(id, s)
	defer h.remove(id)
	log.Printf("master: observer %s connected (controller=%v)", id, s.controller)
	defer log.Printf("master: observer %s disconnected", id)

	for {
		opBuf := make([]byte, 1)
		if err := wire.RecvAll(conn, opBuf); err != nil {
			return
		}
		switch opBuf[0] {
		case proto.OpFrame:
			if err := h.serveFrame(s); err != nil {
				log.Printf("master: observer %s: serve frame: %v", id, err)
				return
			}
		case proto.OpMesg:
			if err := h.serveMesg(s); err != nil {
				log.Printf("master: observer %s: serve mesg: %v", id, err)
				return
			}
		case proto.OpQuit:
			return
		default:
			log.Printf("master: observer %s: unknown op %d", id, opBuf[0])
			return
		}
	}
}

// doInitHandshake implements the OP_INIT exchange: the observer sends a
// bare OP_INIT byte, and the master replies with the literal u16
// endian-probe value 1, then the current image width and height. The
// observer alone uses the probe value to decide whether its local byte
// order differs from the wire's big-endian convention.
func (h *observerHub) doInitHandshake(conn net.Conn) error {
	opBuf := make([]byte, 1)
	if err := wire.RecvAll(conn, opBuf); err != nil {
		return err
	}
	if opBuf[0] != proto.OpInit {
		return fmt.Errorf("expected OP_INIT, got op %d", opBuf[0])
	}

	w, hgt, _, _ := h.ctx.aggregator.Dims()
	out := wire.NewWriter()
	out.WriteU16(1)
	out.WriteU32(w)
	out.WriteU32(hgt)
	return wire.SendAll(conn, out.Bytes())
}

// serveFrame implements one OP_FRAME round trip: block until the next
// frame is ready, send the flow byte, then read the uploaded event
// batch, apply it, and send the frame bytes (raw or zlib per
// Config.Compress) and overlay. The flow byte must go out before the
// event read -- the observer (observerclient.client.loop) blocks on
// that byte before it ever writes its event queue, so reading events
// first here deadlocks the very first OP_FRAME round trip.
func (h *observerHub) serveFrame(s *observerSession) error {
	s.frameReady.Wait()
	if !h.ctx.Alive() {
		return sendFlow(s.conn, proto.OpQuit)
	}
	for _, pr := range s.drainShots() {
		if err := sendShotUpdate(s.conn, pr); err != nil {
			return fmt.Errorf("send shot update: %w", err)
		}
	}
	if err := sendFlow(s.conn, proto.OpNop); err != nil {
		return err
	}

	events, err := recvEvents(s.conn, s.flip)
	if err != nil {
		return fmt.Errorf("recv events: %w", err)
	}
	for _, e := range events {
		if e.Type == proto.EventKeyDown && e.Keysym == proto.KeyQuit {
			return fmt.Errorf("observer quit")
		}
	}
	h.ctx.TranslateEvents(events)

	pix, w, hgt := h.ctx.aggregator.ReadyFrame()
	if err := sendFrameBytes(s.conn, pix, h.ctx.cfg.Compress); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return sendOverlay(s.conn, h.ctx.overlayFor(s, w, hgt))
}

// serveMesg implements OP_MESG: read a u8-length-prefixed script
// string, evaluate it through the scripting bridge, and reply with a
// u8-length-prefixed result string, truncated if the bridge returned
// more than the length byte can carry.
func (h *observerHub) serveMesg(s *observerSession) error {
	var lenBuf [1]byte
	if err := wire.RecvAll(s.conn, lenBuf[:]); err != nil {
		return fmt.Errorf("recv script length: %w", err)
	}
	code := make([]byte, lenBuf[0])
	if lenBuf[0] > 0 {
		if err := wire.RecvAll(s.conn, code); err != nil {
			return fmt.Errorf("recv script: %w", err)
		}
	}
	result, evalErr := h.ctx.scripting.Eval(string(code))
	if evalErr != nil {
		result = evalErr.Error()
	}
	if len(result) > 0xFF {
		result = result[:0xFF]
	}
	out := wire.NewWriter()
	out.WriteU8(uint8(len(result)))
	out.WriteBytes([]byte(result))
	return wire.SendAll(s.conn, out.Bytes())
}

func sendFlow(conn net.Conn, op uint8) error {
	return wire.SendAll(conn, []byte{op})
}

// sendShotUpdate delivers one probe result in the flow-byte slot: an
// OpShotUpdate byte followed by the in-hit/out-hit/mesh-name payload.
// The observer reads flow bytes in a loop, so any number of these may
// precede the OpNop that starts the ordinary frame sequence.
func sendShotUpdate(conn net.Conn, pr proto.ProbeResultPayload) error {
	w := wire.NewWriter()
	w.WriteU8(proto.OpShotUpdate)
	if err := pr.WriteTo(w); err != nil {
		return err
	}
	return wire.SendAll(conn, w.Bytes())
}

func recvEvents(conn net.Conn, flip bool) ([]proto.Event, error) {
	var countBuf [1]byte
	if err := wire.RecvAll(conn, countBuf[:]); err != nil {
		return nil, err
	}
	n := uint16(countBuf[0])
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, int(n)*proto.EventWireSize)
	if err := wire.RecvAll(conn, buf); err != nil {
		return nil, err
	}
	r := wire.NewReader(buf, flip)
	events := make([]proto.Event, n)
	for i := range events {
		e, err := proto.ReadEvent(r)
		if err != nil {
			return nil, err
		}
		events[i] = e
	}
	return events, nil
}

// sendFrameBytes writes the current frame, raw or zlib-compressed,
// length-prefixed so the observer knows how much to read either way.
func sendFrameBytes(conn net.Conn, pix []byte, compress bool) error {
	if !compress {
		return wire.SendU32Blob(conn, pix)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(pix); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return wire.SendU32Blob(conn, buf.Bytes())
}

func sendOverlay(conn net.Conn, o proto.Overlay) error {
	w := wire.NewWriter()
	o.WriteTo(w)
	return wire.SendAll(conn, w.Bytes())
}

// overlayFor builds the per-session overlay: the live camera, the last
// probe's hit points, the resolution string, this session's controller
// flag, the connected compute-node count, and the current scale.
func (ctx *Context) overlayFor(s *observerSession, w, h int) proto.Overlay {
	cam := ctx.Camera()
	in, out := ctx.lastHit()
	var res [12]byte
	copy(res[:], fmt.Sprintf("%dx%d", w, h))
	return proto.Overlay{
		CameraPosition: [3]float64{cam.Pos.X, cam.Pos.Y, cam.Pos.Z},
		CameraAzimuth:  cam.Azimuth,
		CameraElevation: cam.Elevation,
		InHit:          [3]float64{in.X, in.Y, in.Z},
		OutHit:         [3]float64{out.X, out.Y, out.Z},
		Resolution:     res,
		Controller:     s.controller,
		ComputeNodes:   int16(ctx.slaves.Count()),
		Scale:          ctx.Scale(),
	}
}
