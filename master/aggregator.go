package master

import (
	"fmt"
	"sync"

	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/sem"
	"github.com/tienet-go/tienet/shared/wire"
)

// frameSlot is one of the two double-buffered RGB frames: a flat pixel
// buffer plus a per-(x,y) "have we placed this tile yet" set, so a tile
// retried after a dropped slave increments the completion counter at
// most once.
type frameSlot struct {
	mu       sync.Mutex
	w, h     uint32
	pix      []byte
	received map[[2]uint32]bool
}

func newFrameSlot(w, h uint32) *frameSlot {
	return &frameSlot{w: w, h: h, pix: make([]byte, 3*uint64(w)*uint64(h)), received: map[[2]uint32]bool{}}
}

// begin resets the slot for a new frame, resizing pix if the image
// dimensions changed underneath it.
func (s *frameSlot) begin(w, h uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != w || s.h != h || uint64(len(s.pix)) != 3*uint64(w)*uint64(h) {
		s.w, s.h = w, h
		s.pix = make([]byte, 3*uint64(w)*uint64(h))
	}
	for k := range s.received {
		delete(s.received, k)
	}
}

// placeTile copies one tile's pixels into the slot at (x, y) and
// reports whether this was the first time this (x, y) was received
// this frame (tie-break: "the counter is incremented at most once per unique
// (x,y,frame)").
func (s *frameSlot) placeTile(x, y, tw, th uint32, pixels []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rowBytes := int(tw) * 3
	for row := uint32(0); row < th; row++ {
		dstOff := (uint64(y+row)*uint64(s.w) + uint64(x)) * 3
		srcOff := uint64(row) * uint64(rowBytes)
		if dstOff+uint64(rowBytes) > uint64(len(s.pix)) || srcOff+uint64(rowBytes) > uint64(len(pixels)) {
			break
		}
		copy(s.pix[dstOff:dstOff+uint64(rowBytes)], pixels[srcOff:srcOff+uint64(rowBytes)])
	}
	key := [2]uint32{x, y}
	first := !s.received[key]
	s.received[key] = true
	return first
}

func (s *frameSlot) snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.pix))
	copy(out, s.pix)
	return out
}

func (s *frameSlot) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// aggregator reassembles returned tiles into frames, detects frame
// completion, handles probe results, and owns the double-buffer
// governor. Aggregation and the governor share the same frame-slot
// state, so splitting them into separate types would just mean passing
// the slots back and forth.
type aggregator struct {
	mu           sync.Mutex
	w, h, tw, th uint32
	tileTotal    uint32
	slots        [2]*frameSlot
	governor     *sem.BinarySemaphore
	ctx          *Context // wired by NewContext once the Context exists

	readyMu  sync.Mutex
	readyPix []byte
	readyW   int
	readyH   int
}

func newAggregator(w, h, tw, th uint32) *aggregator {
	if tw == 0 {
		tw = defaultTile
	}
	if th == 0 {
		th = defaultTile
	}
	a := &aggregator{
		w: w, h: h, tw: tw, th: th,
		tileTotal: tileCount(w, h, tw, th),
		governor:  sem.NewBinarySemaphore(1),
	}
	a.slots[0] = newFrameSlot(w, h)
	a.slots[1] = newFrameSlot(w, h)
	return a
}

func tileCount(w, h, tw, th uint32) uint32 {
	if tw == 0 || th == 0 {
		return 0
	}
	return (w / tw) * (h / th)
}

// Dims returns the image and tile dimensions the dispatcher tiles
// over. Safe for concurrent use with Resize.
func (a *aggregator) Dims() (w, h, tw, th uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w, a.h, a.tw, a.th
}

// Resize changes the image dimensions (the OP_MESG set_resolution
// path), rebuilding both frame slots so the next frame starts from a
// clean black buffer instead of carrying stale tiles at the old
// geometry.
func (a *aggregator) Resize(w, h uint32) {
	a.mu.Lock()
	a.w, a.h = w, h
	a.tileTotal = tileCount(a.w, a.h, a.tw, a.th)
	a.mu.Unlock()
	a.slots[0].begin(w, h)
	a.slots[1].begin(w, h)
}

// BeginFrame resets the slot frameIndex will be filled into, the
// EMPTY->FILLING transition for that slot.
func (a *aggregator) BeginFrame(frameIndex uint8) {
	w, h, _, _ := a.Dims()
	a.slots[frameIndex%2].begin(w, h)
}

// WaitForSlot blocks the dispatcher until the governor grants
// permission to start the next frame.
func (a *aggregator) WaitForSlot() {
	a.governor.Wait()
}

// HandleTileResult parses one pixel-tile result and applies it to the
// frame slot its trailing frame index names, posting the governor and
// every observer's frame semaphore once the frame is complete.
func (a *aggregator) HandleTileResult(h proto.WorkHeader, payload []byte) error {
	pixelLen := int(h.SizeX) * int(h.SizeY) * 3
	r := wire.NewReader(payload, false)
	pixels, err := r.ReadBytes(pixelLen)
	if err != nil {
		return fmt.Errorf("aggregator: tile payload: %w", err)
	}
	frameIndex, err := r.ReadU16()
	if err != nil {
		return fmt.Errorf("aggregator: tile frame index: %w", err)
	}

	slot := a.slots[uint8(frameIndex)%2]
	_, _, tw, th := a.Dims()
	if h.SizeX != tw || h.SizeY != th {
		// Non-square or stale-resolution tile: still place it at its
		// declared size rather than dropping the data.
		tw, th = h.SizeX, h.SizeY
	}
	slot.placeTile(h.OrigX, h.OrigY, tw, th, pixels)

	total := a.tileTotalSnapshot()
	if uint32(slot.count()) >= total && total > 0 {
		a.completeFrame(slot)
	}
	return nil
}

func (a *aggregator) tileTotalSnapshot() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tileTotal
}

// completeFrame implements the READY_FOR_OBSERVERS transition: the
// slot's pixels are copied into the observer-facing buffer under the
// ready mutex, the governor is posted so the dispatcher may start the next
// frame, and every observer's frame semaphore is signalled.
func (a *aggregator) completeFrame(slot *frameSlot) {
	pix := slot.snapshot()
	w, h, _, _ := a.Dims()

	a.readyMu.Lock()
	a.readyPix = pix
	a.readyW, a.readyH = int(w), int(h)
	a.readyMu.Unlock()

	a.governor.Post()
	if a.ctx != nil {
		a.ctx.observers.notifyFrameReady()
	}
}

// ReadyFrame returns the most recently completed frame's pixels and
// dimensions, safe to call concurrently with completeFrame.
func (a *aggregator) ReadyFrame() ([]byte, int, int) {
	a.readyMu.Lock()
	defer a.readyMu.Unlock()
	out := make([]byte, len(a.readyPix))
	copy(out, a.readyPix)
	return out, a.readyW, a.readyH
}

// HandleProbeResult applies an already-parsed probe result: it updates
// the center of rotation and broadcasts OP_SHOT to every observer.
func (a *aggregator) HandleProbeResult(pr proto.ProbeResultPayload) error {
	if a.ctx == nil {
		return nil
	}
	if pr.Hit {
		in := geom.Vector{X: pr.InHit[0], Y: pr.InHit[1], Z: pr.InHit[2]}
		out := geom.Vector{X: pr.OutHit[0], Y: pr.OutHit[1], Z: pr.OutHit[2]}
		a.ctx.setCenterOfRotation(in.Midpoint(out)) // records the hit midpoint as the new center of rotation
		a.ctx.setLastHit(in, out)
	}
	status := byte(0)
	if pr.Hit {
		status = 1
	}
	a.ctx.telemetry.Update("shotline", status)
	a.ctx.observers.broadcastShot(pr)
	return nil
}
