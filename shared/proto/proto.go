// Package proto defines the wire-level constants and fixed-layout
// structures shared by the master, slave, and observer transports:
// op-codes, the per-work-unit header, the observer event record, and
// the per-frame overlay telemetry.
package proto

import "github.com/tienet-go/tienet/shared/wire"

// MagicVersion is exchanged after the scene push so mismatched
// master/slave builds fail fast instead of misinterpreting the wire
// format.
const MagicVersion uint32 = 0x54494E31 // "TIN1"

// SceneMaxLen bounds the accepted scene blob length slaves will
// allocate for.
const SceneMaxLen uint32 = 512 * 1024 * 1024

// FrameMaxLen bounds the accepted compressed-frame length observers
// will allocate for.
const FrameMaxLen uint32 = 256 * 1024 * 1024

// Slave-data op-codes: the first byte of every work unit's slave-data
// suffix.
const (
	OpRender uint8 = iota // ordinary tile render
	OpShot                // shotline probe
	OpSpall               // spall-cone probe
)

// Observer op-codes.
const (
	OpInit uint8 = iota
	OpFrame
	OpMesg
	OpQuit
	OpNop
	OpShotUpdate // master -> observer broadcast carrying a probe result
)

// WorkHeader is the fixed wire header sent with every work unit and
// echoed back with every result.
type WorkHeader struct {
	OrigX, OrigY uint32
	SizeX, SizeY uint32
	Format       uint8
}

// IsProbe reports whether this header describes a non-tile probe.
func (h WorkHeader) IsProbe() bool {
	return h.SizeX == 0 && h.SizeY == 0
}

// WriteTo appends the header's wire representation to w.
func (h WorkHeader) WriteTo(w *wire.Writer) {
	w.WriteU32(h.OrigX)
	w.WriteU32(h.OrigY)
	w.WriteU32(h.SizeX)
	w.WriteU32(h.SizeY)
	w.WriteU8(h.Format)
}

// ReadWorkHeader parses a WorkHeader from r.
func ReadWorkHeader(r *wire.Reader) (WorkHeader, error) {
	var h WorkHeader
	var err error
	if h.OrigX, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.OrigY, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.SizeX, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.SizeY, err = r.ReadU32(); err != nil {
		return h, err
	}
	if b, err := r.ReadU8(); err != nil {
		return h, err
	} else {
		h.Format = b
	}
	return h, nil
}

// WorkHeaderWireSize is the header's fixed wire size in bytes
// (4 * u32 + 1 * u8), used to size the fixed-length result read.
const WorkHeaderWireSize = 4*4 + 1

// Event is the fixed-layout, architecture-neutral observer input
// record. A raw SDL event struct would not survive a mixed-architecture
// master/observer pair, so the fields are pinned here instead.
type Event struct {
	Type         uint8
	Keysym       uint16
	Button       uint8
	MotionState  uint8
	MotionXRel   int16
	MotionYRel   int16
}

// EventWireSize is Event's fixed wire size in bytes.
const EventWireSize = 1 + 2 + 1 + 1 + 2 + 2

// WriteTo appends the event's wire representation to w.
func (e Event) WriteTo(w *wire.Writer) {
	w.WriteU8(e.Type)
	w.WriteU16(e.Keysym)
	w.WriteU8(e.Button)
	w.WriteU8(e.MotionState)
	w.WriteI16(e.MotionXRel)
	w.WriteI16(e.MotionYRel)
}

// ReadEvent parses an Event from r.
func ReadEvent(r *wire.Reader) (Event, error) {
	var e Event
	var err error
	if e.Type, err = r.ReadU8(); err != nil {
		return e, err
	}
	if e.Keysym, err = r.ReadU16(); err != nil {
		return e, err
	}
	if e.Button, err = r.ReadU8(); err != nil {
		return e, err
	}
	if e.MotionState, err = r.ReadU8(); err != nil {
		return e, err
	}
	if e.MotionXRel, err = r.ReadI16(); err != nil {
		return e, err
	}
	if e.MotionYRel, err = r.ReadI16(); err != nil {
		return e, err
	}
	return e, nil
}

// SDL-equivalent event type tags an observer client fills into Event.Type.
const (
	EventKeyDown uint8 = iota
	EventKeyUp
	EventMouseButtonDown
	EventMouseButtonUp
	EventMouseMotion
)

// Mouse button bit masks for Event.Button / Event.MotionState.
const (
	ButtonLeft   uint8 = 1 << 0
	ButtonMiddle uint8 = 1 << 1
	ButtonRight  uint8 = 1 << 2
	ButtonWheelUp   uint8 = 1 << 3
	ButtonWheelDown uint8 = 1 << 4
)

// Keysym values the master's event translator recognizes. Observers
// map their toolkit's keycodes onto these before upload.
const (
	KeyShift uint16 = iota + 1
	KeyRenderPhong
	KeyRenderCut // cutting-plane view
	KeyRenderNormal
	KeyRenderDepth
	KeyRenderSurface
	KeyNumpad1 // front/back snap
	KeyNumpad3 // left/right snap
	KeyNumpad7 // top/bottom snap
	KeyNumpad0 // jump to last shot position/direction
	KeyShotline
	KeySpallCone
	KeyGrabMouse
	KeyShutdown
	KeyQuit
)

// Overlay is the per-frame HUD telemetry the master sends after every
// frame.
type Overlay struct {
	CameraPosition          [3]float64
	CameraAzimuth, CameraElevation float64
	InHit, OutHit           [3]float64
	Resolution              [12]byte
	Controller              bool
	ComputeNodes            int16
	Scale                   float64
}

// OverlayWireSize is Overlay's fixed wire size in bytes, used by the
// observer client to size its fixed-length read.
const OverlayWireSize = 3*4 + 4 + 4 + 3*4 + 3*4 + 12 + 1 + 2 + 4

// WriteTo appends the overlay's wire representation to w.
func (o Overlay) WriteTo(w *wire.Writer) {
	w.WriteVector3(o.CameraPosition[0], o.CameraPosition[1], o.CameraPosition[2])
	w.WriteF32(float32(o.CameraAzimuth))
	w.WriteF32(float32(o.CameraElevation))
	w.WriteVector3(o.InHit[0], o.InHit[1], o.InHit[2])
	w.WriteVector3(o.OutHit[0], o.OutHit[1], o.OutHit[2])
	w.WriteBytes(o.Resolution[:])
	if o.Controller {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	w.WriteI16(o.ComputeNodes)
	w.WriteF32(float32(o.Scale))
}

// ReadOverlay parses an Overlay from r.
func ReadOverlay(r *wire.Reader) (Overlay, error) {
	var o Overlay
	var err error
	if o.CameraPosition[0], o.CameraPosition[1], o.CameraPosition[2], err = r.ReadVector3(); err != nil {
		return o, err
	}
	var f32 float32
	if f32, err = r.ReadF32(); err != nil {
		return o, err
	}
	o.CameraAzimuth = float64(f32)
	if f32, err = r.ReadF32(); err != nil {
		return o, err
	}
	o.CameraElevation = float64(f32)
	if o.InHit[0], o.InHit[1], o.InHit[2], err = r.ReadVector3(); err != nil {
		return o, err
	}
	if o.OutHit[0], o.OutHit[1], o.OutHit[2], err = r.ReadVector3(); err != nil {
		return o, err
	}
	res, err := r.ReadBytes(12)
	if err != nil {
		return o, err
	}
	copy(o.Resolution[:], res)
	ctrl, err := r.ReadU8()
	if err != nil {
		return o, err
	}
	o.Controller = ctrl != 0
	if o.ComputeNodes, err = r.ReadI16(); err != nil {
		return o, err
	}
	if f32, err = r.ReadF32(); err != nil {
		return o, err
	}
	o.Scale = float64(f32)
	return o, nil
}
