package proto

import (
	"net"

	"github.com/tienet-go/tienet/shared/wire"
)

// RenderPayload is the OpRender slave-data body: the camera and
// render mode current at dispatch time, since the scene (and the
// camera baked into it) is only pushed to a slave once.
type RenderPayload struct {
	FrameIndex            uint16
	CameraPos             [3]float64
	Azimuth, Elevation    float64
	Fov, Tilt, Dof         float64
	RenderMode            uint32
}

// WriteTo appends op, then the payload body, to w.
func (p RenderPayload) WriteTo(w *wire.Writer) {
	w.WriteU8(OpRender)
	w.WriteU16(p.FrameIndex)
	w.WriteVector3(p.CameraPos[0], p.CameraPos[1], p.CameraPos[2])
	w.WriteF32(float32(p.Azimuth))
	w.WriteF32(float32(p.Elevation))
	w.WriteF32(float32(p.Fov))
	w.WriteF32(float32(p.Tilt))
	w.WriteF32(float32(p.Dof))
	w.WriteU32(p.RenderMode)
}

// ReadRenderPayload parses a RenderPayload body (the op byte already
// consumed by the caller).
func ReadRenderPayload(r *wire.Reader) (RenderPayload, error) {
	var p RenderPayload
	var err error
	if p.FrameIndex, err = r.ReadU16(); err != nil {
		return p, err
	}
	if p.CameraPos[0], p.CameraPos[1], p.CameraPos[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	var f32 float32
	if f32, err = r.ReadF32(); err != nil {
		return p, err
	}
	p.Azimuth = float64(f32)
	if f32, err = r.ReadF32(); err != nil {
		return p, err
	}
	p.Elevation = float64(f32)
	if f32, err = r.ReadF32(); err != nil {
		return p, err
	}
	p.Fov = float64(f32)
	if f32, err = r.ReadF32(); err != nil {
		return p, err
	}
	p.Tilt = float64(f32)
	if f32, err = r.ReadF32(); err != nil {
		return p, err
	}
	p.Dof = float64(f32)
	if p.RenderMode, err = r.ReadU32(); err != nil {
		return p, err
	}
	return p, nil
}

// ProbePayload is the OpShot/OpSpall slave-data body: a shotline's
// origin/direction, plus a spall cone's half-angle and ray count.
type ProbePayload struct {
	FrameIndex   uint16
	Origin, Dir  [3]float64
	HalfAngle    float64 // OpSpall only
	Samples      uint32  // OpSpall only
}

// WriteTo appends op (OpShot or OpSpall), then the payload body, to w.
func (p ProbePayload) WriteTo(w *wire.Writer, op uint8) {
	w.WriteU8(op)
	w.WriteU16(p.FrameIndex)
	w.WriteVector3(p.Origin[0], p.Origin[1], p.Origin[2])
	w.WriteVector3(p.Dir[0], p.Dir[1], p.Dir[2])
	if op == OpSpall {
		w.WriteF32(float32(p.HalfAngle))
		w.WriteU32(p.Samples)
	}
}

// ReadProbePayload parses a ProbePayload body given the already-read
// op code (OpShot or OpSpall).
func ReadProbePayload(r *wire.Reader, op uint8) (ProbePayload, error) {
	var p ProbePayload
	var err error
	if p.FrameIndex, err = r.ReadU16(); err != nil {
		return p, err
	}
	if p.Origin[0], p.Origin[1], p.Origin[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	if p.Dir[0], p.Dir[1], p.Dir[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	if op == OpSpall {
		var f32 float32
		if f32, err = r.ReadF32(); err != nil {
			return p, err
		}
		p.HalfAngle = float64(f32)
		if p.Samples, err = r.ReadU32(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// ProbeResultPayload is the probe reply body: entry and exit hit
// points plus the list of mesh names the probe touched.
type ProbeResultPayload struct {
	Hit           bool
	InHit, OutHit [3]float64
	MeshNames     []string
}

// WriteTo appends the probe result's wire representation to w.
func (p ProbeResultPayload) WriteTo(w *wire.Writer) error {
	if p.Hit {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	w.WriteVector3(p.InHit[0], p.InHit[1], p.InHit[2])
	w.WriteVector3(p.OutHit[0], p.OutHit[1], p.OutHit[2])
	w.WriteU8(uint8(len(p.MeshNames)))
	for _, n := range p.MeshNames {
		if err := w.WriteNamed(n); err != nil {
			return err
		}
	}
	return nil
}

// RecvProbeResultPayload reads a ProbeResultPayload directly off conn.
// Unlike the fixed-size pixel-tile payload (whose length the header
// already determines), a probe result's mesh-name list is
// self-delimiting -- each name carries its own length byte -- so the
// master reads it field by field with RecvAll rather than buffering a
// length-prefixed blob first.
func RecvProbeResultPayload(conn net.Conn) (ProbeResultPayload, error) {
	var p ProbeResultPayload

	fixed := make([]byte, 1+3*4+3*4)
	if err := wire.RecvAll(conn, fixed); err != nil {
		return p, err
	}
	r := wire.NewReader(fixed, false)
	hitByte, err := r.ReadU8()
	if err != nil {
		return p, err
	}
	p.Hit = hitByte != 0
	if p.InHit[0], p.InHit[1], p.InHit[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	if p.OutHit[0], p.OutHit[1], p.OutHit[2], err = r.ReadVector3(); err != nil {
		return p, err
	}

	var countBuf [1]byte
	if err := wire.RecvAll(conn, countBuf[:]); err != nil {
		return p, err
	}
	p.MeshNames = make([]string, countBuf[0])
	for i := range p.MeshNames {
		var lenBuf [1]byte
		if err := wire.RecvAll(conn, lenBuf[:]); err != nil {
			return p, err
		}
		name := make([]byte, lenBuf[0])
		if lenBuf[0] > 0 {
			if err := wire.RecvAll(conn, name); err != nil {
				return p, err
			}
		}
		p.MeshNames[i] = string(name)
	}
	return p, nil
}

// ReadProbeResultPayload parses a ProbeResultPayload from r.
func ReadProbeResultPayload(r *wire.Reader) (ProbeResultPayload, error) {
	var p ProbeResultPayload
	hitByte, err := r.ReadU8()
	if err != nil {
		return p, err
	}
	p.Hit = hitByte != 0
	if p.InHit[0], p.InHit[1], p.InHit[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	if p.OutHit[0], p.OutHit[1], p.OutHit[2], err = r.ReadVector3(); err != nil {
		return p, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return p, err
	}
	p.MeshNames = make([]string, n)
	for i := range p.MeshNames {
		if p.MeshNames[i], err = r.ReadNamed(); err != nil {
			return p, err
		}
	}
	return p, nil
}
