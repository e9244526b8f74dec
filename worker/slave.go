// Package worker is the render slave: a single connection lifecycle
// to the master that pulls the scene once, then loops pulling and
// answering one work unit at a time.
package worker

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"

	"github.com/tienet-go/tienet/shared/codec"
	"github.com/tienet-go/tienet/shared/engine"
	"github.com/tienet-go/tienet/shared/engine/reference"
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/wire"
)

// Run connects to masterAddr, pulls the scene and version handshake,
// and serves work units until the connection drops. It returns on any
// I/O error so the caller (cmd/slave) can apply its own
// reconnect-with-backoff policy.
func Run(masterAddr string) error {
	conn, err := net.Dial("tcp", masterAddr)
	if err != nil {
		return fmt.Errorf("worker: dial %s: %w", masterAddr, err)
	}
	defer conn.Close()

	sceneBlob, err := wire.RecvU32Blob(conn, proto.SceneMaxLen)
	if err != nil {
		return fmt.Errorf("worker: recv scene: %w", err)
	}

	var verBuf [4]byte
	if err := wire.RecvAll(conn, verBuf[:]); err != nil {
		return fmt.Errorf("worker: recv version: %w", err)
	}
	if got := binary.BigEndian.Uint32(verBuf[:]); got != proto.MagicVersion {
		return fmt.Errorf("worker: version mismatch: got %#x, want %#x", got, proto.MagicVersion)
	}

	sc, err := codec.Unpack(sceneBlob, false)
	if err != nil {
		return fmt.Errorf("worker: unpack scene: %w", err)
	}

	tracer := reference.New(sc)
	log.Printf("worker: connected to %s, scene has %d meshes", masterAddr, len(sc.Meshes))

	for {
		if err := serveOne(conn, tracer); err != nil {
			return err
		}
	}
}

func serveOne(conn net.Conn, eng engine.Engine) error {
	hdrBuf := make([]byte, proto.WorkHeaderWireSize)
	if err := wire.RecvAll(conn, hdrBuf); err != nil {
		return fmt.Errorf("worker: recv header: %w", err)
	}
	h, err := proto.ReadWorkHeader(wire.NewReader(hdrBuf, false))
	if err != nil {
		return fmt.Errorf("worker: parse header: %w", err)
	}

	var lenBuf [2]byte
	if err := wire.RecvAll(conn, lenBuf[:]); err != nil {
		return fmt.Errorf("worker: recv data length: %w", err)
	}
	dataLen := int(lenBuf[0])<<8 | int(lenBuf[1])
	data := make([]byte, dataLen)
	if dataLen > 0 {
		if err := wire.RecvAll(conn, data); err != nil {
			return fmt.Errorf("worker: recv slave data: %w", err)
		}
	}

	if h.IsProbe() {
		return serveProbe(conn, eng, h, data)
	}
	return serveTile(conn, eng, h, data)
}

// serveTile applies the work unit's camera/render-mode override (if
// the engine supports it), renders the tile, and sends back the header
// echo plus the pixel bytes and the frame index that rode in on the
// render payload.
func serveTile(conn net.Conn, eng engine.Engine, h proto.WorkHeader, data []byte) error {
	r := wire.NewReader(data, false)
	op, err := r.ReadU8()
	if err != nil {
		return fmt.Errorf("worker: read op: %w", err)
	}
	if op != proto.OpRender {
		return fmt.Errorf("worker: expected OpRender, got %d", op)
	}
	payload, err := proto.ReadRenderPayload(r)
	if err != nil {
		return fmt.Errorf("worker: read render payload: %w", err)
	}
	applyCameraOverride(eng, payload)

	pixels, err := eng.Render(h)
	if err != nil {
		return fmt.Errorf("worker: render: %w", err)
	}

	w := wire.NewWriter()
	h.WriteTo(w)
	w.WriteBytes(pixels)
	w.WriteU16(payload.FrameIndex)
	return wire.SendAll(conn, w.Bytes())
}

// serveProbe applies the probe's camera-adjacent framing (only the
// frame index matters for a probe; camera/mode are not needed since
// the probe supplies its own origin/direction), runs the shotline or
// spall-cone query, and sends back the header echo plus the
// self-delimiting probe result body.
func serveProbe(conn net.Conn, eng engine.Engine, h proto.WorkHeader, data []byte) error {
	r := wire.NewReader(data, false)
	op, err := r.ReadU8()
	if err != nil {
		return fmt.Errorf("worker: read op: %w", err)
	}
	payload, err := proto.ReadProbePayload(r, op)
	if err != nil {
		return fmt.Errorf("worker: read probe payload: %w", err)
	}

	origin := vecOf(payload.Origin)
	dir := vecOf(payload.Dir)

	var result engine.ProbeResult
	switch op {
	case proto.OpShot:
		result, err = eng.Probe(origin, dir)
	case proto.OpSpall:
		result, err = eng.ProbeCone(origin, dir, payload.HalfAngle, int(payload.Samples))
	default:
		return fmt.Errorf("worker: unknown probe op %d", op)
	}
	if err != nil {
		return fmt.Errorf("worker: probe: %w", err)
	}

	w := wire.NewWriter()
	h.WriteTo(w)
	body := proto.ProbeResultPayload{
		Hit:       result.Hit,
		InHit:     [3]float64{result.InHit.X, result.InHit.Y, result.InHit.Z},
		OutHit:    [3]float64{result.OutHit.X, result.OutHit.Y, result.OutHit.Z},
		MeshNames: result.MeshNames,
	}
	if err := body.WriteTo(w); err != nil {
		return fmt.Errorf("worker: encode probe result: %w", err)
	}
	return wire.SendAll(conn, w.Bytes())
}

func vecOf(v [3]float64) geom.Vector {
	return geom.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// applyCameraOverride pushes the dispatch-time camera/render mode into
// eng, if it supports the override (the reference engine always
// does). Engines that don't implement engine.CameraUpdater simply
// render against whatever camera their scene was pushed with. The
// payload carries the master's azimuth/elevation view state; it is
// collapsed to the pos/focus camera the engine renders with.
func applyCameraOverride(eng engine.Engine, payload proto.RenderPayload) {
	cu, ok := eng.(engine.CameraUpdater)
	if !ok {
		return
	}
	v := scene.View{
		Pos:       vecOf(payload.CameraPos),
		Azimuth:   payload.Azimuth,
		Elevation: payload.Elevation,
		Fov:       payload.Fov,
		Tilt:      payload.Tilt,
		Dof:       payload.Dof,
	}
	cu.SetCamera(v.Camera())
	cu.SetRenderMode(scene.RenderMethod(payload.RenderMode))
}
