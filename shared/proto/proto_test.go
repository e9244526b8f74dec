package proto

import (
	"bytes"
	"net"
	"testing"

	"github.com/tienet-go/tienet/shared/wire"
)

func TestWorkHeaderRoundTripAndIsProbe(t *testing.T) {
	h := WorkHeader{OrigX: 32, OrigY: 64, SizeX: 32, SizeY: 32, Format: 1}
	if h.IsProbe() {
		t.Fatal("a sized tile header must not be IsProbe")
	}

	w := wire.NewWriter()
	h.WriteTo(w)
	if w.Len() != WorkHeaderWireSize {
		t.Fatalf("wrote %d bytes, want WorkHeaderWireSize %d", w.Len(), WorkHeaderWireSize)
	}

	got, err := ReadWorkHeader(wire.NewReader(w.Bytes(), false))
	if err != nil {
		t.Fatalf("ReadWorkHeader: %v", err)
	}
	if got.OrigX != h.OrigX || got.OrigY != h.OrigY || got.SizeX != h.SizeX || got.SizeY != h.SizeY || got.Format != h.Format {
		t.Fatalf("ReadWorkHeader = %+v, want %+v", got, h)
	}

	probe := WorkHeader{SizeX: 0, SizeY: 0}
	if !probe.IsProbe() {
		t.Fatal("a header with size_x==0 && size_y==0 must be IsProbe")
	}
}

func TestEventRoundTrip(t *testing.T) {
	e := Event{Type: EventMouseMotion, Keysym: 0, Button: ButtonRight, MotionState: ButtonRight, MotionXRel: -12, MotionYRel: 34}
	w := wire.NewWriter()
	e.WriteTo(w)
	if w.Len() != EventWireSize {
		t.Fatalf("wrote %d bytes, want EventWireSize %d", w.Len(), EventWireSize)
	}
	got, err := ReadEvent(wire.NewReader(w.Bytes(), false))
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if got != e {
		t.Fatalf("ReadEvent = %+v, want %+v", got, e)
	}
}

func TestOverlayRoundTrip(t *testing.T) {
	o := Overlay{
		CameraPosition:  [3]float64{1, 2, 3},
		CameraAzimuth:   90,
		CameraElevation: -15,
		InHit:           [3]float64{1, 0, 0},
		OutHit:          [3]float64{3, 0, 0},
		Controller:      true,
		ComputeNodes:    4,
		Scale:           2.5,
	}
	copy(o.Resolution[:], "64x64")

	w := wire.NewWriter()
	o.WriteTo(w)
	if w.Len() != OverlayWireSize {
		t.Fatalf("wrote %d bytes, want OverlayWireSize %d", w.Len(), OverlayWireSize)
	}
	got, err := ReadOverlay(wire.NewReader(w.Bytes(), false))
	if err != nil {
		t.Fatalf("ReadOverlay: %v", err)
	}
	if got.CameraAzimuth != o.CameraAzimuth || got.CameraElevation != o.CameraElevation {
		t.Fatalf("camera angles = %v/%v, want %v/%v", got.CameraAzimuth, got.CameraElevation, o.CameraAzimuth, o.CameraElevation)
	}
	if got.InHit != o.InHit || got.OutHit != o.OutHit {
		t.Fatalf("hit points = %v/%v, want %v/%v", got.InHit, got.OutHit, o.InHit, o.OutHit)
	}
	if got.Controller != o.Controller || got.ComputeNodes != o.ComputeNodes {
		t.Fatalf("Controller/ComputeNodes = %v/%v, want %v/%v", got.Controller, got.ComputeNodes, o.Controller, o.ComputeNodes)
	}
	if !bytes.HasPrefix(got.Resolution[:], []byte("64x64")) {
		t.Fatalf("Resolution = %q, want prefix 64x64", got.Resolution)
	}
}

func TestProbeResultPayloadWireAndSocketRoundTrip(t *testing.T) {
	pr := ProbeResultPayload{
		Hit:       true,
		InHit:     [3]float64{1, 0, 0},
		OutHit:    [3]float64{3, 0, 0},
		MeshNames: []string{"wing", "fuselage"},
	}

	w := wire.NewWriter()
	if err := pr.WriteTo(w); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	got, err := ReadProbeResultPayload(wire.NewReader(w.Bytes(), false))
	if err != nil {
		t.Fatalf("ReadProbeResultPayload: %v", err)
	}
	assertProbeResultEqual(t, got, pr)

	// RecvProbeResultPayload reads directly off a socket rather than a
	// pre-buffered wire.Reader (see its doc comment); exercise that path too.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	done := make(chan error, 1)
	go func() { done <- wire.SendAll(client, w.Bytes()) }()

	fromConn, err := RecvProbeResultPayload(server)
	if err != nil {
		t.Fatalf("RecvProbeResultPayload: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendAll: %v", err)
	}
	assertProbeResultEqual(t, fromConn, pr)
}

func assertProbeResultEqual(t *testing.T, got, want ProbeResultPayload) {
	t.Helper()
	if got.Hit != want.Hit || got.InHit != want.InHit || got.OutHit != want.OutHit {
		t.Fatalf("probe result = %+v, want %+v", got, want)
	}
	if len(got.MeshNames) != len(want.MeshNames) {
		t.Fatalf("MeshNames = %v, want %v", got.MeshNames, want.MeshNames)
	}
	for i := range want.MeshNames {
		if got.MeshNames[i] != want.MeshNames[i] {
			t.Fatalf("MeshNames[%d] = %q, want %q", i, got.MeshNames[i], want.MeshNames[i])
		}
	}
}

func TestRenderPayloadRoundTrip(t *testing.T) {
	p := RenderPayload{
		FrameIndex: 1,
		CameraPos:  [3]float64{1, 2, 3},
		Azimuth:    45,
		Elevation:  -10,
		Fov:        55,
		Tilt:       0.1,
		Dof:        -1,
		RenderMode: uint32(1),
	}
	w := wire.NewWriter()
	p.WriteTo(w)
	r := wire.NewReader(w.Bytes(), false)
	op, err := r.ReadU8()
	if err != nil || op != OpRender {
		t.Fatalf("expected OpRender prefix, got %d, %v", op, err)
	}
	got, err := ReadRenderPayload(r)
	if err != nil {
		t.Fatalf("ReadRenderPayload: %v", err)
	}
	if got.FrameIndex != p.FrameIndex || got.RenderMode != p.RenderMode {
		t.Fatalf("RenderPayload = %+v, want %+v", got, p)
	}
}

func TestProbePayloadRoundTripBothOps(t *testing.T) {
	shot := ProbePayload{Origin: [3]float64{0, 0, 0}, Dir: [3]float64{0, 0, -1}}
	w := wire.NewWriter()
	shot.WriteTo(w, OpShot)
	r := wire.NewReader(w.Bytes(), false)
	op, _ := r.ReadU8()
	got, err := ReadProbePayload(r, op)
	if err != nil {
		t.Fatalf("ReadProbePayload(OpShot): %v", err)
	}
	if got.Origin != shot.Origin || got.Dir != shot.Dir {
		t.Fatalf("shot round trip = %+v, want %+v", got, shot)
	}

	spall := ProbePayload{Origin: [3]float64{1, 1, 1}, Dir: [3]float64{0, 1, 0}, HalfAngle: 15, Samples: 32}
	w2 := wire.NewWriter()
	spall.WriteTo(w2, OpSpall)
	r2 := wire.NewReader(w2.Bytes(), false)
	op2, _ := r2.ReadU8()
	got2, err := ReadProbePayload(r2, op2)
	if err != nil {
		t.Fatalf("ReadProbePayload(OpSpall): %v", err)
	}
	if got2.HalfAngle != spall.HalfAngle || got2.Samples != spall.Samples {
		t.Fatalf("spall round trip = %+v, want %+v", got2, spall)
	}
}
