package reference

import (
	"testing"

	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
)

// panelScene is a camera at the origin looking down -Z at one large
// triangle five units away.
func panelScene() scene.Scene {
	s := scene.NewScene()
	s.Env.ImageW, s.Env.ImageH = 16, 16
	s.Env.Method = scene.RenderMethodNormal
	s.Meshes = []scene.Mesh{{
		Name: "panel",
		Vertices: []geom.Vector{
			{X: -20, Y: -20, Z: -5}, {X: 20, Y: -20, Z: -5}, {X: 0, Y: 20, Z: -5},
		},
		Faces:  []scene.Face{{I1: 0, I2: 1, I3: 2}},
		Matrix: scene.IdentityMatrix(),
	}}
	return s
}

func TestRenderHitsThePanel(t *testing.T) {
	tr := New(panelScene())
	pix, err := tr.Render(proto.WorkHeader{OrigX: 0, OrigY: 0, SizeX: 16, SizeY: 16})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(pix) != 16*16*3 {
		t.Fatalf("len(pix) = %d, want %d", len(pix), 16*16*3)
	}

	// The centre pixel's ray goes straight down -Z into the panel.
	centre := (8*16 + 8) * 3
	if pix[centre] == 0 && pix[centre+1] == 0 && pix[centre+2] == 0 {
		t.Fatal("centre pixel is black: the ray through the panel found no hit")
	}
}

func TestRenderMissesAreBlack(t *testing.T) {
	s := panelScene()
	s.Camera.Focus = geom.Vector{Z: 1} // look down +Z, away from the panel
	tr := New(s)
	pix, err := tr.Render(proto.WorkHeader{OrigX: 0, OrigY: 0, SizeX: 16, SizeY: 16})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, b := range pix {
		if b != 0 {
			t.Fatalf("pixel byte %d = %d, want all-black frame when nothing is hit", i, b)
		}
	}
}

func TestProbeReportsHitAndMeshName(t *testing.T) {
	tr := New(panelScene())
	res, err := tr.Probe(geom.Vector{}, geom.Vector{X: 0, Y: 0, Z: -1})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !res.Hit {
		t.Fatal("shotline straight at the panel should hit")
	}
	if res.InHit.Z > -4.999 || res.InHit.Z < -5.001 {
		t.Fatalf("InHit = %v, want z ~= -5", res.InHit)
	}
	if len(res.MeshNames) == 0 || res.MeshNames[0] != "panel" {
		t.Fatalf("MeshNames = %v, want [panel]", res.MeshNames)
	}
}

func TestProbeMissReportsNoHit(t *testing.T) {
	tr := New(panelScene())
	res, err := tr.Probe(geom.Vector{}, geom.Vector{X: 0, Y: 0, Z: 1})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Hit {
		t.Fatalf("shotline away from the panel reported a hit: %+v", res)
	}
}

func TestProbeConeUnionsMeshNames(t *testing.T) {
	tr := New(panelScene())
	res, err := tr.ProbeCone(geom.Vector{}, geom.Vector{X: 0, Y: 0, Z: -1}, 10, 8)
	if err != nil {
		t.Fatalf("ProbeCone: %v", err)
	}
	if !res.Hit {
		t.Fatal("cone centred on the panel should hit")
	}
	if len(res.MeshNames) != 1 || res.MeshNames[0] != "panel" {
		t.Fatalf("MeshNames = %v, want [panel] exactly once", res.MeshNames)
	}
}

func TestSetCameraOverridesRenderView(t *testing.T) {
	tr := New(panelScene())
	tr.SetCamera(scene.Camera{Focus: geom.Vector{Z: 1}, Fov: 55, Dof: -1})
	pix, err := tr.Render(proto.WorkHeader{OrigX: 0, OrigY: 0, SizeX: 16, SizeY: 16})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, b := range pix {
		if b != 0 {
			t.Fatalf("pixel byte %d = %d: the overridden camera should face away from the panel", i, b)
		}
	}
}
