package codec

import (
	"testing"

	"github.com/tienet-go/tienet/shared/colour"
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/scene"
)

func sampleScene() scene.Scene {
	s := scene.NewScene()
	s.Env.Method = scene.RenderMethodPath
	s.Env.Path.Samples = 64
	s.Env.ImageW, s.Env.ImageH, s.Env.ImageHalfSz = 640, 480, 32

	// Every camera value is exactly representable in the wire's f32
	// precision, so the round trip below can demand bit-exact equality.
	s.Camera.Pos = geom.Vector{X: 1, Y: 2, Z: 3}
	s.Camera.Focus = geom.Vector{X: 4, Y: 5.5, Z: -6.25}
	s.Camera.Tilt, s.Camera.Fov, s.Camera.Dof = 0.125, 55, -1

	s.Properties["hull"] = scene.Property{
		Name:     "hull",
		Color:    colour.NewRGBFromFloats(0.2, 0.4, 0.6),
		Density:  0.9,
		Gloss:    0.3,
		Emission: 0.0,
		IOR:      1.4,
	}

	s.Textures = []scene.Texture{
		{Kind: scene.TextureChecker, Tile: 4},
		{Kind: scene.TextureCamo, Size: 2.5, Octaves: 3, Absolute: true,
			Color1: colour.NewRGBFromFloats(1, 0, 0),
			Color2: colour.NewRGBFromFloats(0, 1, 0),
			Color3: colour.NewRGBFromFloats(0, 0, 1)},
		{Kind: scene.TextureGradient, Axis: 2},
	}

	// A small mesh exercising the 16-bit face index path.
	small := scene.Mesh{
		Name: "wing",
		Vertices: []geom.Vector{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
		},
		Faces:  []scene.Face{{I1: 0, I2: 1, I3: 2}},
		Matrix: scene.IdentityMatrix(),
	}
	s.Meshes = []scene.Mesh{small}
	s.MeshMap["wing"] = "hull"

	return s
}

// TestPackUnpackRoundTrip: every field of a packed scene
// reproduces bit-exactly on unpack. Endianness itself (the flip flag) is
// exercised at the wire.Reader level in shared/wire's FlipBytes round-trip
// test; the codec always emits canonical big-endian and relies on
// wire.Reader to do the flipping, so there is nothing codec-specific left to
// vary here.
func TestPackUnpackRoundTrip(t *testing.T) {
	s := sampleScene()
	blob := Pack(s)

	got, err := Unpack(blob, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	if got.Env.Method != s.Env.Method {
		t.Fatalf("Env.Method = %v, want %v", got.Env.Method, s.Env.Method)
	}
	if got.Env.Path.Samples != s.Env.Path.Samples {
		t.Fatalf("Env.Path.Samples = %v, want %v", got.Env.Path.Samples, s.Env.Path.Samples)
	}
	if got.Env.ImageW != s.Env.ImageW || got.Env.ImageH != s.Env.ImageH {
		t.Fatalf("Env dims = %dx%d, want %dx%d", got.Env.ImageW, got.Env.ImageH, s.Env.ImageW, s.Env.ImageH)
	}

	if got.Camera.Pos != s.Camera.Pos {
		t.Fatalf("Camera.Pos = %v, want %v", got.Camera.Pos, s.Camera.Pos)
	}
	if got.Camera.Focus != s.Camera.Focus {
		t.Fatalf("Camera.Focus = %v, want %v", got.Camera.Focus, s.Camera.Focus)
	}
	if got.Camera.Tilt != s.Camera.Tilt || got.Camera.Fov != s.Camera.Fov || got.Camera.Dof != s.Camera.Dof {
		t.Fatalf("Camera tilt/fov/dof = %v/%v/%v, want %v/%v/%v",
			got.Camera.Tilt, got.Camera.Fov, got.Camera.Dof, s.Camera.Tilt, s.Camera.Fov, s.Camera.Dof)
	}

	if len(got.Properties) != len(s.Properties) {
		t.Fatalf("len(Properties) = %d, want %d", len(got.Properties), len(s.Properties))
	}
	hull := got.Properties["hull"]
	if hull.Density != 0.9 || hull.IOR != 1.4 {
		t.Fatalf("hull property = %+v, corrupted round trip", hull)
	}

	if len(got.Textures) != len(s.Textures) {
		t.Fatalf("len(Textures) = %d, want %d", len(got.Textures), len(s.Textures))
	}
	if got.Textures[0].Tile != 4 {
		t.Fatalf("Textures[0].Tile = %d, want 4", got.Textures[0].Tile)
	}
	if got.Textures[2].Axis != 2 {
		t.Fatalf("Textures[2].Axis = %d, want 2", got.Textures[2].Axis)
	}

	if len(got.Meshes) != 1 || got.Meshes[0].Name != "wing" {
		t.Fatalf("Meshes = %+v, want one mesh named wing", got.Meshes)
	}
	if len(got.Meshes[0].Faces) != 1 || got.Meshes[0].Faces[0].I3 != 2 {
		t.Fatalf("Meshes[0].Faces = %+v", got.Meshes[0].Faces)
	}

	if got.MeshMap.PropertyFor("wing") != "hull" {
		t.Fatalf("MeshMap[wing] = %q, want hull", got.MeshMap.PropertyFor("wing"))
	}
}

func TestPackUnpackWideFaceIndices(t *testing.T) {
	s := scene.NewScene()
	verts := make([]geom.Vector, 0x10001) // > 0xFFFF forces 32-bit face indices
	for i := range verts {
		verts[i] = geom.Vector{X: float64(i), Y: 0, Z: 0}
	}
	s.Meshes = []scene.Mesh{{
		Name:     "big",
		Vertices: verts,
		Faces:    []scene.Face{{I1: 0, I2: 1, I3: 0x10000}},
		Matrix:   scene.IdentityMatrix(),
	}}

	blob := Pack(s)
	got, err := Unpack(blob, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(got.Meshes) != 1 || len(got.Meshes[0].Vertices) != len(verts) {
		t.Fatalf("wide mesh round trip lost vertices: got %d, want %d", len(got.Meshes[0].Vertices), len(verts))
	}
	if got.Meshes[0].Faces[0].I3 != 0x10000 {
		t.Fatalf("Faces[0].I3 = %d, want %d", got.Meshes[0].Faces[0].I3, 0x10000)
	}
}

func TestUnpackRejectsWrongVersion(t *testing.T) {
	s := sampleScene()
	blob := Pack(s)
	blob[0], blob[1] = 0xFF, 0xFF // corrupt the u16 version prefix
	if _, err := Unpack(blob, false); err == nil {
		t.Fatal("expected version mismatch error")
	}
}

// TestUnpackIgnoresTrailingSectionBytes exercises completeness requirement:
// an unrecognized tag inside the ENV section must not desynchronize the
// unpacker. The section's own u32 length prefix lets unpackSection discard
// whatever unpackEnv leaves unread once it gives up on a tag it doesn't
// recognize, so the CAMERA section right after it still parses correctly.
func TestUnpackIgnoresTrailingSectionBytes(t *testing.T) {
	s := scene.NewScene()
	s.Camera.Pos = geom.Vector{X: 7, Y: 8, Z: 9}
	blob := Pack(s)

	// The ENV section starts right after the u16 version: a u32 length
	// prefix followed by that many bytes. Grow the length by 4 and
	// splice in four bytes of padding for the unpacker to skip.
	envLenOff := 2
	envLen := be32(blob[envLenOff:])
	padded := append([]byte(nil), blob[:envLenOff]...)
	padded = appendBE32(padded, envLen+4)
	bodyStart := envLenOff + 4
	padded = append(padded, blob[bodyStart:bodyStart+int(envLen)]...)
	padded = append(padded, 0xFF, 0xFF, 0, 0) // an unrecognized tag (0xFFFF) the unpacker must skip, not choke on
	padded = append(padded, blob[bodyStart+int(envLen):]...)

	got, err := Unpack(padded, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got.Camera.Pos != s.Camera.Pos {
		t.Fatalf("Camera.Pos = %v, want %v: trailing ENV bytes desynced the unpacker", got.Camera.Pos, s.Camera.Pos)
	}
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func appendBE32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
