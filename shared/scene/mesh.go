package scene

import "github.com/tienet-go/tienet/shared/geom"

// Face indexes three vertices of a Mesh's Vertices slice. The wire
// format stores indices as either 16- or 32-bit depending on a
// per-mesh flag; only the codec needs that distinction, so Face always
// widens to uint32 once loaded.
type Face struct {
	I1, I2, I3 uint32
}

// Mesh is one named triangle mesh (the MESH section's per-mesh
// record): a flat vertex pool, a face index list, the name of the
// property it's painted with (resolved via MeshMap), and a 4x4
// row-major transform, packed even when it's identity.
type Mesh struct {
	Name       string
	Vertices   []geom.Vector
	Faces      []Face
	Matrix     [16]float64
	PropName   string
}

// IdentityMatrix returns the 4x4 identity transform, the default for
// meshes a loader leaves untransformed.
func IdentityMatrix() [16]float64 {
	var m [16]float64
	for i := 0; i < 4; i++ {
		m[i*4+i] = 1.0
	}
	return m
}

// Transform applies m's 4x4 row-major matrix to point p, treating it
// as a homogeneous point (w=1).
func Transform(m [16]float64, p geom.Vector) geom.Vector {
	return geom.Vector{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Triangles materializes the mesh's faces into world-space geom.Triangle
// values, applying Matrix and deriving a flat face normal per triangle
// (vertex normals are not packed by the wire format; the reference
// engine falls back to the face normal for shading, see shared/engine).
func (m Mesh) Triangles() []geom.Triangle {
	tris := make([]geom.Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		if int(f.I1) >= len(m.Vertices) || int(f.I2) >= len(m.Vertices) || int(f.I3) >= len(m.Vertices) {
			continue
		}
		p1 := Transform(m.Matrix, m.Vertices[f.I1])
		p2 := Transform(m.Matrix, m.Vertices[f.I2])
		p3 := Transform(m.Matrix, m.Vertices[f.I3])
		tri := geom.Triangle{P1: p1, P2: p2, P3: p3}
		n := tri.Normal()
		tri.N1, tri.N2, tri.N3 = n, n, n
		tris = append(tris, tri)
	}
	return tris
}
