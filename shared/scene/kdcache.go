package scene

import (
	"bytes"
	"encoding/gob"

	"github.com/dhconnelly/rtreego"

	"github.com/tienet-go/tienet/shared/geom"
)

// KDCache is the KDCACHE section: a precomputed spatial index over
// every mesh's triangles. On the wire the section is an opaque,
// length-prefixed blob; its concrete shape here is a gob-encoded leaf
// list, so the reference engine gets a real rtreego.Rtree instead of
// walking every triangle.
type KDCache struct {
	tree    *rtreego.Rtree
	entries []kdEntry
}

// MeshFaceRef names the (mesh, face) pair a KDCache leaf points back at.
type MeshFaceRef struct {
	MeshIndex int
	FaceIndex int
}

type kdEntry struct {
	Ref    MeshFaceRef
	Min    [3]float64
	Lens   [3]float64
}

func (e kdEntry) Bounds() *rtreego.Rect {
	r, _ := rtreego.NewRect(rtreego.Point{e.Min[0], e.Min[1], e.Min[2]}, []float64{
		maxf(e.Lens[0], 1e-6), maxf(e.Lens[1], 1e-6), maxf(e.Lens[2], 1e-6),
	})
	return r
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// BuildKDCache constructs a fresh spatial index over every triangle of
// every mesh. Slaves call this themselves whenever a pushed scene
// carries an empty KDCACHE section.
func BuildKDCache(meshes []Mesh) *KDCache {
	tree := rtreego.NewTree(3, 25, 50)
	entries := make([]kdEntry, 0)
	for mi, m := range meshes {
		for fi, tri := range m.Triangles() {
			lo, hi := triBounds(tri)
			e := kdEntry{
				Ref:  MeshFaceRef{MeshIndex: mi, FaceIndex: fi},
				Min:  [3]float64{lo.X, lo.Y, lo.Z},
				Lens: [3]float64{hi.X - lo.X, hi.Y - lo.Y, hi.Z - lo.Z},
			}
			entries = append(entries, e)
			tree.Insert(e)
		}
	}
	return &KDCache{tree: tree, entries: entries}
}

func triBounds(t geom.Triangle) (lo, hi geom.Vector) {
	lo = geom.Vector{X: minOf3(t.P1.X, t.P2.X, t.P3.X), Y: minOf3(t.P1.Y, t.P2.Y, t.P3.Y), Z: minOf3(t.P1.Z, t.P2.Z, t.P3.Z)}
	hi = geom.Vector{X: maxOf3(t.P1.X, t.P2.X, t.P3.X), Y: maxOf3(t.P1.Y, t.P2.Y, t.P3.Y), Z: maxOf3(t.P1.Z, t.P2.Z, t.P3.Z)}
	return
}

func minOf3(a, b, c float64) float64 { return minf(minf(a, b), c) }
func maxOf3(a, b, c float64) float64 { return maxf(maxf(a, b), c) }
func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// QueryRay returns every (mesh, face) reference whose bounding box the
// ray from origin along dir actually hits within maxDist. The R-tree
// search over a box swept along the ray produces the candidate set;
// an exact ray/box test then discards the corners of that sweep the
// ray never passes through.
func (k *KDCache) QueryRay(origin, dir geom.Vector, maxDist float64) []MeshFaceRef {
	if k == nil || k.tree == nil {
		return nil
	}
	end := origin.Add(dir.Scale(maxDist))
	lo := geom.Vector{X: minf(origin.X, end.X), Y: minf(origin.Y, end.Y), Z: minf(origin.Z, end.Z)}
	hi := geom.Vector{X: maxf(origin.X, end.X), Y: maxf(origin.Y, end.Y), Z: maxf(origin.Z, end.Z)}
	sweep, _ := rtreego.NewRect(
		rtreego.Point{lo.X - boundEpsilon, lo.Y - boundEpsilon, lo.Z - boundEpsilon},
		[]float64{(hi.X - lo.X) + 2*boundEpsilon, (hi.Y - lo.Y) + 2*boundEpsilon, (hi.Z - lo.Z) + 2*boundEpsilon},
	)

	hits := k.tree.SearchIntersect(sweep)
	refs := make([]MeshFaceRef, 0, len(hits))
	for _, h := range hits {
		e := h.(kdEntry)
		box := geom.Box{
			MinCorner: geom.Vector{X: e.Min[0], Y: e.Min[1], Z: e.Min[2]},
			MaxCorner: geom.Vector{X: e.Min[0] + e.Lens[0], Y: e.Min[1] + e.Lens[1], Z: e.Min[2] + e.Lens[2]},
		}
		if box.Contains(origin) || box.Intersect(origin, dir) {
			refs = append(refs, e.Ref)
		}
	}
	return refs
}

// Encode gob-encodes the cache's leaf entries for the KDCACHE section.
func (k *KDCache) Encode() ([]byte, error) {
	if k == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(k.entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeKDCache rebuilds a KDCache from a blob produced by Encode. An
// empty blob yields a nil cache, signalling the caller should rebuild
// with BuildKDCache instead.
func DecodeKDCache(blob []byte) (*KDCache, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var entries []kdEntry
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&entries); err != nil {
		return nil, err
	}
	tree := rtreego.NewTree(3, 25, 50)
	for _, e := range entries {
		tree.Insert(e)
	}
	return &KDCache{tree: tree, entries: entries}, nil
}
