package geom

import "testing"

func TestBoxIntersect(t *testing.T) {
	b := Box{MinCorner: Vector{X: -1, Y: -1, Z: -6}, MaxCorner: Vector{X: 1, Y: 1, Z: -4}}

	if !b.Intersect(Vector{}, Vector{X: 0, Y: 0, Z: -1}) {
		t.Fatal("ray straight at the box should intersect")
	}
	if b.Intersect(Vector{}, Vector{X: 0, Y: 0, Z: 1}) {
		t.Fatal("ray pointing away from the box should not intersect")
	}
	if b.Intersect(Vector{}, Vector{X: 1, Y: 0, Z: 0}) {
		t.Fatal("ray missing the box sideways should not intersect")
	}
}

func TestBoxIntersectFlatBox(t *testing.T) {
	// A zero-thickness box, the bounding volume of an axis-aligned
	// triangle, must still report hits.
	b := Box{MinCorner: Vector{X: -1, Y: -1, Z: -5}, MaxCorner: Vector{X: 1, Y: 1, Z: -5}}
	if !b.Intersect(Vector{}, Vector{X: 0, Y: 0, Z: -1}) {
		t.Fatal("ray through a flat box should intersect")
	}
}

func TestBoxContains(t *testing.T) {
	b := Box{MinCorner: Vector{X: 0, Y: 0, Z: 0}, MaxCorner: Vector{X: 2, Y: 2, Z: 2}}
	if !b.Contains(Vector{X: 1, Y: 1, Z: 1}) {
		t.Fatal("interior point should be contained")
	}
	if !b.Contains(Vector{X: 0, Y: 2, Z: 1}) {
		t.Fatal("boundary point should be contained")
	}
	if b.Contains(Vector{X: 3, Y: 1, Z: 1}) {
		t.Fatal("exterior point should not be contained")
	}
}
