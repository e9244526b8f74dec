// Package scene holds the in-memory representation of everything the
// scene codec packs and unpacks: environment settings, the camera,
// named material properties, textures, meshes, the spatial index
// cache, and the mesh-to-property map.
package scene

import (
	"math"

	"github.com/tienet-go/tienet/shared/geom"
)

// Camera is the CAMERA section exactly as the wire carries it: a
// position and a focus point (two TIE_3 vectors) plus tilt, field of
// view, and depth of field. Storing the focus point directly -- rather
// than angles the focus would be derived from -- is what lets a packed
// camera unpack bit-identically; the interactive azimuth/elevation
// state the master mutates lives on View instead.
type Camera struct {
	Pos, Focus     geom.Vector
	Tilt, Fov, Dof float64
}

// NewCamera returns a camera at the origin looking down -Z with a 55
// degree field of view.
func NewCamera() Camera {
	return Camera{Focus: geom.Vector{Z: -1}, Fov: 55.0, Dof: -1.0}
}

// Direction returns the unit vector from Pos toward Focus, or -Z when
// the two coincide.
func (c Camera) Direction() geom.Vector {
	d := c.Focus.Sub(c.Pos)
	if d.Zero() {
		return geom.Vector{Z: -1}
	}
	return d.Norm()
}

// Basis returns the camera's orthonormal forward/left/up vectors.
// Looking exactly along the world vertical leaves no cross product to
// derive left from; world -X stands in so the basis stays orthonormal.
func (c Camera) Basis() (fwd, left, up geom.Vector) {
	return basisFrom(c.Direction())
}

// Profile selects how elevation changes are treated: an "interactive"
// flight camera that clamps pitch at the poles, and a "tabletop"
// turntable camera that wraps through them.
type Profile uint8

const (
	ProfileInteractive Profile = iota
	ProfileTabletop
)

// View is the live view state the master's event translator mutates.
// Orientation is held as azimuth/elevation degrees, since every input
// event (numpad snap, mouse drag) arrives as a delta on those angles;
// Camera() collapses it back to the pos/focus pair the wire carries.
type View struct {
	Pos                geom.Vector
	Azimuth, Elevation float64 // degrees
	Tilt, Fov, Dof     float64
	Profile            Profile
}

// ViewFromCamera derives the interactive view state from a wire
// camera, recovering azimuth/elevation from the pos-to-focus
// direction. At the poles (straight up or down) the azimuth is not
// recoverable from the direction alone and comes out as 0.
func ViewFromCamera(c Camera, p Profile) View {
	dir := c.Direction()
	elevation := math.Asin(clampUnit(dir.Y)) * 180.0 / math.Pi
	azimuth := math.Atan2(dir.X, -dir.Z) * 180.0 / math.Pi
	if azimuth < 0 {
		azimuth += 360.0
	}
	return View{
		Pos:       c.Pos,
		Azimuth:   azimuth,
		Elevation: elevation,
		Tilt:      c.Tilt,
		Fov:       c.Fov,
		Dof:       c.Dof,
		Profile:   p,
	}
}

// Camera collapses the view to the wire model, placing the focus a
// unit distance along the view direction.
func (v View) Camera() Camera {
	return Camera{
		Pos:   v.Pos,
		Focus: v.Pos.Add(v.Direction()),
		Tilt:  v.Tilt,
		Fov:   v.Fov,
		Dof:   v.Dof,
	}
}

// Direction returns the unit vector the view currently looks along,
// derived from Azimuth/Elevation.
func (v View) Direction() geom.Vector {
	az := v.Azimuth * math.Pi / 180.0
	el := v.Elevation * math.Pi / 180.0
	return geom.Vector{
		X: math.Cos(el) * math.Sin(az),
		Y: math.Sin(el),
		Z: -math.Cos(el) * math.Cos(az),
	}
}

// Basis returns the view's orthonormal forward/left/up vectors, with
// the same degenerate-vertical fallback as Camera.Basis.
func (v View) Basis() (fwd, left, up geom.Vector) {
	return basisFrom(v.Direction())
}

// AddAzimuth rotates the view about its vertical axis by deg degrees,
// wrapping the result into [0, 360).
func (v View) AddAzimuth(deg float64) View {
	v.Azimuth = wrap360(v.Azimuth + deg)
	return v
}

// AddElevation adjusts the view's pitch by deg degrees. In
// ProfileInteractive the result is clamped to [-90, 90] so the camera
// can never flip past straight up or down; in ProfileTabletop the
// result wraps modulo 360 so a turntable camera can orbit all the way
// around.
func (v View) AddElevation(deg float64) View {
	switch v.Profile {
	case ProfileTabletop:
		v.Elevation = wrap360(v.Elevation + deg)
	default:
		v.Elevation = clamp(v.Elevation+deg, -90.0, 90.0)
	}
	return v
}

// SnapAzimuthElevation jumps the view directly to the given
// orientation, used by the numpad view-snap keys (front/back,
// left/right, top/bottom).
func (v View) SnapAzimuthElevation(az, el float64) View {
	v.Azimuth = wrap360(az)
	if v.Profile == ProfileTabletop {
		v.Elevation = wrap360(el)
	} else {
		v.Elevation = clamp(el, -90.0, 90.0)
	}
	return v
}

// Move translates the view in its own forward/left/up basis.
func (v View) Move(forward, left, up float64) View {
	fwd, lft, upv := v.Basis()
	v.Pos = v.Pos.Add(fwd.Scale(forward)).Add(lft.Scale(left)).Add(upv.Scale(up))
	return v
}

func basisFrom(fwd geom.Vector) (f, left, up geom.Vector) {
	left = geom.Vector{X: 0, Y: 1, Z: 0}.Cross(fwd)
	if left.Zero() {
		left = geom.Vector{X: -1, Y: 0, Z: 0}
	} else {
		left = left.Norm()
	}
	return fwd, left, fwd.Cross(left).Norm()
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
