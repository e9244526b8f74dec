package scene

import (
	"math"
	"testing"

	"github.com/tienet-go/tienet/shared/geom"
)

func TestAddAzimuthWrapsIntoRange(t *testing.T) {
	v := View{Azimuth: 350}
	v = v.AddAzimuth(20)
	if v.Azimuth < 0 || v.Azimuth >= 360 {
		t.Fatalf("Azimuth = %v, want [0, 360)", v.Azimuth)
	}
	if v.Azimuth != 10 {
		t.Fatalf("Azimuth = %v, want 10", v.Azimuth)
	}

	v.Azimuth = 10
	v = v.AddAzimuth(-20)
	if v.Azimuth != 350 {
		t.Fatalf("Azimuth = %v, want 350", v.Azimuth)
	}
}

func TestAddElevationClampsInInteractiveProfile(t *testing.T) {
	v := View{Profile: ProfileInteractive, Elevation: 85}
	v = v.AddElevation(20)
	if v.Elevation != 90 {
		t.Fatalf("Elevation = %v, want clamped to 90", v.Elevation)
	}

	v.Elevation = -85
	v = v.AddElevation(-20)
	if v.Elevation != -90 {
		t.Fatalf("Elevation = %v, want clamped to -90", v.Elevation)
	}
}

func TestAddElevationWrapsInTabletopProfile(t *testing.T) {
	v := View{Profile: ProfileTabletop, Elevation: 350}
	v = v.AddElevation(20)
	if v.Elevation != 10 {
		t.Fatalf("Elevation = %v, want wrapped to 10", v.Elevation)
	}
}

func TestViewDirectionIsUnitLength(t *testing.T) {
	v := View{Azimuth: 37, Elevation: -22}
	d := v.Direction()
	length := d.X*d.X + d.Y*d.Y + d.Z*d.Z
	if length < 0.999 || length > 1.001 {
		t.Fatalf("Direction() length^2 = %v, want ~1", length)
	}
}

func TestSnapAzimuthElevationPreservesProfileBehaviour(t *testing.T) {
	v := View{Profile: ProfileInteractive}
	v = v.SnapAzimuthElevation(0, 120)
	if v.Elevation != 90 {
		t.Fatalf("interactive SnapAzimuthElevation should clamp, got %v", v.Elevation)
	}
}

func TestCameraDirectionFromFocus(t *testing.T) {
	c := Camera{Pos: geom.Vector{X: 1, Y: 2, Z: 3}, Focus: geom.Vector{X: 1, Y: 2, Z: 0}}
	d := c.Direction()
	want := geom.Vector{X: 0, Y: 0, Z: -1}
	if d != want {
		t.Fatalf("Direction() = %v, want %v", d, want)
	}

	// A camera whose focus coincides with its position still has a
	// defined view direction.
	degenerate := Camera{Pos: geom.Vector{X: 1, Y: 1, Z: 1}, Focus: geom.Vector{X: 1, Y: 1, Z: 1}}
	if degenerate.Direction() != want {
		t.Fatalf("degenerate Direction() = %v, want %v", degenerate.Direction(), want)
	}
}

func TestViewFromCameraRecoversAngles(t *testing.T) {
	v := View{Pos: geom.Vector{X: 1, Y: 2, Z: 3}, Azimuth: 45, Elevation: 10, Fov: 55, Dof: -1}
	got := ViewFromCamera(v.Camera(), ProfileInteractive)

	if math.Abs(got.Azimuth-45) > 1e-9 || math.Abs(got.Elevation-10) > 1e-9 {
		t.Fatalf("recovered angles = %v/%v, want 45/10", got.Azimuth, got.Elevation)
	}
	if got.Pos != v.Pos || got.Fov != v.Fov || got.Dof != v.Dof {
		t.Fatalf("ViewFromCamera dropped fields: %+v", got)
	}
}

func TestViewCameraPlacesFocusAlongDirection(t *testing.T) {
	v := View{Pos: geom.Vector{X: 5, Y: 0, Z: 0}} // azimuth/elevation zero: looking down -Z
	c := v.Camera()
	want := geom.Vector{X: 5, Y: 0, Z: -1}
	if c.Focus.Sub(want).Len() > 1e-9 {
		t.Fatalf("Focus = %v, want %v", c.Focus, want)
	}
}
