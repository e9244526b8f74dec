package master

import (
	"math"

	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/wire"
)

// Tunable constants for the mouse/key response.
const (
	dollySensitivity    = 0.02
	orbitSensitivity    = 0.35
	freeLookSensitivity = 0.035
	panSensitivity      = 0.01
	liftSensitivity     = 0.01
	wheelZoomIn         = 1.25
	wheelZoomOut        = 0.8
	defaultSnapRadius   = 10.0
	defaultSpallHalf    = 15.0
	defaultSpallSamples = 32
)

// TranslateEvents applies one observer's uploaded event batch to the
// live camera/render-mode state and fires any probe work units the
// batch triggers. Every mutation goes through Context's single update
// mutex, so a frame dispatched mid-batch never sees a half-applied
// camera.
func (ctx *Context) TranslateEvents(events []proto.Event) {
	for _, e := range events {
		switch e.Type {
		case proto.EventKeyDown:
			ctx.handleKeyDown(e.Keysym)
		case proto.EventKeyUp:
			ctx.handleKeyUp(e.Keysym)
		case proto.EventMouseButtonDown:
			ctx.handleWheel(e.Button)
		case proto.EventMouseMotion:
			ctx.handleMotion(e)
		}
	}
}

func (ctx *Context) handleKeyDown(keysym uint16) {
	switch keysym {
	case proto.KeyShift:
		ctx.setShift(true)
	case proto.KeyRenderNormal:
		ctx.setRenderMode(scene.RenderMethodNormal)
	case proto.KeyRenderPhong:
		ctx.setRenderMode(scene.RenderMethodPhong)
	case proto.KeyRenderDepth:
		ctx.setRenderMode(scene.RenderMethodPath)
	case proto.KeyRenderCut:
		ctx.setRenderMode(scene.RenderMethodPlane)
	case proto.KeyRenderSurface:
		ctx.setRenderMode(scene.RenderMethodFlat)
	case proto.KeyNumpad1:
		if ctx.shiftHeldSnapshot() {
			ctx.snapView(backFront())
		} else {
			ctx.snapView(frontBack())
		}
	case proto.KeyNumpad3:
		if ctx.shiftHeldSnapshot() {
			ctx.snapView(rightLeft())
		} else {
			ctx.snapView(leftRight())
		}
	case proto.KeyNumpad7:
		if ctx.shiftHeldSnapshot() {
			ctx.snapView(bottomTop())
		} else {
			ctx.snapView(topBottom())
		}
	case proto.KeyNumpad0:
		ctx.jumpToLastShot()
	case proto.KeyShotline:
		ctx.fireShotline()
	case proto.KeySpallCone:
		ctx.fireSpall()
	case proto.KeyShutdown:
		ctx.Shutdown()
	}
}

func (ctx *Context) handleKeyUp(keysym uint16) {
	if keysym == proto.KeyShift {
		ctx.setShift(false)
	}
}

func (ctx *Context) handleWheel(button uint8) {
	if button&proto.ButtonWheelUp != 0 {
		ctx.scaleBy(wheelZoomIn)
	}
	if button&proto.ButtonWheelDown != 0 {
		ctx.scaleBy(wheelZoomOut)
	}
}

// handleMotion dispatches a drag delta by which button is held: left
// dollies, right rotates (orbit when shift is held, else free-look),
// middle pans+lifts.
func (ctx *Context) handleMotion(e proto.Event) {
	dx, dy := float64(e.MotionXRel), float64(e.MotionYRel)
	if dx == 0 && dy == 0 {
		return
	}
	scale := ctx.Scale()

	switch {
	case e.MotionState&proto.ButtonLeft != 0:
		ctx.updateCamera(func(c scene.View) scene.View {
			return c.Move(-dy*scale*dollySensitivity, 0, 0)
		})
	case e.MotionState&proto.ButtonRight != 0:
		if ctx.shiftHeldSnapshot() {
			ctx.orbitAroundCor(dx * orbitSensitivity)
		} else {
			ctx.updateCamera(func(c scene.View) scene.View {
				c = c.AddAzimuth(-dx * freeLookSensitivity)
				c = c.AddElevation(-dy * freeLookSensitivity)
				return c
			})
		}
	case e.MotionState&proto.ButtonMiddle != 0:
		ctx.updateCamera(func(c scene.View) scene.View {
			return c.Move(0, -dx*scale*panSensitivity, -dy*scale*liftSensitivity)
		})
	}
}

// orbitAroundCor rotates the camera by degAz around the center of
// rotation at constant radius, the shift-modified right-drag binding.
func (ctx *Context) orbitAroundCor(degAz float64) {
	cor := ctx.CenterOfRotation()
	ctx.updateCamera(func(c scene.View) scene.View {
		radius := c.Pos.Sub(cor).Len()
		c = c.AddAzimuth(degAz)
		c.Pos = cor.Sub(c.Direction().Scale(radius))
		return c
	})
}

// snapView jumps the camera to (az, el) relative to the center of
// rotation, preserving the current orbit radius.
func (ctx *Context) snapView(az, el float64) {
	cor := ctx.CenterOfRotation()
	ctx.updateCamera(func(c scene.View) scene.View {
		radius := c.Pos.Sub(cor).Len()
		if radius == 0 {
			radius = defaultSnapRadius
		}
		c = c.SnapAzimuthElevation(az, el)
		c.Pos = cor.Sub(c.Direction().Scale(radius))
		return c
	})
}

// Numpad snaps: without shift the near face of each pair, with shift
// the opposite face.
func frontBack() (az, el float64)  { return 0, 0 }
func backFront() (az, el float64)  { return 180, 0 }
func leftRight() (az, el float64)  { return 90, 0 }
func rightLeft() (az, el float64)  { return 270, 0 }
func topBottom() (az, el float64)  { return 0, 90 }
func bottomTop() (az, el float64)  { return 0, -90 }

func (ctx *Context) fireShotline() {
	cam := ctx.Camera()
	payload := proto.ProbePayload{
		Origin: [3]float64{cam.Pos.X, cam.Pos.Y, cam.Pos.Z},
		Dir:    vec3(cam.Direction()),
	}
	ctx.setLastShot(payload)
	ctx.enqueueProbe(proto.OpShot, payload)
}

func (ctx *Context) fireSpall() {
	cam := ctx.Camera()
	payload := proto.ProbePayload{
		Origin:    [3]float64{cam.Pos.X, cam.Pos.Y, cam.Pos.Z},
		Dir:       vec3(cam.Direction()),
		HalfAngle: defaultSpallHalf,
		Samples:   defaultSpallSamples,
	}
	ctx.setLastShot(payload)
	ctx.enqueueProbe(proto.OpSpall, payload)
}

func (ctx *Context) enqueueProbe(op uint8, payload proto.ProbePayload) {
	w := wire.NewWriter()
	payload.WriteTo(w, op)
	ctx.slaves.EnqueueProbe(&WorkUnit{
		Header:    proto.WorkHeader{}, // size_x == size_y == 0 marks a probe
		SlaveData: w.Bytes(),
	})
}

// jumpToLastShot restores the camera to the origin/direction of the
// most recent shotline or spall probe (the numpad-0 "jump to last
// shot" binding).
func (ctx *Context) jumpToLastShot() {
	ctx.mu.Lock()
	shot := ctx.lastShot
	ctx.mu.Unlock()

	dir := geom.Vector{X: shot.Dir[0], Y: shot.Dir[1], Z: shot.Dir[2]}
	if dir.Zero() {
		return
	}
	az, el := directionToAngles(dir.Norm())
	ctx.updateCamera(func(c scene.View) scene.View {
		c.Pos = geom.Vector{X: shot.Origin[0], Y: shot.Origin[1], Z: shot.Origin[2]}
		c.Azimuth, c.Elevation = az, el
		return c
	})
}

func (ctx *Context) setLastShot(p proto.ProbePayload) {
	ctx.mu.Lock()
	ctx.lastShot = p
	ctx.mu.Unlock()
}

func vec3(v geom.Vector) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// directionToAngles recovers azimuth/elevation degrees from a unit
// direction vector, the inverse of scene.View.Direction.
func directionToAngles(dir geom.Vector) (azimuth, elevation float64) {
	elevation = math.Asin(clampUnit(dir.Y)) * 180.0 / math.Pi
	azimuth = math.Atan2(dir.X, -dir.Z) * 180.0 / math.Pi
	if azimuth < 0 {
		azimuth += 360.0
	}
	return
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
