// Package master implements the coordinator of the distributed
// renderer: the frame dispatcher, the slave pool feeding the result
// aggregator, and the observer hub driving the event translator. All
// shared state lives in one Context passed explicitly to every
// goroutine rather than in package globals.
package master

import (
	"log"
	"sync"

	"github.com/tienet-go/tienet/shared/codec"
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/scripting"
	"github.com/tienet-go/tienet/shared/telemetry"
)

// Config is the master's CLI-derived configuration.
type Config struct {
	SlavePort    int
	ObserverPort int
	CompHost     string
	CompPort     int
	Profile      scene.Profile
	Compress     bool
}

// Context is the master's shared state: the immutable scene, the live
// camera/render-mode/center-of-rotation (owned by the event
// translator, read by the dispatcher), the slave pool, the result
// aggregator/frame-slot governor, the observer hub, and the two
// optional external collaborators (telemetry, scripting).
type Context struct {
	cfg Config

	initialScene scene.Scene
	packedScene  []byte

	mu        sync.Mutex // guards cam, mode, cor
	cam       scene.View
	mode      scene.RenderMethod
	cor       geom.Vector
	inHit     geom.Vector        // most recent probe's entry point (overlay telemetry)
	outHit    geom.Vector        // most recent probe's exit point (overlay telemetry)
	lastShot  proto.ProbePayload // numpad-0 jump-to-last-shot memory
	shiftHeld bool
	scale     float64 // dolly/pan unit scale, adjusted by the mouse wheel

	slaves     *slavePool
	aggregator *aggregator
	observers  *observerHub
	telemetry  *telemetry.Telemetry
	scripting  scripting.Bridge

	aliveMu sync.Mutex
	alive   bool
}

// NewContext builds a Context over sc, ready for Run to drive. tele
// and bridge may be nil, in which case a disconnected Telemetry / the
// noop scripting.Bridge should be substituted by the caller (cmd/master).
func NewContext(cfg Config, sc scene.Scene, tele *telemetry.Telemetry, bridge scripting.Bridge) *Context {
	c := &Context{
		cfg:          cfg,
		initialScene: sc,
		packedScene:  codec.Pack(sc),
		cam:          scene.ViewFromCamera(sc.Camera, cfg.Profile),
		mode:         sc.Env.Method,
		telemetry:    tele,
		scripting:    bridge,
		alive:        true,
		scale:        1.0,
	}
	c.aggregator = newAggregator(sc.Env.ImageW, sc.Env.ImageH, tileWidth(sc), tileHeight(sc))
	c.aggregator.ctx = c
	c.observers = newObserverHub(c)
	c.slaves = newSlavePool(c.packedScene, c.aggregator)
	return c
}

func tileWidth(sc scene.Scene) uint32 {
	if sc.Env.ImageHalfSz != 0 {
		return sc.Env.ImageHalfSz
	}
	return defaultTile
}

func tileHeight(sc scene.Scene) uint32 {
	if sc.Env.ImageHalfSz != 0 {
		return sc.Env.ImageHalfSz
	}
	return defaultTile
}

// defaultTile is the tile edge length used when a loaded scene leaves
// Environment.ImageHalfSz at zero.
const defaultTile uint32 = 32

// Alive reports whether the master should keep accepting/dispatching
// work.
func (c *Context) Alive() bool {
	c.aliveMu.Lock()
	defer c.aliveMu.Unlock()
	return c.alive
}

// Shutdown clears the alive flag and wakes anything blocked on a
// semaphore: the dispatcher parked in WaitForSlot (there may be no
// slaves returning tiles to complete a frame) and every observer
// parked on its frame semaphore, so all of them observe the flag and
// wind down. The slave pool and observer hub are torn down by the
// caller once the current frame drains.
func (c *Context) Shutdown() {
	c.aliveMu.Lock()
	c.alive = false
	c.aliveMu.Unlock()
	log.Printf("master: shutdown requested")
	c.aggregator.governor.Post()
	c.observers.notifyFrameReady()
}

// Camera returns a snapshot of the live view state.
func (c *Context) Camera() scene.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cam
}

// RenderMode returns the live render method.
func (c *Context) RenderMode() scene.RenderMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// CenterOfRotation returns the point orbit drags rotate around.
func (c *Context) CenterOfRotation() geom.Vector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cor
}

// updateCamera applies fn to the live camera under the update mutex,
// the same lock snapshotForDispatch takes, so a half-updated camera is
// never shipped with a work unit.
func (c *Context) updateCamera(fn func(scene.View) scene.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cam = fn(c.cam)
}

func (c *Context) setRenderMode(m scene.RenderMethod) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *Context) setCenterOfRotation(v geom.Vector) {
	c.mu.Lock()
	c.cor = v
	c.mu.Unlock()
}

// setLastHit records a probe's entry/exit points for the overlay's
// InHit/OutHit telemetry fields.
func (c *Context) setLastHit(in, out geom.Vector) {
	c.mu.Lock()
	c.inHit, c.outHit = in, out
	c.mu.Unlock()
}

// lastHit returns the most recent probe's entry/exit points.
func (c *Context) lastHit() (in, out geom.Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inHit, c.outHit
}

// setShift records whether the shift modifier is currently held,
// toggling right-drag between free-look and orbit.
func (c *Context) setShift(held bool) {
	c.mu.Lock()
	c.shiftHeld = held
	c.mu.Unlock()
}

func (c *Context) shiftHeldSnapshot() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shiftHeld
}

// Scale returns the current dolly/pan unit scale.
func (c *Context) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scale == 0 {
		return 1.0
	}
	return c.scale
}

// scaleBy multiplies the live scale by factor, the mouse-wheel zoom
// binding.
func (c *Context) scaleBy(factor float64) {
	c.mu.Lock()
	if c.scale == 0 {
		c.scale = 1.0
	}
	c.scale *= factor
	c.mu.Unlock()
}

// snapshotForDispatch takes the update mutex once and returns every
// field the dispatcher needs to build the next frame's slave-data, so
// it never observes a torn camera/mode pair.
func (c *Context) snapshotForDispatch() (scene.View, scene.RenderMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cam, c.mode
}

// scriptingController adapts Context to scripting.Controller, letting
// the OP_MESG bridge (Lua or noop) read and mutate live camera/render
// state.
type scriptingController struct {
	ctx *Context
}

var _ scripting.Controller = (*scriptingController)(nil)

func (s *scriptingController) CameraAzimuth() float64    { return s.ctx.Camera().Azimuth }
func (s *scriptingController) CameraElevation() float64  { return s.ctx.Camera().Elevation }
func (s *scriptingController) SetCameraAzimuth(v float64) {
	s.ctx.updateCamera(func(c scene.View) scene.View { c.Azimuth = v; return c })
}
func (s *scriptingController) SetCameraElevation(v float64) {
	s.ctx.updateCamera(func(c scene.View) scene.View { c.Elevation = v; return c })
}
func (s *scriptingController) CameraPos() (x, y, z float64) {
	p := s.ctx.Camera().Pos
	return p.X, p.Y, p.Z
}
func (s *scriptingController) SetCameraPos(x, y, z float64) {
	s.ctx.updateCamera(func(c scene.View) scene.View { c.Pos = geom.Vector{X: x, Y: y, Z: z}; return c })
}
func (s *scriptingController) RenderMode() uint32 { return uint32(s.ctx.RenderMode()) }
func (s *scriptingController) SetRenderMode(v uint32) {
	s.ctx.setRenderMode(scene.RenderMethod(v))
}
func (s *scriptingController) SetResolution(w, h int) {
	s.ctx.aggregator.Resize(uint32(w), uint32(h))
}

// ScriptingController returns the scripting.Controller adapter over
// ctx, for cmd/master to hand to whichever Bridge it constructs.
func (c *Context) ScriptingController() scripting.Controller {
	return &scriptingController{ctx: c}
}

// SetScriptingBridge replaces the OP_MESG evaluator, letting cmd/master
// swap the noop placeholder NewContext installs for a real backend
// once it has built a Controller over the Context it just returned.
func (c *Context) SetScriptingBridge(b scripting.Bridge) {
	c.scripting = b
}
