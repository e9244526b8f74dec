// Package engine defines the render/probe collaborator every slave
// drives: given a scene and a work unit it produces either a tile of
// pixels or a probe result (shotline/spall-cone), without knowing
// anything about sockets, framing, or the master. It is kept as a
// swappable collaborator rather than baked into the slave loop.
package engine

import (
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
)

// ProbeResult is what a shotline or spall-cone probe returns: the
// entry/exit hit points of the nearest intersected geometry (if any)
// and the names of every mesh the probe touched.
type ProbeResult struct {
	Hit            bool
	InHit, OutHit  geom.Vector
	MeshNames      []string
}

// Engine renders a tile of pixels or answers a probe against a fixed
// scene. Implementations must be safe for concurrent use by multiple
// goroutines rendering different tiles of the same frame.
type Engine interface {
	// Render returns RGB pixel bytes (row-major, 3 bytes/pixel) for the
	// rectangle described by h.
	Render(h proto.WorkHeader) ([]byte, error)

	// Probe fires a single ray (a shotline) from origin along dir and
	// returns the nearest hit.
	Probe(origin, dir geom.Vector) (ProbeResult, error)

	// ProbeCone fires a cone of rays around dir, spread by
	// halfAngleDeg, and unions every hit mesh the cone's rays strike.
	ProbeCone(origin, dir geom.Vector, halfAngleDeg float64, samples int) (ProbeResult, error)
}

// SceneSource supplies the current scene an Engine renders against.
// The slave swaps this out whenever the master pushes a new scene;
// implementations read s.Camera fresh on every Render/Probe call so an
// in-flight render always uses the scene it started with.
type SceneSource interface {
	Scene() scene.Scene
}

// CameraUpdater is implemented by engines that accept a per-work-unit
// camera/render-mode override. The scene is pushed to a slave exactly
// once, but every work unit's slave-data carries the camera and render
// mode current at dispatch time; the slave loop applies that override
// through this interface immediately before calling Render/Probe so a
// fast slave never renders a tile against a stale camera.
type CameraUpdater interface {
	SetCamera(c scene.Camera)
	SetRenderMode(mode scene.RenderMethod)
}
