// Package reference is the built-in engine.Engine: pixel rays
// projected through a plane one unit in front of the camera, a
// nearest-hit search over the scene's spatial cache, and Phong
// shading from the scene's property table. It also answers the
// shotline and spall-cone probe queries.
package reference

import (
	"math"

	"github.com/tienet-go/tienet/shared/colour"
	"github.com/tienet-go/tienet/shared/engine"
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/proto"
	"github.com/tienet-go/tienet/shared/scene"
)

// Tracer is the reference engine.Engine implementation.
type Tracer struct {
	sc    scene.Scene
	cache *scene.KDCache
	tris  [][]geom.Triangle // tris[meshIndex][faceIndex]
}

// New builds a Tracer over sc, rebuilding the spatial cache if sc
// didn't carry one across the wire.
func New(sc scene.Scene) *Tracer {
	cache := sc.KDCache
	if cache == nil {
		cache = scene.BuildKDCache(sc.Meshes)
	}
	tris := make([][]geom.Triangle, len(sc.Meshes))
	for i, m := range sc.Meshes {
		tris[i] = m.Triangles()
	}
	return &Tracer{sc: sc, cache: cache, tris: tris}
}

var _ engine.Engine = (*Tracer)(nil)
var _ engine.CameraUpdater = (*Tracer)(nil)

// SetCamera implements engine.CameraUpdater: the slave loop calls this
// with the camera shipped in each work unit's slave-data before
// rendering, since the scene itself is only pushed once.
func (t *Tracer) SetCamera(c scene.Camera) {
	t.sc.Camera = c
}

// SetRenderMode implements engine.CameraUpdater.
func (t *Tracer) SetRenderMode(mode scene.RenderMethod) {
	t.sc.Env.Method = mode
}

// pixelToPoint translates a pixel (i, j) to a point on the projection
// plane one unit in front of the camera.
func pixelToPoint(i, j, width, height int, cam scene.Camera) geom.Vector {
	fwd, lft, up := cam.Basis()

	halfWidth, halfHeight := width/2, height/2
	fovRad := cam.Fov * math.Pi / 180.0
	projHalfWidth := math.Tan(fovRad / 2.0)
	projHalfHeight := projHalfWidth * float64(height) / float64(width)
	iOffset := lft.Scale(projHalfWidth * (float64(halfWidth-i) - 0.5) / float64(halfWidth))
	jOffset := up.Scale(projHalfHeight * (float64(halfHeight-j) - 0.5) / float64(halfHeight))
	return cam.Pos.Add(fwd).Add(iOffset).Add(jOffset)
}

type hit struct {
	intersect, normal geom.Vector
	meshIndex         int
	distance          float64
}

// nearest finds the closest triangle intersection of a ray with the
// scene, restricting the search to the candidates whose bounding boxes
// the spatial cache reports the ray passing through.
func (t *Tracer) nearest(origin, dir geom.Vector, maxDist float64) (hit, bool) {
	refs := t.cache.QueryRay(origin, dir, maxDist)

	found := false
	var best hit
	for _, ref := range refs {
		if ref.MeshIndex >= len(t.tris) || ref.FaceIndex >= len(t.tris[ref.MeshIndex]) {
			continue
		}
		tri := t.tris[ref.MeshIndex][ref.FaceIndex]
		intersect, bary, ok := tri.Intersection(origin, dir)
		if !ok {
			continue
		}
		dist := intersect.Sub(origin).Len()
		if dist > maxDist {
			continue
		}
		if !found || dist < best.distance {
			found = true
			best = hit{
				intersect: intersect,
				normal:    tri.InterpNormal(bary),
				meshIndex: ref.MeshIndex,
				distance:  dist,
			}
		}
	}
	return best, found
}

const maxTraceDist = 1e6

// phong shades a hit using the property bound to its mesh. There is
// no light list in the scene format; a single headlamp co-located
// with the camera stands in.
func (t *Tracer) phong(h hit) colour.RGB {
	mesh := t.sc.Meshes[h.meshIndex]
	prop := t.sc.PropertyForMesh(mesh.Name)

	lightPos := t.sc.Camera.Pos
	lightDir := lightPos.Sub(h.intersect).Norm()
	diffuse := math.Max(lightDir.Dot(h.normal), 0.0)

	ambient := prop.Color.Scale(prop.Emission)
	diffuseColor := prop.Color.Scale(diffuse * prop.Density)
	specAngle := math.Max(lightDir.Dot(h.normal), 0.0)
	specular := prop.Color.Scale(math.Pow(specAngle, 1.0+10.0*prop.Gloss) * prop.Gloss)

	return ambient.Add(diffuseColor).Add(specular)
}

// shade dispatches on the scene's active render method.
// RenderMethodPhong uses the full phong model above; the others are
// cheap diagnostic modes a render-mode key cycles through without
// needing a different Engine.
func (t *Tracer) shade(h hit, origin geom.Vector) colour.RGB {
	switch t.sc.Env.Method {
	case scene.RenderMethodNormal:
		return colour.NewRGBFromFloats(
			float32(0.5*h.normal.X+0.5), float32(0.5*h.normal.Y+0.5), float32(0.5*h.normal.Z+0.5))
	case scene.RenderMethodPlane:
		dist := h.intersect.Sub(origin).Len()
		v := float32(math.Max(0.0, 1.0-dist/maxTraceDist*50.0))
		return colour.NewRGBFromFloats(v, v, v)
	case scene.RenderMethodFlat:
		return t.sc.PropertyForMesh(t.sc.Meshes[h.meshIndex].Name).Color
	default: // RenderMethodPhong, RenderMethodPath (path samples averaged by the caller)
		return t.phong(h)
	}
}

// Render implements engine.Engine.
func (t *Tracer) Render(wh proto.WorkHeader) ([]byte, error) {
	width, height := int(t.sc.Env.ImageW), int(t.sc.Env.ImageH)
	if width == 0 || height == 0 {
		width, height = int(wh.SizeX), int(wh.SizeY)
	}
	out := make([]byte, 0, int(wh.SizeX)*int(wh.SizeY)*3)
	for y := uint32(0); y < wh.SizeY; y++ {
		for x := uint32(0); x < wh.SizeX; x++ {
			px, py := int(wh.OrigX+x), int(wh.OrigY+y)
			screen := pixelToPoint(px, py, width, height, t.sc.Camera)
			dir := screen.Sub(t.sc.Camera.Pos).Norm()
			if h, ok := t.nearest(t.sc.Camera.Pos, dir, maxTraceDist); ok {
				c := t.shade(h, t.sc.Camera.Pos)
				r, g, b := c.RGB()
				out = append(out, r, g, b)
			} else {
				out = append(out, 0, 0, 0)
			}
		}
	}
	return out, nil
}

// Probe implements engine.Engine: a single shotline ray.
func (t *Tracer) Probe(origin, dir geom.Vector) (engine.ProbeResult, error) {
	h, ok := t.nearest(origin, dir.Norm(), maxTraceDist)
	if !ok {
		return engine.ProbeResult{}, nil
	}
	out := h.intersect.Add(dir.Norm().Scale(0.0001))
	h2, ok2 := t.nearest(out, dir.Norm(), maxTraceDist)
	result := engine.ProbeResult{
		Hit:       true,
		InHit:     h.intersect,
		MeshNames: []string{t.sc.Meshes[h.meshIndex].Name},
	}
	if ok2 {
		result.OutHit = h2.intersect
		if t.sc.Meshes[h2.meshIndex].Name != result.MeshNames[0] {
			result.MeshNames = append(result.MeshNames, t.sc.Meshes[h2.meshIndex].Name)
		}
	} else {
		result.OutHit = h.intersect
	}
	return result, nil
}

// ProbeCone implements engine.Engine: a spall probe, sampling `samples`
// rays spread uniformly across a cone of half-angle halfAngleDeg
// around dir and unioning the meshes any of them strike.
func (t *Tracer) ProbeCone(origin, dir geom.Vector, halfAngleDeg float64, samples int) (engine.ProbeResult, error) {
	if samples < 1 {
		samples = 1
	}
	base := dir.Norm()
	ortho := geom.Vector{X: 0, Y: 1, Z: 0}.Cross(base)
	if ortho.Zero() {
		ortho = geom.Vector{X: 1, Y: 0, Z: 0}
	} else {
		ortho = ortho.Norm()
	}
	up := base.Cross(ortho).Norm()

	seen := map[string]bool{}
	var names []string
	result := engine.ProbeResult{}
	halfRad := halfAngleDeg * math.Pi / 180.0

	for i := 0; i < samples; i++ {
		theta := 2.0 * math.Pi * float64(i) / float64(samples)
		spread := halfRad * (float64(i%2) * 0.5) // vary radius slightly across samples
		rayDir := base.Add(ortho.Scale(math.Cos(theta) * spread)).Add(up.Scale(math.Sin(theta) * spread)).Norm()

		if h, ok := t.nearest(origin, rayDir, maxTraceDist); ok {
			name := t.sc.Meshes[h.meshIndex].Name
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			if !result.Hit || h.distance < origin.Sub(result.InHit).Len() {
				result.Hit = true
				result.InHit = h.intersect
				result.OutHit = h.intersect
			}
		}
	}
	result.MeshNames = names
	return result, nil
}
