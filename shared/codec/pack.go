package codec

import (
	"github.com/tienet-go/tienet/shared/colour"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/wire"
)

// Pack serializes s into the sectioned wire format: VERSION, ENV,
// CAMERA, PROP, TEXTURE, MESH, KDCACHE, MESHMAP, each
// section (other than VERSION) prefixed with its own u32 byte length so an
// unpacker can skip a section it doesn't recognize without losing
// synchronization.
func Pack(s scene.Scene) []byte {
	w := wire.NewWriter()

	w.WriteU16(Version)

	packSection(w, func(b *wire.Writer) { packEnv(b, s.Env) })
	packSection(w, func(b *wire.Writer) { packCamera(b, s.Camera) })
	packSection(w, func(b *wire.Writer) { packProperties(b, s.Properties) })
	packSection(w, func(b *wire.Writer) { packTextures(b, s.Textures) })
	packSection(w, func(b *wire.Writer) { packMeshes(b, s.Meshes) })
	packSection(w, func(b *wire.Writer) { packKDCache(b, s.KDCache) })
	packSection(w, func(b *wire.Writer) { packMeshMap(b, s.MeshMap) })

	return w.Bytes()
}

// packSection writes body's output prefixed by its own length. Each
// section is buffered independently so the length is known before
// anything is appended to the outer stream.
func packSection(w *wire.Writer, body func(*wire.Writer)) {
	section := wire.NewWriter()
	body(section)
	w.WriteU32(uint32(section.Len()))
	w.WriteBytes(section.Bytes())
}

func packEnv(w *wire.Writer, env scene.Environment) {
	w.WriteU16(uint16(envTagRM))
	w.WriteU32(uint32(env.Method))
	if env.Method == scene.RenderMethodPath {
		w.WriteU32(env.Path.Samples)
	}

	w.WriteU16(uint16(envTagImageSize))
	w.WriteU32(env.ImageW)
	w.WriteU32(env.ImageH)
	w.WriteU32(env.ImageHalfSz)
}

func packCamera(w *wire.Writer, c scene.Camera) {
	w.WriteVector3(c.Pos.X, c.Pos.Y, c.Pos.Z)
	w.WriteVector3(c.Focus.X, c.Focus.Y, c.Focus.Z)
	w.WriteF32(float32(c.Tilt))
	w.WriteF32(float32(c.Fov))
	w.WriteF32(float32(c.Dof))
}

func packProperties(w *wire.Writer, props scene.PropertyTable) {
	for name, p := range props {
		_ = w.WriteNamed(name)
		cr, cg, cb := p.Color.Float64()
		w.WriteVector3(cr, cg, cb)
		w.WriteF32(float32(p.Density))
		w.WriteF32(float32(p.Gloss))
		w.WriteF32(float32(p.Emission))
		w.WriteF32(float32(p.IOR))
	}
}

func packTextures(w *wire.Writer, textures []scene.Texture) {
	for _, t := range textures {
		w.WriteU16(uint16(t.Kind))
		switch t.Kind {
		case scene.TextureStack:
			_ = w.WriteNamed(t.Name)
		case scene.TextureMix:
			_ = w.WriteNamed(t.Name)
			_ = w.WriteNamed(t.Tex1)
			_ = w.WriteNamed(t.Tex2)
			w.WriteF32(float32(t.Coef))
		case scene.TextureBlend:
			writeRGB(w, t.Color1)
			writeRGB(w, t.Color2)
		case scene.TextureBump:
			w.WriteVector3(t.BumpCoef[0], t.BumpCoef[1], t.BumpCoef[2])
		case scene.TextureChecker:
			w.WriteU32(uint32(t.Tile))
		case scene.TextureCamo:
			w.WriteF32(float32(t.Size))
			w.WriteU32(uint32(t.Octaves))
			w.WriteU32(boolToU32(t.Absolute))
			writeRGB(w, t.Color1)
			writeRGB(w, t.Color2)
			writeRGB(w, t.Color3)
		case scene.TextureClouds:
			w.WriteF32(float32(t.Size))
			w.WriteU32(uint32(t.Octaves))
			w.WriteU32(boolToU32(t.Absolute))
			w.WriteVector3(t.Scale[0], t.Scale[1], t.Scale[2])
			w.WriteVector3(t.Translate[0], t.Translate[1], t.Translate[2])
		case scene.TextureGradient:
			w.WriteU32(uint32(t.Axis))
		case scene.TextureImage:
			// Nothing follows the tag; TextureImage carries no payload.
		}
	}
}

func writeRGB(w *wire.Writer, c colour.RGB) {
	r, g, b := c.Float64()
	w.WriteVector3(r, g, b)
}

func boolToU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func packMeshes(w *wire.Writer, meshes []scene.Mesh) {
	total := uint32(0)
	for _, m := range meshes {
		total += uint32(len(m.Faces))
	}
	w.WriteU32(total)

	for _, m := range meshes {
		_ = w.WriteNamed(m.Name)

		w.WriteU32(uint32(len(m.Vertices)))
		for _, v := range m.Vertices {
			w.WriteVector3(v.X, v.Y, v.Z)
		}

		wide := len(m.Vertices) > 0xFFFF
		if wide {
			w.WriteU8(1)
			w.WriteU32(uint32(len(m.Faces)))
			for _, f := range m.Faces {
				w.WriteU32(f.I1)
				w.WriteU32(f.I2)
				w.WriteU32(f.I3)
			}
		} else {
			w.WriteU8(0)
			w.WriteU16(uint16(len(m.Faces)))
			for _, f := range m.Faces {
				w.WriteU16(uint16(f.I1))
				w.WriteU16(uint16(f.I2))
				w.WriteU16(uint16(f.I3))
			}
		}

		for _, v := range m.Matrix {
			w.WriteF32(float32(v))
		}
	}
}

func packKDCache(w *wire.Writer, cache *scene.KDCache) {
	blob, err := cache.Encode()
	if err != nil || blob == nil {
		return
	}
	w.WriteBytes(blob)
}

func packMeshMap(w *wire.Writer, m scene.MeshMap) {
	for mesh, prop := range m {
		_ = w.WriteNamed(mesh)
		_ = w.WriteNamed(prop)
	}
}
