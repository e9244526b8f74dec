package codec

import (
	"fmt"

	"github.com/tienet-go/tienet/shared/colour"
	"github.com/tienet-go/tienet/shared/geom"
	"github.com/tienet-go/tienet/shared/scene"
	"github.com/tienet-go/tienet/shared/wire"
)

// Unpack parses a scene pushed by Pack. flip mirrors the endian
// handshake's outcome: true means the peer's native
// byte order differs from the wire's big-endian convention and every
// multi-byte scalar must be reversed after reading.
func Unpack(buf []byte, flip bool) (scene.Scene, error) {
	r := wire.NewReader(buf, flip)
	s := scene.NewScene()

	version, err := r.ReadU16()
	if err != nil {
		return s, fmt.Errorf("codec: version: %w", err)
	}
	if version != Version {
		return s, fmt.Errorf("codec: unsupported scene version %d (want %d)", version, Version)
	}

	if err := unpackSection(r, "env", func(sr *wire.Reader) error {
		env, err := unpackEnv(sr)
		s.Env = env
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "camera", func(sr *wire.Reader) error {
		cam, err := unpackCamera(sr)
		s.Camera = cam
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "prop", func(sr *wire.Reader) error {
		props, err := unpackProperties(sr)
		s.Properties = props
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "texture", func(sr *wire.Reader) error {
		textures, err := unpackTextures(sr)
		s.Textures = textures
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "mesh", func(sr *wire.Reader) error {
		meshes, err := unpackMeshes(sr)
		s.Meshes = meshes
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "kdcache", func(sr *wire.Reader) error {
		blob, err := sr.ReadBytes(sr.Remaining())
		if err != nil {
			return err
		}
		cache, err := scene.DecodeKDCache(blob)
		s.KDCache = cache
		return err
	}); err != nil {
		return s, err
	}

	if err := unpackSection(r, "meshmap", func(sr *wire.Reader) error {
		mm, err := unpackMeshMap(sr)
		s.MeshMap = mm
		return err
	}); err != nil {
		return s, err
	}

	return s, nil
}

// unpackSection reads a section's u32 length prefix, slices exactly
// that many bytes into a fresh sub-reader, and hands it to body.
// Any bytes body leaves unread are silently skipped -- this is what
// lets an older unpacker tolerate a newer packer's additional fields
// within a section.
func unpackSection(r *wire.Reader, name string, body func(*wire.Reader) error) error {
	n, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("codec: %s: length: %w", name, err)
	}
	section, err := r.ReadBytes(int(n))
	if err != nil {
		return fmt.Errorf("codec: %s: body: %w", name, err)
	}
	sr := wire.NewReader(section, false)
	if err := body(sr); err != nil {
		return fmt.Errorf("codec: %s: %w", name, err)
	}
	return nil
}

func unpackEnv(r *wire.Reader) (scene.Environment, error) {
	env := scene.NewEnvironment()
	for r.Remaining() > 0 {
		tag, err := r.ReadU16()
		if err != nil {
			return env, err
		}
		switch envTag(tag) {
		case envTagRM:
			method, err := r.ReadU32()
			if err != nil {
				return env, err
			}
			env.Method = scene.RenderMethod(method)
			if env.Method == scene.RenderMethodPath {
				samples, err := r.ReadU32()
				if err != nil {
					return env, err
				}
				env.Path.Samples = samples
			}
		case envTagImageSize:
			w, err := r.ReadU32()
			if err != nil {
				return env, err
			}
			h, err := r.ReadU32()
			if err != nil {
				return env, err
			}
			hs, err := r.ReadU32()
			if err != nil {
				return env, err
			}
			env.ImageW, env.ImageH, env.ImageHalfSz = w, h, hs
		default:
			// An unrecognized tag means the rest of this section belongs to
			// a format this build doesn't understand. Stop here and let
			// unpackSection's length-bounded sub-reader discard the
			// remainder instead of losing synchronization.
			return env, nil
		}
	}
	return env, nil
}

func unpackCamera(r *wire.Reader) (scene.Camera, error) {
	c := scene.NewCamera()
	px, py, pz, err := r.ReadVector3()
	if err != nil {
		return c, err
	}
	fx, fy, fz, err := r.ReadVector3()
	if err != nil {
		return c, err
	}
	tilt, err := r.ReadF32()
	if err != nil {
		return c, err
	}
	fov, err := r.ReadF32()
	if err != nil {
		return c, err
	}
	dof, err := r.ReadF32()
	if err != nil {
		return c, err
	}

	c.Pos = geom.Vector{X: px, Y: py, Z: pz}
	c.Focus = geom.Vector{X: fx, Y: fy, Z: fz}
	c.Tilt, c.Fov, c.Dof = float64(tilt), float64(fov), float64(dof)

	return c, nil
}

func unpackProperties(r *wire.Reader) (scene.PropertyTable, error) {
	props := scene.PropertyTable{}
	for r.Remaining() > 0 {
		name, err := r.ReadNamed()
		if err != nil {
			return props, err
		}
		cr, cg, cb, err := r.ReadVector3()
		if err != nil {
			return props, err
		}
		density, err := r.ReadF32()
		if err != nil {
			return props, err
		}
		gloss, err := r.ReadF32()
		if err != nil {
			return props, err
		}
		emission, err := r.ReadF32()
		if err != nil {
			return props, err
		}
		ior, err := r.ReadF32()
		if err != nil {
			return props, err
		}
		props[name] = scene.Property{
			Name:     name,
			Color:    colour.NewRGBFromFloats(float32(cr), float32(cg), float32(cb)),
			Density:  float64(density),
			Gloss:    float64(gloss),
			Emission: float64(emission),
			IOR:      float64(ior),
		}
	}
	return props, nil
}

func unpackTextures(r *wire.Reader) ([]scene.Texture, error) {
	var textures []scene.Texture
	for r.Remaining() > 0 {
		kind, err := r.ReadU16()
		if err != nil {
			return textures, err
		}
		t := scene.Texture{Kind: scene.TextureKind(kind)}
		switch t.Kind {
		case scene.TextureStack:
			if t.Name, err = r.ReadNamed(); err != nil {
				return textures, err
			}
		case scene.TextureMix:
			if t.Name, err = r.ReadNamed(); err != nil {
				return textures, err
			}
			if t.Tex1, err = r.ReadNamed(); err != nil {
				return textures, err
			}
			if t.Tex2, err = r.ReadNamed(); err != nil {
				return textures, err
			}
			coef, err := r.ReadF32()
			if err != nil {
				return textures, err
			}
			t.Coef = float64(coef)
		case scene.TextureBlend:
			if t.Color1, err = readRGB(r); err != nil {
				return textures, err
			}
			if t.Color2, err = readRGB(r); err != nil {
				return textures, err
			}
		case scene.TextureBump:
			x, y, z, err := r.ReadVector3()
			if err != nil {
				return textures, err
			}
			t.BumpCoef = [3]float64{x, y, z}
		case scene.TextureChecker:
			tile, err := r.ReadU32()
			if err != nil {
				return textures, err
			}
			t.Tile = int32(tile)
		case scene.TextureCamo, scene.TextureClouds:
			size, err := r.ReadF32()
			if err != nil {
				return textures, err
			}
			octaves, err := r.ReadU32()
			if err != nil {
				return textures, err
			}
			absolute, err := r.ReadU32()
			if err != nil {
				return textures, err
			}
			t.Size, t.Octaves, t.Absolute = float64(size), int32(octaves), absolute != 0
			if t.Kind == scene.TextureCamo {
				if t.Color1, err = readRGB(r); err != nil {
					return textures, err
				}
				if t.Color2, err = readRGB(r); err != nil {
					return textures, err
				}
				if t.Color3, err = readRGB(r); err != nil {
					return textures, err
				}
			} else {
				sx, sy, sz, err := r.ReadVector3()
				if err != nil {
					return textures, err
				}
				tx, ty, tz, err := r.ReadVector3()
				if err != nil {
					return textures, err
				}
				t.Scale = [3]float64{sx, sy, sz}
				t.Translate = [3]float64{tx, ty, tz}
			}
		case scene.TextureGradient:
			axis, err := r.ReadU32()
			if err != nil {
				return textures, err
			}
			t.Axis = int32(axis)
		case scene.TextureImage:
			// No payload follows the tag.
		default:
			// An unrecognized kind means every texture from here on belongs
			// to a format this build can't frame (there is no per-record
			// length to skip just one); stop and let unpackSection discard
			// the rest of the TEXTURE section.
			return textures, nil
		}
		textures = append(textures, t)
	}
	return textures, nil
}

func readRGB(r *wire.Reader) (colour.RGB, error) {
	cr, cg, cb, err := r.ReadVector3()
	if err != nil {
		return colour.RGB{}, err
	}
	return colour.NewRGBFromFloats(float32(cr), float32(cg), float32(cb)), nil
}

func unpackMeshes(r *wire.Reader) ([]scene.Mesh, error) {
	if _, err := r.ReadU32(); err != nil { // total_tri_num, informational only
		return nil, err
	}

	var meshes []scene.Mesh
	for r.Remaining() > 0 {
		name, err := r.ReadNamed()
		if err != nil {
			return meshes, err
		}

		numVerts, err := r.ReadU32()
		if err != nil {
			return meshes, err
		}
		if int64(numVerts)*12 > int64(r.Remaining()) {
			return meshes, fmt.Errorf("mesh %q claims %d vertices, section holds %d bytes", name, numVerts, r.Remaining())
		}
		verts := make([]geom.Vector, numVerts)
		for i := range verts {
			x, y, z, err := r.ReadVector3()
			if err != nil {
				return meshes, err
			}
			verts[i] = geom.Vector{X: x, Y: y, Z: z}
		}

		wide, err := r.ReadU8()
		if err != nil {
			return meshes, err
		}

		var faces []scene.Face
		if wide != 0 {
			numFaces, err := r.ReadU32()
			if err != nil {
				return meshes, err
			}
			if int64(numFaces)*12 > int64(r.Remaining()) {
				return meshes, fmt.Errorf("mesh %q claims %d faces, section holds %d bytes", name, numFaces, r.Remaining())
			}
			faces = make([]scene.Face, numFaces)
			for i := range faces {
				i1, err := r.ReadU32()
				if err != nil {
					return meshes, err
				}
				i2, err := r.ReadU32()
				if err != nil {
					return meshes, err
				}
				i3, err := r.ReadU32()
				if err != nil {
					return meshes, err
				}
				faces[i] = scene.Face{I1: i1, I2: i2, I3: i3}
			}
		} else {
			numFaces, err := r.ReadU16()
			if err != nil {
				return meshes, err
			}
			faces = make([]scene.Face, numFaces)
			for i := range faces {
				i1, err := r.ReadU16()
				if err != nil {
					return meshes, err
				}
				i2, err := r.ReadU16()
				if err != nil {
					return meshes, err
				}
				i3, err := r.ReadU16()
				if err != nil {
					return meshes, err
				}
				faces[i] = scene.Face{I1: uint32(i1), I2: uint32(i2), I3: uint32(i3)}
			}
		}

		var matrix [16]float64
		for i := range matrix {
			f, err := r.ReadF32()
			if err != nil {
				return meshes, err
			}
			matrix[i] = float64(f)
		}

		meshes = append(meshes, scene.Mesh{Name: name, Vertices: verts, Faces: faces, Matrix: matrix})
	}
	return meshes, nil
}

func unpackMeshMap(r *wire.Reader) (scene.MeshMap, error) {
	mm := scene.MeshMap{}
	for r.Remaining() > 0 {
		mesh, err := r.ReadNamed()
		if err != nil {
			return mm, err
		}
		prop, err := r.ReadNamed()
		if err != nil {
			return mm, err
		}
		mm[mesh] = prop
	}
	return mm, nil
}
