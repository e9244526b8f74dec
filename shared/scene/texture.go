package scene

import "github.com/tienet-go/tienet/shared/colour"

// TextureKind tags which fields of a Texture are populated. The wire
// format has nine distinct record shapes; rather than model nine Go
// types we keep one struct, since a closed, small set of variants is
// all the codec will ever need.
type TextureKind uint16

const (
	TextureStack TextureKind = iota
	TextureMix
	TextureBlend
	TextureBump
	TextureChecker
	TextureCamo
	TextureClouds
	TextureImage
	TextureGradient
)

// Texture is one entry in the TEXTURE section's ordered list. Only
// the fields relevant to Kind are meaningful; the rest are zero.
type Texture struct {
	Kind TextureKind

	// TextureStack, TextureMix: names resolved against the mesh map's
	// named texture stack.
	Name, Tex1, Tex2 string
	// TextureMix
	Coef float64

	// TextureBlend
	Color1, Color2, Color3 colour.RGB

	// TextureBump: a per-axis perturbation coefficient.
	BumpCoef [3]float64

	// TextureChecker
	Tile int32

	// TextureCamo, TextureClouds
	Size     float64
	Octaves  int32
	Absolute bool
	Scale    [3]float64
	Translate [3]float64

	// TextureImage carries no payload; the kind is kept so the codec
	// can round-trip a tag it never populates.

	// TextureGradient
	Axis int32
}
