package scene

import "github.com/tienet-go/tienet/shared/colour"

// Property is a named material (the PROP section's common_prop_t):
// diffuse colour, density (opacity), specular gloss, emission, and
// index of refraction. Meshes reference properties by name through a
// MeshMap rather than embedding them, so many meshes can share one
// material.
type Property struct {
	Name      string
	Color     colour.RGB
	Density   float64
	Gloss     float64
	Emission  float64
	IOR       float64
}

// DefaultProperty is the fallback material for meshes with no
// resolvable property: a flat grey at 0.8, half density, half gloss,
// no emission, and an index of refraction of 1.
func DefaultProperty() Property {
	return Property{
		Color:    colour.NewRGBFromFloats(0.8, 0.8, 0.8),
		Density:  0.5,
		Gloss:    0.2,
		Emission: 0.0,
		IOR:      1.0,
	}
}

// PropertyTable indexes properties by name for O(1) MeshMap lookups.
type PropertyTable map[string]Property

// Lookup returns the named property, or DefaultProperty if name is
// empty or absent from the table.
func (t PropertyTable) Lookup(name string) Property {
	if name == "" {
		return DefaultProperty()
	}
	if p, ok := t[name]; ok {
		return p
	}
	return DefaultProperty()
}
