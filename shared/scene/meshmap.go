package scene

// MeshMap binds mesh names to the property name they're painted with
// (the MESHMAP section). A mesh absent from the map uses
// DefaultProperty.
type MeshMap map[string]string

// PropertyFor resolves the property name bound to meshName, or "" if
// unbound.
func (m MeshMap) PropertyFor(meshName string) string {
	return m[meshName]
}
