package scene

// Scene bundles every section the codec moves across the wire in one
// push: environment settings, the initial camera, the property table,
// the texture list, every mesh, the mesh/property binding, and
// (optionally) a precomputed spatial cache. It is the in-memory value
// the master holds and every slave receives.
type Scene struct {
	Env        Environment
	Camera     Camera
	Properties PropertyTable
	Textures   []Texture
	Meshes     []Mesh
	MeshMap    MeshMap
	KDCache    *KDCache
}

// NewScene returns an empty scene with sane environment/camera
// defaults, ready to be populated by a loader or the codec.
func NewScene() Scene {
	return Scene{
		Env:        NewEnvironment(),
		Camera:     NewCamera(),
		Properties: PropertyTable{},
		MeshMap:    MeshMap{},
	}
}

// PropertyForMesh resolves the property a given mesh renders with,
// falling back to DefaultProperty when the mesh has no MeshMap entry
// or the entry names an unknown property.
func (s Scene) PropertyForMesh(meshName string) Property {
	return s.Properties.Lookup(s.MeshMap.PropertyFor(meshName))
}
