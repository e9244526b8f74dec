package scene

import (
	"log"

	"github.com/udhos/gwob"

	"github.com/tienet-go/tienet/shared/colour"
	"github.com/tienet-go/tienet/shared/geom"
)

// LoadOBJ reads a Wavefront OBJ/MTL file and returns one Mesh per OBJ
// group plus the property table those meshes' MeshMap entries
// reference; materials become named properties rather than being
// embedded in the mesh.
func LoadOBJ(path string) ([]Mesh, PropertyTable, MeshMap, error) {
	options := gwob.ObjParserOptions{LogStats: true, Logger: func(s string) { log.Println(s) }, IgnoreNormals: false}

	input, err := gwob.NewObjFromFile(path, &options)
	if err != nil {
		return nil, nil, nil, err
	}

	matlib := gwob.NewMaterialLib()
	if len(input.Mtllib) > 0 {
		matlib, err = gwob.ReadMaterialLibFromFile(relativePath(path, input.Mtllib), &options)
		if err != nil {
			matlib, err = gwob.ReadMaterialLibFromFile(input.Mtllib, &options)
			if err != nil {
				return nil, nil, nil, err
			}
		}
	}

	vertexStride := input.StrideSize / 4
	vertexOffset := input.StrideOffsetPosition / 4

	props := PropertyTable{}
	meshMap := MeshMap{}
	meshes := make([]Mesh, 0, len(input.Groups))

	for gi, g := range input.Groups {
		name := g.Name
		if name == "" {
			name = defaultGroupName(gi)
		}

		propName := name + "#mtl"
		prop := DefaultProperty()
		if gMat, ok := matlib.Lib[g.Usemtl]; ok {
			prop = Property{
				Name:    propName,
				Color:   colour.NewRGBFromFloats(gMat.Kd[0], gMat.Kd[1], gMat.Kd[2]),
				Density: 0.5,
				Gloss:   float64(gMat.Ns) / 1000.0,
				IOR:     1.0,
			}
		}
		props[propName] = prop
		meshMap[name] = propName

		vertexMap := make(map[geom.Vector]uint32)
		vertices := make([]geom.Vector, 0)
		faces := make([]Face, 0, g.IndexCount/3)

		for f := 0; f < g.IndexCount/3; f++ {
			var tri [3]uint32
			for v := 0; v < 3; v++ {
				vIndex := g.IndexBegin + (3*f + v)
				vertex := geom.Vector{
					X: input.Coord64(vertexStride*int(input.Indices[vIndex]) + vertexOffset),
					Y: input.Coord64(vertexStride*int(input.Indices[vIndex]) + vertexOffset + 1),
					Z: input.Coord64(vertexStride*int(input.Indices[vIndex]) + vertexOffset + 2),
				}
				if idx, exists := vertexMap[vertex]; exists {
					tri[v] = idx
				} else {
					idx = uint32(len(vertices))
					vertexMap[vertex] = idx
					vertices = append(vertices, vertex)
					tri[v] = idx
				}
			}
			faces = append(faces, Face{I1: tri[0], I2: tri[1], I3: tri[2]})
		}

		meshes = append(meshes, Mesh{
			Name:     name,
			Vertices: vertices,
			Faces:    faces,
			Matrix:   IdentityMatrix(),
			PropName: propName,
		})
	}

	return meshes, props, meshMap, nil
}

func defaultGroupName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "group_" + string(letters[i%len(letters)])
}
