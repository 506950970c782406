package unpack

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/hpinc/go3mf"

	"github.com/doferlabs/printcost/internal/mesh"
)

// decodeModel reads every mesh object of the root model and its child
// models. Build item transforms are not applied, so instanced copies count
// once.
func decodeModel(data []byte) (g *mesh.Geometry, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("decode 3mf model: %v", r)
		}
	}()

	var model go3mf.Model
	d := go3mf.NewDecoder(bytes.NewReader(data), int64(len(data)))
	if err := d.Decode(&model); err != nil {
		return nil, fmt.Errorf("decode 3mf model: %w", err)
	}

	tris := appendObjects(nil, model.Resources.Objects)
	paths := make([]string, 0, len(model.Childs))
	for p := range model.Childs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		tris = appendObjects(tris, model.Childs[p].Resources.Objects)
	}
	if len(tris) == 0 {
		return nil, errNoMesh
	}
	return mesh.New(tris), nil
}

func appendObjects(dst []mesh.Triangle, objects []*go3mf.Object) []mesh.Triangle {
	for _, o := range objects {
		if o.Mesh == nil {
			continue
		}
		verts := o.Mesh.Vertices.Vertex
		n := uint32(len(verts))
		for _, t := range o.Mesh.Triangles.Triangle {
			if t.V1 >= n || t.V2 >= n || t.V3 >= n {
				continue
			}
			dst = append(dst, mesh.Triangle{
				A: vec(verts[t.V1]),
				B: vec(verts[t.V2]),
				C: vec(verts[t.V3]),
			})
		}
	}
	return dst
}

func vec(p go3mf.Point3D) mesh.Vec3 {
	return mesh.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}
