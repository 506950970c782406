package mesh

// Orientation names one of the six axis-aligned poses a part can rest in.
type Orientation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	// Size is the bounding-box extent after rotation; Z is the print height.
	Size Vec3 `json:"size"`
}

type rotation struct {
	name  string
	apply func(Vec3) Vec3
}

// Proper rotations only, so the relative winding of every face is kept.
var rotations = []rotation{
	{"z-up", func(v Vec3) Vec3 { return v }},
	{"z-down", func(v Vec3) Vec3 { return Vec3{v.X, -v.Y, -v.Z} }},
	{"x-up", func(v Vec3) Vec3 { return Vec3{-v.Z, v.Y, v.X} }},
	{"x-down", func(v Vec3) Vec3 { return Vec3{v.Z, v.Y, -v.X} }},
	{"y-up", func(v Vec3) Vec3 { return Vec3{v.X, -v.Z, v.Y} }},
	{"y-down", func(v Vec3) Vec3 { return Vec3{v.X, v.Z, -v.Y} }},
}

func (r rotation) geometry(g *Geometry) *Geometry {
	out := make([]Triangle, len(g.Triangles))
	for i, t := range g.Triangles {
		out[i] = Triangle{A: r.apply(t.A), B: r.apply(t.B), C: r.apply(t.C)}
	}
	return New(out)
}

func (r rotation) bounds(b BoundingBox) BoundingBox {
	rb := EmptyBox()
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				rb.Extend(r.apply(Vec3{x, y, z}))
			}
		}
	}
	return rb
}

// Orientations scores each axis-aligned pose by footprint/(height+1).
// Larger footprints and lower heights print more reliably.
func Orientations(g *Geometry) []Orientation {
	out := make([]Orientation, 0, len(rotations))
	for _, r := range rotations {
		size := r.bounds(g.Bounds).Size()
		out = append(out, Orientation{
			Name:  r.name,
			Score: (size.X * size.Y) / (size.Z + 1),
			Size:  size,
		})
	}
	return out
}

// AutoOrient returns g rotated into its best-scoring pose. Ties keep the
// earlier candidate, so an already optimal part is left as is.
func AutoOrient(g *Geometry) (*Geometry, Orientation) {
	if g.IsEmpty() {
		return g, Orientation{Name: rotations[0].name}
	}

	candidates := Orientations(g)
	best := 0
	for i, c := range candidates {
		if c.Score > candidates[best].Score {
			best = i
		}
	}
	if best == 0 {
		return g, candidates[0]
	}
	return rotations[best].geometry(g), candidates[best]
}
