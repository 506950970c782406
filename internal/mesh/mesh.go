// Package mesh holds triangle-mesh geometry recovered from STL and 3MF files
// and the volume and mass estimates derived from it.
package mesh

import "math"

// Vec3 is a point or direction in millimetres.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Length() float64 { return math.Sqrt(a.Dot(a)) }

// Triangle is one face of a mesh. Winding order is not trusted.
type Triangle struct {
	A, B, C Vec3
}

// Reversed returns the triangle with the opposite winding.
func (t Triangle) Reversed() Triangle {
	return Triangle{A: t.A, B: t.C, C: t.B}
}

// Area returns the surface area of the triangle.
func (t Triangle) Area() float64 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Length() / 2
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// EmptyBox returns a box that any point will extend.
func EmptyBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to contain p.
func (b *BoundingBox) Extend(p Vec3) {
	b.Min = Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)}
	b.Max = Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)}
}

// Size returns the absolute extent of the box along each axis.
func (b BoundingBox) Size() Vec3 {
	return Vec3{
		math.Abs(b.Max.X - b.Min.X),
		math.Abs(b.Max.Y - b.Min.Y),
		math.Abs(b.Max.Z - b.Min.Z),
	}
}

// Geometry is a triangle soup with its bounding box.
type Geometry struct {
	Triangles []Triangle
	Bounds    BoundingBox
}

// New builds a Geometry and computes its bounding box.
func New(triangles []Triangle) *Geometry {
	g := &Geometry{Triangles: triangles, Bounds: EmptyBox()}
	for _, t := range triangles {
		g.Bounds.Extend(t.A)
		g.Bounds.Extend(t.B)
		g.Bounds.Extend(t.C)
	}
	if len(triangles) == 0 {
		g.Bounds = BoundingBox{}
	}
	return g
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Triangles)
}

// IsEmpty returns true if the geometry has no triangles.
func (g *Geometry) IsEmpty() bool {
	return g == nil || len(g.Triangles) == 0
}

// Dimensions returns the bounding-box extents in millimetres.
func (g *Geometry) Dimensions() Vec3 {
	return g.Bounds.Size()
}

// SignedVolume sums the signed volumes of the tetrahedra spanned by the
// origin and each triangle. Its sign depends on the winding.
func (g *Geometry) SignedVolume() float64 {
	sum := 0.0
	for _, t := range g.Triangles {
		sum += t.A.Dot(t.B.Cross(t.C)) / 6
	}
	return sum
}

// Volume returns the enclosed volume in mm³. It is exact for a closed,
// consistently wound mesh and an approximation for anything else.
func (g *Geometry) Volume() float64 {
	return math.Abs(g.SignedVolume())
}

// SurfaceArea returns the total area of all triangles in mm².
func (g *Geometry) SurfaceArea() float64 {
	total := 0.0
	for _, t := range g.Triangles {
		total += t.Area()
	}
	return total
}
