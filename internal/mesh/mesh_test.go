package mesh

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

// box returns a closed, outward-wound box with its min corner at origin.
func box(x, y, z float64, origin Vec3) *Geometry {
	p := func(i, j, k float64) Vec3 {
		return Vec3{origin.X + i*x, origin.Y + j*y, origin.Z + k*z}
	}
	v000, v100, v110, v010 := p(0, 0, 0), p(1, 0, 0), p(1, 1, 0), p(0, 1, 0)
	v001, v101, v111, v011 := p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)

	return New([]Triangle{
		// bottom (-Z)
		{v000, v110, v100}, {v000, v010, v110},
		// top (+Z)
		{v001, v101, v111}, {v001, v111, v011},
		// front (-Y)
		{v000, v100, v101}, {v000, v101, v001},
		// back (+Y)
		{v010, v111, v110}, {v010, v011, v111},
		// left (-X)
		{v000, v001, v011}, {v000, v011, v010},
		// right (+X)
		{v100, v110, v111}, {v100, v111, v101},
	})
}

func TestGeometry_CubeVolumeAndDimensions(t *testing.T) {
	g := box(10, 10, 10, Vec3{})

	nearlyEqual(t, "volume", g.Volume(), 1000)
	nearlyEqual(t, "signed volume", g.SignedVolume(), 1000)
	nearlyEqual(t, "surface area", g.SurfaceArea(), 600)

	dims := g.Dimensions()
	nearlyEqual(t, "x", dims.X, 10)
	nearlyEqual(t, "y", dims.Y, 10)
	nearlyEqual(t, "z", dims.Z, 10)
}

func TestGeometry_VolumeIsIndependentOfPlacement(t *testing.T) {
	g := box(20, 5, 8, Vec3{X: -40, Y: 13, Z: 2.5})
	nearlyEqual(t, "volume", g.Volume(), 800)
}

func TestGeometry_VolumeIgnoresWinding(t *testing.T) {
	g := box(12, 7, 3, Vec3{X: 5, Y: 5, Z: 5})

	reversed := make([]Triangle, len(g.Triangles))
	for i, tri := range g.Triangles {
		reversed[i] = tri.Reversed()
	}
	r := New(reversed)

	if r.SignedVolume() >= 0 {
		t.Fatalf("expected negative signed volume for inward winding, got %v", r.SignedVolume())
	}
	nearlyEqual(t, "volume", r.Volume(), g.Volume())
}

func TestGeometry_Empty(t *testing.T) {
	g := New(nil)
	if !g.IsEmpty() {
		t.Fatalf("expected empty geometry")
	}
	if g.Dimensions() != (Vec3{}) {
		t.Fatalf("expected zero dimensions, got %+v", g.Dimensions())
	}
}

func TestEstimateMass(t *testing.T) {
	cube := box(10, 10, 10, Vec3{})

	tests := []struct {
		name string
		opts Options
		want float64
	}{
		{"full infill", Options{InfillPercent: 100}, 1.25},
		{"hollow", Options{InfillPercent: 0}, 0.375},
		{"twenty percent", Options{InfillPercent: 20}, (0.3 + 0.7*0.2) * 1.25},
		{"petg density", Options{InfillPercent: 100, DensityGPerCm3: 1.27}, 1.27},
		{"custom shell", Options{InfillPercent: 0, ShellFraction: 0.5}, 0.625},
		{"infill clamped", Options{InfillPercent: 250}, 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateMass(cube, tt.opts)
			nearlyEqual(t, "mass", got.EstimatedMassGrams, tt.want)
			nearlyEqual(t, "volume", got.VolumeMM3, 1000)
		})
	}
}

func TestEstimateMass_LayerHeightAndWallsDoNotChangeMass(t *testing.T) {
	cube := box(30, 30, 30, Vec3{})

	thin := EstimateMass(cube, Options{InfillPercent: 15, LayerHeightMM: 0.08, WallThicknessMM: 0.4})
	thick := EstimateMass(cube, Options{InfillPercent: 15, LayerHeightMM: 0.32, WallThicknessMM: 2.4})

	nearlyEqual(t, "mass", thin.EstimatedMassGrams, thick.EstimatedMassGrams)
	if thin.Options.LayerHeightMM != 0.08 || thick.Options.WallThicknessMM != 2.4 {
		t.Fatalf("expected options to be echoed, got %+v / %+v", thin.Options, thick.Options)
	}
}

func TestEstimateMass_EmptyGeometry(t *testing.T) {
	got := EstimateMass(New(nil), DefaultOptions())
	if got.EstimatedMassGrams != 0 || got.VolumeMM3 != 0 {
		t.Fatalf("expected zero estimate, got %+v", got)
	}
}

func TestAutoOrient_LaysTallPartFlat(t *testing.T) {
	tower := box(10, 20, 100, Vec3{})

	rotated, orientation := AutoOrient(tower)

	if orientation.Name != "x-up" && orientation.Name != "x-down" {
		t.Fatalf("expected the 10mm side to become the height, got %s", orientation.Name)
	}
	nearlyEqual(t, "height", orientation.Size.Z, 10)
	nearlyEqual(t, "rotated height", rotated.Dimensions().Z, 10)
	nearlyEqual(t, "volume", rotated.Volume(), tower.Volume())
}

func TestAutoOrient_KeepsAlreadyFlatPart(t *testing.T) {
	plate := box(80, 60, 2, Vec3{})

	rotated, orientation := AutoOrient(plate)
	if orientation.Name != "z-up" {
		t.Fatalf("expected z-up, got %s", orientation.Name)
	}
	if rotated != plate {
		t.Fatalf("expected the original geometry to be returned")
	}
}

func TestOrientations_ScoresAllSixPoses(t *testing.T) {
	got := Orientations(box(10, 20, 30, Vec3{}))
	if len(got) != 6 {
		t.Fatalf("expected 6 orientations, got %d", len(got))
	}
	nearlyEqual(t, "z-up score", got[0].Score, 200.0/31.0)
}
