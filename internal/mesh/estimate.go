package mesh

import "math"

const (
	// DefaultDensity is PLA in g/cm³.
	DefaultDensity = 1.25
	// DefaultShellFraction is the share of the volume printed solid as walls
	// and skins regardless of infill.
	DefaultShellFraction = 0.30
)

// Options tune the mass model. LayerHeightMM and WallThicknessMM are carried
// through to the result but the model only varies with InfillPercent.
type Options struct {
	InfillPercent   float64 `json:"infill_percent" yaml:"infill_percent"`
	DensityGPerCm3  float64 `json:"density_g_per_cm3" yaml:"density_g_per_cm3"`
	ShellFraction   float64 `json:"shell_fraction" yaml:"shell_fraction"`
	LayerHeightMM   float64 `json:"layer_height_mm" yaml:"layer_height_mm"`
	WallThicknessMM float64 `json:"wall_thickness_mm" yaml:"wall_thickness_mm"`
}

// DefaultOptions returns 20% infill PLA with the default shell split.
func DefaultOptions() Options {
	return Options{
		InfillPercent:   20,
		DensityGPerCm3:  DefaultDensity,
		ShellFraction:   DefaultShellFraction,
		LayerHeightMM:   0.2,
		WallThicknessMM: 1.2,
	}
}

func (o Options) normalized() Options {
	if o.DensityGPerCm3 <= 0 {
		o.DensityGPerCm3 = DefaultDensity
	}
	if o.ShellFraction <= 0 || o.ShellFraction > 1 {
		o.ShellFraction = DefaultShellFraction
	}
	o.InfillPercent = math.Max(0, math.Min(100, o.InfillPercent))
	return o
}

// Estimate is the derived size and mass of a mesh.
type Estimate struct {
	VolumeMM3          float64 `json:"volume_mm3"`
	SurfaceAreaMM2     float64 `json:"surface_area_mm2"`
	Dimensions         Vec3    `json:"dimensions"`
	EstimatedMassGrams float64 `json:"estimated_mass_grams"`
	Options            Options `json:"options"`
}

// EstimateMass computes volume, dimensions and printed mass for g.
func EstimateMass(g *Geometry, opts Options) Estimate {
	opts = opts.normalized()
	if g.IsEmpty() {
		return Estimate{Options: opts}
	}

	volumeMM3 := g.Volume()
	volumeCm3 := volumeMM3 / 1000

	shellCm3 := volumeCm3 * opts.ShellFraction
	interiorCm3 := volumeCm3 * (1 - opts.ShellFraction)
	infill := opts.InfillPercent / 100

	return Estimate{
		VolumeMM3:          volumeMM3,
		SurfaceAreaMM2:     g.SurfaceArea(),
		Dimensions:         g.Dimensions(),
		EstimatedMassGrams: (shellCm3 + interiorCm3*infill) * opts.DensityGPerCm3,
		Options:            opts,
	}
}
