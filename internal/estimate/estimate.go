// Package estimate runs an uploaded file through unpacking, fact extraction,
// printer power lookup and mesh estimation.
package estimate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/doferlabs/printcost/internal/extract"
	"github.com/doferlabs/printcost/internal/mesh"
	"github.com/doferlabs/printcost/internal/pricing"
	"github.com/doferlabs/printcost/internal/printers"
	"github.com/doferlabs/printcost/internal/unpack"
)

// Asset is one uploaded file. InfillPercent and DensityGPerCm3 override the
// pipeline defaults for mesh mass estimates.
type Asset struct {
	Data           []byte
	Kind           unpack.Kind
	FileName       string
	InfillPercent  *float64
	DensityGPerCm3 *float64
}

// Facts is everything recovered from one file. Every numeric field is
// optional; the user fills in what is missing.
type Facts struct {
	FileName string      `json:"file_name"`
	Kind     unpack.Kind `json:"kind"`
	extract.Result

	PrinterPowerWatts *float64           `json:"printer_power_watts,omitempty"`
	PowerMatchedName  string             `json:"power_matched_name,omitempty"`
	PowerMatch        printers.MatchKind `json:"power_match,omitempty"`

	Mesh        *mesh.Estimate    `json:"mesh,omitempty"`
	Orientation *mesh.Orientation `json:"orientation,omitempty"`
	MeshError   string            `json:"mesh_error,omitempty"`

	Thumbnail []byte `json:"-"`
}

// MassSourceMesh marks a mass taken from the mesh estimate.
const MassSourceMesh = "mesh"

// Overrides turns the recovered facts into pricing overrides. Fields that
// were not found stay nil and keep the current parameter.
func Overrides(f *Facts) pricing.Overrides {
	return pricing.Overrides{
		MassGrams:     clone(f.MassGrams),
		DurationHours: clone(f.PrintDurationHours),
		PowerWatts:    clone(f.PrinterPowerWatts),
	}
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Pipeline is safe for concurrent use; every call works on its own buffers.
type Pipeline struct {
	printers   *printers.Table
	extractor  *extract.Extractor
	meshOpts   mesh.Options
	autoOrient bool
	log        zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMeshOptions sets the default infill, density and shell split.
func WithMeshOptions(o mesh.Options) Option {
	return func(p *Pipeline) { p.meshOpts = o }
}

// WithAutoOrient rotates meshes into their most stable pose before the
// dimensions are reported.
func WithAutoOrient(on bool) Option {
	return func(p *Pipeline) { p.autoOrient = on }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline builds a pipeline around a printer table.
func NewPipeline(table *printers.Table, opts ...Option) *Pipeline {
	p := &Pipeline{
		printers:  table,
		extractor: extract.New(table),
		meshOpts:  mesh.DefaultOptions(),
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes one asset. Only an unreadable container or a cancelled
// context fail; missing facts are reported through Facts.Missing.
func (p *Pipeline) Run(ctx context.Context, a Asset) (*Facts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := unpack.Unpack(a.Data, a.Kind)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", a.FileName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := &Facts{FileName: a.FileName, Kind: a.Kind, Thumbnail: res.Thumbnail}
	if res.Text != "" {
		facts.Result = p.extractor.Extract(res.Text, a.FileName)
	}

	if facts.PrinterName != "" && p.printers != nil {
		if m, ok := p.printers.Lookup(facts.PrinterName); ok {
			w := m.Watts
			facts.PrinterPowerWatts = &w
			facts.PowerMatchedName = m.FullName
			facts.PowerMatch = m.Via
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.applyMesh(facts, res, a)

	if facts.Incomplete() {
		p.log.Debug().
			Str("file", a.FileName).
			Strs("missing", facts.Missing()).
			Msg("extraction incomplete")
	}
	return facts, nil
}

func (p *Pipeline) applyMesh(facts *Facts, res *unpack.Result, a Asset) {
	if res.MeshErr != nil {
		facts.MeshError = res.MeshErr.Error()
		p.log.Debug().Err(res.MeshErr).Str("file", a.FileName).Msg("mesh unavailable")
	}
	if res.Mesh.IsEmpty() {
		return
	}

	g := res.Mesh
	if p.autoOrient {
		var o mesh.Orientation
		g, o = mesh.AutoOrient(g)
		facts.Orientation = &o
	}

	opts := p.meshOpts
	if a.InfillPercent != nil {
		opts.InfillPercent = *a.InfillPercent
	}
	if a.DensityGPerCm3 != nil {
		opts.DensityGPerCm3 = *a.DensityGPerCm3
	}
	est := mesh.EstimateMass(g, opts)
	facts.Mesh = &est

	if facts.MassGrams == nil && est.EstimatedMassGrams > 0 {
		m := est.EstimatedMassGrams
		facts.MassGrams = &m
		facts.MassSource = MassSourceMesh
	}
}
