package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/doferlabs/printcost/internal/estimate"
	"github.com/doferlabs/printcost/internal/export"
	"github.com/doferlabs/printcost/internal/pricing"
	"github.com/doferlabs/printcost/internal/store"
)

type paramFlag struct {
	name  string
	usage string
	field func(*pricing.PrintParameters) *float64
}

var paramFlags = []paramFlag{
	{"mass", "part mass in grams", func(p *pricing.PrintParameters) *float64 { return &p.MassGrams }},
	{"price-per-kg", "filament price per kilogram", func(p *pricing.PrintParameters) *float64 { return &p.PricePerKg }},
	{"waste", "waste percent", func(p *pricing.PrintParameters) *float64 { return &p.WastePercent }},
	{"hours", "print duration in hours", func(p *pricing.PrintParameters) *float64 { return &p.DurationHours }},
	{"watts", "printer power draw in watts", func(p *pricing.PrintParameters) *float64 { return &p.PowerWatts }},
	{"price-per-kwh", "electricity price per kWh", func(p *pricing.PrintParameters) *float64 { return &p.PricePerKWh }},
	{"printer-price", "printer purchase price", func(p *pricing.PrintParameters) *float64 { return &p.PrinterPrice }},
	{"lifetime", "printer lifetime in hours", func(p *pricing.PrintParameters) *float64 { return &p.PrinterLifetimeHours }},
	{"margin", "profit margin percent", func(p *pricing.PrintParameters) *float64 { return &p.MarginPercent }},
}

type costOutput struct {
	Params    pricing.PrintParameters `json:"params"`
	Breakdown pricing.CostBreakdown   `json:"breakdown"`
	Facts     *estimate.Facts         `json:"facts,omitempty"`
}

func (a *app) costCmd() *cobra.Command {
	var (
		flagVals = pricing.Defaults()
		from     string
		xlsxPath string
		title    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Price a print job",
		Long: `Starts from the profile defaults, applies what --from recovers from a slicer file,
then applies any parameter flags given explicitly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := a.profile.Parameters

			var facts *estimate.Facts
			if from != "" {
				pipeline := estimate.NewPipeline(a.table, estimate.WithMeshOptions(a.profile.Mesh), estimate.WithLogger(a.log))
				r := estimateFile(cmd.Context(), pipeline, from)
				if r.Error != "" {
					return errors.New(r.Error)
				}
				facts = r.Facts
				params = params.With(estimate.Overrides(facts))
			}

			for _, pf := range paramFlags {
				if cmd.Flags().Changed(pf.name) {
					*pf.field(&params) = *pf.field(&flagVals)
				}
			}

			breakdown, err := pricing.Compute(params)
			if err != nil {
				var verr *pricing.ValidationError
				if errors.As(err, &verr) {
					printValidation(cmd.ErrOrStderr(), verr)
				}
				return err
			}

			if xlsxPath != "" {
				q := store.Quote{
					CreatedAt: time.Now(),
					Title:     title,
					Currency:  a.profile.Currency,
					Params:    params,
					Breakdown: breakdown,
				}
				if facts != nil {
					q.FileName = facts.FileName
					q.PrinterName = facts.PrinterName
				}
				if err := writeXLSX(xlsxPath, q); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(costOutput{Params: params, Breakdown: breakdown, Facts: facts})
			}
			printBreakdown(out, breakdown, a.profile.Currency)
			return nil
		},
	}

	defaults := pricing.Defaults()
	for _, pf := range paramFlags {
		cmd.Flags().Float64Var(pf.field(&flagVals), pf.name, *pf.field(&defaults), pf.usage)
	}
	cmd.Flags().StringVar(&from, "from", "", "slicer file whose mass, time and printer override the profile")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the quote to this spreadsheet")
	cmd.Flags().StringVar(&title, "title", "", "quote title for the spreadsheet")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func writeXLSX(path string, q store.Quote) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create xlsx dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xlsx: %w", err)
	}
	if err := export.WriteQuote(f, q); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close xlsx: %w", err)
	}
	return nil
}

func printBreakdown(w io.Writer, b pricing.CostBreakdown, currency string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Peso efectivo\t%.2f g\n", b.EffectiveMassGrams)
	fmt.Fprintf(tw, "Material\t%.2f %s\n", b.MaterialCost, currency)
	fmt.Fprintf(tw, "Energía\t%.2f %s (%.3f kWh)\n", b.EnergyCost, currency, b.EnergyKWh)
	fmt.Fprintf(tw, "Depreciación\t%.2f %s\n", b.DepreciationCost, currency)
	fmt.Fprintf(tw, "Costo total\t%.2f %s\n", b.TotalCost, currency)
	fmt.Fprintf(tw, "Precio con margen\t%.2f %s\n", b.PriceWithMargin, currency)
	tw.Flush()
}

func printValidation(w io.Writer, verr *pricing.ValidationError) {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, verr.Fields[f])
	}
}
