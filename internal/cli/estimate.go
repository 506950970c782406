package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doferlabs/printcost/internal/estimate"
	"github.com/doferlabs/printcost/internal/unpack"
)

type fileResult struct {
	Path  string          `json:"path"`
	Size  int64           `json:"size"`
	Facts *estimate.Facts `json:"facts,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (a *app) estimateCmd() *cobra.Command {
	var (
		infill     float64
		asJSON     bool
		autoOrient bool
		jobs       int
		thumbDir   string
	)

	cmd := &cobra.Command{
		Use:   "estimate FILE...",
		Short: "Recover mass, print time and printer from slicer files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.profile.Mesh
			if cmd.Flags().Changed("infill") {
				opts.InfillPercent = infill
			}
			pipeline := estimate.NewPipeline(a.table,
				estimate.WithMeshOptions(opts),
				estimate.WithAutoOrient(autoOrient || a.profile.AutoOrient),
				estimate.WithLogger(a.log),
			)

			results := estimateFiles(cmd.Context(), pipeline, args, jobs)

			if thumbDir != "" {
				if err := writeThumbnails(thumbDir, results); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
			} else {
				for _, r := range results {
					printFacts(out, r)
				}
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d de %d archivos no se pudieron leer", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&infill, "infill", 20, "infill percent for mesh mass estimates")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&autoOrient, "auto-orient", false, "lay meshes on their widest face before estimating")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files processed at once (default is the number of CPUs)")
	cmd.Flags().StringVar(&thumbDir, "thumbnails", "", "directory where embedded thumbnails are written")
	return cmd
}

// estimateFiles processes paths concurrently. Per-file failures are recorded
// in the result rather than stopping the batch.
func estimateFiles(ctx context.Context, est estimate.Estimator, paths []string, jobs int) []fileResult {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = estimateFile(ctx, est, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func estimateFile(ctx context.Context, est estimate.Estimator, path string) fileResult {
	res := fileResult{Path: path}
	fail := func(err error) fileResult {
		res.Error = err.Error()
		return res
	}

	kind, err := unpack.KindFromFileName(path)
	if err != nil {
		return fail(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	data, err := unpack.Read(f, kind, unpack.SizeLimit(kind))
	if err != nil {
		return fail(err)
	}
	res.Size = int64(len(data))

	facts, err := est.Run(ctx, estimate.Asset{Data: data, Kind: kind, FileName: filepath.Base(path)})
	if err != nil {
		return fail(err)
	}
	res.Facts = facts
	return res
}

func printFacts(w io.Writer, r fileResult) {
	if r.Error != "" {
		fmt.Fprintf(w, "%s: error: %s\n\n", r.Path, r.Error)
		return
	}
	f := r.Facts
	fmt.Fprintf(w, "%s (%s, %s)\n", r.Path, humanize.IBytes(uint64(r.Size)), f.Kind)

	if f.MassGrams != nil {
		fmt.Fprintf(w, "  peso:       %.2f g (%s)\n", *f.MassGrams, f.MassSource)
	}
	if f.PrintDurationHours != nil {
		fmt.Fprintf(w, "  tiempo:     %.2f h (%s)\n", *f.PrintDurationHours, f.DurationSource)
	}
	if f.PrinterName != "" {
		fmt.Fprintf(w, "  impresora:  %s", f.PrinterName)
		if f.PrinterPowerWatts != nil {
			fmt.Fprintf(w, " -> %s, %.0f W (%s)", f.PowerMatchedName, *f.PrinterPowerWatts, f.PowerMatch)
		}
		fmt.Fprintln(w)
	}
	if f.MultiObjectCount > 1 {
		fmt.Fprintf(w, "  objetos:    %d\n", f.MultiObjectCount)
	}
	if f.Mesh != nil {
		d := f.Mesh.Dimensions
		fmt.Fprintf(w, "  malla:      %s mm³, %.1f x %.1f x %.1f mm, %.2f g a %.0f%% relleno\n",
			humanize.CommafWithDigits(f.Mesh.VolumeMM3, 1), d.X, d.Y, d.Z,
			f.Mesh.EstimatedMassGrams, f.Mesh.Options.InfillPercent)
	}
	if f.Orientation != nil {
		fmt.Fprintf(w, "  orientación: %s\n", f.Orientation.Name)
	}
	if f.MeshError != "" {
		fmt.Fprintf(w, "  malla no disponible: %s\n", f.MeshError)
	}
	if missing := f.Missing(); len(missing) > 0 {
		fmt.Fprintf(w, "  faltan:     %s\n", strings.Join(missing, ", "))
	}
	fmt.Fprintln(w)
}

func writeThumbnails(dir string, results []fileResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	for _, r := range results {
		if r.Facts == nil || len(r.Facts.Thumbnail) == 0 {
			continue
		}
		ext := ".png"
		if http.DetectContentType(r.Facts.Thumbnail) == "image/jpeg" {
			ext = ".jpg"
		}
		name := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path)) + ext
		if err := os.WriteFile(filepath.Join(dir, name), r.Facts.Thumbnail, 0o644); err != nil {
			return fmt.Errorf("write thumbnail %s: %w", name, err)
		}
	}
	return nil
}
