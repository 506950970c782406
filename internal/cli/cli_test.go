package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doferlabs/printcost/internal/hub"
	"github.com/doferlabs/printcost/internal/pricing"
)

const sampleGCode = "; filament used [g] = 100.00,50.00\n" +
	"; estimated printing time = 2h 30m\n" +
	"; printer_settings_id = Bambu Lab P1S 0.4 nozzle\n" +
	"G28\n"

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEstimate_JSONReportsPerFileErrors(t *testing.T) {
	good := writeFile(t, "part.gcode", sampleGCode)
	missing := filepath.Join(t.TempDir(), "gone.gcode")

	out, _, err := run(t, "estimate", "--json", "-j", "2", good, missing)
	if err == nil || !strings.Contains(err.Error(), "1 de 2") {
		t.Fatalf("expected one failed file, got %v", err)
	}

	var results []fileResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Facts == nil || results[0].Error != "" {
		t.Fatalf("first file should succeed: %+v", results[0])
	}
	nearlyEqual(t, "mass", *results[0].Facts.MassGrams, 150)
	if results[1].Error == "" || results[1].Facts != nil {
		t.Fatalf("second file should fail: %+v", results[1])
	}
}

func TestEstimate_TextOutput(t *testing.T) {
	path := writeFile(t, "part.gcode", sampleGCode)

	out, _, err := run(t, "estimate", path)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	for _, want := range []string{"peso:       150.00 g", "tiempo:     2.50 h", "Bambu Lab P1S, 105 W (exact)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestEstimate_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello")

	if _, _, err := run(t, "estimate", path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestCost_FlagsOverrideProfile(t *testing.T) {
	out, _, err := run(t, "cost", "--json",
		"--mass", "100", "--price-per-kg", "1000", "--waste", "0",
		"--hours", "1", "--watts", "0", "--printer-price", "0", "--margin", "0")
	if err != nil {
		t.Fatalf("cost: %v", err)
	}

	var res costOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	nearlyEqual(t, "material", res.Breakdown.MaterialCost, 100)
	nearlyEqual(t, "total", res.Breakdown.TotalCost, 100)
	nearlyEqual(t, "price", res.Breakdown.PriceWithMargin, 100)
	nearlyEqual(t, "kwh price kept", res.Params.PricePerKWh, pricing.Defaults().PricePerKWh)
}

func TestCost_FromFileThenFlags(t *testing.T) {
	path := writeFile(t, "part.gcode", sampleGCode)

	out, _, err := run(t, "cost", "--json", "--from", path, "--hours", "3")
	if err != nil {
		t.Fatalf("cost: %v", err)
	}

	var res costOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	nearlyEqual(t, "mass from file", res.Params.MassGrams, 150)
	nearlyEqual(t, "watts from file", res.Params.PowerWatts, 105)
	nearlyEqual(t, "hours from flag", res.Params.DurationHours, 3)
	if res.Facts == nil || res.Facts.PrinterName == "" {
		t.Fatalf("expected facts in output")
	}
}

func TestCost_ValidationError(t *testing.T) {
	_, errOut, err := run(t, "cost", "--waste", "150")

	var verr *pricing.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *pricing.ValidationError, got %v", err)
	}
	if !strings.Contains(errOut, pricing.FieldWastePercent) {
		t.Fatalf("expected field listed on stderr, got %q", errOut)
	}
}

func TestCost_WritesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "quote.xlsx")

	if _, _, err := run(t, "cost", "--xlsx", path, "--title", "Prueba"); err != nil {
		t.Fatalf("cost: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat xlsx: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("xlsx is empty")
	}
}

func TestPrinters(t *testing.T) {
	out, _, err := run(t, "printers", "--match", "Bambu Lab P1S 0.4mm Nozzle")
	if err != nil {
		t.Fatalf("printers --match: %v", err)
	}
	if !strings.Contains(out, "Bambu Lab P1S: 105 W (exact)") {
		t.Fatalf("unexpected match output %q", out)
	}

	out, _, err = run(t, "printers", "bambu")
	if err != nil {
		t.Fatalf("printers: %v", err)
	}
	if !strings.Contains(out, "Bambu Lab X1 Carbon") || strings.Contains(out, "Ender") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	if _, _, err := run(t, "printers", "--match", "my custom machine"); err == nil {
		t.Fatalf("expected no match error")
	}
}

func TestTools(t *testing.T) {
	out, _, err := run(t, "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if !strings.Contains(out, hub.CostCalculatorID) {
		t.Fatalf("expected cost calculator listed, got:\n%s", out)
	}
}
