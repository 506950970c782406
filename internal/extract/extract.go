// Package extract mines filament mass, print duration, printer name and
// related facts from slicer G-code headers and 3MF metadata text.
//
// Every field is optional. Each field is resolved by an ordered list of
// strategies where the first in-bounds value wins.
package extract

import (
	"math"
	"strings"

	"github.com/doferlabs/printcost/internal/printers"
)

// Field names reported by Result.Missing.
const (
	FieldMassGrams          = "mass_grams"
	FieldPrintDurationHours = "print_duration_hours"
)

// PrinterMatch says how confident the printer name is.
type PrinterMatch string

const (
	PrinterNone       PrinterMatch = ""
	PrinterLabeled    PrinterMatch = "labeled"
	PrinterBrandGuess PrinterMatch = "brand_guess"
)

// Result holds the facts recovered from one text blob.
type Result struct {
	MassGrams          *float64     `json:"mass_grams,omitempty"`
	MassSource         string       `json:"mass_source,omitempty"`
	FilamentLengthMM   *float64     `json:"filament_length_mm,omitempty"`
	PrintDurationHours *float64     `json:"print_duration_hours,omitempty"`
	DurationSource     string       `json:"duration_source,omitempty"`
	PrinterName        string       `json:"printer_name,omitempty"`
	PrinterMatch       PrinterMatch `json:"printer_match,omitempty"`
	MultiObjectCount   int          `json:"multi_object_count,omitempty"`
	Notes              []string     `json:"notes,omitempty"`
	GCodeLike          bool         `json:"gcode_like"`
}

// Missing lists the required fields that were not found.
func (r Result) Missing() []string {
	var missing []string
	if r.MassGrams == nil {
		missing = append(missing, FieldMassGrams)
	}
	if r.PrintDurationHours == nil {
		missing = append(missing, FieldPrintDurationHours)
	}
	return missing
}

// Incomplete reports whether the user has to fill in a field by hand. It is
// an expected outcome, not an error.
func (r Result) Incomplete() bool {
	return len(r.Missing()) > 0
}

// Extractor carries the printer table used for brand sniffing.
type Extractor struct {
	printers *printers.Table
}

// New returns an Extractor backed by table.
func New(table *printers.Table) *Extractor {
	return &Extractor{printers: table}
}

var defaultExtractor = New(printers.DefaultTable())

// Extract runs the default extractor.
func Extract(text, fileName string) Result {
	return defaultExtractor.Extract(text, fileName)
}

// Extract recovers every fact it can from text. fileName only feeds the
// printer brand fallback. The result depends on its inputs alone.
func (e *Extractor) Extract(text, fileName string) Result {
	doc := NewDocument(text)
	res := Result{GCodeLike: doc.GCodeLike}

	if v, name, ok := firstMatch(doc, MassStrategies()); ok {
		res.MassGrams = &v
		res.MassSource = name
	}
	if mm, ok := filamentLengthMM(doc); ok {
		res.FilamentLengthMM = &mm
	}
	if v, name, ok := firstMatch(doc, DurationStrategies()); ok {
		res.PrintDurationHours = &v
		res.DurationSource = name
	}

	if name, ok := printerName(doc); ok {
		res.PrinterName = name
		res.PrinterMatch = PrinterLabeled
	} else if e.printers != nil {
		if _, entry, ok := e.printers.GuessBrand(text + "\n" + fileName); ok {
			res.PrinterName = entry.FullName + " (detected)"
			res.PrinterMatch = PrinterBrandGuess
		}
	}

	if n := objectCount(doc); n > 1 {
		res.MultiObjectCount = n
	}
	res.Notes = notes(doc)
	return res
}

// gcodeSampleLines and gcodeMinComments decide whether text is a G-code
// comment stream.
const (
	gcodeSampleLines = 50
	gcodeMinComments = 5
)

var infoKeywords = []string{"weight", "time", "filament", "material", "print", "duration"}

// Document is text split into lines, with the informative subset picked out.
type Document struct {
	Text      string
	Lines     []string
	Info      []string
	GCodeLike bool
}

// NewDocument classifies text and selects its informative lines: comment
// lines for G-code, keyword lines for anything else.
func NewDocument(text string) *Document {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	d := &Document{Text: text, Lines: lines}

	comments := 0
	for i, l := range lines {
		if i == gcodeSampleLines {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(l), ";") {
			comments++
		}
	}
	d.GCodeLike = comments >= gcodeMinComments

	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		if d.GCodeLike {
			if strings.HasPrefix(trimmed, ";") {
				d.Info = append(d.Info, trimmed)
			}
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, kw := range infoKeywords {
			if strings.Contains(lower, kw) {
				d.Info = append(d.Info, trimmed)
				break
			}
		}
	}
	return d
}

// Strategy finds one candidate value. Find must only report values that
// already passed the strategy's bounds.
type Strategy struct {
	Name string
	Find func(*Document) (float64, bool)
}

func firstMatch(d *Document, strategies []Strategy) (float64, string, bool) {
	for _, s := range strategies {
		if v, ok := s.Find(d); ok {
			return v, s.Name, true
		}
	}
	return 0, "", false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
