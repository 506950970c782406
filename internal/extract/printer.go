package extract

import (
	"regexp"
	"strings"

	"github.com/doferlabs/printcost/internal/printers"
)

// Tried in order; the first plausible value wins.
var printerNameRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)printer_model"?\s*[=:]\s*"?([^";\n]+)`),
	regexp.MustCompile(`(?i)printer_settings_id"?\s*[=:]\s*"?([^";\n]+)`),
	regexp.MustCompile(`(?i)machine[\s_]name"?\s*[=:]\s*"?([^";\n]+)`),
	regexp.MustCompile(`(?i)printer_type"?\s*[=:]\s*"?([^";\n]+)`),
	regexp.MustCompile(`(?i)\bprinter"?\s*[=:]\s*"?([^";\n]+)`),
}

const (
	minPrinterNameLen = 2
	maxPrinterNameLen = 60
)

func printerName(d *Document) (string, bool) {
	for _, re := range printerNameRes {
		for _, line := range d.Info {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := strings.Trim(strings.TrimSpace(m[1]), `"',`)
			name = printers.Clean(name)
			if n := len(name); n >= minPrinterNameLen && n <= maxPrinterNameLen {
				return name, true
			}
		}
	}
	return "", false
}

var (
	objectMarkerRe = regexp.MustCompile(`(?i)^;\s*printing object\b|<object id=|^;\s*object:`)
	plateTagRe     = regexp.MustCompile(`(?i)<plate>`)
	plateRefRe     = regexp.MustCompile(`(?i)plate_(\d+)(\.[a-z0-9]+)?`)
)

// objectCount counts distinct objects and plates separately and returns the
// larger. Slicers repeat the same object marker on every layer, so identical
// lines count once. Plate thumbnails such as plate_1.png are not plates.
func objectCount(d *Document) int {
	objects := make(map[string]struct{})
	plateIDs := make(map[string]struct{})
	plateTags := 0
	for _, line := range d.Lines {
		trimmed := strings.TrimSpace(line)
		if plateTagRe.MatchString(trimmed) {
			plateTags++
		}
		if objectMarkerRe.MatchString(trimmed) {
			objects[trimmed] = struct{}{}
		}
		for _, m := range plateRefRe.FindAllStringSubmatch(trimmed, -1) {
			if imageExts[strings.ToLower(m[2])] {
				continue
			}
			plateIDs[m[1]] = struct{}{}
		}
	}
	return max(len(objects), plateTags, len(plateIDs))
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

const (
	maxNotes   = 5
	minNoteLen = 10
	maxNoteLen = 120
)

var (
	commentPrefixRe = regexp.MustCompile(`^;\s*`)
	printableRe     = regexp.MustCompile(`^[\x20-\x7E\s]+$`)
)

// notes collects a few readable comment lines for display.
func notes(d *Document) []string {
	var out []string
	for _, line := range d.Info {
		if len(out) == maxNotes {
			break
		}
		note := strings.TrimSpace(commentPrefixRe.ReplaceAllString(line, ""))
		if len(note) > minNoteLen && len(note) < maxNoteLen && printableRe.MatchString(note) {
			out = append(out, note)
		}
	}
	return out
}
