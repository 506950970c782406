package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinMassGrams = 0.1
	MaxMassGrams = 5000

	// FilamentDiameterMM and FilamentDensity turn a filament length or
	// volume into grams.
	FilamentDiameterMM = 1.75
	FilamentDensity    = 1.25

	minLengthMM  = 100
	maxLengthMM  = 1_000_000
	maxVolumeCm3 = 5000
)

func massInBounds(v float64) bool {
	return v >= MinMassGrams && v <= MaxMassGrams
}

// MassStrategies returns the mass cascade in priority order.
func MassStrategies() []Strategy {
	return []Strategy{
		{Name: "gram_list", Find: massFromGramList},
		{Name: "keyword_grams", Find: massFromKeywordGrams},
		{Name: "filament_length", Find: massFromLength},
		{Name: "filament_volume", Find: massFromVolume},
	}
}

// "; filament used [g] = 100.00,50.00", "; total filament weight [g] : 12.3",
// and the JSON form found in 3MF project settings.
var gramListRe = regexp.MustCompile(`(?i)filament[ _](?:used|weight)\s*\[g\]"?\s*[=:]\s*"?([\d.,\s]+)`)

func massFromGramList(d *Document) (float64, bool) {
	for _, line := range d.Info {
		m := gramListRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sum, ok := sumList(m[1])
		if ok && massInBounds(sum) {
			return sum, true
		}
	}
	return 0, false
}

// sumList adds a comma separated list of numbers, ignoring empty items.
func sumList(s string) (float64, bool) {
	var sum float64
	n := 0
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		sum += v
		n++
	}
	return sum, n > 0
}

var (
	weightKeywords = []string{
		"filament used",
		"filament weight",
		"total filament used",
		"material weight",
		"weight",
		"total weight",
	}

	keywordGramsRe = regexp.MustCompile(`(?i)[:\s=](\d+(?:\.\d+)?)\s*(?:gramos|grams?|gr|g)(?:\s|,|;|$)`)

	// Matches stay on one line: a bare "g" after a newline is a G-code command.
	wholeTextGramsRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total[^\d\n]*(\d+(?:\.\d+)?)[ \t]*g(?:rams?)?\b`),
		regexp.MustCompile(`(?i)weight[^\d\n]*(\d+(?:\.\d+)?)[ \t]*g(?:rams?)?\b`),
		regexp.MustCompile(`(?i)filament[^\d\n]*(\d+(?:\.\d+)?)[ \t]*g(?:rams?)?\b`),
	}
)

func massFromKeywordGrams(d *Document) (float64, bool) {
	for _, kw := range weightKeywords {
		for _, line := range d.Info {
			if !strings.Contains(strings.ToLower(line), kw) {
				continue
			}
			m := keywordGramsRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && massInBounds(v) {
				return v, true
			}
		}
	}

	for _, re := range wholeTextGramsRe {
		for _, m := range re.FindAllStringSubmatch(d.Text, -1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && massInBounds(v) {
				return v, true
			}
		}
	}
	return 0, false
}

var (
	// "; total filament length [mm] : 83052.75", "; filament used [mm] = 1200,300",
	// "; filament used [m] = 1.2".
	lengthListRe = regexp.MustCompile(`(?i)filament[ _](?:length|used)\s*\[(mm|m)\]"?\s*[=:]\s*"?([\d.,\s]+)`)
	// Cura: ";Filament used: 2.1234m"
	curaLengthRe = regexp.MustCompile(`(?i)filament used:\s*(\d+(?:\.\d+)?)\s*m\b`)
)

// filamentLengthMM returns the first summed filament length in mm.
func filamentLengthMM(d *Document) (float64, bool) {
	for _, line := range d.Info {
		if m := lengthListRe.FindStringSubmatch(line); m != nil {
			sum, ok := sumList(m[2])
			if !ok {
				continue
			}
			if strings.EqualFold(m[1], "m") {
				sum *= 1000
			}
			return sum, true
		}
		if m := curaLengthRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v * 1000, true
			}
		}
	}
	return 0, false
}

// MassFromLength converts a filament length to grams.
func MassFromLength(lengthMM float64) float64 {
	r := FilamentDiameterMM / 2
	volumeCm3 := lengthMM * math.Pi * r * r / 1000
	return round2(volumeCm3 * FilamentDensity)
}

func massFromLength(d *Document) (float64, bool) {
	mm, ok := filamentLengthMM(d)
	if !ok || mm <= minLengthMM || mm >= maxLengthMM {
		return 0, false
	}
	v := MassFromLength(mm)
	return v, massInBounds(v)
}

var volumeRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cm(?:³|3)`)

func massFromVolume(d *Document) (float64, bool) {
	for _, line := range d.Info {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "filament") && !strings.Contains(lower, "material") {
			continue
		}
		m := volumeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		vol, err := strconv.ParseFloat(m[1], 64)
		if err != nil || vol <= 0 || vol > maxVolumeCm3 {
			continue
		}
		if v := round2(vol * FilamentDensity); massInBounds(v) {
			return v, true
		}
	}
	return 0, false
}
