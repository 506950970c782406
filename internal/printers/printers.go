// Package printers maps printer names found in slicer output to a typical
// power draw.
package printers

import (
	"regexp"
	"sort"
	"strings"
)

// Entry is one row of the reference table. MatchKey is normalized.
type Entry struct {
	MatchKey string  `json:"match_key"`
	Watts    float64 `json:"watts"`
	Brand    string  `json:"brand"`
	FullName string  `json:"full_name"`
}

// MatchKind records which lookup step produced a match.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchBrand     MatchKind = "brand"
)

// Match is a lookup result.
type Match struct {
	Entry
	Via MatchKind `json:"via"`
}

// Brand maps a brand pattern to the model used when only the brand is known.
type Brand struct {
	Name         string
	Pattern      *regexp.Regexp
	DefaultModel string
}

// Table is an immutable power reference. Build it once and share it.
type Table struct {
	entries []Entry
	byKey   map[string]int
	brands  []Brand
}

// NewTable builds a table. Entry keys are normalized; later duplicates are
// ignored.
func NewTable(entries []Entry, brands []Brand) *Table {
	t := &Table{byKey: make(map[string]int, len(entries)), brands: brands}
	for _, e := range entries {
		e.MatchKey = Normalize(e.MatchKey)
		if _, ok := t.byKey[e.MatchKey]; ok || e.MatchKey == "" {
			continue
		}
		t.byKey[e.MatchKey] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t
}

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	detectedRe = regexp.MustCompile(`(?i)\s*\(detected\)\s*$`)
	nozzleRe   = regexp.MustCompile(`(?i)[\s(,-]*\d+(?:\.\d+)?\s*(?:mm\s*nozzle|mm|nozzle)\)?\s*$`)
)

// Normalize lowercases name and collapses whitespace.
func Normalize(name string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

// Clean strips a "(detected)" qualifier and trailing nozzle-size noise such
// as "0.4mm Nozzle" or "0.6 nozzle".
func Clean(name string) string {
	name = detectedRe.ReplaceAllString(name, "")
	name = nozzleRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// minReverseLen is the shortest input allowed to match inside a longer key.
const minReverseLen = 3

// Lookup resolves name in order: exact key, key contained in the name
// (longest key wins), name contained in a key (shortest key wins), brand
// pattern. It returns false when nothing matches.
func (t *Table) Lookup(name string) (Match, bool) {
	key := Normalize(Clean(name))
	if key == "" {
		return Match{}, false
	}

	if i, ok := t.byKey[key]; ok {
		return Match{Entry: t.entries[i], Via: MatchExact}, true
	}

	if e, ok := t.substring(key); ok {
		return Match{Entry: e, Via: MatchSubstring}, true
	}

	for _, b := range t.brands {
		if !b.Pattern.MatchString(key) {
			continue
		}
		if i, ok := t.byKey[Normalize(b.DefaultModel)]; ok {
			return Match{Entry: t.entries[i], Via: MatchBrand}, true
		}
	}
	return Match{}, false
}

func (t *Table) substring(key string) (Entry, bool) {
	best := -1
	for i, e := range t.entries {
		if strings.Contains(key, e.MatchKey) {
			if best < 0 || len(e.MatchKey) > len(t.entries[best].MatchKey) {
				best = i
			}
		}
	}
	if best >= 0 {
		return t.entries[best], true
	}

	if len(key) < minReverseLen {
		return Entry{}, false
	}
	for i, e := range t.entries {
		if strings.Contains(e.MatchKey, key) {
			if best < 0 || len(e.MatchKey) < len(t.entries[best].MatchKey) {
				best = i
			}
		}
	}
	if best >= 0 {
		return t.entries[best], true
	}
	return Entry{}, false
}

// GuessBrand sniffs text for a brand keyword and returns the brand's
// representative model.
func (t *Table) GuessBrand(text string) (Brand, Entry, bool) {
	lower := strings.ToLower(text)
	for _, b := range t.brands {
		if !b.Pattern.MatchString(lower) {
			continue
		}
		if i, ok := t.byKey[Normalize(b.DefaultModel)]; ok {
			return b, t.entries[i], true
		}
	}
	return Brand{}, Entry{}, false
}

// Entries returns a copy of the table sorted by brand then name.
func (t *Table) Entries() []Entry {
	out := append([]Entry(nil), t.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].FullName < out[j].FullName
	})
	return out
}

// Search returns entries whose brand or name contains q, case-insensitively.
// An empty query returns every entry.
func (t *Table) Search(q string) []Entry {
	q = Normalize(q)
	all := t.Entries()
	if q == "" {
		return all
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(e.MatchKey, q) || strings.Contains(strings.ToLower(e.Brand), q) {
			out = append(out, e)
		}
	}
	return out
}
