package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MaxDurationHours = 200
	maxMinutes       = 12000
)

func durationInBounds(h float64) bool {
	return h > 0 && h <= MaxDurationHours
}

var timeKeywords = []string{
	"estimated printing time",
	"print time",
	"estimated time",
	"total time",
	"printing time",
	"time",
	"model printing time",
}

// DurationStrategies returns the duration cascade in priority order.
func DurationStrategies() []Strategy {
	return []Strategy{
		{Name: "hours_minutes", Find: durationFromHoursMinutes},
		{Name: "decimal_hours", Find: durationFromDecimalHours},
		{Name: "minutes", Find: durationFromMinutes},
		{Name: "seconds", Find: durationFromSeconds},
	}
}

// keywordTails yields, for each keyword in order, every informative line
// containing it together with the lowercased part after the keyword.
func keywordTails(d *Document, fn func(line, tail string) bool) {
	for _, kw := range timeKeywords {
		for _, line := range d.Info {
			lower := strings.ToLower(line)
			i := strings.Index(lower, kw)
			if i < 0 {
				continue
			}
			if fn(line, lower[i+len(kw):]) {
				return
			}
		}
	}
}

var hoursMinutesRe = regexp.MustCompile(`(?i)(?:(\d+)\s*d(?:ays?)?\s+)?(\d+)\s*h(?:ours?)?\s+(\d+)\s*m(?:in)?`)

func durationFromHoursMinutes(d *Document) (float64, bool) {
	var hours float64
	found := false
	keywordTails(d, func(line, tail string) bool {
		m := hoursMinutesRe.FindStringSubmatch(tail)
		if m == nil {
			return false
		}
		days, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		v := round2(float64(days*24+h) + float64(mins)/60)
		if !durationInBounds(v) {
			return false
		}
		hours, found = v, true
		return true
	})
	return hours, found
}

var decimalHoursRe = regexp.MustCompile(`(?i)(?:^|[^\d.])(\d+(?:\.\d+)?)\s*h(?:ours?|rs?)?\b`)

func durationFromDecimalHours(d *Document) (float64, bool) {
	var hours float64
	found := false
	keywordTails(d, func(line, tail string) bool {
		for _, m := range decimalHoursRe.FindAllStringSubmatch(tail, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || !durationInBounds(v) {
				continue
			}
			hours, found = round2(v), true
			return true
		}
		return false
	})
	return hours, found
}

var minutesRe = regexp.MustCompile(`(?i)(?:^|[^\d.])(\d+)\s*m(?:in(?:utes?)?)?\b`)

// durationFromMinutes skips lines mentioning "mm" so lengths are not read
// as minutes.
func durationFromMinutes(d *Document) (float64, bool) {
	var hours float64
	found := false
	keywordTails(d, func(line, tail string) bool {
		if strings.Contains(strings.ToLower(line), "mm") {
			return false
		}
		for _, m := range minutesRe.FindAllStringSubmatch(tail, -1) {
			mins, err := strconv.Atoi(m[1])
			if err != nil || mins <= 0 || mins > maxMinutes {
				continue
			}
			hours, found = round2(float64(mins)/60), true
			return true
		}
		return false
	})
	return hours, found
}

// Cura: ";TIME:6520"
var secondsRe = regexp.MustCompile(`(?i)^;\s*time:\s*(\d+(?:\.\d+)?)\s*$`)

func durationFromSeconds(d *Document) (float64, bool) {
	for _, line := range d.Info {
		m := secondsRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		s, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v := round2(s / 3600); durationInBounds(v) {
			return v, true
		}
	}
	return 0, false
}
