package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// 15/05/2025, 15-05-25, 15.05.2025 14:30, 15/05/2025 à 14h30
	dmyPattern = regexp.MustCompile(
		`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})(?:(?:\s+a\s+|\s+|t)(\d{1,2})[:h](\d{2}))?$`,
	)

	// 3 hours ago, 1 day ago
	agoPattern = regexp.MustCompile(`^(\d+)\s*(\pL+)\s+ago$`)

	// il y a 3 heures
	ilYaPattern = regexp.MustCompile(`^il y a\s+(\d+)\s*(\pL+)$`)

	// 30min, 2h, 3j
	compactPattern = regexp.MustCompile(`^(\d+)\s*(\pL+)$`)
)

// isoLayouts are tried before the display forms.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// unitDurations maps every accepted unit word to its length.
var unitDurations = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"hour": time.Hour, "hours": time.Hour, "heure": time.Hour, "heures": time.Hour,
	"d": 24 * time.Hour, "j": 24 * time.Hour,
	"day": 24 * time.Hour, "days": 24 * time.Hour, "jour": 24 * time.Hour, "jours": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "s": 7 * 24 * time.Hour, "sem": 7 * 24 * time.Hour,
	"week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"semaine": 7 * 24 * time.Hour, "semaines": 7 * 24 * time.Hour,
}

// normalizeDateText lowercases, folds accents and typographic apostrophes
// and collapses whitespace.
func normalizeDateText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "’", "'")
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseCreatedAt converts the heterogeneous createdAt text into a
// timestamp anchored at now. "today" and "yesterday" resolve to the start
// of their day so that relative forms within today sort after them.
// ok is false for text no rule recognises.
func ParseCreatedAt(text string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, true
		}
	}

	s := normalizeDateText(raw)

	switch s {
	case "just now", "now", "a l'instant", "maintenant":
		return now, true
	case "today", "aujourd'hui":
		return startOfDay(now), true
	case "yesterday", "hier":
		return startOfDay(now.AddDate(0, 0, -1)), true
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		return parseDMY(m, now.Location())
	}

	for _, p := range []*regexp.Regexp{agoPattern, ilYaPattern, compactPattern} {
		if m := p.FindStringSubmatch(s); m != nil {
			return relative(m[1], m[2], now)
		}
	}

	return time.Time{}, false
}

// parseDMY builds a date from dmyPattern groups, rejecting impossible
// calendar dates such as 31/02.
func parseDMY(m []string, loc *time.Location) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// relative resolves "N unit" against now.
func relative(count, unit string, now time.Time) (time.Time, bool) {
	n, err := strconv.Atoi(count)
	if err != nil {
		return time.Time{}, false
	}
	d, ok := unitDurations[unit]
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * d), true
}
