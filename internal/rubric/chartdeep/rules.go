package chartdeep

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/rubric"
)

const (
	verdictPass   = "pass"
	verdictFail   = "fail"
	verdictAbsent = "absent"
)

// checkFunc evaluates one rule and returns a three-valued verdict with a
// detail string. Absent means the chart never addressed the aspect, which
// scores zero but is tallied apart from an outright fail.
type checkFunc func(chart value) (verdict, detail string)

//nolint:gochecknoglobals // Read-only rule registry
var ruleTable = []struct {
	id    string
	title string
	check checkFunc
}{
	{id: "rule_01", title: "Data colors muted or from the Economist palette", check: checkMutedPalette},
	{id: "rule_02", title: "At most two highlighted or accent-colored points", check: checkOneHighlight},
	{id: "rule_03", title: "Red and green families never mixed", check: checkNoRedGreen},
	{id: "rule_04", title: "Colors used consistently across charts", check: checkConsistentColors},
	{id: "rule_05", title: "Title states an insight as a full sentence", check: checkTitleSentence},
	{id: "rule_06", title: "Source attribution concrete and present", check: checkSourcePresent},
	{id: "rule_07", title: "Sans-serif font families only", check: checkSansSerif},
	{id: "rule_08", title: "Data labels configured for small datasets", check: checkDataLabels},
	{id: "rule_09", title: "Bar chart y-axis anchored at zero", check: checkYZeroBars},
	{id: "rule_10", title: "Top and right spines removed", check: checkTopRightSpines},
	{id: "rule_11", title: "Gridlines light or disabled", check: checkSubtleGridlines},
	{id: "rule_12", title: "Units not repeated across three locations", check: checkRedundantUnits},
	{id: "rule_13", title: "Key insight annotated or highlighted", check: checkKeyInsight},
	{id: "rule_14", title: "Legend only when more than three series", check: checkLegend},
	{id: "rule_15", title: "Aspect ratio fits the chart type", check: checkAspectRatio},
}

func checkMutedPalette(chart value) (string, string) {
	colors := dataColors(chart)
	if len(colors) == 0 {
		return verdictAbsent, "no data colors found"
	}

	var bad []string
	for _, c := range colors {
		if isNeonOrPrimary(c) {
			bad = append(bad, c)
		}
	}
	if len(bad) > 0 {
		return verdictFail, "neon/primary colors: " + strings.Join(bad, ", ")
	}

	var saturated []string
	for _, c := range colors {
		if !isMuted(c) {
			saturated = append(saturated, c)
		}
	}
	if len(saturated) > 0 {
		return verdictFail, "saturated colors: " + strings.Join(saturated, ", ")
	}

	return verdictPass, fmt.Sprintf("%d muted colors", len(colors))
}

// checkOneHighlight tolerates up to two accent colors in data rows and up
// to two highlight flags. The two grays of the house palette never count
// as accents.
func checkOneHighlight(chart value) (string, string) {
	flags, rowColors := extractHighlights(chart)

	if len(rowColors) > 1 {
		var nonGray []string
		for _, c := range rowColors {
			if !strings.HasPrefix(c, "#5d") && !strings.HasPrefix(c, "#d0") {
				nonGray = append(nonGray, c)
			}
		}
		if len(nonGray) > 2 {
			return verdictFail, fmt.Sprintf("%d distinct accent colors in data", len(nonGray))
		}
	}

	if len(flags) > 2 {
		return verdictFail, fmt.Sprintf("%d data points flagged as highlight", len(flags))
	}

	if len(flags) > 0 || annotationCount(chart) > 0 || len(rowColors) > 0 {
		return verdictPass, "highlight/accent present and <=2"
	}

	return verdictAbsent, "no highlight data found"
}

func checkNoRedGreen(chart value) (string, string) {
	colors := dataColors(chart)
	if len(colors) == 0 {
		return verdictAbsent, "no colors to evaluate"
	}

	var reds, greens []string
	for _, c := range colors {
		if isRedFamily(c) {
			reds = append(reds, c)
		}
		if isGreenFamily(c) {
			greens = append(greens, c)
		}
	}
	if len(reds) > 0 && len(greens) > 0 {
		return verdictFail, fmt.Sprintf("red (%s) + green (%s) both present",
			strings.Join(reds, ", "), strings.Join(greens, ", "))
	}

	return verdictPass, "no red+green conflict"
}

// checkConsistentColors needs at least two charts to compare, and a run
// produces exactly one.
func checkConsistentColors(_ value) (string, string) {
	return verdictPass, "single chart (auto-pass)"
}

//nolint:gochecknoglobals // Read-only lookup tables
var labelTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Za-z\s]+ by [A-Z]`),
	regexp.MustCompile(`^[A-Z][A-Za-z\s]+ of [A-Z]`),
	regexp.MustCompile(`^[A-Z][A-Za-z\s]+ for [A-Z]`),
}

// insightWords are stems whose presence marks a title as stating a
// finding rather than naming a dataset.
//
//nolint:gochecknoglobals // Read-only lookup tables
var insightWords = []string{
	"remain", "overtook", "surpass", "grew", "decline", "lead",
	"gap", "largest", "smallest", "most", "dominat", "ahead",
	"behind", "slower", "faster", "exceed", "near", "close",
	"catching", "roughly", "approximately", "almost", "still",
	"despite", "while", "although", "but", "yet", "however",
	"significantly", "doubled", "tripled", "half", "twice",
	"why", "how", "matter", "impact", "shift", "chang",
	"continu", "emerg", "fall", "rise", "climb", "drop",
	"surge", "plummet", "stag",
}

func checkTitleSentence(chart value) (string, string) {
	text := extractTitle(chart)
	if text == "" {
		return verdictAbsent, "no title found"
	}

	n := utf8.RuneCountInString(text)
	if n < 20 {
		return verdictFail, fmt.Sprintf("title too short (%d chars): '%s'", n, text)
	}
	if strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), ":") {
		return verdictFail, fmt.Sprintf("title ends with colon (label style): '%s'", text)
	}

	textLower := strings.ToLower(text)
	hasInsight := false
	for _, w := range insightWords {
		if strings.Contains(textLower, w) {
			hasInsight = true
			break
		}
	}

	// Past thirty characters it reads as a sentence even without a
	// recognizable insight stem.
	if n > 30 || hasInsight {
		return verdictPass, fmt.Sprintf("insight title (%d chars)", n)
	}

	for _, p := range labelTitlePatterns {
		if p.MatchString(text) {
			return verdictFail, fmt.Sprintf("label-style title: '%s'", text)
		}
	}

	return verdictPass, fmt.Sprintf("title present (%d chars)", n)
}

//nolint:gochecknoglobals // Read-only lookup tables
var vagueSources = map[string]struct{}{
	"various sources":  {},
	"multiple sources": {},
	"see references":   {},
	"internet":         {},
	"online":           {},
}

func checkSourcePresent(chart value) (string, string) {
	source := extractSource(chart)
	if source == "" {
		return verdictAbsent, "no source field found anywhere"
	}

	if _, vague := vagueSources[strings.TrimSpace(strings.ToLower(source))]; vague {
		return verdictFail, fmt.Sprintf("vague source: '%s'", source)
	}

	return verdictPass, fmt.Sprintf("source: '%s'", rubric.Truncate(source, 60))
}

func checkSansSerif(chart value) (string, string) {
	fonts := extractFonts(chart)
	if len(fonts) == 0 {
		return verdictAbsent, "no font specified"
	}

	var bad []string
	for _, f := range fonts {
		if !isSansSerif(f) {
			bad = append(bad, f)
		}
	}
	if len(bad) > 0 {
		return verdictFail, "serif fonts: " + strings.Join(bad, ", ")
	}

	shown := fonts
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return verdictPass, "sans-serif: " + strings.Join(shown, ", ")
}

func checkDataLabels(chart value) (string, string) {
	points := countDataPoints(chart)
	if points == 0 {
		return verdictAbsent, "can't determine data count"
	}

	if points <= 8 {
		if hasDataLabels(chart) {
			return verdictPass, fmt.Sprintf("%d points with labels configured", points)
		}
		return verdictFail, fmt.Sprintf("%d points but no label config", points)
	}

	return verdictPass, fmt.Sprintf("%d points (>8, labels optional)", points)
}

func checkYZeroBars(chart value) (string, string) {
	chartType := extractChartType(chart)
	if chartType != "bar" {
		if chartType == "" {
			chartType = "unknown"
		}
		return verdictPass, fmt.Sprintf("n/a (chart type: %s)", chartType)
	}

	for _, m := range deepFind(chart, "min", "y_min") {
		if m.val.kind != kindNumber {
			continue
		}
		if m.val.num == 0 {
			return verdictPass, "y min=0"
		}
		return verdictFail, fmt.Sprintf("y min=%s, should be 0", formatNumber(m.val))
	}

	for _, m := range deepFind(chart, "domain") {
		if m.val.kind != kindArray || len(m.val.items) == 0 {
			continue
		}
		first := m.val.items[0]
		if first.kind != kindNumber {
			continue
		}
		if first.num == 0 {
			return verdictPass, "y domain starts at 0"
		}
		return verdictFail, fmt.Sprintf("y domain starts at %s", formatNumber(first))
	}

	for _, m := range deepFind(chart, "zero") {
		if m.val.kind != kindBool {
			continue
		}
		if m.val.boolean {
			return verdictPass, "scale.zero=true"
		}
		return verdictFail, "scale.zero=false"
	}

	for _, m := range deepFind(chart, "beginAtZero") {
		if m.val.kind != kindBool {
			continue
		}
		if m.val.boolean {
			return verdictPass, "beginAtZero=true"
		}
		return verdictFail, "beginAtZero=false"
	}

	return verdictAbsent, "bar chart with no explicit y-axis config"
}

func checkTopRightSpines(chart value) (string, string) {
	config, found := extractSpines(chart)
	if !found {
		return verdictAbsent, "no spine config found"
	}

	top := config["top"]
	right := config["right"]

	if top == sideOff && right == sideOff {
		return verdictPass, "top+right spines removed"
	}

	if top == sideOn || right == sideOn {
		var sides []string
		if top == sideOn {
			sides = append(sides, "top")
		}
		if right == sideOn {
			sides = append(sides, "right")
		}
		return verdictFail, "spine enabled: " + strings.Join(sides, ", ")
	}

	if top == sideOff || right == sideOff {
		return verdictPass, "spine removal partially specified"
	}

	return verdictAbsent, "spine config exists but unclear"
}

func checkSubtleGridlines(chart value) (string, string) {
	gridColors := extractGridColors(chart)

	if len(gridColors) == 0 {
		for _, m := range deepFind(chart, "gridOpacity") {
			if m.val.kind != kindNumber {
				continue
			}
			if m.val.num <= 0.5 {
				return verdictPass, fmt.Sprintf("grid opacity=%s (subtle)", formatNumber(m.val))
			}
			return verdictFail, fmt.Sprintf("grid opacity=%s (not subtle)", formatNumber(m.val))
		}

		for _, m := range deepFind(chart, "gridlines") {
			if m.val.kind == kindBool && !m.val.boolean {
				return verdictPass, "gridlines disabled"
			}
		}

		return verdictAbsent, "no grid color specified"
	}

	var dark []string
	for _, c := range gridColors {
		if !isLightColor(c) {
			dark = append(dark, c)
		}
	}
	if len(dark) > 0 {
		return verdictFail, "dark grid colors: " + strings.Join(dark, ", ")
	}

	return verdictPass, "subtle grid colors: " + strings.Join(gridColors, ", ")
}

func checkRedundantUnits(chart value) (string, string) {
	locations := unitLocations(chart)

	if len(locations) < 2 {
		return verdictAbsent, fmt.Sprintf("unit in %d location(s) — insufficient data", len(locations))
	}

	if len(locations) >= 3 {
		return verdictFail, fmt.Sprintf("unit appears in %d places: %s", len(locations), strings.Join(locations, ", "))
	}

	return verdictPass, fmt.Sprintf("unit in %d locations: %s", len(locations), strings.Join(locations, ", "))
}

func checkKeyInsight(chart value) (string, string) {
	if n := annotationCount(chart); n > 0 {
		return verdictPass, fmt.Sprintf("%d annotation(s)", n)
	}

	flags, rowColors := extractHighlights(chart)
	if len(flags) > 0 {
		return verdictPass, fmt.Sprintf("%d highlight flag(s)", len(flags))
	}

	if len(rowColors) > 1 {
		shown := rowColors
		if len(shown) > 3 {
			shown = shown[:3]
		}
		return verdictPass, "accent colors in data: " + strings.Join(shown, ", ")
	}

	if series, ok := chart.get("series"); ok && series.kind == kindArray && len(series.items) > 0 {
		return verdictPass, "series with color differentiation"
	}

	return verdictFail, "no annotations, highlights, or emphasis found"
}

func checkLegend(chart value) (string, string) {
	series := countSeries(chart)
	legend := extractLegend(chart)

	if series == 0 {
		return verdictAbsent, "can't determine series count"
	}

	if series <= 3 {
		if legend == legendHidden || legend == legendUnknown {
			return verdictPass, fmt.Sprintf("%d series, no legend (correct)", series)
		}
		if series == 3 {
			return verdictPass, "3 series with legend (acceptable)"
		}
		return verdictFail, fmt.Sprintf("%d series with legend (should use direct labels)", series)
	}

	switch legend {
	case legendShown:
		return verdictPass, fmt.Sprintf("%d series with legend (correct)", series)
	case legendHidden:
		return verdictFail, fmt.Sprintf("%d series without legend", series)
	}
	return verdictAbsent, fmt.Sprintf("%d series, legend config unclear", series)
}

func checkAspectRatio(chart value) (string, string) {
	ratio, found := extractAspectRatio(chart)
	if !found {
		return verdictAbsent, "no dimensions found"
	}

	switch extractChartType(chart) {
	case "line":
		if ratio >= 1.2 {
			return verdictPass, fmt.Sprintf("line chart ratio %.2f >= 1.2", ratio)
		}
		return verdictFail, fmt.Sprintf("line chart ratio %.2f < 1.2 (should be wider)", ratio)
	case "bar":
		if ratio >= 0.8 && ratio <= 2.5 {
			return verdictPass, fmt.Sprintf("bar chart ratio %.2f in [0.8, 2.5]", ratio)
		}
		return verdictFail, fmt.Sprintf("bar chart ratio %.2f outside [0.8, 2.5]", ratio)
	}

	if ratio >= 0.5 && ratio <= 3.0 {
		return verdictPass, fmt.Sprintf("ratio %.2f (acceptable)", ratio)
	}
	return verdictFail, fmt.Sprintf("ratio %.2f (extreme)", ratio)
}

// formatNumber renders a JSON number for a detail string. Whole-number
// literals print bare; float literals keep their decimal point.
func formatNumber(v value) string {
	if v.isInt {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return rubric.FormatFloat(v.num)
}
