package chartdeep

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

//nolint:gochecknoglobals // Package-level compiled regexes for reuse
var (
	gridHexPrefix = regexp.MustCompile(`^#[0-9a-fA-F]{6}`)
	unitPattern   = regexp.MustCompile(`(?i)\$|USD|billion|trillion|%|bn|B\b`)
)

// extractTitle resolves the chart title across nesting styles. Object
// titles with a text member win, then title strings off the axis and
// encoding paths, then any text value long enough to be a caption.
func extractTitle(root value) string {
	for _, m := range deepFind(root, "title") {
		if m.val.kind != kindObject {
			continue
		}
		if text, ok := m.val.get("text"); ok && text.kind == kindString {
			if trimmed := strings.TrimSpace(text.str); utf8.RuneCountInString(trimmed) > 5 {
				return trimmed
			}
		}
	}

	for _, m := range deepFind(root, "title") {
		if m.val.kind != kindString {
			continue
		}
		pathLower := strings.ToLower(m.path)
		if strings.Contains(pathLower, "axis") || strings.Contains(pathLower, "encoding") {
			continue
		}
		if trimmed := strings.TrimSpace(m.val.str); utf8.RuneCountInString(trimmed) > 5 {
			return trimmed
		}
	}

	for _, m := range deepFind(root, "text") {
		if m.val.kind != kindString {
			continue
		}
		if trimmed := strings.TrimSpace(m.val.str); utf8.RuneCountInString(trimmed) > 10 {
			return trimmed
		}
	}

	return ""
}

// extractChartType returns the lowercased chart type. A type member only
// counts at the chart level; data rows frequently carry their own type
// fields that mean something else.
func extractChartType(root value) string {
	for _, key := range []string{"chart_type", "chartType"} {
		for _, m := range deepFind(root, key) {
			if m.val.kind == kindString {
				return strings.ToLower(m.val.str)
			}
		}
	}

	if top, ok := root.get("type"); ok && top.kind == kindString {
		switch lower := strings.ToLower(top.str); lower {
		case "bar", "line", "scatter", "area", "pie":
			return lower
		}
	}

	if chart, ok := root.get("chart"); ok && chart.kind == kindObject {
		if ct, found := chart.get("type"); found && ct.kind == kindString && ct.str != "" {
			return strings.ToLower(ct.str)
		}
	}

	// Vega-Lite: mark or mark.type
	if mark, ok := root.get("mark"); ok {
		if mark.kind == kindString {
			return strings.ToLower(mark.str)
		}
		if mark.kind == kindObject {
			if mt, found := mark.get("type"); found && mt.kind == kindString {
				return strings.ToLower(mt.str)
			}
			return ""
		}
	}

	return ""
}

// extractSource finds source attribution text, skipping schema URLs.
func extractSource(root value) string {
	for _, m := range deepFind(root, "source") {
		if m.val.kind != kindString {
			continue
		}
		s := strings.TrimSpace(m.val.str)
		if !strings.HasPrefix(s, "http") && utf8.RuneCountInString(s) > 3 {
			return s
		}
	}

	for _, m := range deepFind(root, "source") {
		if m.val.kind != kindObject {
			continue
		}
		for _, sub := range []string{"data", "text"} {
			if v, ok := m.val.get(sub); ok && v.kind == kindString {
				if trimmed := strings.TrimSpace(v.str); utf8.RuneCountInString(trimmed) > 3 {
					return trimmed
				}
			}
		}
	}

	if meta, ok := root.get("metadata"); ok && meta.kind == kindObject {
		if src, found := meta.get("source"); found && src.kind == kindString {
			if trimmed := strings.TrimSpace(src.str); utf8.RuneCountInString(trimmed) > 3 {
				return trimmed
			}
		}
	}

	return ""
}

// extractFonts gathers every font family string in the tree, normalized
// and sorted.
func extractFonts(root value) []string {
	fonts := map[string]struct{}{}
	for _, m := range deepFind(root, "family", "fontFamily", "font_family", "labelFont", "titleFont") {
		if m.val.kind == kindString {
			fonts[strings.ToLower(strings.TrimSpace(m.val.str))] = struct{}{}
		}
	}
	return sortedKeys(fonts)
}

// extractAspectRatio computes width/height from a "16:9" style string or
// the first width and height numbers found anywhere.
func extractAspectRatio(root value) (float64, bool) {
	for _, m := range deepFind(root, "aspect_ratio", "aspectRatio") {
		if m.val.kind != kindString {
			continue
		}
		parts := strings.Split(m.val.str, ":")
		if len(parts) != 2 {
			continue
		}
		w, errW := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		h, errH := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errW != nil || errH != nil || h == 0 {
			continue
		}
		return w / h, true
	}

	var width, height float64
	var haveWidth, haveHeight bool
	for _, m := range deepFind(root, "width") {
		if m.val.kind == kindNumber {
			width, haveWidth = m.val.num, true
			break
		}
	}
	for _, m := range deepFind(root, "height") {
		if m.val.kind == kindNumber {
			height, haveHeight = m.val.num, true
			break
		}
	}
	if haveWidth && haveHeight && height > 0 {
		return width / height, true
	}

	return 0, false
}

// sideState is the resolved visibility of one chart spine.
type sideState int

const (
	sideUnspecified sideState = iota
	sideOn
	sideOff
)

//nolint:gochecknoglobals // Read-only lookup table
var spineSides = []string{"top", "right", "bottom", "left"}

// extractSpines resolves spine visibility from the five configuration
// shapes seen in the wild: a spines object, removal lists, show_*_spine
// flags, a Vega-Lite view stroke, and bare spine booleans (which prove
// the aspect was addressed without saying which side).
func extractSpines(root value) (map[string]sideState, bool) {
	config := map[string]sideState{"top": sideUnspecified, "right": sideUnspecified, "bottom": sideUnspecified, "left": sideUnspecified}
	found := false

	for _, m := range deepFind(root, "spines") {
		if m.val.kind != kindObject {
			continue
		}
		for _, side := range spineSides {
			if v, ok := m.val.get(side); ok {
				config[side] = sideOff
				if v.truthy() {
					config[side] = sideOn
				}
				found = true
			}
		}
	}

	for _, m := range deepFind(root, "removeSpines", "removedElements", "hideSpines") {
		if m.val.kind != kindArray {
			continue
		}
		for _, item := range m.val.items {
			if item.kind != kindString {
				continue
			}
			side := strings.ToLower(item.str)
			if _, ok := config[side]; ok {
				config[side] = sideOff
				found = true
			}
		}
	}

	for _, key := range []string{"show_top_spine", "show_right_spine", "show_bottom_spine", "show_left_spine"} {
		side := strings.TrimSuffix(strings.TrimPrefix(key, "show_"), "_spine")
		for _, m := range deepFind(root, key) {
			if m.val.kind != kindBool {
				continue
			}
			config[side] = sideOff
			if m.val.boolean {
				config[side] = sideOn
			}
			found = true
		}
	}

	// view.stroke null or transparent removes the Vega-Lite border box,
	// and a view object with no stroke member reads the same way.
	for _, m := range deepFind(root, "view") {
		if m.val.kind != kindObject {
			continue
		}
		stroke, ok := m.val.get("stroke")
		if !ok || stroke.kind == kindNull || (stroke.kind == kindString && stroke.str == "transparent") {
			config["top"] = sideOff
			config["right"] = sideOff
			found = true
		}
	}

	for _, m := range deepFind(root, "spine") {
		if m.val.kind == kindBool {
			found = true
		}
	}

	if !found {
		return nil, false
	}
	return config, true
}

// extractGridColors collects gridline color strings that begin with a six
// digit hex code. The whole string is kept, so an eight digit RGBA value
// survives intact.
func extractGridColors(root value) []string {
	colors := map[string]struct{}{}
	for _, m := range deepFind(root, "gridColor", "gridline_color", "grid_color") {
		if m.val.kind == kindString && gridHexPrefix.MatchString(m.val.str) {
			colors[strings.ToLower(m.val.str)] = struct{}{}
		}
	}
	for _, m := range deepFind(root, "gridlines") {
		if m.val.kind != kindObject {
			continue
		}
		if c, ok := m.val.get("color"); ok && c.kind == kindString && gridHexPrefix.MatchString(c.str) {
			colors[strings.ToLower(c.str)] = struct{}{}
		}
	}
	return sortedKeys(colors)
}

// annotationCount counts annotation entries. A typed insight_annotation
// string counts as a single annotation.
func annotationCount(root value) int {
	for _, m := range deepFind(root, "annotations") {
		if m.val.kind == kindArray && len(m.val.items) > 0 {
			return len(m.val.items)
		}
	}
	for _, m := range deepFind(root, "annotations") {
		if m.val.kind != kindObject {
			continue
		}
		if insight, ok := m.val.get("insight_annotation"); ok && insight.kind == kindString && utf8.RuneCountInString(insight.str) > 3 {
			return 1
		}
	}
	for _, m := range deepFind(root, "insight_annotation") {
		if m.val.kind == kindString && utf8.RuneCountInString(m.val.str) > 3 {
			return 1
		}
	}
	return 0
}

// legendState is the resolved legend visibility.
type legendState int

const (
	legendUnknown legendState = iota
	legendShown
	legendHidden
)

// extractLegend resolves legend visibility. A legend of null or false
// hides it; a legend of true says nothing on its own and the search moves
// on to the explicit show flags.
func extractLegend(root value) legendState {
	for _, m := range deepFind(root, "legend") {
		switch m.val.kind {
		case kindNull:
			return legendHidden
		case kindBool:
			if !m.val.boolean {
				return legendHidden
			}
		}
	}

	for _, m := range deepFind(root, "showLegend", "show_legend") {
		if m.val.kind != kindBool {
			continue
		}
		if m.val.boolean {
			return legendShown
		}
		return legendHidden
	}

	for _, m := range deepFind(root, "legend") {
		if m.val.kind != kindObject {
			continue
		}
		show, ok := m.val.get("show")
		if !ok {
			show, ok = m.val.get("visible")
		}
		if !ok || show.truthy() {
			return legendShown
		}
		return legendHidden
	}

	return legendUnknown
}

// countDataPoints counts rows under the usual data layouts: a data array,
// Vega-Lite data.values, chart.data, or the first series.
func countDataPoints(root value) int {
	if data, ok := root.get("data"); ok {
		if data.kind == kindArray && len(data.items) > 0 {
			return len(data.items)
		}
		if data.kind == kindObject {
			vals, found := data.get("values")
			if !found {
				return 0
			}
			if vals.kind == kindArray {
				return len(vals.items)
			}
		}
	}

	chart, chartFound := root.get("chart")
	if !chartFound {
		return 0
	}
	if chart.kind == kindObject {
		d, found := chart.get("data")
		if !found {
			return 0
		}
		if d.kind == kindArray {
			return len(d.items)
		}
	}

	if series, ok := root.get("series"); ok && series.kind == kindArray && len(series.items) > 0 {
		first := series.items[0]
		if first.kind == kindObject {
			sd, found := first.get("data")
			if !found {
				return 0
			}
			if sd.kind == kindArray {
				return len(sd.items)
			}
		}
	}

	return 0
}

// countSeries counts distinct data series: an explicit series array, or
// the numeric columns of the first data row.
func countSeries(root value) int {
	if series, ok := root.get("series"); ok && series.kind == kindArray && len(series.items) > 0 {
		return len(series.items)
	}

	data, ok := root.get("data")
	if !ok {
		return 0
	}
	if data.kind == kindArray && len(data.items) > 0 && data.items[0].kind == kindObject {
		if n := numericFieldCount(data.items[0]); n > 0 {
			return n
		}
	}
	if data.kind == kindObject {
		if vals, found := data.get("values"); found && vals.kind == kindArray && len(vals.items) > 0 && vals.items[0].kind == kindObject {
			if n := numericFieldCount(vals.items[0]); n > 0 {
				return n
			}
		}
	}

	return 0
}

func numericFieldCount(row value) int {
	n := 0
	for _, m := range row.members {
		if m.val.kind != kindNumber {
			continue
		}
		switch strings.ToLower(m.key) {
		case "index", "id", "row", "highlight":
		default:
			n++
		}
	}
	return n
}

// extractHighlights reports highlight evidence two ways: flag entries for
// boolean highlight markers, typed highlight counts, and typed highlight
// colors, plus the distinct color strings attached to data rows.
func extractHighlights(root value) (flags, rowColors []string) {
	for _, m := range deepFind(root, "highlight") {
		if m.val.kind == kindBool && m.val.boolean {
			flags = append(flags, "data_flag")
		}
	}
	for _, m := range deepFind(root, "highlight_count") {
		if m.val.kind == kindNumber && m.val.isInt && m.val.num >= 1 {
			flags = append(flags, "typed_highlight_count")
		}
	}
	for _, m := range deepFind(root, "highlight_color") {
		if m.val.kind == kindString && utf8.RuneCountInString(m.val.str) > 3 {
			flags = append(flags, "typed_highlight_color")
		}
	}

	colors := map[string]struct{}{}
	collect := func(items []value) {
		for _, item := range items {
			if item.kind != kindObject {
				continue
			}
			if c, ok := item.get("color"); ok && c.kind == kindString && c.str != "" {
				colors[strings.ToLower(c.str)] = struct{}{}
			}
		}
	}
	if data, ok := root.get("data"); ok {
		if data.kind == kindArray {
			collect(data.items)
		}
		if data.kind == kindObject {
			if vals, found := data.get("values"); found && vals.kind == kindArray {
				collect(vals.items)
			}
		}
	}

	return flags, sortedKeys(colors)
}

// hasDataLabels reports whether any label configuration exists. Any
// labels member counts, even one that turns labels off: the aspect was
// addressed either way. Vega-Lite text-mark layers also count.
func hasDataLabels(root value) bool {
	for _, m := range deepFind(root, "labels", "dataLabels", "data_labels", "bar_values") {
		switch m.val.kind {
		case kindArray:
			if len(m.val.items) > 0 {
				return true
			}
		case kindBool, kindObject:
			return true
		}
	}

	for _, m := range deepFind(root, "layer") {
		if m.val.kind != kindArray {
			continue
		}
		for _, item := range m.val.items {
			if item.kind != kindObject {
				continue
			}
			mark, ok := item.get("mark")
			if !ok {
				continue
			}
			if mark.kind == kindObject {
				if mt, found := mark.get("type"); found && mt.kind == kindString && mt.str == "text" {
					return true
				}
			}
			if mark.kind == kindString && mark.str == "text" {
				return true
			}
		}
	}

	return false
}

// unitLocations reports where unit markers like $, %, or billion appear:
// title, subtitle, axis formats, or label formats. Axis-path title
// strings fold into the axis bucket.
func unitLocations(root value) []string {
	locations := map[string]struct{}{}

	if title := extractTitle(root); title != "" && unitPattern.MatchString(title) {
		locations["title"] = struct{}{}
	}

	for _, m := range deepFind(root, "subtitle") {
		if m.val.kind == kindString && unitPattern.MatchString(m.val.str) {
			locations["subtitle"] = struct{}{}
		}
	}

	for _, m := range deepFind(root, "label", "tickFormat", "format") {
		if m.val.kind == kindString && unitPattern.MatchString(m.val.str) {
			locations["axis"] = struct{}{}
		}
	}

	for _, m := range deepFind(root, "labels", "dataLabels") {
		if m.val.kind != kindObject {
			continue
		}
		if format, ok := m.val.get("format"); ok && format.kind == kindString && unitPattern.MatchString(format.str) {
			locations["labels"] = struct{}{}
		}
	}

	for _, m := range deepFind(root, "title") {
		if m.val.kind != kindString {
			continue
		}
		pathLower := strings.ToLower(m.path)
		if strings.Contains(pathLower, "axis") || strings.Contains(pathLower, "y") || strings.Contains(pathLower, "x") {
			if unitPattern.MatchString(m.val.str) {
				locations["axis"] = struct{}{}
			}
		}
	}

	return sortedKeys(locations)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
