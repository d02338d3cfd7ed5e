package chart

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// checkFunc evaluates one rule against the decoded chart object. The quick
// screen automates five rules of the full fifteen-rule rubric; the rest
// need a human looking at the rendered chart, so the IDs keep their
// original numbering.
type checkFunc func(chart map[string]any) (bool, string)

//nolint:gochecknoglobals // Read-only rule registry
var ruleTable = []struct {
	id    string
	title string
	check checkFunc
}{
	{id: "rule_5_title", title: "Title is a full sentence, not a label", check: checkTitle},
	{id: "rule_6_source", title: "Source attribution present and non-empty", check: checkSource},
	{id: "rule_9_y_zero", title: "Y-axis starts at zero on bar charts", check: checkYZero},
	{id: "rule_10_spines", title: "Top and right spines removed", check: checkSpines},
	{id: "rule_15_aspect", title: "Aspect ratio appropriate for the chart type", check: checkAspect},
}

func checkTitle(chart map[string]any) (bool, string) {
	text := titleText(chart)

	if text == "" {
		return false, "title text is empty"
	}
	if utf8.RuneCountInString(text) < 20 {
		return false, fmt.Sprintf("title too short (%d chars < 20)", utf8.RuneCountInString(text))
	}
	if strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), ":") {
		return false, "title ends with colon (label, not sentence)"
	}
	return true, "ok"
}

// checkSource accepts a source string, a source object with data or text,
// metadata.source, and a Vega-Lite subtitle that mentions a source.
func checkSource(chart map[string]any) (bool, string) {
	switch source := chart["source"].(type) {
	case string:
		if strings.TrimSpace(source) != "" {
			return true, "ok"
		}
	case map[string]any:
		data, ok := source["data"]
		if !ok {
			data = source["text"]
		}
		if s, ok := data.(string); ok && strings.TrimSpace(s) != "" {
			return true, "ok"
		}
	}

	if meta, ok := chart["metadata"].(map[string]any); ok {
		if s, ok := meta["source"].(string); ok && strings.TrimSpace(s) != "" {
			return true, "ok"
		}
	}

	// A present non-object config is the only thing that skips the
	// subtitle fallback.
	cfg, hasCfg := chart["config"]
	_, cfgIsObject := cfg.(map[string]any)
	if !hasCfg || cfgIsObject {
		if title, ok := chart["title"].(map[string]any); ok {
			if sub, ok := title["subtitle"].(string); ok && strings.Contains(strings.ToLower(sub), "source") {
				return true, "ok (in subtitle)"
			}
		}
	}

	return false, "source field missing or empty"
}

// checkYZero only applies to bar charts. A numeric min of zero or one, or
// any boolean min or beginAtZero, reads as anchored; a Vega-Lite
// scale.zero of false fails; anything else defers to review.
func checkYZero(chart map[string]any) (bool, string) {
	if chartTypeOf(chart) != "bar" {
		return true, "n/a (not bar chart)"
	}

	yAxis, found := chart["y_axis"]
	if !found {
		yAxis, found = chart["yAxis"]
	}
	axis, isObject := yAxis.(map[string]any)
	// The axes.y fallback is only consulted when an explicit y_axis value
	// was present but not an object.
	if found && !isObject {
		if axes, ok := chart["axes"].(map[string]any); ok {
			axis, isObject = axes["y"].(map[string]any)
		}
	}

	if isObject {
		yMin, found := axis["min"]
		if !found {
			yMin, found = axis["beginAtZero"]
		}
		if found && yMin != nil {
			switch v := yMin.(type) {
			case bool:
				return true, "ok (y starts at 0)"
			case float64:
				if v == 0 || v == 1 {
					return true, "ok (y starts at 0)"
				}
				return false, fmt.Sprintf("bar chart y_min=%s, should be 0", formatScalar(v))
			}
		}
	}

	if enc, ok := chart["encoding"].(map[string]any); ok {
		if y, ok := enc["y"].(map[string]any); ok {
			if scale, ok := y["scale"].(map[string]any); ok {
				if zero, found := scale["zero"]; found && (zero == false || zero == float64(0)) {
					return false, "bar chart scale.zero=false"
				}
			}
		}
	}

	return true, "needs_review (no explicit y config)"
}

func checkSpines(chart map[string]any) (bool, string) {
	if spines, ok := chart["spines"].(map[string]any); ok {
		if truthy(spines["top"]) || truthy(spines["right"]) {
			return false, "top/right spine enabled"
		}
	}
	if style, ok := chart["style"].(map[string]any); ok {
		if truthy(style["show_top_spine"]) || truthy(style["show_right_spine"]) {
			return false, "top/right spine enabled in style"
		}
	}
	return true, "needs_review (no explicit spine config)"
}

// checkAspect reads width and height from the layout object. Line charts
// must be wider than 1.2:1 and bar charts wider than 0.8:1; without
// dimensions an aspect_ratio field passes as declared intent.
func checkAspect(chart map[string]any) (bool, string) {
	chartType, _ := chart["chart_type"].(string)
	chartType = strings.ToLower(chartType)

	layoutVal, found := chart["layout"]
	if found {
		if _, ok := layoutVal.(map[string]any); !ok {
			return true, "needs_review (no layout)"
		}
	}
	layout, _ := layoutVal.(map[string]any)

	width, wOK := layout["width"].(float64)
	height, hOK := layout["height"].(float64)
	if !wOK || !hOK {
		if ratio, ok := layout["aspect_ratio"]; ok && truthy(ratio) {
			return true, "aspect_ratio specified: " + formatScalar(ratio)
		}
		return true, "needs_review (no dimensions)"
	}

	if height == 0 {
		return false, "height is 0"
	}

	ratio := width / height
	if chartType == "line" && ratio < 1.2 {
		return false, fmt.Sprintf("line chart ratio %.2f < 1.2 (should be wider)", ratio)
	}
	if chartType == "bar" && ratio < 0.8 {
		return false, fmt.Sprintf("bar chart ratio %.2f < 0.8", ratio)
	}
	return true, fmt.Sprintf("ratio=%.2f", ratio)
}
