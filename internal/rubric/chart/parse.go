package chart

import (
	"strconv"
	"strings"
)

// validateSchema checks that the essential chart fields are present under
// any of their accepted spellings. Title and data are membership checks;
// source accepts metadata.source, and any spec carrying a config object is
// taken as Vega-Lite and waved through; chart type accepts a mark field.
func validateSchema(chart map[string]any) (bool, []string) {
	var errs []string

	if _, ok := chart["title"]; !ok {
		errs = append(errs, "missing title field")
	}

	hasSource := false
	if _, ok := chart["source"]; ok {
		hasSource = true
	} else if meta, ok := chart["metadata"].(map[string]any); ok {
		_, hasSource = meta["source"]
	}
	if !hasSource {
		if _, ok := chart["config"].(map[string]any); ok {
			hasSource = true
		}
	}
	if !hasSource {
		errs = append(errs, "missing source field")
	}

	hasType := false
	for _, key := range []string{"chart_type", "chartType", "type"} {
		if _, ok := chart[key]; ok {
			hasType = true
			break
		}
	}
	if !hasType {
		if mark, ok := chart["mark"]; ok && mark != nil {
			hasType = true
		}
	}
	if !hasType {
		errs = append(errs, "missing chart type field")
	}

	_, hasData := chart["data"]
	if !hasData {
		_, hasData = chart["series"]
	}
	if !hasData {
		errs = append(errs, "missing data field")
	}

	return len(errs) == 0, errs
}

// titleText recovers the title string from either a plain string or a
// title object with a text field.
func titleText(chart map[string]any) string {
	switch title := chart["title"].(type) {
	case string:
		return title
	case map[string]any:
		text, _ := title["text"].(string)
		return text
	}
	return ""
}

// chartTypeOf normalizes the chart type across the accepted spellings,
// including Vega-Lite mark strings and mark objects.
func chartTypeOf(chart map[string]any) string {
	for _, key := range []string{"chart_type", "chartType", "type"} {
		if s, ok := chart[key].(string); ok && s != "" {
			return strings.ToLower(s)
		}
	}
	switch mark := chart["mark"].(type) {
	case string:
		return strings.ToLower(mark)
	case map[string]any:
		s, _ := mark["type"].(string)
		return strings.ToLower(s)
	}
	return ""
}

// truthy mirrors the flag semantics of the spine and ratio checks: false,
// zero, empty string, empty container, and null all read as off.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

// formatScalar renders a decoded JSON value for a detail string. Whole
// numbers drop the decimal point.
func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	}
	return ""
}
