package chart

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// minDenialJSON is the shortest denied write content considered a chart
// spec candidate. Shorter denials are path fragments or stub objects.
const minDenialJSON = 50

// Fallback chain for locating the chart JSON inside unwrapped output:
// denied writes first (any tool, as long as the content parses to an object
// that looks like a chart), then the first json-tagged fence, then the
// first bare fence, then the whole text, then the first balanced brace
// block. Each candidate must decode to a JSON object to win.
var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*\n(.*?)\n\\s*```"),
	regexp.MustCompile("(?s)```\\s*\n(.*?)\n\\s*```"),
}

// locate finds the chart specification inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if env.Raw() == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	for _, d := range env.Denials {
		if utf8.RuneCountInString(d.Content) <= minDenialJSON {
			continue
		}
		obj, ok := decodeObject(d.Content)
		if !ok {
			continue
		}
		_, hasType := obj["chart_type"]
		_, hasTitle := obj["title"]
		if !hasType && !hasTitle {
			continue
		}
		return domain.ExtractedArtifact{Content: d.Content, Method: domain.MethodPermissionDenials}
	}

	text := env.Text
	for _, pattern := range fencePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if _, ok := decodeObject(m[1]); ok {
			return domain.ExtractedArtifact{Content: strings.TrimSpace(m[1]), Method: domain.MethodFencedBlock}
		}
	}

	if _, ok := decodeObject(text); ok {
		return domain.ExtractedArtifact{Content: strings.TrimSpace(text), Method: domain.MethodPlainText}
	}

	if block, ok := firstBraceBlock(text); ok {
		if _, ok := decodeObject(block); ok {
			return domain.ExtractedArtifact{Content: block, Method: domain.MethodHeuristic}
		}
	}

	return domain.ExtractedArtifact{
		Method: domain.MethodNone,
		Failed: true,
		Error:  "could not extract valid JSON",
	}
}

// decodeObject parses a candidate as a JSON object. Scalars, arrays, and
// null are rejected.
func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// firstBraceBlock returns the first balanced top-level brace block of the
// text. Braces inside string values are counted too; candidates that fail
// to decode because of that are not rescanned.
func firstBraceBlock(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
