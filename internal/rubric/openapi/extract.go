package openapi

import (
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// Fallback chain for locating the OpenAPI document inside unwrapped output.
// The assistant text is tried first, then the longest denied write content;
// per candidate: tagged fences (json, yaml, yml, then untagged), a direct
// JSON parse, a direct YAML parse gated on an openapi or paths key, and
// finally the first balanced brace block.
var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*\n(.*?)\n\\s*```"),
	regexp.MustCompile("(?s)```yaml\\s*\n(.*?)\n\\s*```"),
	regexp.MustCompile("(?s)```yml\\s*\n(.*?)\n\\s*```"),
	regexp.MustCompile("(?s)```\\s*\n(.*?)\n\\s*```"),
}

// locate finds the OpenAPI spec inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if env.Raw() == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	candidates := []struct {
		text   string
		method string
	}{
		{env.Text, domain.MethodPlainText},
	}
	if content, ok := env.DenialContent(); ok {
		candidates = append(candidates, struct {
			text   string
			method string
		}{content, domain.MethodPermissionDenials})
	}

	for _, cand := range candidates {
		if cand.text == "" {
			continue
		}
		if art, ok := locateIn(cand.text, cand.method); ok {
			return art
		}
	}

	return domain.ExtractedArtifact{
		Method: domain.MethodNone,
		Failed: true,
		Error:  "could not extract valid JSON or YAML spec",
	}
}

// locateIn runs the per-candidate stages of the chain. directMethod tags a
// whole-candidate win so denial recoveries stay distinguishable from
// assistant text in the audit trail.
func locateIn(text, directMethod string) (domain.ExtractedArtifact, bool) {
	for _, pattern := range fencePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if specObject(m[1]) {
			return domain.ExtractedArtifact{
				Content: strings.TrimSpace(m[1]),
				Method:  fenceMethod(directMethod),
			}, true
		}
	}

	if _, ok := decodeJSONObject(text); ok {
		return domain.ExtractedArtifact{Content: strings.TrimSpace(text), Method: directMethod}, true
	}

	if v, ok := decodeYAMLObject(text); ok {
		if v.has("openapi") || v.has("paths") {
			return domain.ExtractedArtifact{Content: strings.TrimSpace(text), Method: directMethod}, true
		}
	}

	if block, ok := firstBraceBlock(text); ok {
		if _, jsonOK := decodeJSONObject(block); jsonOK {
			return domain.ExtractedArtifact{Content: block, Method: domain.MethodHeuristic}, true
		}
	}

	return domain.ExtractedArtifact{}, false
}

// fenceMethod keeps the denial tag when the fence was found inside denied
// write content rather than assistant text.
func fenceMethod(directMethod string) string {
	if directMethod == domain.MethodPermissionDenials {
		return directMethod
	}
	return domain.MethodFencedBlock
}

// specObject reports whether a fence body parses as a JSON or YAML object.
// Fenced candidates carry no openapi/paths gate; the fence tag is evidence
// enough.
func specObject(content string) bool {
	if _, ok := decodeJSONObject(content); ok {
		return true
	}
	_, ok := decodeYAMLObject(content)
	return ok
}

// firstBraceBlock returns the first balanced top-level brace block of the
// text. A block that balances but fails to parse ends the scan; later blocks
// are not tried.
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
