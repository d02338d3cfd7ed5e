package terraform

import (
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// Fallback chain for locating HCL inside unwrapped output. Configurations
// often arrive split across several fences (one per file), so every fenced
// block that looks like Terraform is collected and the bodies concatenated.
// The denial recovery is gated on the text itself carrying no resource or
// variable declaration, because a denied Write already holds the whole file.
var (
	fencePatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```(?:hcl|terraform|tf)\\s*\n(.*?)\n\\s*```"),
		regexp.MustCompile("(?s)```\\s*\n(.*?)\n\\s*```"),
	}
	hclStartPattern   = regexp.MustCompile(`(?m)^\s*(?:terraform|provider|resource|variable|data|locals|output)\s`)
	hclKeywordPattern = regexp.MustCompile(`\b(?:resource|variable|provider|terraform|output|data|locals)\s`)
)

// explanationStarters marks prose that follows the configuration's last
// top-level closing brace in plain-text output.
//
//nolint:gochecknoglobals // Read-only lookup table
var explanationStarters = []string{
	"this configuration", "this terraform", "the above",
	"note:", "explanation:", "let me explain", "here's",
	"this creates", "this sets up", "key features",
	"## ", "### ", "**note", "---",
}

// locate finds the Terraform configuration inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if strings.TrimSpace(env.Raw()) == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	text := env.Text
	denied := false
	if !strings.Contains(text, "resource ") && !strings.Contains(text, "variable ") {
		if content, ok := env.DenialContent(); ok &&
			(strings.Contains(content, "resource ") || strings.Contains(content, "variable ")) {
			text = content
			denied = true
		}
	}

	var blocks []string
	for _, pattern := range fencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if hclKeywordPattern.MatchString(candidate) {
				blocks = append(blocks, candidate)
			}
		}
	}
	if len(blocks) > 0 {
		return domain.ExtractedArtifact{
			Content: strings.Join(blocks, "\n\n"),
			Method:  locateMethod(domain.MethodFencedBlock, denied),
		}
	}

	if loc := hclStartPattern.FindStringIndex(text); loc != nil {
		candidate := trimTrailingExplanation(strings.TrimSpace(text[loc[0]:]))
		if hclKeywordPattern.MatchString(candidate) {
			return domain.ExtractedArtifact{
				Content: candidate,
				Method:  locateMethod(domain.MethodHeuristic, denied),
			}
		}
	}

	return domain.ExtractedArtifact{
		Method: domain.MethodNone,
		Failed: true,
		Error:  "could not extract Terraform HCL from output",
	}
}

// locateMethod tags the artifact with the denial method when the scanned
// text came out of a denied write instead of the assistant text.
func locateMethod(method string, denied bool) string {
	if denied {
		return domain.MethodPermissionDenials
	}
	return method
}

// trimTrailingExplanation cuts prose that follows the last top-level closing
// brace. Only lines starting with a known explanation phrase trigger the
// cut, so trailing comments survive.
func trimTrailingExplanation(text string) string {
	lines := strings.Split(text, "\n")

	depth := 0
	lastClose := -1
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		depth += strings.Count(stripped, "{") - strings.Count(stripped, "}")
		if depth <= 0 && strings.Contains(stripped, "}") {
			lastClose = i
		}
	}

	if lastClose >= 0 && lastClose < len(lines)-1 {
		for i, line := range lines[lastClose+1:] {
			lower := strings.ToLower(strings.TrimSpace(line))
			if lower != "" && startsWithAny(lower, explanationStarters) {
				lines = lines[:lastClose+1+i]
				break
			}
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
