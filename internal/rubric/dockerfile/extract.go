package dockerfile

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// Fallback chain for locating the Dockerfile inside unwrapped output. The
// denial recovery runs first, gated on the text itself carrying no FROM
// instruction, because a denied Write already holds the complete file.
var (
	fencePatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```[Dd]ockerfile\\s*\n(.*?)\n\\s*```"),
		regexp.MustCompile("(?s)```\\s*\n(.*?)\n\\s*```"),
	}
	headerPattern   = regexp.MustCompile(`(?:Dockerfile|dockerfile)\s*:\s*\n`)
	bareFromPattern = regexp.MustCompile(`(?sm)^(FROM\s+\S+.*?)(?:\n\n[A-Z]|\z)`)
)

// locate finds the Dockerfile inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if env.Raw() == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	text := env.Text
	if !strings.Contains(text, "FROM ") {
		if content, ok := env.DenialContent(); ok && strings.Contains(content, "FROM ") {
			return domain.ExtractedArtifact{
				Content: strings.TrimSpace(content),
				Method:  domain.MethodPermissionDenials,
			}
		}
	}

	if body, ok := fencedDockerfile(text); ok {
		return domain.ExtractedArtifact{Content: body, Method: domain.MethodFencedBlock}
	}
	if body, ok := headerBlock(text); ok {
		return domain.ExtractedArtifact{Content: body, Method: domain.MethodHeuristic}
	}
	if body, ok := bareFrom(text); ok {
		return domain.ExtractedArtifact{Content: body, Method: domain.MethodHeuristic}
	}

	return domain.ExtractedArtifact{
		Method: domain.MethodNone,
		Failed: true,
		Error:  "could not extract Dockerfile from output",
	}
}

// fencedDockerfile returns the first fenced code block containing FROM,
// preferring blocks tagged dockerfile over untagged ones.
func fencedDockerfile(text string) (string, bool) {
	for _, pattern := range fencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if strings.Contains(candidate, "FROM") {
				return candidate, true
			}
		}
	}
	return "", false
}

// headerBlock recovers the lines following a "Dockerfile:" header, stopping
// at the second consecutive blank line so one internal blank is tolerated.
func headerBlock(text string) (string, bool) {
	loc := headerPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	var lines []string
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		if len(lines) > 0 && strings.TrimSpace(line) == "" && !strings.HasPrefix(line, " ") {
			if strings.TrimSpace(lines[len(lines)-1]) == "" {
				break
			}
		}
		lines = append(lines, line)
	}

	candidate := strings.TrimSpace(strings.Join(lines, "\n"))
	if strings.Contains(candidate, "FROM") {
		return candidate, true
	}
	return "", false
}

// bareFrom recovers an unfenced Dockerfile that starts at a FROM line,
// ending before a prose paragraph. Short matches are fragments, not files.
func bareFrom(text string) (string, bool) {
	m := bareFromPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	if utf8.RuneCountInString(candidate) > 20 {
		return candidate, true
	}
	return "", false
}
