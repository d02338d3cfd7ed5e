package commitmsg

import (
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// Fallback chain for locating the commit message inside unwrapped output.
// Denial recovery runs first, gated on the text not already opening with a
// conventional subject, because a denied write of COMMIT_EDITMSG holds the
// complete message.
var (
	commitStartPattern = regexp.MustCompile(`^[a-z]+[(!:]`)
	fencePattern       = regexp.MustCompile("(?s)```(?:text|commit|git)?\\s*\n(.*?)\n\\s*```")
	headerPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:commit\s+message|here(?:'s| is) the commit):?\s*\n+(.*)`),
		regexp.MustCompile(`(?is)(?:the commit message):?\s*\n+(.*)`),
	}
)

// locate finds the commit message inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if strings.TrimSpace(env.Raw()) == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	text := env.Text
	fromDenial := false
	if !commitStartPattern.MatchString(strings.TrimSpace(text)) {
		if content, ok := env.DenialContent(); ok && commitStartPattern.MatchString(strings.TrimSpace(content)) {
			text = content
			fromDenial = true
		}
	}

	// Only the first fenced block is considered; a non-commit first fence
	// falls through to the header and line scans.
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if candidate := strings.TrimSpace(m[1]); looksLikeCommit(candidate) {
			return located(candidate, fromDenial, domain.MethodFencedBlock)
		}
	}

	for _, pattern := range headerPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := trimTrailingExplanation(strings.TrimSpace(m[1]))
		if looksLikeCommit(candidate) {
			return located(candidate, fromDenial, domain.MethodHeuristic)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !looksLikeCommit(line) {
			continue
		}
		candidate := strings.TrimSpace(text[strings.Index(text, line):])
		return located(trimTrailingExplanation(candidate), fromDenial, domain.MethodHeuristic)
	}

	return domain.ExtractedArtifact{
		Method: domain.MethodNone,
		Failed: true,
		Error:  "could not extract commit message from output",
	}
}

// located tags the recovered message with how it was found. A message pulled
// out of a denied write keeps the denial tag whichever scan located it.
func located(content string, fromDenial bool, method string) domain.ExtractedArtifact {
	if fromDenial {
		method = domain.MethodPermissionDenials
	}
	return domain.ExtractedArtifact{Content: content, Method: method}
}

// looksLikeCommit reports whether the first line is a conventional commit
// subject with a valid type.
func looksLikeCommit(text string) bool {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	m := subjectPattern.FindStringSubmatch(firstLine)
	return m != nil && validTypes[m[1]]
}

// Lines opening with these readings are commentary around the message, not
// part of it. The second list additionally catches transitions that only
// appear after a body has started.
//
//nolint:gochecknoglobals // Read-only lookup tables
var (
	nonBodyStarters = []string{
		"this commit", "i chose", "i used", "here's", "here is",
		"the commit", "note:", "explanation:", "---",
	}
	explanationStarters = []string{
		"this commit", "i chose", "i used", "here's", "here is",
		"the commit", "note:", "explanation:", "let me explain",
		"the above", "this follows", "this message",
	}
)

// trimTrailingExplanation cuts commentary the generating model appended after
// the commit message. The first non-blank line after the subject decides
// whether a body follows at all; once inside the body, an explanation opener
// after a blank line ends the message.
func trimTrailingExplanation(text string) string {
	lines := strings.Split(text, "\n")

	var kept []string
	blankSeen := false
	inBody := false
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case i == 0:
			kept = append(kept, line)
		case stripped == "":
			blankSeen = true
			kept = append(kept, line)
		case blankSeen && !inBody:
			if !isFooterLine(stripped) && !isBodyLine(stripped) {
				return joinTrimmed(kept)
			}
			inBody = true
			kept = append(kept, line)
		case inBody:
			if blankSeen && isExplanationStart(stripped) {
				return joinTrimmed(kept)
			}
			kept = append(kept, line)
			blankSeen = false
		default:
			kept = append(kept, line)
			blankSeen = false
		}
	}
	return joinTrimmed(kept)
}

// joinTrimmed joins lines after dropping trailing blank ones.
func joinTrimmed(lines []string) string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func isBodyLine(line string) bool {
	lower := strings.ToLower(line)
	for _, starter := range nonBodyStarters {
		if strings.HasPrefix(lower, starter) {
			return false
		}
	}
	return true
}

func isExplanationStart(line string) bool {
	lower := strings.ToLower(line)
	for _, starter := range explanationStarters {
		if strings.HasPrefix(lower, starter) {
			return true
		}
	}
	return false
}
