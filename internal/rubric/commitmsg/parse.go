package commitmsg

import (
	"regexp"
	"strings"
)

// subjectPattern is the conventional commit subject grammar:
// type[(scope)][!]: description. The separator group tolerates any single
// whitespace so the separator rule can report what it actually saw.
var subjectPattern = regexp.MustCompile(`^(?P<type>[a-z]+)(?:\((?P<scope>[^)]*)\))?(?P<breaking>!)?(?P<sep>:\s?)(?P<description>.+)$`)

// validTypes is the accepted conventional commit type set.
//
//nolint:gochecknoglobals // Read-only lookup table
var validTypes = map[string]bool{
	"feat": true, "fix": true, "docs": true, "style": true,
	"refactor": true, "perf": true, "test": true, "build": true,
	"ci": true, "chore": true, "revert": true,
}

// footerTokens are the git trailer keys that start a footer section.
//
//nolint:gochecknoglobals // Read-only lookup table
var footerTokens = []string{
	"BREAKING CHANGE:", "Refs:", "Fixes:", "Closes:", "Signed-off-by:",
	"Co-authored-by:", "Reviewed-by:", "Acked-by:", "Ticket:",
}

var issueRefPattern = regexp.MustCompile(`^(Refs|Fixes|Closes)\s+#\d+`)

// footer is one parsed git trailer.
type footer struct {
	token string
	value string
}

// commitMessage is the structured form of an extracted commit message.
// commitType and separator are empty when the subject line did not match the
// conventional grammar; hasScope distinguishes an absent scope from the empty
// parens of "feat(): x".
type commitMessage struct {
	subjectLine  string
	commitType   string
	scope        string
	hasScope     bool
	breakingBang bool
	separator    string
	description  string
	body         string
	footers      []footer
	raw          string
}

// parseMessage splits a commit message into subject fields, body, and
// footers. The footer section starts at the first trailer-looking line and
// runs to the end; lines inside it that are not trailers themselves continue
// the previous footer's value.
func parseMessage(raw string) commitMessage {
	trimmed := strings.TrimSpace(raw)
	lines := strings.Split(trimmed, "\n")

	m := commitMessage{
		subjectLine: strings.TrimSpace(lines[0]),
		raw:         trimmed,
	}

	if idx := subjectPattern.FindStringSubmatchIndex(m.subjectLine); idx != nil {
		m.commitType = m.subjectLine[idx[2]:idx[3]]
		if idx[4] >= 0 {
			m.scope = m.subjectLine[idx[4]:idx[5]]
			m.hasScope = true
		}
		m.breakingBang = idx[6] >= 0
		m.separator = m.subjectLine[idx[8]:idx[9]]
		m.description = strings.TrimSpace(m.subjectLine[idx[10]:idx[11]])
	}

	if len(lines) < 2 {
		return m
	}

	var bodyLines, footerLines []string
	inFooter := false
	bodyStarted := false
	for i, line := range lines[1:] {
		stripped := strings.TrimSpace(line)

		// The line right after the subject is normally blank. When it is
		// not, the body starts immediately and the line joins it even if it
		// looks like a trailer.
		if i == 0 {
			if stripped == "" {
				continue
			}
			bodyStarted = true
			bodyLines = append(bodyLines, line)
			continue
		}

		if !bodyStarted && stripped == "" {
			continue
		}
		bodyStarted = true

		if isFooterLine(stripped) {
			inFooter = true
		}
		if inFooter {
			footerLines = append(footerLines, stripped)
		} else {
			bodyLines = append(bodyLines, line)
		}
	}

	for len(bodyLines) > 0 && strings.TrimSpace(bodyLines[len(bodyLines)-1]) == "" {
		bodyLines = bodyLines[:len(bodyLines)-1]
	}
	if len(bodyLines) > 0 {
		m.body = strings.Join(bodyLines, "\n")
	}

	for _, fline := range footerLines {
		colon := strings.Index(fline, ":")
		if colon > 0 && isFooterLine(fline) {
			m.footers = append(m.footers, footer{
				token: strings.TrimSpace(fline[:colon]),
				value: strings.TrimSpace(fline[colon+1:]),
			})
		} else if len(m.footers) > 0 {
			m.footers[len(m.footers)-1].value += " " + strings.TrimSpace(fline)
		}
	}

	return m
}

// isFooterLine reports whether a stripped line opens a git trailer, either by
// known token or in the "Refs #123" shorthand.
func isFooterLine(line string) bool {
	for _, token := range footerTokens {
		if strings.HasPrefix(line, token) {
			return true
		}
	}
	return issueRefPattern.MatchString(line)
}

// validateStructure gates the rule checks: the subject line must match the
// conventional grammar with a valid type.
func validateStructure(message string) (bool, []string) {
	if strings.TrimSpace(message) == "" {
		return false, []string{"empty message"}
	}

	lines := strings.Split(strings.TrimSpace(message), "\n")
	subject := strings.TrimSpace(lines[0])
	if subject == "" {
		return false, []string{"empty subject line"}
	}

	m := subjectPattern.FindStringSubmatch(subject)
	if m == nil {
		return false, []string{"subject doesn't match conventional commit format: '" + subject + "'"}
	}

	var errs []string
	if !validTypes[m[1]] {
		errs = append(errs, "invalid type: '"+m[1]+"'")
	}
	return len(errs) == 0, errs
}
