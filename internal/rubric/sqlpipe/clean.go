package sqlpipe

import (
	"regexp"
	"strings"
)

// Rule checks run against normalized SQL so comments, string literals, and
// jinja templating cannot trip keyword or clause matching. Each rule picks
// the normalization it needs: clause structure keeps string literals, while
// keyword casing must not look inside them.

var (
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
	refTemplatePattern   = regexp.MustCompile(`\{\{\s*ref\(\s*['"](\w+)['"]\s*\)\s*\}\}`)
)

// stripJinja replaces {{ ref('model') }} templating with the bare model name
// so the reference reads as a plain table.
func stripJinja(sql string) string {
	return refTemplatePattern.ReplaceAllString(sql, "$1")
}

// stripComments removes -- line comments while keeping the line structure.
func stripComments(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		if pos := findCommentStart(line); pos >= 0 {
			lines[i] = line[:pos]
		}
	}
	return strings.Join(lines, "\n")
}

// stripCommentsAndStrings removes -- comments and collapses single-quoted
// literals to a placeholder. Doubled quotes belong to the literal.
func stripCommentsAndStrings(sql string) string {
	return stringLiteralPattern.ReplaceAllString(stripComments(sql), "'_STR_'")
}

// findCommentStart returns the position where a -- comment starts, or -1.
// Dashes inside a single-quoted literal do not count; a backslash before a
// quote keeps the string state unchanged.
func findCommentStart(line string) int {
	inString := false
	for i := 0; i+1 < len(line); i++ {
		if line[i] == '\'' && (i == 0 || line[i-1] != '\\') {
			inString = !inString
		}
		if !inString && line[i] == '-' && line[i+1] == '-' {
			return i
		}
	}
	return -1
}

// removeParenContent drops everything nested inside parentheses while
// keeping the parenthesis characters themselves, so clause detection does
// not match keywords inside function arguments or subqueries.
func removeParenContent(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	depth := 0
	for i := 0; i < len(text); i++ {
		switch ch := text[i]; {
		case ch == '(':
			depth++
			b.WriteByte(ch)
		case ch == ')':
			depth--
			b.WriteByte(ch)
		case depth == 0:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
