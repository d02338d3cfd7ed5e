package commitmsg

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// maxSubjectLength bounds the full subject line, type and scope included.
const maxSubjectLength = 50

// checkFunc evaluates one rule against the parsed message.
type checkFunc func(m commitMessage, task taskdata.Task) (bool, string)

// ruleTable lists the rules in ledger column order. Numbering is append-only
// because historical ledger columns derive from the IDs.
//
//nolint:gochecknoglobals // Read-only rule registry
var ruleTable = []struct {
	id    string
	title string
	check checkFunc
}{
	{id: "rule_1_type", title: "Subject uses a valid conventional commit type", check: checkType},
	{id: "rule_2_separator", title: "Type and description separated by ': '", check: checkSeparator},
	{id: "rule_3_imperative", title: "Description opens in imperative mood", check: checkImperative},
	{id: "rule_4_no_period", title: "Description has no trailing period", check: checkNoPeriod},
	{id: "rule_5_lowercase", title: "Description starts lowercase", check: checkLowercase},
	{id: "rule_6_scope_vocab", title: "Scope drawn from the task's allowed list", check: checkScopeVocab},
	{id: "rule_7_gitmoji", title: "Description opens with the gitmoji mapped to the type", check: checkGitmoji},
	{id: "rule_8_body_why_what", title: "Body carries Why: and What: sections", check: checkBodyWhyWhat},
	{id: "rule_9_body_word_count", title: "Body word count within the task's bounds", check: checkBodyWordCount},
	{id: "rule_10_trailer_format", title: "Footers use git trailer Key: value form", check: checkTrailerFormat},
	{id: "rule_11_signed_off_by", title: "Signed-off-by footer matches the task identity", check: checkSignedOffBy},
	{id: "rule_12_breaking_footer", title: "BREAKING CHANGE footer present when the task demands one", check: checkBreakingFooter},
	{id: "rule_13_ticket_ref", title: "Ticket footer cites the task's Jira reference", check: checkTicketRef},
	{id: "rule_14_subject_length", title: "Subject line at most 50 characters", check: checkSubjectLength},
}

// imperativeBlacklist lists first words that read as past tense, gerund, or
// third person instead of imperative mood.
//
//nolint:gochecknoglobals // Read-only lookup table
var imperativeBlacklist = map[string]bool{
	// Past tense
	"added": true, "fixed": true, "removed": true, "updated": true,
	"changed": true, "refactored": true, "deleted": true, "moved": true,
	"renamed": true, "replaced": true, "converted": true, "migrated": true,
	"implemented": true, "created": true, "resolved": true, "introduced": true,
	"applied": true,
	// Gerund
	"adding": true, "fixing": true, "removing": true, "updating": true,
	"changing": true, "refactoring": true, "deleting": true, "moving": true,
	"renaming": true, "replacing": true, "converting": true, "migrating": true,
	"implementing": true, "creating": true, "resolving": true, "introducing": true,
	"applying": true,
	// Third person
	"adds": true, "fixes": true, "removes": true, "updates": true,
	"changes": true, "refactors": true, "deletes": true, "moves": true,
	"renames": true, "replaces": true, "converts": true, "migrates": true,
	"implements": true, "creates": true, "resolves": true, "introduces": true,
	"applies": true,
	// Non-imperative auxiliaries
	"was": true, "were": true, "been": true,
}

func checkType(m commitMessage, _ taskdata.Task) (bool, string) {
	if m.commitType == "" {
		return false, "no type parsed"
	}
	if validTypes[m.commitType] {
		return true, "valid type: " + m.commitType
	}
	return false, fmt.Sprintf("invalid type: '%s', must be one of %s", m.commitType, rubric.QuotedList(sortedTypes()))
}

var extraWhitespacePattern = regexp.MustCompile(`^:[ \t]+`)

func checkSeparator(m commitMessage, _ taskdata.Task) (bool, string) {
	switch {
	case m.separator == ": ":
		return true, "ok"
	case m.separator == "":
		return false, "no separator found"
	case extraWhitespacePattern.MatchString(m.separator):
		return false, fmt.Sprintf("separator has extra whitespace: %s, expected ': '", reprQuote(m.separator))
	}
	return false, fmt.Sprintf("separator is %s, expected ': '", reprQuote(m.separator))
}

func checkImperative(m commitMessage, _ taskdata.Task) (bool, string) {
	if m.description == "" {
		return false, "empty description"
	}
	firstWord := strings.ToLower(strings.Fields(m.description)[0])
	if imperativeBlacklist[firstWord] {
		return false, fmt.Sprintf("'%s' is not imperative mood", firstWord)
	}
	return true, fmt.Sprintf("first word '%s' is ok", firstWord)
}

func checkNoPeriod(m commitMessage, _ taskdata.Task) (bool, string) {
	if strings.HasSuffix(strings.TrimRightFunc(m.description, unicode.IsSpace), ".") {
		return false, "description ends with period"
	}
	return true, "ok"
}

var gitmojiPrefixPattern = regexp.MustCompile(`^:[a-z_]+:\s*`)

func checkLowercase(m commitMessage, _ taskdata.Task) (bool, string) {
	if m.description == "" {
		return false, "empty description"
	}

	// A leading gitmoji shortcode is not the description's first letter.
	check := m.description
	if loc := gitmojiPrefixPattern.FindStringIndex(check); loc != nil {
		check = check[loc[1]:]
	}
	if check == "" {
		return true, "ok (only gitmoji)"
	}

	first, _ := utf8.DecodeRuneInString(check)
	if unicode.IsUpper(first) {
		return false, fmt.Sprintf("starts with uppercase '%c'", first)
	}
	return true, "ok"
}

func checkScopeVocab(m commitMessage, task taskdata.Task) (bool, string) {
	if len(task.AllowedScopes) == 0 {
		return true, "no allowed_scopes defined (auto-pass)"
	}
	if !m.hasScope {
		return false, "no scope present, expected one of " + rubric.QuotedList(task.AllowedScopes)
	}
	for _, allowed := range task.AllowedScopes {
		if m.scope == allowed {
			return true, fmt.Sprintf("scope '%s' in allowed list", m.scope)
		}
	}
	return false, fmt.Sprintf("scope '%s' not in allowed_scopes: %s", m.scope, rubric.QuotedList(task.AllowedScopes))
}

func checkGitmoji(m commitMessage, task taskdata.Task) (bool, string) {
	if len(task.GitmojiMap) == 0 {
		return true, "no gitmoji_map defined (auto-pass)"
	}
	expected := task.GitmojiMap[m.commitType]
	if expected == "" {
		return true, fmt.Sprintf("no gitmoji mapping for type '%s' (auto-pass)", m.commitType)
	}

	prefix := expected + " "
	if strings.HasPrefix(m.description, prefix) {
		return true, "description starts with " + expected
	}
	// A description that is nothing but the gitmoji still counts.
	if m.description == expected {
		return true, "description is " + expected
	}
	return false, fmt.Sprintf("expected description to start with '%s', got '%s'", prefix, rubric.Truncate(m.description, 30))
}

func checkBodyWhyWhat(m commitMessage, _ taskdata.Task) (bool, string) {
	if m.body == "" {
		return false, "no body present (Why: and What: sections required)"
	}

	hasWhy, hasWhat := false, false
	for _, line := range strings.Split(strings.ToLower(m.body), "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "why:") {
			hasWhy = true
		}
		if strings.HasPrefix(stripped, "what:") {
			hasWhat = true
		}
	}
	if hasWhy && hasWhat {
		return true, "both Why: and What: sections found"
	}

	var missing []string
	if !hasWhy {
		missing = append(missing, "Why:")
	}
	if !hasWhat {
		missing = append(missing, "What:")
	}
	return false, "missing sections: " + strings.Join(missing, ", ")
}

func checkBodyWordCount(m commitMessage, task taskdata.Task) (bool, string) {
	if task.BodyMinWords == 0 && task.BodyMaxWords == 0 {
		return true, "no word count constraints (auto-pass)"
	}

	wordCount := len(strings.Fields(m.body))
	if task.BodyMinWords != 0 && wordCount < task.BodyMinWords {
		return false, fmt.Sprintf("body has %d words, minimum is %d", wordCount, task.BodyMinWords)
	}
	if task.BodyMaxWords != 0 && wordCount > task.BodyMaxWords {
		return false, fmt.Sprintf("body has %d words, maximum is %d", wordCount, task.BodyMaxWords)
	}
	return true, fmt.Sprintf("body has %d words (range: %s-%s)",
		wordCount, wordBound(task.BodyMinWords), wordBound(task.BodyMaxWords))
}

var trailerTokenPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 -]*$`)

func checkTrailerFormat(m commitMessage, _ taskdata.Task) (bool, string) {
	if len(m.footers) == 0 {
		return true, "no footers present"
	}

	var bad []string
	for _, f := range m.footers {
		switch {
		case f.token == "":
			bad = append(bad, "empty token")
		case !trailerTokenPattern.MatchString(f.token):
			bad = append(bad, fmt.Sprintf("invalid token: '%s'", f.token))
		case strings.TrimSpace(f.value) == "":
			bad = append(bad, fmt.Sprintf("empty value for token '%s'", f.token))
		}
	}
	if len(bad) > 0 {
		return false, "invalid trailer(s): " + strings.Join(bad, "; ")
	}
	return true, fmt.Sprintf("all %d footer(s) in Key: value format", len(m.footers))
}

func checkSignedOffBy(m commitMessage, task taskdata.Task) (bool, string) {
	expected := task.SignedOffBy
	if expected == "" {
		return true, "no signed_off_by required (auto-pass)"
	}

	var sobs []footer
	for _, f := range m.footers {
		if f.token == "Signed-off-by" {
			sobs = append(sobs, f)
		}
	}
	if len(sobs) == 0 {
		// A sign-off glued to the subject without a blank line parses as
		// body, so fall back to the raw text.
		if strings.Contains(m.raw, "Signed-off-by: "+expected) {
			return true, "Signed-off-by found in raw message"
		}
		return false, fmt.Sprintf("missing Signed-off-by footer, expected '%s'", expected)
	}

	values := make([]string, 0, len(sobs))
	for _, sob := range sobs {
		if strings.TrimSpace(sob.value) == strings.TrimSpace(expected) {
			return true, "Signed-off-by matches: " + expected
		}
		values = append(values, strings.TrimSpace(sob.value))
	}
	return false, fmt.Sprintf("Signed-off-by value mismatch: got %s, expected '%s'", rubric.QuotedList(values), expected)
}

func checkBreakingFooter(m commitMessage, task taskdata.Task) (bool, string) {
	if !task.BreakingChange {
		return true, "n/a (not a breaking change)"
	}

	for _, f := range m.footers {
		if strings.ReplaceAll(strings.ToUpper(f.token), "-", " ") != "BREAKING CHANGE" {
			continue
		}
		value := strings.TrimSpace(f.value)
		if utf8.RuneCountInString(value) < 10 {
			return false, fmt.Sprintf("BREAKING CHANGE footer too short: '%s'", value)
		}
		return true, fmt.Sprintf("BREAKING CHANGE footer present (%d chars)", utf8.RuneCountInString(value))
	}
	return false, "missing BREAKING CHANGE footer"
}

func checkTicketRef(m commitMessage, task taskdata.Task) (bool, string) {
	if task.JiraProject == "" || task.JiraNumber == "" {
		return true, "no jira_project/jira_number in task (auto-pass)"
	}
	ref := task.JiraProject + "-" + task.JiraNumber.String()

	for _, f := range m.footers {
		if f.token == "Ticket" && strings.Contains(f.value, ref) {
			return true, "Ticket footer contains " + ref
		}
	}
	// A ticket line that never became a footer (no blank line after the
	// subject) is still accepted from the raw text.
	if regexp.MustCompile(`Ticket:\s*` + regexp.QuoteMeta(ref)).MatchString(m.raw) {
		return true, fmt.Sprintf("Ticket ref %s found in raw message", ref)
	}
	return false, fmt.Sprintf("missing Ticket: %s footer", ref)
}

func checkSubjectLength(m commitMessage, _ taskdata.Task) (bool, string) {
	length := utf8.RuneCountInString(m.subjectLine)
	if length <= maxSubjectLength {
		return true, fmt.Sprintf("length=%d <= %d", length, maxSubjectLength)
	}
	return false, fmt.Sprintf("length=%d > %d", length, maxSubjectLength)
}

func sortedTypes() []string {
	types := make([]string, 0, len(validTypes))
	for t := range validTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// wordBound renders a word-count bound the way historical ledgers did, with
// an unset bound shown as None.
func wordBound(n int) string {
	if n == 0 {
		return "None"
	}
	return strconv.Itoa(n)
}

// reprQuote renders the separator single-quoted with control characters
// escaped, matching the notation historical ledger rows used for it.
func reprQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\'':
			b.WriteString(`\'`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
