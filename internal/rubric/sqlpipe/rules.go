package sqlpipe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// perFileCheck evaluates one rule against a single model file.
type perFileCheck func(sql string, task taskdata.Task) (bool, string)

// crossFileCheck evaluates one rule against the whole model set.
type crossFileCheck func(files []domain.ArtifactFile, task taskdata.Task) (bool, string)

// majorClauses are the clauses that must each start their own line.
//
//nolint:gochecknoglobals // Read-only lookup table
var majorClauses = []string{
	"WITH", "SELECT", "FROM", "LEFT JOIN", "RIGHT JOIN",
	"CROSS JOIN", "INNER JOIN", "WHERE", "GROUP BY", "HAVING",
	"ORDER BY", "LIMIT",
}

// lowercaseKeywords are the keywords the style demands in uppercase, listed
// in the lowercase form the violation scan searches for.
//
//nolint:gochecknoglobals // Read-only lookup table
var lowercaseKeywords = []string{
	"select", "from", "where", "join", "inner join", "left join",
	"right join", "cross join", "group by", "order by", "having",
	"limit", "with", "as", "on", "and", "or", "in", "between",
	"case", "when", "then", "else", "end", "over", "partition by",
	"sum", "count", "avg", "min", "max", "dense_rank", "row_number",
	"rank", "date_trunc", "extract", "coalesce", "not", "exists",
	"is", "null", "asc", "desc", "preceding", "following",
	"unbounded", "rows", "range", "current row",
}

// validPrefixes are the accepted dbt layer prefixes for model names.
//
//nolint:gochecknoglobals // Read-only lookup table
var validPrefixes = []string{"stg_", "int_", "fct_", "dim_"}

// perFileRules lists the per-model rules in ledger column order. Each one
// contributes a pass rate across the applicable models to auto_score.
// Numbering is append-only because ledger columns derive from the IDs.
//
//nolint:gochecknoglobals // Read-only rule registry
var perFileRules = []struct {
	id    string
	title string
	check perFileCheck
}{
	{id: "rule_1_keywords_upper", title: "SQL keywords written in uppercase", check: checkKeywordsUpper},
	{id: "rule_2_clause_per_line", title: "One major clause per line", check: checkClausePerLine},
	{id: "rule_3_table_aliases", title: "Tables carry aliases when several are referenced", check: checkTableAliases},
	{id: "rule_4_column_aliases", title: "Computed columns carry an AS alias", check: checkColumnAliases},
	{id: "rule_5_no_select_star", title: "No SELECT * projections", check: checkNoSelectStar},
	{id: "rule_6_comment_header", title: "File opens with a describing comment", check: checkCommentHeader},
	{id: "rule_7_left_join_only", title: "LEFT JOIN only, never INNER or plain JOIN", check: checkLeftJoinOnly},
	{id: "rule_8_coalesce_unknown", title: "Nullable dimensions wrapped in COALESCE to '(unknown)'", check: checkCoalesceUnknown},
	{id: "rule_9_row_number_dedup", title: "Deduplication uses ROW_NUMBER over a partition", check: checkRowNumberDedup},
	{id: "rule_10_one_cte_per_file", title: "At most one CTE per file", check: checkOneCTEPerFile},
}

// crossFileRules lists the whole-pipeline rules appended after the per-file
// columns. Each passes or fails once per run.
//
//nolint:gochecknoglobals // Read-only rule registry
var crossFileRules = []struct {
	id    string
	title string
	check crossFileCheck
}{
	{id: "rule_11_jinja_ref", title: "Non-staging models reference predecessors via ref()", check: checkJinjaRef},
	{id: "rule_12_layer_naming", title: "Model names carry a valid layer prefix", check: checkLayerNaming},
}

var (
	cteNamePattern         = regexp.MustCompile(`(?i)(?:\bWITH\s+|,\s*)(\w+)\s+AS\s*\(`)
	tableRefPattern        = regexp.MustCompile(`(?i)(?:FROM|JOIN)\s+(\w+)(?:\s+(?:AS\s+)?(\w+))?`)
	aggregatePattern       = regexp.MustCompile(`(?i)(SUM|COUNT|AVG|MIN|MAX|DENSE_RANK|ROW_NUMBER|RANK|DATE_TRUNC|EXTRACT|COALESCE)\s*\(`)
	asAliasPattern         = regexp.MustCompile(`(?i)^\s*AS\s+\w+`)
	selectStarPattern      = regexp.MustCompile(`(?i)\bSELECT\s+\*\s*(?:,|\bFROM\b|\n|$)`)
	selectTableStarPattern = regexp.MustCompile(`(?i)\bSELECT\s+\w+\.\*`)
	innerJoinPattern       = regexp.MustCompile(`(?i)\bINNER\s+JOIN\b`)
	joinPattern            = regexp.MustCompile(`(?i)\bJOIN\b`)
	joinPrefixPattern      = regexp.MustCompile(`(?i)\b(?:LEFT|RIGHT|CROSS|INNER)\s*$`)
	withKeywordPattern     = regexp.MustCompile(`(?i)\bWITH\b`)
	refCallPattern         = regexp.MustCompile(`\{\{\s*ref\(`)
)

// keywordPatterns match each keyword in its all-lowercase form with non-word
// characters on both sides. The boundary characters are consumed rather than
// asserted, which reads the same for a pure existence test.
//
//nolint:gochecknoglobals // Compiled once at startup
var keywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(lowercaseKeywords))
	for i, kw := range lowercaseKeywords {
		body := strings.Join(strings.Fields(kw), `\s+`)
		patterns[i] = regexp.MustCompile(`(?:^|[^a-zA-Z_])` + body + `(?:$|[^a-zA-Z_])`)
	}
	return patterns
}

// clausePatterns match each major clause as a whole word on an uppercased,
// paren-flattened line.
//
//nolint:gochecknoglobals // Compiled once at startup
var clausePatterns = compileClausePatterns()

func compileClausePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(majorClauses))
	for i, clause := range majorClauses {
		patterns[i] = regexp.MustCompile(`\b` + clause + `\b`)
	}
	return patterns
}

// aliasStopwords are words the table reference pattern can capture in alias
// position that are really the next clause, not an alias.
//
//nolint:gochecknoglobals // Read-only lookup table
var aliasStopwords = buildAliasStopwords()

func buildAliasStopwords() map[string]bool {
	words := make(map[string]bool, len(majorClauses)+8)
	for _, clause := range majorClauses {
		words[strings.ReplaceAll(clause, " ", "")] = true
	}
	for _, w := range []string{"ON", "WHERE", "AND", "OR", "INNER", "LEFT", "RIGHT", "CROSS"} {
		words[w] = true
	}
	return words
}

// modelApplies reports whether a per-file rule counts the given model in its
// pass rate. Layer rules skip models outside their layer and the join rule
// skips models without joins; skipped models leave the denominator entirely
// instead of passing vacuously.
func modelApplies(ruleID string, f domain.ArtifactFile) bool {
	switch ruleID {
	case "rule_7_left_join_only":
		return joinPattern.MatchString(stripCommentsAndStrings(stripJinja(f.Content)))
	case "rule_8_coalesce_unknown":
		return !strings.HasPrefix(f.Name, "stg_")
	case "rule_9_row_number_dedup":
		return !strings.HasPrefix(f.Name, "stg_") &&
			!strings.HasPrefix(f.Name, "fct_") &&
			!strings.HasPrefix(f.Name, "dim_")
	default:
		return true
	}
}

// zeroRateDetail returns the failure detail for a rule whose applicable
// model set came up empty while the task demands the feature. The second
// result is false when the task does not demand it, making the empty set a
// full pass.
func zeroRateDetail(ruleID string, task taskdata.Task) (string, bool) {
	switch ruleID {
	case "rule_7_left_join_only":
		if task.RequiresLeftJoin {
			return "no models with JOINs found", true
		}
	case "rule_8_coalesce_unknown":
		if len(task.NullableDimensionColumns) > 0 {
			return "no non-staging models found", true
		}
	case "rule_9_row_number_dedup":
		if task.RequiresDeduplication {
			return "no int_ models found for dedup", true
		}
	}
	return "", false
}

func checkKeywordsUpper(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripCommentsAndStrings(stripJinja(sql))

	var violations []string
	for i, kw := range lowercaseKeywords {
		if keywordPatterns[i].MatchString(cleaned) {
			violations = append(violations, kw)
		}
	}

	if len(violations) > 0 {
		if len(violations) > 5 {
			violations = violations[:5]
		}
		return false, "lowercase keywords: " + rubric.QuotedList(violations)
	}
	return true, "ok"
}

func checkClausePerLine(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripComments(stripJinja(sql))

	for _, line := range strings.Split(cleaned, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		flat := strings.ToUpper(removeParenContent(stripped))
		var found []string
		for i, clause := range majorClauses {
			if clausePatterns[i].MatchString(flat) {
				found = append(found, clause)
			}
		}
		if len(found) > 1 {
			return false, "multiple clauses on one line: " + rubric.QuotedList(found)
		}
	}
	return true, "ok"
}

// tableRef is one FROM or JOIN operand with its captured alias. The capture
// grabs whatever word follows the table, so the alias may really be the next
// keyword when the reference carries no alias at all.
type tableRef struct {
	table string
	alias string
}

func checkTableAliases(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripComments(stripJinja(sql))

	cteNames := make(map[string]bool)
	for _, m := range cteNamePattern.FindAllStringSubmatch(cleaned, -1) {
		cteNames[strings.ToUpper(m[1])] = true
	}

	var refs []tableRef
	for _, m := range tableRefPattern.FindAllStringSubmatch(cleaned, -1) {
		upper := strings.ToUpper(m[1])
		if cteNames[upper] || upper == "SELECT" || upper == "LATERAL" || upper == "(" {
			continue
		}
		refs = append(refs, tableRef{table: m[1], alias: m[2]})
	}

	// Single-table queries read fine unaliased; staging models usually are.
	if len(refs) <= 1 {
		return true, "ok (single table, alias not required)"
	}

	var unaliased []string
	for _, ref := range refs {
		if ref.alias == "" || aliasStopwords[strings.ToUpper(ref.alias)] {
			unaliased = append(unaliased, ref.table)
		}
	}

	if len(unaliased) > 0 {
		return false, "tables without alias: " + rubric.QuotedList(unaliased)
	}
	return true, "ok"
}

func checkColumnAliases(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripComments(stripJinja(sql))

	matches := aggregatePattern.FindAllStringSubmatchIndex(cleaned, -1)
	if len(matches) == 0 {
		return true, "n/a (no aggregations)"
	}

	var missing []string
	for _, m := range matches {
		start := m[0]
		end := closingParen(cleaned, m[1]-1)

		afterParen := strings.TrimSpace(window(cleaned, end, 50))
		if strings.HasPrefix(strings.ToUpper(afterParen), "OVER") {
			if rel := strings.Index(cleaned[end:], "("); rel >= 0 {
				if closed := closingParen(cleaned, end+rel); closed > end+rel {
					end = closed
				}
				afterParen = strings.TrimSpace(window(cleaned, end, 20))
			}
		}

		if asAliasPattern.MatchString(window(cleaned, end, 30)) {
			continue
		}

		// Aggregates used for filtering rather than projection take no alias.
		before := strings.ToUpper(cleaned[:start])
		if idx := strings.LastIndex(before, "SELECT"); idx >= 0 {
			before = before[idx+len("SELECT"):]
		}
		if strings.Contains(before, "WHERE") || strings.Contains(before, "HAVING") ||
			strings.Contains(before, "ON") || strings.Contains(before, "GROUP BY") {
			continue
		}
		// Dedup rank columns are filtered away and often go unaliased.
		if strings.ToUpper(cleaned[m[2]:m[3]]) == "ROW_NUMBER" {
			continue
		}
		if strings.HasPrefix(afterParen, ",") || strings.HasPrefix(afterParen, "\n") || afterParen == "" {
			missing = append(missing, cleaned[m[0]:m[1]]+"(...)")
		}
	}

	if len(missing) > 0 {
		if len(missing) > 3 {
			missing = missing[:3]
		}
		return false, "aggregations without AS alias: " + rubric.QuotedList(missing)
	}
	return true, "ok"
}

// closingParen returns the index just past the parenthesis that closes the
// one at open, or open itself when the text ends before balance returns.
func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return open
}

// window returns up to n bytes of s starting at from, clamped to the text.
func window(s string, from, n int) string {
	if from >= len(s) {
		return ""
	}
	if from+n > len(s) {
		return s[from:]
	}
	return s[from : from+n]
}

func checkNoSelectStar(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripComments(stripJinja(sql))
	if selectStarPattern.MatchString(cleaned) {
		return false, "SELECT * found"
	}
	if selectTableStarPattern.MatchString(cleaned) {
		return false, "SELECT table.* found"
	}
	return true, "ok"
}

func checkCommentHeader(sql string, _ taskdata.Task) (bool, string) {
	stripped := strings.TrimSpace(sql)
	if !strings.HasPrefix(stripped, "--") {
		return false, "missing comment header"
	}
	firstLine := strings.TrimSpace(strings.SplitN(stripped, "\n", 2)[0])
	comment := strings.TrimSpace(strings.TrimLeft(firstLine, "-"))
	if utf8.RuneCountInString(comment) > 3 {
		return true, "ok"
	}
	return false, "comment header is too short or empty"
}

func checkLeftJoinOnly(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripCommentsAndStrings(stripJinja(sql))
	if innerJoinPattern.MatchString(cleaned) {
		return false, "INNER JOIN found (use LEFT JOIN for analytics)"
	}
	// A bare JOIN defaults to INNER, so it fails unless a direction keyword
	// immediately precedes it.
	for _, loc := range joinPattern.FindAllStringIndex(cleaned, -1) {
		before := strings.TrimRightFunc(cleaned[:loc[0]], unicode.IsSpace)
		if !joinPrefixPattern.MatchString(before) {
			return false, "plain JOIN found (use LEFT JOIN for analytics)"
		}
	}
	return true, "ok"
}

func checkCoalesceUnknown(sql string, task taskdata.Task) (bool, string) {
	if len(task.NullableDimensionColumns) == 0 {
		return true, "n/a (no nullable dimensions in task)"
	}

	cleaned := stripComments(stripJinja(sql))
	if !strings.Contains(strings.ToUpper(cleaned), "COALESCE") {
		return false, "no COALESCE found (expected for: " + rubric.QuotedList(task.NullableDimensionColumns) + ")"
	}

	squeezed := strings.ReplaceAll(strings.ToLower(cleaned), " ", "")
	if !strings.Contains(squeezed, "'(unknown)'") {
		if strings.Contains(strings.ToLower(cleaned), "'unknown'") {
			return false, "COALESCE uses 'unknown' instead of '(unknown)'"
		}
		return false, "COALESCE present but '(unknown)' string not found"
	}
	return true, "ok"
}

func checkRowNumberDedup(sql string, task taskdata.Task) (bool, string) {
	if !task.RequiresDeduplication {
		return true, "n/a (dedup not required)"
	}

	upper := strings.ToUpper(stripComments(stripJinja(sql)))
	if !strings.Contains(upper, "ROW_NUMBER") {
		return false, "ROW_NUMBER not found (dedup required)"
	}
	if !strings.Contains(upper, "PARTITION BY") {
		return false, "ROW_NUMBER without PARTITION BY"
	}
	return true, "ok"
}

func checkOneCTEPerFile(sql string, _ taskdata.Task) (bool, string) {
	cleaned := stripCommentsAndStrings(stripJinja(sql))

	withCount := len(withKeywordPattern.FindAllString(cleaned, -1))
	if withCount > 1 {
		return false, fmt.Sprintf("multiple WITH blocks found (%d)", withCount)
	}

	if withCount == 1 {
		var names []string
		for _, m := range cteNamePattern.FindAllStringSubmatch(cleaned, -1) {
			names = append(names, m[1])
		}
		if len(names) > 1 {
			return false, "multiple CTEs in one file: " + rubric.QuotedList(names)
		}
	}
	return true, "ok"
}

func checkJinjaRef(files []domain.ArtifactFile, _ taskdata.Task) (bool, string) {
	nonStaging := 0
	var missing []string
	for _, f := range files {
		if strings.HasPrefix(f.Name, "stg_") || strings.HasPrefix(f.Name, "unnamed") {
			continue
		}
		nonStaging++
		if !refCallPattern.MatchString(f.Content) {
			missing = append(missing, f.Name)
		}
	}

	if nonStaging == 0 {
		return false, "no non-staging models found"
	}
	if len(missing) > 0 {
		return false, "models without ref(): " + rubric.QuotedList(missing)
	}
	return true, "ok"
}

func checkLayerNaming(files []domain.ArtifactFile, _ taskdata.Task) (bool, string) {
	var bad []string
	for _, f := range files {
		if strings.HasPrefix(f.Name, "unnamed") || !hasValidPrefix(f.Name) {
			bad = append(bad, f.Name)
		}
	}
	if len(bad) > 0 {
		return false, "invalid prefixes: " + rubric.QuotedList(bad)
	}
	return true, "ok"
}

func hasValidPrefix(name string) bool {
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
