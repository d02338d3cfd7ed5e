package dockerfile

import (
	"regexp"
	"strings"
	"unicode"
)

// instruction is one parsed Dockerfile instruction: the verb upper-cased and
// the rest of the line with continuations joined.
type instruction struct {
	verb string
	args string
}

var continuationPattern = regexp.MustCompile(`\\\s*\n`)

// parseInstructions splits a Dockerfile into instructions, joining
// backslash-newline continuations and skipping blanks and comments.
func parseInstructions(dockerfile string) []instruction {
	joined := continuationPattern.ReplaceAllString(dockerfile, " ")

	var out []instruction
	for _, line := range strings.Split(joined, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		verb, args := splitInstruction(stripped)
		out = append(out, instruction{verb: strings.ToUpper(verb), args: args})
	}
	return out
}

// splitInstruction separates the verb from its arguments at the first
// whitespace run.
func splitInstruction(line string) (string, string) {
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimLeftFunc(line[idx:], unicode.IsSpace)
}

// filterVerb returns the instructions carrying the given verb, in order.
func filterVerb(instrs []instruction, verb string) []instruction {
	var out []instruction
	for _, in := range instrs {
		if in.verb == verb {
			out = append(out, in)
		}
	}
	return out
}

// stageAliases collects the lower-cased stage names defined by AS clauses.
// FROM lines referencing an alias are build-stage references, not registry
// images.
func stageAliases(froms []instruction) map[string]bool {
	aliases := make(map[string]bool)
	for _, in := range froms {
		parts := strings.Fields(in.args)
		for i, p := range parts {
			if strings.ToUpper(p) == "AS" && i+1 < len(parts) {
				aliases[strings.ToLower(parts[i+1])] = true
			}
		}
	}
	return aliases
}

// imageOf returns the first token of a FROM argument list, which is the
// image reference (or stage alias) the stage builds on.
func imageOf(args string) string {
	if parts := strings.Fields(args); len(parts) > 0 {
		return parts[0]
	}
	return args
}

// validateStructure checks the minimal shape of a runnable Dockerfile:
// a FROM instruction and a CMD or ENTRYPOINT instruction.
func validateStructure(dockerfile string) (bool, []string) {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(dockerfile), "\n") {
		stripped := strings.TrimSpace(l)
		if stripped != "" && !strings.HasPrefix(stripped, "#") {
			lines = append(lines, stripped)
		}
	}

	hasFrom, hasCmd := false, false
	for _, l := range lines {
		upper := strings.ToUpper(l)
		if strings.HasPrefix(upper, "FROM ") {
			hasFrom = true
		}
		if strings.HasPrefix(upper, "CMD ") || strings.HasPrefix(upper, "ENTRYPOINT ") {
			hasCmd = true
		}
	}

	var errs []string
	if !hasFrom {
		errs = append(errs, "missing FROM instruction")
	}
	if !hasCmd {
		errs = append(errs, "missing CMD or ENTRYPOINT instruction")
	}
	return len(errs) == 0, errs
}
