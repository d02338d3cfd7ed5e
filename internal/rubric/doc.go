package rubric

import (
	"fmt"
	"strings"
)

// BuildDoc renders the standard rubric description shown by the rules
// command: a heading, the summary paragraph, one numbered entry per rule,
// and the outcome checks when the domain has them. The result is markdown
// meant for terminal rendering.
func BuildDoc(domainID, summary string, rules, outcomes []Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s rubric\n\n%s\n\n## Rules\n\n", domainID, summary)
	for i, r := range rules {
		marker := ""
		switch {
		case r.Manual:
			marker = " *(manual, not scored)*"
		case r.PerFile:
			marker = " *(scored per file)*"
		}
		fmt.Fprintf(&b, "%d. `%s`: %s%s\n", i+1, r.ID, r.Title, marker)
	}
	if len(outcomes) > 0 {
		b.WriteString("\n## Outcome checks\n\nScored separately as outcome_score; they probe the task's semantic goal\ninstead of style.\n\n")
		for _, o := range outcomes {
			fmt.Fprintf(&b, "- `%s`: %s\n", o.ID, o.Title)
		}
	}
	return b.String()
}
