package openapi

import (
	"fmt"
	"strings"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// Outcome checks probe whether the generated API covers the task's semantic
// goal, separately from the style rules: the expected paths and schemas
// exist, and long-running work responds 202. They feed outcome_score, not
// auto_score.
//
//nolint:gochecknoglobals // Read-only outcome registry
var outcomeTable = []struct {
	id    string
	title string
	check checkFunc
}{
	{id: "outcome_paths_present", title: "All expected API paths are defined", check: outcomePathsPresent},
	{id: "outcome_schemas_present", title: "All expected schema definitions exist", check: outcomeSchemasPresent},
	{id: "outcome_async_202", title: "Async operations respond 202 Accepted", check: outcomeAsync202},
}

func outcomePathsPresent(spec value, task taskdata.Task) (bool, string) {
	expected := task.ExpectedPaths
	if len(expected) == 0 {
		return true, "no expected paths in task"
	}

	actual := make(map[string]bool)
	if paths, ok := spec.get("paths"); ok && paths.kind == kindObject {
		for _, m := range paths.members {
			actual[m.key] = true
		}
	}

	var missing []string
	for _, p := range expected {
		if !actual[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return true, fmt.Sprintf("all %d expected paths present", len(expected))
	}
	show := missing
	if len(show) > 5 {
		show = show[:5]
	}
	return false, fmt.Sprintf("missing %d/%d paths: %s", len(missing), len(expected), rubric.QuotedList(show))
}

func outcomeSchemasPresent(spec value, task taskdata.Task) (bool, string) {
	expected := task.ExpectedSchemas
	if len(expected) == 0 {
		return true, "no expected schemas in task"
	}

	actualLower := make(map[string]bool)
	for _, m := range allSchemas(spec).members {
		actualLower[strings.ToLower(m.key)] = true
	}

	var missing []string
	for _, s := range expected {
		if !actualLower[strings.ToLower(s)] {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return true, fmt.Sprintf("all %d expected schemas present", len(expected))
	}
	return false, fmt.Sprintf("missing %d/%d schemas: %s", len(missing), len(expected), rubric.QuotedList(missing))
}

func outcomeAsync202(spec value, task taskdata.Task) (bool, string) {
	if !task.HasAsyncOperations {
		return true, "n/a (no async operations required)"
	}

	found := false
	if paths, ok := spec.get("paths"); ok && paths.kind == kindObject {
		for _, pm := range paths.members {
			item := pm.val
			if item.kind != kindObject {
				continue
			}
			for _, mm := range item.members {
				if strings.ToLower(mm.key) != "post" || mm.val.kind != kindObject {
					continue
				}
				if responses, respOK := mm.val.get("responses"); respOK && responses.has("202") {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	if found {
		return true, "202 Accepted response found on POST operation"
	}
	return false, "no 202 Accepted response found (async operations required)"
}
