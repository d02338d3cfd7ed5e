package terraform

import (
	"fmt"
	"regexp"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// outcomeFunc probes one semantic goal of the task against the extracted
// HCL text.
type outcomeFunc func(tf string, task taskdata.Task) (bool, string)

//nolint:gochecknoglobals // Read-only outcome registry
var outcomeTable = []struct {
	id    string
	title string
	check outcomeFunc
}{
	{id: "outcome_resources_present", title: "Every resource type the task requires is defined", check: outcomeResourcesPresent},
	{id: "outcome_resource_coverage", title: "At least 60% of required resource types are defined", check: outcomeResourceCoverage},
}

// resourceTypePattern is looser than the block scan: a type label counts
// even when the name label or body is malformed.
var resourceTypePattern = regexp.MustCompile(`resource\s+"([^"]+)"`)

func outcomeResourcesPresent(tf string, task taskdata.Task) (bool, string) {
	if len(task.Resources) == 0 {
		return true, "no expected resources in task"
	}

	actual := actualResourceTypes(tf)
	var missing []string
	for _, r := range task.Resources {
		if !actual[r] {
			missing = append(missing, r)
		}
	}

	if len(missing) == 0 {
		return true, fmt.Sprintf("all %d expected resources present", len(task.Resources))
	}
	capped := missing
	if len(capped) > 5 {
		capped = capped[:5]
	}
	return false, fmt.Sprintf("missing %d/%d resources: %s",
		len(missing), len(task.Resources), rubric.QuotedList(capped))
}

func outcomeResourceCoverage(tf string, task taskdata.Task) (bool, string) {
	if len(task.Resources) == 0 {
		return true, "no expected resources in task"
	}

	actual := actualResourceTypes(tf)
	found := 0
	for _, r := range task.Resources {
		if actual[r] {
			found++
		}
	}

	pct := float64(found) / float64(len(task.Resources)) * 100
	if pct >= 60 {
		return true, fmt.Sprintf("%d/%d resources (%.0f%%)", found, len(task.Resources), pct)
	}
	return false, fmt.Sprintf("only %d/%d resources (%.0f%%), need >=60%%",
		found, len(task.Resources), pct)
}

func actualResourceTypes(tf string) map[string]bool {
	types := make(map[string]bool)
	for _, m := range resourceTypePattern.FindAllStringSubmatch(tf, -1) {
		types[m[1]] = true
	}
	return types
}
