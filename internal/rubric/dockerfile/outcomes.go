package dockerfile

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// outcomeFunc probes one semantic goal of the task against the raw
// Dockerfile text.
type outcomeFunc func(dockerfile string, task taskdata.Task) (bool, string)

//nolint:gochecknoglobals // Read-only outcome registry
var outcomeTable = []struct {
	id    string
	title string
	check outcomeFunc
}{
	{id: "outcome_correct_port", title: "EXPOSE declares the port the task requires", check: outcomeCorrectPort},
	{id: "outcome_target_names", title: "Multi-target builds define all required stage names", check: outcomeTargetNames},
	{id: "outcome_runtime_match", title: "Base image matches the expected runtime", check: outcomeRuntimeMatch},
}

var (
	exposeLinePattern = regexp.MustCompile(`(?mi)^\s*EXPOSE\s+(.+)`)
	portPattern       = regexp.MustCompile(`\b(\d+)\b`)
	fromAliasPattern  = regexp.MustCompile(`(?m)^\s*FROM\s+\S+.*?\s+[Aa][Ss]\s+(\S+)`)
	fromImagePattern  = regexp.MustCompile(`(?mi)^\s*FROM\s+(\S+)`)
)

// Expected base image keywords per runtime. Unlisted runtimes match their
// own name.
//
//nolint:gochecknoglobals // Read-only lookup table
var runtimeKeywords = map[string][]string{
	"node":   {"node"},
	"python": {"python"},
	"go":     {"golang", "go"},
	"java":   {"openjdk", "eclipse-temurin", "java", "maven", "gradle"},
	"rust":   {"rust"},
	"ruby":   {"ruby"},
}

func outcomeCorrectPort(dockerfile string, task taskdata.Task) (bool, string) {
	expected := task.ExpectedPort()
	if expected == 0 {
		return true, "no specific port required by task"
	}
	want := strconv.Itoa(expected)

	var allPorts []string
	for _, m := range exposeLinePattern.FindAllStringSubmatch(dockerfile, -1) {
		allPorts = append(allPorts, portPattern.FindAllString(m[1], -1)...)
	}

	for _, p := range allPorts {
		if p == want {
			return true, fmt.Sprintf("port %s exposed", want)
		}
	}
	if len(allPorts) == 0 {
		return false, fmt.Sprintf("no EXPOSE found, expected port %s", want)
	}
	return false, fmt.Sprintf("exposed ports %s, expected %s", rubric.QuotedList(allPorts), want)
}

func outcomeTargetNames(dockerfile string, task taskdata.Task) (bool, string) {
	if !task.MultiTarget {
		return true, "n/a (not a multi-target build)"
	}
	if len(task.Targets) == 0 {
		return true, "no target names specified in task"
	}

	actual := make(map[string]bool)
	for _, m := range fromAliasPattern.FindAllStringSubmatch(dockerfile, -1) {
		actual[strings.ToLower(m[1])] = true
	}

	var missing []string
	for _, t := range task.Targets {
		if !actual[strings.ToLower(t)] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return true, fmt.Sprintf("all %d targets found: %s", len(task.Targets), rubric.QuotedList(task.Targets))
	}

	found := make([]string, 0, len(actual))
	for t := range actual {
		found = append(found, t)
	}
	sort.Strings(found)
	return false, fmt.Sprintf("missing targets: %s (found: %s)", rubric.QuotedList(missing), rubric.QuotedList(found))
}

func outcomeRuntimeMatch(dockerfile string, task taskdata.Task) (bool, string) {
	runtime := task.Runtime
	if runtime == "" || runtime == "multi" {
		return true, "n/a (no single runtime or multi-service)"
	}

	var fromImages []string
	for _, m := range fromImagePattern.FindAllStringSubmatch(dockerfile, -1) {
		fromImages = append(fromImages, m[1])
	}
	if len(fromImages) == 0 {
		return false, "no FROM instruction found"
	}

	keywords, ok := runtimeKeywords[runtime]
	if !ok {
		keywords = []string{runtime}
	}
	for _, img := range fromImages {
		if containsAny(strings.ToLower(img), keywords) {
			return true, fmt.Sprintf("runtime '%s' matched in FROM %s", runtime, img)
		}
	}
	return false, fmt.Sprintf("runtime '%s' not found in FROM images: %s", runtime, rubric.QuotedList(fromImages))
}
