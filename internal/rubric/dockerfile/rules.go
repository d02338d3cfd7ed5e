package dockerfile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// checkFunc evaluates one rule against the parsed instruction list.
type checkFunc func(instrs []instruction, task taskdata.Task) (bool, string)

// ruleTable lists the rules in ledger column order. Numbering is append-only
// because historical ledger columns derive from the IDs.
//
//nolint:gochecknoglobals // Read-only rule registry
var ruleTable = []struct {
	id     string
	title  string
	manual bool
	check  checkFunc
}{
	{id: "rule_1_tag", title: "Every FROM pins a specific version tag", check: checkTag},
	{id: "rule_2_user", title: "Non-root USER directive present", check: checkUser},
	{id: "rule_3_secrets", title: "No secret-looking values in ENV or ARG", check: checkSecrets},
	{id: "rule_4_multistage", title: "Multi-stage build with at least two FROM statements", check: checkMultistage},
	{id: "rule_5_workdir", title: "WORKDIR set before the first COPY or RUN in a stage", check: checkWorkdir},
	{id: "rule_6_deps_first", title: "Dependency files copied before source code", check: checkDepsFirst},
	{id: "rule_7_combined_run", title: "No more than two adjacent RUN instructions", check: checkCombinedRun},
	{id: "rule_8_apt", title: "apt-get install uses --no-install-recommends and cleans the lists", check: checkApt},
	{id: "rule_9_healthcheck", title: "HEALTHCHECK instruction present", check: checkHealthcheck},
	{id: "rule_10_expose", title: "EXPOSE instruction present", check: checkExpose},
	{id: "rule_11_label", title: "At least one LABEL present", check: checkLabel},
	{id: "rule_12_exec_form", title: "CMD and ENTRYPOINT use exec form", check: checkExecForm},
	{id: "rule_13_no_add", title: "ADD only for archive extraction or remote URLs", check: checkNoAdd},
	{id: "rule_14_dockerignore", title: "A .dockerignore is considered", manual: true, check: checkDockerignore},
}

var secretPattern = regexp.MustCompile(
	`(?i)password|secret|token|api[_-]?key|private[_-]?key|credential|aws[_-]?secret`)

var depFilePattern = regexp.MustCompile(
	`package\.json|package-lock\.json|yarn\.lock|requirements\.txt|Pipfile|pyproject\.toml|poetry\.lock|` +
		`go\.mod|go\.sum|Cargo\.toml|Cargo\.lock|pom\.xml|build\.gradle`)

// Commands that operate on absolute paths and are safe to run before a
// WORKDIR is set: user and permission setup, package manager installs,
// toolchain installs that target fixed locations.
//
//nolint:gochecknoglobals // Read-only lookup table
var workdirExemptCommands = []string{
	"adduser", "addgroup", "useradd", "groupadd",
	"chown", "chmod", "setcap",
	"apt-get", "apk add", "yum install", "dnf install",
	"cargo install", "pip install", "npm install -g",
	"python -m venv", "python3 -m venv",
}

//nolint:gochecknoglobals // Read-only lookup table
var archiveExtensions = []string{".tar", ".tgz", ".gz", ".bz2", ".xz"}

func checkTag(instrs []instruction, _ taskdata.Task) (bool, string) {
	froms := filterVerb(instrs, "FROM")
	if len(froms) == 0 {
		return false, "no FROM found"
	}

	aliases := stageAliases(froms)

	var bad []string
	for _, in := range froms {
		imagePart := imageOf(in.args)
		lower := strings.ToLower(imagePart)
		if lower == "scratch" || aliases[lower] {
			continue
		}
		if !strings.Contains(imagePart, ":") {
			bad = append(bad, imagePart+" (no tag)")
			continue
		}
		tag := strings.SplitN(imagePart, ":", 2)[1]
		if strings.ToLower(tag) == "latest" {
			bad = append(bad, imagePart+" (uses :latest)")
		}
	}

	if len(bad) > 0 {
		return false, "unversioned FROM: " + strings.Join(bad, ", ")
	}
	return true, "ok"
}

func checkUser(instrs []instruction, _ taskdata.Task) (bool, string) {
	users := filterVerb(instrs, "USER")
	if len(users) == 0 {
		return false, "no USER instruction found"
	}

	for _, in := range users {
		// USER user:group
		user := strings.SplitN(strings.TrimSpace(in.args), ":", 2)[0]
		if lower := strings.ToLower(user); lower != "root" && lower != "0" {
			return true, fmt.Sprintf("ok (USER %s)", user)
		}
	}
	return false, "USER is root"
}

func checkSecrets(instrs []instruction, _ taskdata.Task) (bool, string) {
	var suspects []string
	for _, in := range instrs {
		if in.verb != "ENV" && in.verb != "ARG" {
			continue
		}
		if !secretPattern.MatchString(in.args) {
			continue
		}
		// A bare declaration like ARG API_KEY is fine; a hardcoded value
		// like ARG API_KEY=hunter2 is not.
		if strings.Contains(in.args, "=") {
			name := strings.TrimSpace(strings.SplitN(in.args, "=", 2)[0])
			suspects = append(suspects, in.verb+" "+name)
		}
	}

	if len(suspects) > 0 {
		return false, "possible secrets: " + strings.Join(suspects, ", ")
	}
	return true, "ok"
}

func checkMultistage(instrs []instruction, _ taskdata.Task) (bool, string) {
	fromCount := len(filterVerb(instrs, "FROM"))
	if fromCount < 2 {
		return false, fmt.Sprintf("only %d FROM (need >= 2 for multi-stage)", fromCount)
	}
	return true, fmt.Sprintf("ok (%d stages)", fromCount)
}

func checkWorkdir(instrs []instruction, _ taskdata.Task) (bool, string) {
	// First pass: which stage aliases define a WORKDIR. A child stage built
	// FROM such an alias inherits it.
	stageHasWorkdir := make(map[string]bool)
	currentAlias := ""
	for _, in := range instrs {
		switch in.verb {
		case "FROM":
			currentAlias = ""
			parts := strings.Fields(in.args)
			for i, p := range parts {
				if strings.ToUpper(p) == "AS" && i+1 < len(parts) {
					currentAlias = strings.ToLower(parts[i+1])
				}
			}
		case "WORKDIR":
			if currentAlias != "" {
				stageHasWorkdir[currentAlias] = true
			}
		}
	}

	// Second pass: each stage must set (or inherit) WORKDIR before its
	// first path-relative COPY, RUN, or ADD.
	workdirSeen := false
	for _, in := range instrs {
		switch in.verb {
		case "FROM":
			workdirSeen = stageHasWorkdir[strings.ToLower(imageOf(in.args))]
		case "WORKDIR":
			workdirSeen = true
		case "COPY", "RUN", "ADD":
			if workdirSeen {
				continue
			}
			if in.verb == "COPY" && strings.Contains(in.args, "--from=") {
				continue
			}
			if in.verb == "RUN" && containsAny(strings.ToLower(in.args), workdirExemptCommands) {
				continue
			}
			return false, fmt.Sprintf("%s before WORKDIR in a stage", in.verb)
		}
	}
	return true, "ok"
}

func checkDepsFirst(instrs []instruction, _ taskdata.Task) (bool, string) {
	foundDepCopy := false
	foundBroadCopy := false
	for _, in := range instrs {
		if in.verb == "FROM" {
			foundDepCopy = false
			foundBroadCopy = false
			continue
		}
		if in.verb != "COPY" || strings.Contains(in.args, "--from=") {
			continue
		}
		trimmed := strings.TrimSpace(in.args)
		switch {
		case depFilePattern.MatchString(in.args):
			foundDepCopy = true
		case strings.Contains(in.args, ". .") ||
			strings.HasSuffix(trimmed, " .") ||
			strings.HasSuffix(trimmed, " ./"):
			if !foundDepCopy {
				foundBroadCopy = true
			}
		}
	}

	if foundBroadCopy && !foundDepCopy {
		return false, "broad COPY before dependency file COPY"
	}
	if foundDepCopy {
		return true, "ok (deps copied before source)"
	}
	return true, "needs_review (no broad COPY detected)"
}

func checkCombinedRun(instrs []instruction, _ taskdata.Task) (bool, string) {
	maxAdjacent, streak := 0, 0
	for _, in := range instrs {
		switch in.verb {
		case "FROM":
			streak = 0
		case "RUN":
			streak++
			if streak > maxAdjacent {
				maxAdjacent = streak
			}
		default:
			streak = 0
		}
	}

	if maxAdjacent > 2 {
		return false, fmt.Sprintf("%d adjacent RUN lines (max 2)", maxAdjacent)
	}
	return true, fmt.Sprintf("ok (max %d adjacent)", maxAdjacent)
}

func checkApt(instrs []instruction, _ taskdata.Task) (bool, string) {
	hasAptInstall := false
	hasNoRecommends := true
	hasCacheCleanup := true
	for _, in := range instrs {
		if in.verb != "RUN" || !strings.Contains(in.args, "apt-get") || !strings.Contains(in.args, "install") {
			continue
		}
		hasAptInstall = true
		if !strings.Contains(in.args, "--no-install-recommends") {
			hasNoRecommends = false
		}
		if !strings.Contains(in.args, "rm -rf /var/lib/apt/lists") {
			hasCacheCleanup = false
		}
	}

	if !hasAptInstall {
		return true, "n/a (no apt-get install)"
	}

	var problems []string
	if !hasNoRecommends {
		problems = append(problems, "missing --no-install-recommends")
	}
	if !hasCacheCleanup {
		problems = append(problems, "missing rm -rf /var/lib/apt/lists/*")
	}
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, "ok"
}

func checkHealthcheck(instrs []instruction, _ taskdata.Task) (bool, string) {
	if len(filterVerb(instrs, "HEALTHCHECK")) > 0 {
		return true, "ok"
	}
	return false, "no HEALTHCHECK instruction"
}

func checkExpose(instrs []instruction, _ taskdata.Task) (bool, string) {
	exposes := filterVerb(instrs, "EXPOSE")
	if len(exposes) == 0 {
		return false, "no EXPOSE instruction"
	}

	ports := make([]string, 0, len(exposes))
	for _, in := range exposes {
		ports = append(ports, strings.TrimSpace(in.args))
	}
	return true, fmt.Sprintf("ok (EXPOSE %s)", strings.Join(ports, ", "))
}

func checkLabel(instrs []instruction, _ taskdata.Task) (bool, string) {
	if len(filterVerb(instrs, "LABEL")) > 0 {
		return true, "ok"
	}
	return false, "no LABEL instruction"
}

func checkExecForm(instrs []instruction, _ taskdata.Task) (bool, string) {
	var problems []string
	hasEntry := false
	for _, in := range instrs {
		if in.verb != "CMD" && in.verb != "ENTRYPOINT" {
			continue
		}
		hasEntry = true
		stripped := strings.TrimSpace(in.args)
		if !strings.HasPrefix(stripped, "[") {
			problems = append(problems, fmt.Sprintf("%s uses shell form: %s", in.verb, rubric.Truncate(stripped, 50)))
		}
	}

	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	if !hasEntry {
		return true, "needs_review (no CMD/ENTRYPOINT found)"
	}
	return true, "ok"
}

func checkNoAdd(instrs []instruction, _ taskdata.Task) (bool, string) {
	var badAdds []string
	for _, in := range instrs {
		if in.verb != "ADD" {
			continue
		}
		lower := strings.ToLower(in.args)
		if containsAny(lower, archiveExtensions) {
			continue
		}
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			continue
		}
		badAdds = append(badAdds, rubric.Truncate(strings.TrimSpace(in.args), 60))
	}

	if len(badAdds) > 0 {
		return false, "unnecessary ADD: " + strings.Join(badAdds, "; ")
	}
	return true, "ok"
}

// checkDockerignore cannot be verified from the Dockerfile alone and always
// defers to human review.
func checkDockerignore(_ []instruction, _ taskdata.Task) (bool, string) {
	return true, "needs_review"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
