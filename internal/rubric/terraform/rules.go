package terraform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// checkFunc evaluates one rule against the extracted HCL text.
type checkFunc func(tf string, task taskdata.Task) (bool, string)

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
	{id: "rule_1_naming", title: "Resource names are descriptive snake_case", check: checkNaming},
	{id: "rule_2_var_description", title: "Every variable declares a description", check: checkVarDescription},
	{id: "rule_3_var_type", title: "Every variable declares a type constraint", check: checkVarType},
	{id: "rule_4_outputs", title: "At least one output block defined", check: checkOutputs},
	{id: "rule_5_tags", title: "Tags present on every taggable resource", check: checkTags},
	{id: "rule_6_lifecycle", title: "Lifecycle blocks protect stateful resources", manual: true, check: checkLifecycle},
	{id: "rule_7_var_separation", title: "Variables grouped, not scattered between resources", check: checkVarSeparation},
	{id: "rule_8_file_structure", title: "Standard module file layout used or mentioned", check: checkFileStructure},
	{id: "rule_9_no_hardcoded_ids", title: "No hardcoded AMI IDs, account IDs, or regions", check: checkNoHardcodedIDs},
	{id: "rule_10_provider_pinned", title: "Provider version pinned in required_providers", check: checkProviderPinned},
	{id: "rule_11_backend", title: "State backend or Terraform Cloud configured", check: checkBackend},
	{id: "rule_12_sensitive", title: "Secret-bearing values marked sensitive = true", check: checkSensitive},
	{id: "rule_13_data_sources", title: "Data sources used for required lookups", check: checkDataSources},
	{id: "rule_14_locals", title: "Locals block present for shared values", check: checkLocals},
}

// taggableResources lists the AWS resource types that accept a tags
// argument. S3 sub-resources (versioning, lifecycle configuration) are
// excluded: their tags live on the parent bucket.
//
//nolint:gochecknoglobals // Read-only lookup table
var taggableResources = map[string]bool{
	"aws_instance":              true,
	"aws_s3_bucket":             true,
	"aws_vpc":                   true,
	"aws_subnet":                true,
	"aws_security_group":        true,
	"aws_lb":                    true,
	"aws_ecs_cluster":           true,
	"aws_db_instance":           true,
	"aws_ecs_service":           true,
	"aws_ecs_task_definition":   true,
	"aws_cloudwatch_log_group":  true,
	"aws_eip":                   true,
	"aws_nat_gateway":           true,
	"aws_internet_gateway":      true,
	"aws_route_table":           true,
	"aws_lb_target_group":       true,
	"aws_secretsmanager_secret": true,
	"aws_iam_role":              true,
}

var (
	snakeCasePattern   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	genericNamePattern = regexp.MustCompile(`^[a-z]{1,3}\d*$`)

	descriptionAttrPattern = regexp.MustCompile(`\bdescription\s*=`)
	typeAttrPattern        = regexp.MustCompile(`\btype\s*=`)
	tagsAttrPattern        = regexp.MustCompile(`\btags\s*=`)
	dynamicTagsPattern     = regexp.MustCompile(`dynamic\s+"tags?"`)
	sensitiveTruePattern   = regexp.MustCompile(`\bsensitive\s*=\s*true\b`)

	topBlockPattern = regexp.MustCompile(`(?m)^\s*(resource|variable)\b`)

	amiPattern          = regexp.MustCompile(`ami-[0-9a-f]{8,17}`)
	hashCommentPattern  = regexp.MustCompile(`(?m)#.*$`)
	slashCommentPattern = regexp.MustCompile(`(?m)//.*$`)
	// Boundary groups stand in for digit lookarounds, so a longer digit run
	// never yields a 12-digit window.
	accountIDPattern    = regexp.MustCompile(`(?:^|[^0-9])[0-9]{12}(?:[^0-9]|$)`)
	regionPattern       = regexp.MustCompile(`"(us|eu|ap|sa|ca|me|af)-(east|west|south|north|central|northeast|southeast|southwest|northwest)-\d"`)
	providerOpenPattern = regexp.MustCompile(`(?:provider\s+"[^"]+"|terraform)\s*\{`)

	requiredProvidersPattern = regexp.MustCompile(`required_providers\s*\{`)
	providerEntryPattern     = regexp.MustCompile(`\w+\s*=\s*\{([^}]*)\}`)
	versionAttrPattern       = regexp.MustCompile(`\bversion\s*=\s*"([^"]*)"`)

	backendPattern     = regexp.MustCompile(`backend\s+"([^"]+)"\s*\{`)
	cloudBlockPattern  = regexp.MustCompile(`\bcloud\s*\{`)
	localsBlockPattern = regexp.MustCompile(`\blocals\s*\{`)
)

// markerFiles is the module layout rule's search list, in report order.
//
//nolint:gochecknoglobals // Read-only lookup table
var markerFiles = []string{"main.tf", "variables.tf", "outputs.tf", "data.tf", "locals.tf"}

// checkNaming flags single-letter or type-prefix-digit names like sg1 and
// vpc1, and anything that is not lower snake_case.
func checkNaming(tf string, _ taskdata.Task) (bool, string) {
	resources := resourceBlocks(tf)
	if len(resources) == 0 {
		return false, "no resources found"
	}

	var violations []string
	for _, r := range resources {
		switch {
		case !snakeCasePattern.MatchString(r.name):
			violations = append(violations, r.rtype+"."+r.name+": not snake_case")
		case genericNamePattern.MatchString(r.name):
			violations = append(violations, r.rtype+"."+r.name+": too generic/short")
		}
	}

	if len(violations) > 0 {
		if len(violations) > 5 {
			violations = violations[:5]
		}
		return false, strings.Join(violations, "; ")
	}
	return true, fmt.Sprintf("all %d resource names are descriptive snake_case", len(resources))
}

func checkVarDescription(tf string, _ taskdata.Task) (bool, string) {
	variables := variableBlocks(tf)
	if len(variables) == 0 {
		return false, "no variables defined"
	}

	var missing []string
	for _, v := range variables {
		if !descriptionAttrPattern.MatchString(v.body) {
			missing = append(missing, v.name)
		}
	}

	if len(missing) > 0 {
		return false, "missing description: " + rubric.QuotedList(missing)
	}
	return true, fmt.Sprintf("all %d variables have descriptions", len(variables))
}

func checkVarType(tf string, _ taskdata.Task) (bool, string) {
	variables := variableBlocks(tf)
	if len(variables) == 0 {
		return false, "no variables defined"
	}

	var missing []string
	for _, v := range variables {
		if !typeAttrPattern.MatchString(v.body) {
			missing = append(missing, v.name)
		}
	}

	if len(missing) > 0 {
		return false, "missing type: " + rubric.QuotedList(missing)
	}
	return true, fmt.Sprintf("all %d variables have type constraints", len(variables))
}

func checkOutputs(tf string, _ taskdata.Task) (bool, string) {
	outputs := outputBlocks(tf)
	if len(outputs) == 0 {
		return false, "no outputs defined"
	}
	names := make([]string, 0, len(outputs))
	for _, o := range outputs {
		names = append(names, o.name)
	}
	return true, fmt.Sprintf("%d outputs defined: %s", len(outputs), rubric.QuotedList(names))
}

// checkTags accepts literal maps, local and variable references, merge()
// calls, and dynamic "tag" blocks.
func checkTags(tf string, _ taskdata.Task) (bool, string) {
	resources := resourceBlocks(tf)
	if len(resources) == 0 {
		return false, "no resources found"
	}

	var missing []string
	checked := 0
	for _, r := range resources {
		if !taggableResources[r.rtype] {
			continue
		}
		checked++
		if !tagsAttrPattern.MatchString(r.body) && !dynamicTagsPattern.MatchString(r.body) {
			missing = append(missing, r.rtype+"."+r.name)
		}
	}

	if checked == 0 {
		return true, "no taggable resources found"
	}
	if len(missing) > 0 {
		if len(missing) > 5 {
			missing = missing[:5]
		}
		return false, "missing tags on: " + rubric.QuotedList(missing)
	}
	return true, fmt.Sprintf("all %d taggable resources have tags", checked)
}

// checkLifecycle records the lifecycle rule for human review. Whether a
// prevent_destroy or ignore_changes block is warranted depends on intent no
// text scan can recover.
func checkLifecycle(_ string, _ taskdata.Task) (bool, string) {
	return true, "needs_review"
}

// checkVarSeparation walks the order of top-level resource and variable
// declarations: a variable sandwiched between resources fails.
func checkVarSeparation(tf string, _ taskdata.Task) (bool, string) {
	matches := topBlockPattern.FindAllStringSubmatch(tf, -1)

	hasVariable := false
	for _, m := range matches {
		if m[1] == "variable" {
			hasVariable = true
			break
		}
	}
	if len(matches) == 0 || !hasVariable {
		return true, "needs_review (no variable blocks found)"
	}

	sawResource := false
	sawVarAfterResource := false
	scattered := false
	for _, m := range matches {
		switch m[1] {
		case "resource":
			if sawVarAfterResource {
				scattered = true
			}
			sawResource = true
		case "variable":
			if sawResource {
				sawVarAfterResource = true
			}
		}
	}

	if scattered {
		return false, "variables scattered between resource blocks"
	}
	return true, "variables appear grouped"
}

func checkFileStructure(tf string, _ taskdata.Task) (bool, string) {
	var found []string
	for _, f := range markerFiles {
		if strings.Contains(tf, f) {
			found = append(found, f)
		}
	}
	if len(found) > 0 {
		return true, "file structure mentioned: " + rubric.QuotedList(found)
	}
	return true, "needs_review (single file output)"
}

// checkNoHardcodedIDs scans for baked-in AMI IDs, 12-digit account numbers
// outside comments, and region strings outside provider and terraform
// blocks.
func checkNoHardcodedIDs(tf string, _ taskdata.Task) (bool, string) {
	var violations []string

	if amiPattern.MatchString(tf) {
		violations = append(violations, "hardcoded AMI ID (ami-*)")
	}

	noComments := hashCommentPattern.ReplaceAllString(tf, "")
	noComments = slashCommentPattern.ReplaceAllString(noComments, "")
	if accountIDPattern.MatchString(noComments) {
		violations = append(violations, "possible hardcoded AWS account ID (12 digits)")
	}

	if regionPattern.MatchString(stripProviderBlocks(tf)) {
		violations = append(violations, "hardcoded region string in resource block")
	}

	if len(violations) > 0 {
		return false, strings.Join(violations, "; ")
	}
	return true, "no hardcoded IDs found"
}

// stripProviderBlocks removes provider and terraform blocks, where region
// strings are legitimate. Matches come off the original text and are cut
// back to front so earlier offsets stay valid.
func stripProviderBlocks(tf string) string {
	matches := providerOpenPattern.FindAllStringIndex(tf, -1)
	out := tf
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		end := m[1] + len(blockBody(tf, m[1]-1)) - 1
		if end > len(out) {
			end = len(out)
		}
		out = out[:m[0]] + out[end:]
	}
	return out
}

func checkProviderPinned(tf string, _ taskdata.Task) (bool, string) {
	loc := requiredProvidersPattern.FindStringIndex(tf)
	if loc == nil {
		return false, "no required_providers block found"
	}

	body := blockBody(tf, loc[1]-1)
	for _, entry := range providerEntryPattern.FindAllStringSubmatch(body, -1) {
		if m := versionAttrPattern.FindStringSubmatch(entry[1]); m != nil {
			return true, "provider version pinned: " + m[1]
		}
	}
	return false, "required_providers block found but no version constraint"
}

func checkBackend(tf string, _ taskdata.Task) (bool, string) {
	if m := backendPattern.FindStringSubmatch(tf); m != nil {
		return true, "backend configured: " + m[1]
	}
	// Terraform Cloud and Enterprise use a cloud block instead.
	if cloudBlockPattern.MatchString(tf) {
		return true, "backend configured: terraform cloud"
	}
	return false, "no backend configuration found"
}

// checkSensitive only applies when the task handles secrets; it then
// requires at least one variable or output marked sensitive.
func checkSensitive(tf string, task taskdata.Task) (bool, string) {
	if !task.Requirements.SensitiveValues {
		return true, "n/a (task does not require sensitive values)"
	}

	var sensitiveVars, sensitiveOutputs []string
	for _, v := range variableBlocks(tf) {
		if sensitiveTruePattern.MatchString(v.body) {
			sensitiveVars = append(sensitiveVars, v.name)
		}
	}
	for _, o := range outputBlocks(tf) {
		if sensitiveTruePattern.MatchString(o.body) {
			sensitiveOutputs = append(sensitiveOutputs, o.name)
		}
	}

	if len(sensitiveVars) == 0 && len(sensitiveOutputs) == 0 {
		return false, "task requires sensitive values but none marked sensitive = true"
	}
	return true, fmt.Sprintf("sensitive vars: %s, outputs: %s",
		rubric.QuotedList(sensitiveVars), rubric.QuotedList(sensitiveOutputs))
}

func checkDataSources(tf string, task taskdata.Task) (bool, string) {
	if !task.Requirements.DataSources {
		return true, "n/a (task does not require data sources)"
	}

	blocks := dataBlocks(tf)
	if len(blocks) == 0 {
		return false, "task requires data sources but none defined"
	}
	names := make([]string, 0, len(blocks))
	for _, d := range blocks {
		names = append(names, d.dtype+"."+d.name)
	}
	return true, fmt.Sprintf("%d data sources: %s", len(blocks), rubric.QuotedList(names))
}

func checkLocals(tf string, _ taskdata.Task) (bool, string) {
	if localsBlockPattern.MatchString(tf) {
		return true, "locals block present"
	}
	return false, "no locals block defined"
}
