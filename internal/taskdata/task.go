// Package taskdata loads the per-task metadata that parameterizes rubric
// rules: expected ports, allowed commit scopes, required Terraform resources,
// and similar knobs. Task files are JSON documents produced alongside the
// experiment definition; the engine loads them but never defines them.
//
// Import rules:
//   - CAN import: internal/errors, standard library
//   - MUST NOT import: other internal packages
package taskdata

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Task carries every metadata field any rubric rule reads. Zero values mean
// "not constrained by this task": rules treat an absent field exactly as the
// reference pipeline treated a missing dict key.
type Task struct {
	// TaskID matches RunRecord.Task. Some experiment definitions store it
	// as a JSON number; it is normalized to its decimal string form.
	TaskID FlexString `json:"task_id"`

	// Port is the port the container build is expected to expose.
	Port int `json:"port,omitempty"`

	// MultiTarget marks tasks whose build must define named stages.
	MultiTarget bool `json:"multi_target,omitempty"`

	// Targets lists the stage names a multi-target build must define.
	Targets []string `json:"targets,omitempty"`

	// Runtime names the expected application runtime (node, python, ...).
	Runtime string `json:"runtime,omitempty"`

	// AllowedScopes restricts commit scopes; empty means unconstrained.
	AllowedScopes []string `json:"allowed_scopes,omitempty"`

	// GitmojiMap maps commit types to the gitmoji code expected after the
	// separator, e.g. {"fix": ":bug:"}.
	GitmojiMap map[string]string `json:"gitmoji_map,omitempty"`

	// BodyMinWords and BodyMaxWords bound the commit body word count.
	// Both zero means no bounds are enforced.
	BodyMinWords int `json:"body_min_words,omitempty"`
	BodyMaxWords int `json:"body_max_words,omitempty"`

	// SignedOffBy is the exact identity a Signed-off-by footer must carry.
	SignedOffBy string `json:"signed_off_by,omitempty"`

	// BreakingChange marks tasks that must declare a BREAKING CHANGE footer.
	BreakingChange bool `json:"breaking_change,omitempty"`

	// JiraProject and JiraNumber define the ticket reference a commit must
	// cite, rendered as PROJECT-NUMBER. The number is stored as text because
	// experiment definitions write it both ways.
	JiraProject string     `json:"jira_project,omitempty"`
	JiraNumber  FlexString `json:"jira_number,omitempty"`

	// RequiresLeftJoin marks SQL tasks where join-bearing models are
	// mandatory, so their absence scores zero instead of vacuous pass.
	RequiresLeftJoin bool `json:"requires_left_join,omitempty"`

	// NullableDimensionColumns lists dimension columns that need COALESCE
	// handling; non-empty makes the COALESCE rule mandatory.
	NullableDimensionColumns []string `json:"nullable_dimension_columns,omitempty"`

	// RequiresDeduplication marks SQL tasks that must deduplicate with
	// ROW_NUMBER, making the dedup rule mandatory.
	RequiresDeduplication bool `json:"requires_deduplication,omitempty"`

	// Resources lists the Terraform resource types the task expects.
	Resources []string `json:"resources,omitempty"`

	// Requirements nests additional per-task requirements.
	Requirements Requirements `json:"requirements,omitempty"`

	// RequiresPagination marks API tasks whose list endpoints must use
	// cursor pagination.
	RequiresPagination bool `json:"requires_pagination,omitempty"`

	// RequiresAuth marks API tasks that must define and apply security
	// schemes.
	RequiresAuth bool `json:"requires_auth,omitempty"`

	// HasAsyncOperations marks API tasks with long-running operations that
	// should respond 202.
	HasAsyncOperations bool `json:"has_async_operations,omitempty"`

	// ExpectedPaths and ExpectedSchemas list API surface the task demands.
	ExpectedPaths   []string `json:"expected_paths,omitempty"`
	ExpectedSchemas []string `json:"expected_schemas,omitempty"`

	// ChartType, HighlightSeries, and DataPoints drive the deep chart
	// rubric's task-aware rules.
	ChartType       string `json:"chart_type,omitempty"`
	HighlightSeries int    `json:"highlight_series,omitempty"`
	DataPoints      int    `json:"data_points,omitempty"`
}

// Requirements nests secondary task requirements. The reference task files
// use both top-level fields and this nested block; rules consult both.
type Requirements struct {
	// Port is the alternate location for the expected container port.
	Port int `json:"port,omitempty"`

	// SensitiveValues marks Terraform tasks handling secrets, requiring
	// sensitive = true on variables.
	SensitiveValues bool `json:"sensitive_values,omitempty"`

	// DataSources marks Terraform tasks that must look up existing
	// infrastructure with data blocks.
	DataSources bool `json:"data_sources,omitempty"`

	// Auth is the alternate location for the API auth requirement.
	Auth bool `json:"auth,omitempty"`
}

// ExpectedPort returns the port required by the task, preferring the
// top-level field over the nested requirement. Zero means unconstrained.
func (t Task) ExpectedPort() int {
	if t.Port != 0 {
		return t.Port
	}
	return t.Requirements.Port
}

// AuthRequired reports whether the task demands API authentication,
// consulting both the top-level flag and the nested requirement.
func (t Task) AuthRequired() bool {
	return t.RequiresAuth || t.Requirements.Auth
}

// FlexString is a string that also accepts JSON numbers, normalizing them to
// their decimal form. Experiment definitions are inconsistent about whether
// task identifiers are strings or numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	// Integer-valued numbers render without a fractional part.
	if i, err := n.Int64(); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the normalized string form.
func (f FlexString) String() string { return string(f) }
