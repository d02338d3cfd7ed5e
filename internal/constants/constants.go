// Package constants provides centralized constant values used throughout VERDICT.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

// Domain identifiers for the supported rubrics.
// These values appear in RunRecord.domain and select the rubric to apply.
const (
	// DomainDockerfile scores container build files.
	DomainDockerfile = "dockerfile"

	// DomainSQLPipe scores multi-file dbt-style SQL model pipelines.
	DomainSQLPipe = "sqlpipe"

	// DomainCommitMsg scores conventional commit messages.
	DomainCommitMsg = "commitmsg"

	// DomainTerraform scores Terraform infrastructure modules.
	DomainTerraform = "terraform"

	// DomainChart scores chart specification JSON with the quick screen
	// (the five automatable rules of the fifteen-rule chart rubric).
	DomainChart = "chart"

	// DomainChartDeep scores chart specification JSON with the full
	// fifteen-rule design-review rubric using three-valued verdicts.
	DomainChartDeep = "chart-deep"

	// DomainOpenAPI scores OpenAPI 3.x REST contract documents.
	DomainOpenAPI = "openapi"
)

// Domains lists every supported domain identifier in registry order.
//
//nolint:gochecknoglobals // Read-only lookup table
var Domains = []string{
	DomainDockerfile,
	DomainSQLPipe,
	DomainCommitMsg,
	DomainTerraform,
	DomainChart,
	DomainChartDeep,
	DomainOpenAPI,
}

// Generation condition identifiers captured by the orchestration layer.
// The engine scores unknown conditions too; these document the known matrix.
const (
	// ConditionNone is the bare-prompt control condition.
	ConditionNone = "none"

	// ConditionMarkdown is the markdown-formatted instruction condition.
	ConditionMarkdown = "markdown"

	// ConditionPseudocode is the pseudocode-formatted instruction condition.
	ConditionPseudocode = "pseudocode"

	// ConditionPseudocodeTarget is pseudocode instructions plus an explicit
	// target example.
	ConditionPseudocodeTarget = "pseudocode+target"
)

// Engine defaults.
const (
	// DefaultWorkers of 0 means "one worker per CPU"; the engine resolves
	// the effective count at start.
	DefaultWorkers = 0

	// MinContentLength is the minimum byte length for recovered write-tool
	// content to be considered a real artifact candidate.
	MinContentLength = 20
)

// Schema version constants for data migration support.
const (
	// LedgerSchemaVersion is the current version of the per-domain CSV
	// ledger column layout. Column sets are append-only per domain.
	LedgerSchemaVersion = "1.0"
)
