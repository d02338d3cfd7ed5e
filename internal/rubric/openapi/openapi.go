// Package openapi scores OpenAPI 3.x REST contract documents against the
// fourteen-rule API design rubric. All fourteen rules are automatable, so
// auto_score tops out at fourteen. Three outcome checks probe the task's
// semantic goal (expected paths, expected schemas, async 202 responses) and
// feed a separate outcome_score. Specs are accepted in JSON or YAML.
package openapi

import (
	"context"
	"strings"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// failureDetail fills every rule cell when no spec could be extracted.
const failureDetail = "no valid spec extracted"

// Rubric implements rubric.Rubric for the openapi domain.
type Rubric struct{}

// New returns the openapi rubric.
func New() *Rubric { return &Rubric{} }

// Domain returns the domain identifier.
func (r *Rubric) Domain() string { return constants.DomainOpenAPI }

// MaxScore returns the maximum attainable auto_score.
func (r *Rubric) MaxScore() float64 { return 14 }

// Rules returns the rule set in ledger column order.
func (r *Rubric) Rules() []rubric.Rule {
	rules := make([]rubric.Rule, 0, len(ruleTable))
	for _, rl := range ruleTable {
		rules = append(rules, rubric.Rule{ID: rl.id, Title: rl.title})
	}
	return rules
}

// Columns returns the openapi ledger's full CSV header.
func (r *Rubric) Columns() []string {
	cols := append([]string{}, rubric.BaseColumns...)
	cols = append(cols, "extraction_ok", "extraction_error", "structure_valid", "structure_errors")
	for _, rl := range ruleTable {
		cols = append(cols, rl.id+"_pass", rl.id+"_detail")
	}
	cols = append(cols, "auto_score", "scored_rules", "needs_manual_review")
	for _, oc := range outcomeTable {
		cols = append(cols, oc.id+"_pass", oc.id+"_detail")
	}
	cols = append(cols, "outcome_score")
	return cols
}

// Doc returns the rubric description rendered by the rules command.
func (r *Rubric) Doc() string {
	outcomes := make([]rubric.Rule, 0, len(outcomeTable))
	for _, oc := range outcomeTable {
		outcomes = append(outcomes, rubric.Rule{ID: oc.id, Title: oc.title})
	}
	summary := "Scores a generated OpenAPI 3.x document against REST API design\n" +
		"conventions. All fourteen rules are automatable (max 14). The structure\n" +
		"gate requires an openapi version field, an info object, and a paths\n" +
		"object; specs are accepted in JSON or YAML."
	return rubric.BuildDoc(constants.DomainOpenAPI, summary, r.Rules(), outcomes)
}

// Extract runs only the artifact-location stage against one run record.
func (r *Rubric) Extract(rec *domain.RunRecord) domain.ExtractedArtifact {
	return locate(extract.Unwrap(rec.RawOutput))
}

// Evaluate scores one run record. Extraction failure yields a complete
// record with every rule column carrying the failure detail.
func (r *Rubric) Evaluate(_ context.Context, rec *domain.RunRecord, task taskdata.Task) *domain.ScoreRecord {
	usage, usageFound := extract.Usage(rec.RawOutput)
	artifact := r.Extract(rec)

	sr := &domain.ScoreRecord{Run: *rec, Usage: usage, Artifact: artifact}
	fields := rubric.BaseFields(rec, usage, usageFound)
	fields = append(fields,
		domain.Field{Name: "extraction_ok", Value: rubric.FormatBool(!artifact.Failed)},
		domain.Field{Name: "extraction_error", Value: artifact.Error},
	)

	if artifact.Failed {
		sr.Values = r.failureValues(fields, sr)
		return sr
	}

	spec := parseSpec(artifact.Content)

	structOK, structErrs := validateStructure(spec)
	fields = append(fields,
		domain.Field{Name: "structure_valid", Value: rubric.FormatBool(structOK)},
		domain.Field{Name: "structure_errors", Value: strings.Join(structErrs, "; ")},
	)

	autoScore, scoredRules := 0, 0
	for _, rl := range ruleTable {
		passed, detail := rl.check(spec, task)
		res := domain.RuleResult{RuleID: rl.id, Passed: passed, Detail: detail}
		if passed {
			res.Rate = 1
		}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
		scoredRules++
		if passed {
			autoScore++
		}
	}
	sr.AutoScore = float64(autoScore)
	sr.ScoredRules = scoredRules
	sr.NeedsManualReview = rubric.NeedsManualReview(sr.Results)
	fields = append(fields,
		domain.Field{Name: "auto_score", Value: rubric.FormatInt(autoScore)},
		domain.Field{Name: "scored_rules", Value: rubric.FormatInt(scoredRules)},
		domain.Field{Name: "needs_manual_review", Value: rubric.FormatBool(sr.NeedsManualReview)},
	)

	outcomeScore := 0
	for _, oc := range outcomeTable {
		passed, detail := oc.check(spec, task)
		res := domain.RuleResult{RuleID: oc.id, Passed: passed, Detail: detail}
		if passed {
			res.Rate = 1
			outcomeScore++
		}
		sr.Outcomes = append(sr.Outcomes, res)
		fields = rubric.AppendPassFields(fields, oc.id, res)
	}
	fields = append(fields, domain.Field{Name: "outcome_score", Value: rubric.FormatInt(outcomeScore)})

	sr.Values = fields
	return sr
}

// failureValues completes the ledger row for a run whose spec could not be
// extracted: structure invalid, every rule and outcome failed with the fixed
// failure detail, all scores zero.
func (r *Rubric) failureValues(fields []domain.Field, sr *domain.ScoreRecord) []domain.Field {
	fields = append(fields,
		domain.Field{Name: "structure_valid", Value: rubric.FormatBool(false)},
		domain.Field{Name: "structure_errors", Value: sr.Artifact.Error},
	)
	for _, rl := range ruleTable {
		res := domain.RuleResult{RuleID: rl.id, Detail: failureDetail}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
	}
	fields = append(fields,
		domain.Field{Name: "auto_score", Value: "0"},
		domain.Field{Name: "scored_rules", Value: "0"},
		domain.Field{Name: "needs_manual_review", Value: rubric.FormatBool(false)},
	)
	for _, oc := range outcomeTable {
		res := domain.RuleResult{RuleID: oc.id, Detail: failureDetail}
		sr.Outcomes = append(sr.Outcomes, res)
		fields = rubric.AppendPassFields(fields, oc.id, res)
	}
	return append(fields, domain.Field{Name: "outcome_score", Value: "0"})
}
