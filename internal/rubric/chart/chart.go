// Package chart scores chart specification JSON with the quick screen: the
// five rules of the fifteen-rule visualization rubric that are checkable
// from the JSON alone (title, source, y-axis baseline, spines, aspect
// ratio). The remaining rules need a rendered chart in front of a reviewer,
// which is what the needs_manual_review column is for. The chart-deep
// rubric covers all fifteen with verdict columns instead.
package chart

import (
	"context"
	"strings"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// failureDetail fills every rule cell when no chart JSON could be decoded.
const failureDetail = "no valid JSON"

// Rubric implements rubric.Rubric for the chart domain.
type Rubric struct{}

// New returns the chart quick-screen rubric.
func New() *Rubric { return &Rubric{} }

// Domain returns the domain identifier.
func (r *Rubric) Domain() string { return constants.DomainChart }

// MaxScore returns the maximum attainable auto_score.
func (r *Rubric) MaxScore() float64 { return 5 }

// Rules returns the automated subset of the rubric in ledger column order.
func (r *Rubric) Rules() []rubric.Rule {
	rules := make([]rubric.Rule, 0, len(ruleTable))
	for _, rl := range ruleTable {
		rules = append(rules, rubric.Rule{ID: rl.id, Title: rl.title})
	}
	return rules
}

// Columns returns the chart ledger's full CSV header.
func (r *Rubric) Columns() []string {
	cols := append([]string{}, rubric.BaseColumns...)
	cols = append(cols, "json_valid", "json_error", "schema_valid", "schema_errors")
	for _, rl := range ruleTable {
		cols = append(cols, rl.id+"_pass", rl.id+"_detail")
	}
	return append(cols, "auto_score", "needs_manual_review")
}

// Doc returns the rubric description rendered by the rules command.
func (r *Rubric) Doc() string {
	summary := "Scores a generated chart specification against the five rules of the\n" +
		"visualization rubric that are automatable from the JSON alone (max 5).\n" +
		"Rule numbering follows the full fifteen-rule rubric; the gaps need a\n" +
		"rendered chart and a human. Gate columns record whether the output\n" +
		"decoded to a JSON object and whether the core schema fields are present."
	return rubric.BuildDoc(constants.DomainChart, summary, r.Rules(), nil)
}

// Extract runs only the artifact-location stage against one run record.
func (r *Rubric) Extract(rec *domain.RunRecord) domain.ExtractedArtifact {
	return locate(extract.Unwrap(rec.RawOutput))
}

// Evaluate scores one run record. Extraction failure yields a complete
// record with every rule column carrying the failure detail.
func (r *Rubric) Evaluate(_ context.Context, rec *domain.RunRecord, _ taskdata.Task) *domain.ScoreRecord {
	usage, usageFound := extract.Usage(rec.RawOutput)
	artifact := r.Extract(rec)

	sr := &domain.ScoreRecord{Run: *rec, Usage: usage, Artifact: artifact}
	fields := rubric.BaseFields(rec, usage, usageFound)
	fields = append(fields,
		domain.Field{Name: "json_valid", Value: rubric.FormatBool(!artifact.Failed)},
		domain.Field{Name: "json_error", Value: artifact.Error},
	)

	if artifact.Failed {
		sr.Values = r.failureValues(fields, sr)
		return sr
	}

	chart, _ := decodeObject(artifact.Content)
	schemaOK, schemaErrs := validateSchema(chart)
	fields = append(fields,
		domain.Field{Name: "schema_valid", Value: rubric.FormatBool(schemaOK)},
		domain.Field{Name: "schema_errors", Value: strings.Join(schemaErrs, "; ")},
	)

	autoScore := 0
	for _, rl := range ruleTable {
		passed, detail := rl.check(chart)
		res := domain.RuleResult{RuleID: rl.id, Passed: passed, Detail: detail}
		if passed {
			res.Rate = 1
			autoScore++
		}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
	}
	sr.AutoScore = float64(autoScore)
	sr.ScoredRules = len(ruleTable)
	sr.NeedsManualReview = rubric.NeedsManualReview(sr.Results)

	fields = append(fields,
		domain.Field{Name: "auto_score", Value: rubric.FormatInt(autoScore)},
		domain.Field{Name: "needs_manual_review", Value: rubric.FormatBool(sr.NeedsManualReview)},
	)
	sr.Values = fields
	return sr
}

// failureValues completes the ledger row for a run whose output never
// decoded to a chart object: schema invalid with the extraction error,
// every rule failed with the fixed detail, score zero.
func (r *Rubric) failureValues(fields []domain.Field, sr *domain.ScoreRecord) []domain.Field {
	fields = append(fields,
		domain.Field{Name: "schema_valid", Value: rubric.FormatBool(false)},
		domain.Field{Name: "schema_errors", Value: sr.Artifact.Error},
	)
	for _, rl := range ruleTable {
		res := domain.RuleResult{RuleID: rl.id, Detail: failureDetail}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
	}
	return append(fields,
		domain.Field{Name: "auto_score", Value: "0"},
		domain.Field{Name: "needs_manual_review", Value: rubric.FormatBool(false)},
	)
}
