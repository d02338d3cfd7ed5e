// Package commitmsg scores conventional commit messages against the
// fourteen-rule commit rubric. Every rule is automatable and counts toward
// auto_score; half of them read task metadata (allowed scopes, gitmoji map,
// body word bounds, sign-off identity, breaking-change and ticket
// requirements) and auto-pass when the task leaves the knob unset.
package commitmsg

import (
	"context"
	"strings"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// failureDetail fills every rule cell when no commit message was extracted.
const failureDetail = "no commit message extracted"

// Rubric implements rubric.Rubric for the commitmsg domain.
type Rubric struct{}

// New returns the commitmsg rubric.
func New() *Rubric { return &Rubric{} }

// Domain returns the domain identifier.
func (r *Rubric) Domain() string { return constants.DomainCommitMsg }

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

// Columns returns the commitmsg ledger's full CSV header.
func (r *Rubric) Columns() []string {
	cols := append([]string{}, rubric.BaseColumns...)
	cols = append(cols, "extraction_ok", "extraction_error", "structure_valid", "structure_errors")
	for _, rl := range ruleTable {
		cols = append(cols, rl.id+"_pass", rl.id+"_detail")
	}
	return append(cols, "auto_score", "scored_rules")
}

// Doc returns the rubric description rendered by the rules command.
func (r *Rubric) Doc() string {
	summary := "Scores a generated commit message against the Conventional Commits\n" +
		"format plus team conventions the task defines. All fourteen rules count\n" +
		"toward auto_score (max 14). The structure gate requires a subject line\n" +
		"of the form type(scope): description with a valid type."
	return rubric.BuildDoc(constants.DomainCommitMsg, summary, r.Rules(), nil)
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

	structOK, structErrs := validateStructure(artifact.Content)
	fields = append(fields,
		domain.Field{Name: "structure_valid", Value: rubric.FormatBool(structOK)},
		domain.Field{Name: "structure_errors", Value: strings.Join(structErrs, "; ")},
	)

	msg := parseMessage(artifact.Content)

	autoScore := 0
	for _, rl := range ruleTable {
		passed, detail := rl.check(msg, task)
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
	fields = append(fields,
		domain.Field{Name: "auto_score", Value: rubric.FormatInt(autoScore)},
		domain.Field{Name: "scored_rules", Value: rubric.FormatInt(sr.ScoredRules)},
	)

	sr.Values = fields
	return sr
}

// failureValues completes the ledger row for a run whose commit message could
// not be extracted: structure invalid, every rule failed with the fixed
// failure detail, both scores zero.
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
	return append(fields,
		domain.Field{Name: "auto_score", Value: "0"},
		domain.Field{Name: "scored_rules", Value: "0"},
	)
}
