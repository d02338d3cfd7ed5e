// Package sqlpipe scores multi-file dbt-style SQL pipelines. Model files are
// recovered from filename-tagged ```sql fences and checked by ten per-file
// rules, each scored as the fraction of applicable models that pass. Two
// cross-file rules check lineage and layer naming across the whole set, so
// the maximum auto_score is twelve.
package sqlpipe

import (
	"context"
	"strings"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// failureDetail fills every rule cell when no model files could be extracted.
const failureDetail = "no models extracted"

// Rubric implements rubric.Rubric for the sqlpipe domain.
type Rubric struct{}

// New returns the sqlpipe rubric.
func New() *Rubric { return &Rubric{} }

// Domain returns the domain identifier.
func (r *Rubric) Domain() string { return constants.DomainSQLPipe }

// MaxScore returns the maximum attainable auto_score.
func (r *Rubric) MaxScore() float64 { return 12 }

// Rules returns the rule set in ledger column order.
func (r *Rubric) Rules() []rubric.Rule {
	rules := make([]rubric.Rule, 0, len(perFileRules)+len(crossFileRules))
	for _, rl := range perFileRules {
		rules = append(rules, rubric.Rule{ID: rl.id, Title: rl.title, PerFile: true})
	}
	for _, rl := range crossFileRules {
		rules = append(rules, rubric.Rule{ID: rl.id, Title: rl.title})
	}
	return rules
}

// Columns returns the sqlpipe ledger's full CSV header.
func (r *Rubric) Columns() []string {
	cols := append([]string{}, rubric.BaseColumns...)
	cols = append(cols, "extraction_ok", "extraction_error", "model_count", "model_names")
	for _, rl := range perFileRules {
		cols = append(cols, rl.id+"_rate", rl.id+"_detail")
	}
	for _, rl := range crossFileRules {
		cols = append(cols, rl.id+"_pass", rl.id+"_detail")
	}
	return append(cols, "auto_score", "scored_rules")
}

// Doc returns the rubric description rendered by the rules command.
func (r *Rubric) Doc() string {
	summary := "Scores a set of dbt-style SQL model files against pipeline style rules.\n" +
		"The ten per-file rules each score the fraction of applicable models that\n" +
		"pass, so a three-model pipeline with one violation still earns partial\n" +
		"credit. The two cross-file rules check ref() lineage and layer naming\n" +
		"across the whole set and pass or fail outright. Maximum auto_score is 12."
	return rubric.BuildDoc(constants.DomainSQLPipe, summary, r.Rules(), nil)
}

// Extract runs only the artifact-location stage against one run record.
func (r *Rubric) Extract(rec *domain.RunRecord) domain.ExtractedArtifact {
	return locate(extract.Unwrap(rec.RawOutput))
}

// Evaluate scores one run record. Per-file rules skip models outside their
// layer and divide passes by the applicable count; a rule with no applicable
// models scores a full pass unless the task demands the feature, in which
// case it scores zero.
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

	fields = append(fields,
		domain.Field{Name: "model_count", Value: rubric.FormatInt(len(artifact.Files))},
		domain.Field{Name: "model_names", Value: strings.Join(artifact.FileNames(), "; ")},
	)

	autoScore := 0.0
	scoredRules := 0

	for _, rl := range perFileRules {
		passes, applicable := 0, 0
		var details []string

		for _, f := range artifact.Files {
			if !modelApplies(rl.id, f) {
				continue
			}
			applicable++
			passed, detail := rl.check(f.Content, task)
			if passed {
				passes++
				continue
			}
			details = append(details, f.Name+": "+detail)
		}

		rate := 1.0
		if applicable > 0 {
			rate = float64(passes) / float64(applicable)
		} else if detail, demanded := zeroRateDetail(rl.id, task); demanded {
			rate = 0
			details = []string{detail}
		}

		res := domain.RuleResult{
			RuleID: rl.id,
			Passed: rate == 1,
			Rate:   rubric.Round(rate, 4),
			Detail: joinDetails(details),
		}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendRateFields(fields, rl.id, res)
		scoredRules++
		autoScore += rate
	}

	for _, rl := range crossFileRules {
		passed, detail := rl.check(artifact.Files, task)
		res := domain.RuleResult{RuleID: rl.id, Passed: passed, Detail: detail}
		if passed {
			res.Rate = 1
			autoScore++
		}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
		scoredRules++
	}

	sr.AutoScore = rubric.Round(autoScore, 2)
	sr.ScoredRules = scoredRules
	fields = append(fields,
		domain.Field{Name: "auto_score", Value: rubric.FormatFloat(sr.AutoScore)},
		domain.Field{Name: "scored_rules", Value: rubric.FormatInt(scoredRules)},
	)

	sr.Values = fields
	return sr
}

// joinDetails renders at most three failing models' details, or "ok" when
// every applicable model passed.
func joinDetails(details []string) string {
	if len(details) == 0 {
		return "ok"
	}
	if len(details) > 3 {
		details = details[:3]
	}
	return strings.Join(details, "; ")
}

// failureValues completes the ledger row for a run with no extractable
// models: every rate zero with the failure detail, both cross-file rules
// failed, scores zero.
func (r *Rubric) failureValues(fields []domain.Field, sr *domain.ScoreRecord) []domain.Field {
	fields = append(fields,
		domain.Field{Name: "model_count", Value: "0"},
		domain.Field{Name: "model_names", Value: ""},
	)
	for _, rl := range perFileRules {
		res := domain.RuleResult{RuleID: rl.id, Detail: failureDetail}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendRateFields(fields, rl.id, res)
	}
	for _, rl := range crossFileRules {
		res := domain.RuleResult{RuleID: rl.id, Detail: failureDetail}
		sr.Results = append(sr.Results, res)
		fields = rubric.AppendPassFields(fields, rl.id, res)
	}
	return append(fields,
		domain.Field{Name: "auto_score", Value: "0.0"},
		domain.Field{Name: "scored_rules", Value: "0"},
	)
}
