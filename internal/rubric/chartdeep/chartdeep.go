// Package chartdeep scores chart specification JSON against all fifteen
// rules of the visualization rubric. Where the chart quick screen decodes
// five rules from fixed field locations, the deep rubric searches the
// whole object for evidence and gives every rule a three-valued verdict:
// pass when the rule is visibly satisfied, fail when it is visibly
// violated, absent when the chart never addressed the aspect. The ledger
// row tallies the three and derives deep_score (passes), deep_score_pct,
// and coverage (the share of rules with evidence either way).
package chartdeep

import (
	"context"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/rubric/chart"
	"github.com/mrz1836/verdict/internal/taskdata"
)

// failureDetail fills every rule cell when no chart JSON could be decoded.
const failureDetail = "no valid JSON"

// Rubric implements rubric.Rubric for the chart-deep domain. Artifact
// extraction is shared with the quick screen; only the scoring differs.
type Rubric struct {
	quick *chart.Rubric
}

// New returns the deep fifteen-rule chart rubric.
func New() *Rubric { return &Rubric{quick: chart.New()} }

// Domain returns the domain identifier.
func (r *Rubric) Domain() string { return constants.DomainChartDeep }

// MaxScore returns the maximum attainable deep_score.
func (r *Rubric) MaxScore() float64 { return 15 }

// Rules returns all fifteen rules in ledger column order.
func (r *Rubric) Rules() []rubric.Rule {
	rules := make([]rubric.Rule, 0, len(ruleTable))
	for _, rl := range ruleTable {
		rules = append(rules, rubric.Rule{ID: rl.id, Title: rl.title})
	}
	return rules
}

// Columns returns the chart-deep ledger's full CSV header.
func (r *Rubric) Columns() []string {
	cols := append([]string{}, rubric.BaseColumns...)
	cols = append(cols, "json_valid", "json_error")
	for _, rl := range ruleTable {
		cols = append(cols, rl.id+"_verdict", rl.id+"_detail")
	}
	return append(cols, "pass_count", "fail_count", "absent_count",
		"deep_score", "deep_score_pct", "coverage")
}

// Doc returns the rubric description rendered by the rules command.
func (r *Rubric) Doc() string {
	summary := "Scores a generated chart specification against all fifteen rules of the\n" +
		"visualization rubric (max 15). Every rule gets a three-valued verdict:\n" +
		"pass, fail, or absent when the chart never addressed the aspect. The\n" +
		"checks search the whole object rather than fixed field locations, so\n" +
		"Vega-Lite, Chart.js, and ad hoc layouts all score. deep_score counts\n" +
		"passes; coverage is the share of rules with evidence either way."
	return rubric.BuildDoc(constants.DomainChartDeep, summary, r.Rules(), nil)
}

// Extract runs only the artifact-location stage against one run record.
// The deep rubric locates chart JSON exactly the way the quick screen
// does, so one ledger's artifact is byte-identical to the other's.
func (r *Rubric) Extract(rec *domain.RunRecord) domain.ExtractedArtifact {
	return r.quick.Extract(rec)
}

// Evaluate scores one run record. Extraction failure yields a complete
// record with every verdict absent and zero coverage.
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

	root := parseChart(artifact.Content)

	var passCount, failCount, absentCount int
	for _, rl := range ruleTable {
		verdict, detail := rl.check(root)
		res := domain.RuleResult{RuleID: rl.id, Verdict: verdict, Detail: detail}
		switch verdict {
		case verdictPass:
			res.Passed = true
			res.Rate = 1
			passCount++
		case verdictFail:
			failCount++
		default:
			absentCount++
		}
		sr.Results = append(sr.Results, res)
		fields = append(fields,
			domain.Field{Name: rl.id + "_verdict", Value: verdict},
			domain.Field{Name: rl.id + "_detail", Value: detail},
		)
	}

	sr.AutoScore = float64(passCount)
	sr.ScoredRules = len(ruleTable)

	total := float64(len(ruleTable))
	fields = append(fields,
		domain.Field{Name: "pass_count", Value: rubric.FormatInt(passCount)},
		domain.Field{Name: "fail_count", Value: rubric.FormatInt(failCount)},
		domain.Field{Name: "absent_count", Value: rubric.FormatInt(absentCount)},
		domain.Field{Name: "deep_score", Value: rubric.FormatInt(passCount)},
		domain.Field{Name: "deep_score_pct", Value: rubric.FormatFloat(rubric.Round(float64(passCount)/total, 3))},
		domain.Field{Name: "coverage", Value: rubric.FormatFloat(rubric.Round(float64(passCount+failCount)/total, 3))},
	)
	sr.Values = fields
	return sr
}

// failureValues completes the ledger row for a run whose output never
// decoded to a chart object: every verdict absent, all tallies zeroed.
func (r *Rubric) failureValues(fields []domain.Field, sr *domain.ScoreRecord) []domain.Field {
	for _, rl := range ruleTable {
		res := domain.RuleResult{RuleID: rl.id, Verdict: verdictAbsent, Detail: failureDetail}
		sr.Results = append(sr.Results, res)
		fields = append(fields,
			domain.Field{Name: rl.id + "_verdict", Value: verdictAbsent},
			domain.Field{Name: rl.id + "_detail", Value: failureDetail},
		)
	}
	return append(fields,
		domain.Field{Name: "pass_count", Value: "0"},
		domain.Field{Name: "fail_count", Value: "0"},
		domain.Field{Name: "absent_count", Value: rubric.FormatInt(len(ruleTable))},
		domain.Field{Name: "deep_score", Value: "0"},
		domain.Field{Name: "deep_score_pct", Value: "0.0"},
		domain.Field{Name: "coverage", Value: "0.0"},
	)
}
