package domain

// Verdict values for three-valued rubrics (the deep chart review).
// Binary rubrics use RuleResult.Passed and leave Verdict empty.
const (
	// VerdictPass means the rule's requirement is met.
	VerdictPass = "pass"

	// VerdictFail means the rule's requirement is violated.
	VerdictFail = "fail"

	// VerdictAbsent means the artifact carries no signal for the rule, so
	// neither pass nor fail can be concluded.
	VerdictAbsent = "absent"
)

// RuleResult is the outcome of evaluating one rule against one run.
// Deterministic given the same parsed artifact and task metadata.
type RuleResult struct {
	// RuleID is the stable rule identifier, e.g. "rule_4_multistage".
	// Numbering is append-only per domain; historical ledger columns depend
	// on it.
	RuleID string `json:"rule_id"`

	// Passed is the binary verdict for whole-artifact and cross-file rules,
	// and for per-file rules is true when Rate == 1.
	Passed bool `json:"passed"`

	// Rate is the pass rate across files for per-file rules, in [0,1].
	// Whole-artifact rules report 0 or 1 mirroring Passed.
	Rate float64 `json:"rate"`

	// Verdict is the three-valued outcome for verdict rubrics; empty for
	// binary rubrics.
	Verdict string `json:"verdict,omitempty"`

	// Detail is the mandatory human-readable explanation of the verdict.
	// It is the only debugging surface once the pipeline runs unattended.
	Detail string `json:"detail"`
}

// Field is one named cell of a ledger row, already formatted for CSV output.
// Each rubric emits its full ordered column set as fields so the ledger
// stays domain-agnostic.
type Field struct {
	// Name is the CSV column name.
	Name string `json:"name"`

	// Value is the cell content, formatted with the reference pipeline's
	// conventions (True/False booleans, shortest-round-trip floats).
	Value string `json:"value"`
}

// ScoreRecord is the scored form of one run: the identifying fields, the
// ordered rule results, the derived aggregate score, and the fully formatted
// ledger cells. Created once per run and written once; re-scoring a run_id
// replaces its ledger row.
type ScoreRecord struct {
	// Run carries the identifying fields of the scored run.
	Run RunRecord `json:"run"`

	// Usage is the token accounting recovered from the wrapper envelope.
	Usage TokenUsage `json:"usage"`

	// Artifact records how extraction went (method tag, failure flag).
	Artifact ExtractedArtifact `json:"artifact"`

	// Results is the ordered list of rule outcomes, rubric order.
	Results []RuleResult `json:"results"`

	// Outcomes holds the semantic-goal probes evaluated outside auto_score
	// (empty for domains without outcome checks).
	Outcomes []RuleResult `json:"outcomes,omitempty"`

	// AutoScore is the sum of contributions from scored (non-manual) rules:
	// binary and cross-file rules contribute 0 or 1, per-file rules their
	// pass rate.
	AutoScore float64 `json:"auto_score"`

	// ScoredRules is the number of rules counted in AutoScore. Manual-only
	// rules are recorded in Results but excluded here.
	ScoredRules int `json:"scored_rules"`

	// NeedsManualReview is set when any rule detail contains "needs_review",
	// flagging verdicts that approximated an absent signal.
	NeedsManualReview bool `json:"needs_manual_review"`

	// Values is the complete formatted ledger row, shared identifying
	// prefix included. Order matches the rubric's column contract.
	Values []Field `json:"values"`
}

// Value returns the formatted cell for the named column and whether the
// record carries it.
func (s ScoreRecord) Value(name string) (string, bool) {
	for _, f := range s.Values {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Result returns the outcome for the given rule ID and whether it exists.
func (s ScoreRecord) Result(ruleID string) (RuleResult, bool) {
	for _, r := range s.Results {
		if r.RuleID == ruleID {
			return r, true
		}
	}
	return RuleResult{}, false
}
