package commitmsg

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/taskdata"
)

const wellFormed = `feat(api): :sparkles: add cursor pagination

Why: list endpoints time out beyond ten thousand rows
What: replace offset paging with an opaque cursor token

BREAKING CHANGE: offset and limit query parameters are gone
Signed-off-by: Dana Ortiz <dana@example.com>
Ticket: PAY-311`

// claudeResultEnvelope wraps assistant text in a Claude CLI JSON envelope
// carrying a usage block, alongside what the capture tooling records.
func claudeResultEnvelope(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type":   "result",
		"result": text,
		"usage": map[string]any{
			"input_tokens":                1200,
			"output_tokens":               450,
			"cache_read_input_tokens":     300,
			"cache_creation_input_tokens": 80,
		},
		"total_cost_usd": 0.042,
	})
	require.NoError(t, err)
	return string(raw)
}

func TestRubricContract(t *testing.T) {
	rb := New()

	t.Run("domain and score ceiling", func(t *testing.T) {
		assert.Equal(t, constants.DomainCommitMsg, rb.Domain())
		assert.InDelta(t, 14.0, rb.MaxScore(), 0)
	})

	t.Run("fourteen rules, none manual", func(t *testing.T) {
		rules := rb.Rules()

		require.Len(t, rules, 14)
		assert.Equal(t, "rule_1_type", rules[0].ID)
		assert.Equal(t, "rule_14_subject_length", rules[13].ID)
		for _, r := range rules {
			assert.False(t, r.Manual, r.ID)
		}
	})

	t.Run("columns follow the shared prefix", func(t *testing.T) {
		cols := rb.Columns()

		assert.Equal(t, "run_id", cols[0])
		assert.Equal(t, "extraction_ok", cols[12])
		assert.Equal(t, "scored_rules", cols[len(cols)-1])
		assert.Contains(t, cols, "rule_14_subject_length_detail")
		assert.NotContains(t, cols, "needs_manual_review")
		assert.NotContains(t, cols, "outcome_score")
	})

	t.Run("doc names every rule", func(t *testing.T) {
		doc := rb.Doc()

		for _, r := range rb.Rules() {
			assert.Contains(t, doc, r.ID)
		}
	})
}

func TestEvaluate(t *testing.T) {
	rb := New()
	task := taskdata.Task{
		AllowedScopes:  []string{"api", "ui"},
		GitmojiMap:     map[string]string{"feat": ":sparkles:"},
		BodyMinWords:   5,
		BodyMaxWords:   60,
		SignedOffBy:    "Dana Ortiz <dana@example.com>",
		BreakingChange: true,
		JiraProject:    "PAY",
		JiraNumber:     "311",
	}

	rec := &domain.RunRecord{
		RunID:          "run-031",
		Model:          "claude-sonnet-4",
		Condition:      "pseudocode",
		Task:           "5",
		TaskComplexity: "medium",
		Domain:         constants.DomainCommitMsg,
		Rep:            3,
		DurationMs:     92140,
		RawOutput:      claudeResultEnvelope(t, "Here is the commit message:\n\n```text\n"+wellFormed+"\n```"),
	}

	sr := rb.Evaluate(context.Background(), rec, task)

	t.Run("message extracted from the fence", func(t *testing.T) {
		assert.False(t, sr.Artifact.Failed)
		assert.Equal(t, domain.MethodFencedBlock, sr.Artifact.Method)
		assert.Equal(t, wellFormed, sr.Artifact.Content)
	})

	t.Run("row cells align with the column contract", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, sr.Values, len(cols))
		for i, f := range sr.Values {
			assert.Equal(t, cols[i], f.Name, "column %d", i)
		}
	})

	t.Run("identity and usage cells", func(t *testing.T) {
		wantCells := map[string]string{
			"run_id":             "run-031",
			"model":              "claude-sonnet-4",
			"condition":          "pseudocode",
			"task":               "5",
			"task_complexity":    "medium",
			"rep":                "3",
			"duration_ms":        "92140",
			"input_tokens":       "1200",
			"output_tokens":      "450",
			"cache_read_tokens":  "300",
			"cache_write_tokens": "80",
			"total_cost_usd":     "0.042",
			"extraction_ok":      "True",
			"extraction_error":   "",
			"structure_valid":    "True",
			"structure_errors":   "",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("all fourteen rules pass", func(t *testing.T) {
		require.Len(t, sr.Results, 14)
		for _, res := range sr.Results {
			assert.True(t, res.Passed, res.RuleID)
		}

		assert.InDelta(t, 14.0, sr.AutoScore, 0)
		assert.Equal(t, 14, sr.ScoredRules)
		assert.False(t, sr.NeedsManualReview)

		score, ok := sr.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "14", score)

		scored, ok := sr.Value("scored_rules")
		require.True(t, ok)
		assert.Equal(t, "14", scored)
	})

	t.Run("task-driven rule details", func(t *testing.T) {
		wantCells := map[string]string{
			"rule_1_type_detail":             "valid type: feat",
			"rule_6_scope_vocab_detail":      "scope 'api' in allowed list",
			"rule_7_gitmoji_detail":          "description starts with :sparkles:",
			"rule_9_body_word_count_detail":  "body has 18 words (range: 5-60)",
			"rule_10_trailer_format_detail":  "all 3 footer(s) in Key: value format",
			"rule_12_breaking_footer_detail": "BREAKING CHANGE footer present (42 chars)",
			"rule_13_ticket_ref_detail":      "Ticket footer contains PAY-311",
			"rule_14_subject_length_detail":  "length=43 <= 50",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("imperative check reads the gitmoji as the first word", func(t *testing.T) {
		res, ok := sr.Result("rule_3_imperative")
		require.True(t, ok)
		assert.True(t, res.Passed)
		assert.Equal(t, "first word ':sparkles:' is ok", res.Detail)
	})

	t.Run("evaluation is deterministic", func(t *testing.T) {
		again := rb.Evaluate(context.Background(), rec, task)

		assert.Equal(t, sr.Values, again.Values)
		assert.Equal(t, sr.Results, again.Results)
	})
}

func TestEvaluateExtractionFailure(t *testing.T) {
	rb := New()

	rec := &domain.RunRecord{
		RunID:     "run-032",
		Model:     "claude-sonnet-4",
		Condition: "none",
		Domain:    constants.DomainCommitMsg,
		RawOutput: "I cannot write a commit message for you.",
	}

	sr := rb.Evaluate(context.Background(), rec, taskdata.Task{})

	t.Run("failure row is complete and aligned", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, sr.Values, len(cols))
		for i, f := range sr.Values {
			assert.Equal(t, cols[i], f.Name, "column %d", i)
		}
	})

	t.Run("failure cells", func(t *testing.T) {
		wantCells := map[string]string{
			"extraction_ok":                 "False",
			"extraction_error":              "could not extract commit message from output",
			"structure_valid":               "False",
			"structure_errors":              "could not extract commit message from output",
			"rule_1_type_pass":              "False",
			"rule_1_type_detail":            "no commit message extracted",
			"rule_14_subject_length_detail": "no commit message extracted",
			"auto_score":                    "0",
			"scored_rules":                  "0",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("scores zeroed", func(t *testing.T) {
		assert.InDelta(t, 0.0, sr.AutoScore, 0)
		assert.Equal(t, 0, sr.ScoredRules)
		require.Len(t, sr.Results, 14)
		for _, res := range sr.Results {
			assert.False(t, res.Passed, res.RuleID)
		}
	})
}
