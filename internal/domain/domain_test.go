package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunRecordKnownCondition tests condition validation against the
// experiment matrix.
func TestRunRecordKnownCondition(t *testing.T) {
	cases := []struct {
		name      string
		condition string
		expected  bool
	}{
		{name: "none is known", condition: "none", expected: true},
		{name: "markdown is known", condition: "markdown", expected: true},
		{name: "pseudocode is known", condition: "pseudocode", expected: true},
		{name: "pseudocode+target is known", condition: "pseudocode+target", expected: true},
		{name: "empty is unknown", condition: "", expected: false},
		{name: "arbitrary value is unknown", condition: "chain-of-thought", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := RunRecord{Condition: tc.condition}
			assert.Equal(t, tc.expected, r.KnownCondition())
		})
	}
}

// TestRunRecordJSON tests that the capture schema decodes into a RunRecord.
func TestRunRecordJSON(t *testing.T) {
	raw := `{
		"run_id": "claude-opus_pseudocode_2_rep1",
		"model": "claude-opus",
		"condition": "pseudocode",
		"task": "2",
		"task_complexity": "medium",
		"domain": "dockerfile",
		"rep": 1,
		"duration_ms": 41250,
		"raw_output": "FROM node:20-alpine"
	}`

	var r RunRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, "claude-opus_pseudocode_2_rep1", r.RunID)
	assert.Equal(t, "claude-opus", r.Model)
	assert.Equal(t, "2", r.Task)
	assert.Equal(t, 1, r.Rep)
	assert.Equal(t, int64(41250), r.DurationMs)
	assert.Equal(t, "FROM node:20-alpine", r.RawOutput)
}

// TestExtractedArtifactFiles tests multi-file lookup helpers.
func TestExtractedArtifactFiles(t *testing.T) {
	artifact := ExtractedArtifact{
		Files: []ArtifactFile{
			{Name: "stg_orders", Content: "select 1"},
			{Name: "fct_orders", Content: "select 2"},
		},
		Method: MethodFencedBlock,
	}

	t.Run("file returns content by name", func(t *testing.T) {
		content, ok := artifact.File("fct_orders")
		require.True(t, ok)
		assert.Equal(t, "select 2", content)
	})

	t.Run("missing file reports absence", func(t *testing.T) {
		content, ok := artifact.File("dim_customers")
		assert.False(t, ok)
		assert.Empty(t, content)
	})

	t.Run("file names preserve discovery order", func(t *testing.T) {
		assert.Equal(t, []string{"stg_orders", "fct_orders"}, artifact.FileNames())
	})

	t.Run("empty artifact has no names", func(t *testing.T) {
		assert.Empty(t, ExtractedArtifact{}.FileNames())
	})
}

// TestScoreRecordLookups tests the ledger cell and rule result accessors.
func TestScoreRecordLookups(t *testing.T) {
	record := ScoreRecord{
		Results: []RuleResult{
			{RuleID: "rule_1_base_image", Passed: true, Rate: 1, Detail: "pinned tag"},
			{RuleID: "rule_4_multistage", Passed: false, Rate: 0, Detail: "single stage"},
		},
		Values: []Field{
			{Name: "auto_score", Value: "8.0"},
			{Name: "rule_4_multistage", Value: "False"},
		},
	}

	t.Run("value returns formatted cell", func(t *testing.T) {
		v, ok := record.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "8.0", v)
	})

	t.Run("missing column reports absence", func(t *testing.T) {
		_, ok := record.Value("rule_99")
		assert.False(t, ok)
	})

	t.Run("result returns rule outcome", func(t *testing.T) {
		r, ok := record.Result("rule_4_multistage")
		require.True(t, ok)
		assert.False(t, r.Passed)
		assert.Equal(t, "single stage", r.Detail)
	})

	t.Run("missing rule reports absence", func(t *testing.T) {
		_, ok := record.Result("rule_0")
		assert.False(t, ok)
	})
}
