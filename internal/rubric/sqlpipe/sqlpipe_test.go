package sqlpipe

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/taskdata"
)

const stgOrders = `-- Staging model for raw order events
SELECT
    order_id,
    customer_id,
    customer_region,
    order_date,
    amount
FROM {{ ref('raw_orders') }}`

const intOrdersDeduped = `-- Deduplicate order events, keep the latest row per order
WITH ranked AS (
    SELECT
        order_id,
        customer_id,
        COALESCE(customer_region, '(unknown)') AS customer_region,
        order_date,
        amount,
        ROW_NUMBER() OVER (PARTITION BY order_id ORDER BY order_date DESC) AS row_num
    FROM {{ ref('stg_orders') }}
)
SELECT
    order_id,
    customer_id,
    customer_region,
    order_date,
    amount
FROM ranked
WHERE row_num = 1`

const fctOrders = `-- Daily revenue facts by customer region
SELECT
    COALESCE(c.customer_region, '(unknown)') AS customer_region,
    o.order_date,
    SUM(o.amount) AS total_revenue,
    COUNT(o.order_id) AS order_count
FROM {{ ref('int_orders_deduped') }} o
LEFT JOIN {{ ref('dim_customers') }} c
    ON o.customer_id = c.customer_id
GROUP BY COALESCE(c.customer_region, '(unknown)'), o.order_date`

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

func fencedModel(path, content string) string {
	return "-- " + path + "\n```sql\n" + content + "\n```"
}

func pipelineReply() string {
	return strings.Join([]string{
		"Here are the three models:",
		fencedModel("models/staging/stg_orders.sql", stgOrders),
		fencedModel("models/intermediate/int_orders_deduped.sql", intOrdersDeduped),
		fencedModel("models/marts/fct_orders.sql", fctOrders),
	}, "\n\n")
}

func pipelineTask() taskdata.Task {
	return taskdata.Task{
		RequiresLeftJoin:         true,
		NullableDimensionColumns: []string{"customer_region"},
		RequiresDeduplication:    true,
	}
}

func TestRubricContract(t *testing.T) {
	rb := New()

	t.Run("domain and score ceiling", func(t *testing.T) {
		assert.Equal(t, constants.DomainSQLPipe, rb.Domain())
		assert.InDelta(t, 12.0, rb.MaxScore(), 0)
	})

	t.Run("ten per-file rules then two cross-file rules", func(t *testing.T) {
		rules := rb.Rules()

		require.Len(t, rules, 12)
		assert.Equal(t, "rule_1_keywords_upper", rules[0].ID)
		assert.Equal(t, "rule_10_one_cte_per_file", rules[9].ID)
		assert.Equal(t, "rule_11_jinja_ref", rules[10].ID)
		assert.Equal(t, "rule_12_layer_naming", rules[11].ID)

		for _, r := range rules[:10] {
			assert.True(t, r.PerFile, r.ID)
		}
		for _, r := range rules[10:] {
			assert.False(t, r.PerFile, r.ID)
		}
		for _, r := range rules {
			assert.False(t, r.Manual, r.ID)
		}
	})

	t.Run("columns pair every rule with a detail", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, cols, 42)
		assert.Equal(t, "run_id", cols[0])
		assert.Equal(t, "extraction_ok", cols[12])
		assert.Equal(t, "model_names", cols[15])
		assert.Equal(t, "rule_1_keywords_upper_rate", cols[16])
		assert.Equal(t, "auto_score", cols[len(cols)-2])
		assert.Equal(t, "scored_rules", cols[len(cols)-1])
		assert.Contains(t, cols, "rule_11_jinja_ref_pass")
		assert.Contains(t, cols, "rule_10_one_cte_per_file_detail")
	})

	t.Run("doc names every rule", func(t *testing.T) {
		doc := rb.Doc()

		for _, r := range rb.Rules() {
			assert.Contains(t, doc, r.ID)
		}
		assert.Contains(t, doc, "*(scored per file)*")
	})
}

func TestEvaluate(t *testing.T) {
	rb := New()
	task := pipelineTask()

	rec := &domain.RunRecord{
		RunID:          "run-101",
		Model:          "claude-sonnet-4",
		Condition:      "pseudocode",
		Task:           "4",
		TaskComplexity: "medium",
		Domain:         constants.DomainSQLPipe,
		Rep:            2,
		DurationMs:     183456,
		RawOutput:      claudeResultEnvelope(t, pipelineReply()),
	}

	sr := rb.Evaluate(context.Background(), rec, task)

	t.Run("three models extracted in order", func(t *testing.T) {
		assert.False(t, sr.Artifact.Failed)
		assert.Equal(t, domain.MethodFencedBlock, sr.Artifact.Method)
		assert.Equal(t, []string{"stg_orders", "int_orders_deduped", "fct_orders"}, sr.Artifact.FileNames())
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
			"run_id":             "run-101",
			"model":              "claude-sonnet-4",
			"condition":          "pseudocode",
			"task":               "4",
			"task_complexity":    "medium",
			"rep":                "2",
			"duration_ms":        "183456",
			"input_tokens":       "1200",
			"output_tokens":      "450",
			"cache_read_tokens":  "300",
			"cache_write_tokens": "80",
			"total_cost_usd":     "0.042",
			"extraction_ok":      "True",
			"extraction_error":   "",
			"model_count":        "3",
			"model_names":        "stg_orders; int_orders_deduped; fct_orders",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("every rule passes at full rate", func(t *testing.T) {
		for _, rl := range perFileRules {
			rate, ok := sr.Value(rl.id + "_rate")
			require.True(t, ok, rl.id)
			assert.Equal(t, "1.0", rate, rl.id)

			detail, ok := sr.Value(rl.id + "_detail")
			require.True(t, ok, rl.id)
			assert.Equal(t, "ok", detail, rl.id)
		}
		for _, rl := range crossFileRules {
			pass, ok := sr.Value(rl.id + "_pass")
			require.True(t, ok, rl.id)
			assert.Equal(t, "True", pass, rl.id)
		}
	})

	t.Run("score cells", func(t *testing.T) {
		assert.InDelta(t, 12.0, sr.AutoScore, 0)
		assert.Equal(t, 12, sr.ScoredRules)

		score, ok := sr.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "12.0", score)

		scored, ok := sr.Value("scored_rules")
		require.True(t, ok)
		assert.Equal(t, "12", scored)
	})

	t.Run("evaluation is deterministic", func(t *testing.T) {
		again := rb.Evaluate(context.Background(), rec, task)

		assert.Equal(t, sr.Values, again.Values)
		assert.Equal(t, sr.Results, again.Results)
	})
}

func TestEvaluatePartialRate(t *testing.T) {
	rb := New()

	// Same pipeline with the fct model's comment header removed: rule_6
	// drops to two of three models while everything else still passes.
	headerless := strings.SplitN(fctOrders, "\n", 2)[1]
	reply := strings.Join([]string{
		fencedModel("models/staging/stg_orders.sql", stgOrders),
		fencedModel("models/intermediate/int_orders_deduped.sql", intOrdersDeduped),
		fencedModel("models/marts/fct_orders.sql", headerless),
	}, "\n\n")

	rec := &domain.RunRecord{
		RunID:     "run-102",
		Model:     "claude-sonnet-4",
		Condition: "markdown",
		Domain:    constants.DomainSQLPipe,
		RawOutput: claudeResultEnvelope(t, reply),
	}

	sr := rb.Evaluate(context.Background(), rec, pipelineTask())

	t.Run("rate reflects the failing model", func(t *testing.T) {
		rate, ok := sr.Value("rule_6_comment_header_rate")
		require.True(t, ok)
		assert.Equal(t, "0.6667", rate)

		detail, ok := sr.Value("rule_6_comment_header_detail")
		require.True(t, ok)
		assert.Equal(t, "fct_orders: missing comment header", detail)

		res, ok := sr.Result("rule_6_comment_header")
		require.True(t, ok)
		assert.False(t, res.Passed)
		assert.InDelta(t, 0.6667, res.Rate, 1e-9)
	})

	t.Run("auto score accumulates the raw rate before rounding", func(t *testing.T) {
		assert.InDelta(t, 11.67, sr.AutoScore, 1e-9)

		score, ok := sr.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "11.67", score)
	})
}

func TestEvaluateTaskGatedZeroRates(t *testing.T) {
	rb := New()

	// A staging-only reply leaves the join, coalesce, and dedup rules with
	// no applicable models while the task demands all three features.
	rec := &domain.RunRecord{
		RunID:     "run-103",
		Model:     "claude-haiku",
		Condition: "none",
		Domain:    constants.DomainSQLPipe,
		RawOutput: claudeResultEnvelope(t, fencedModel("models/staging/stg_orders.sql", stgOrders)),
	}

	sr := rb.Evaluate(context.Background(), rec, pipelineTask())

	t.Run("demanded features score zero on an empty set", func(t *testing.T) {
		wantCells := map[string]string{
			"model_count":                    "1",
			"rule_7_left_join_only_rate":     "0.0",
			"rule_7_left_join_only_detail":   "no models with JOINs found",
			"rule_8_coalesce_unknown_rate":   "0.0",
			"rule_8_coalesce_unknown_detail": "no non-staging models found",
			"rule_9_row_number_dedup_rate":   "0.0",
			"rule_9_row_number_dedup_detail": "no int_ models found for dedup",
			"rule_11_jinja_ref_pass":         "False",
			"rule_11_jinja_ref_detail":       "no non-staging models found",
			"rule_12_layer_naming_pass":      "True",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("remaining rules still score the staging model", func(t *testing.T) {
		assert.InDelta(t, 8.0, sr.AutoScore, 1e-9)

		score, ok := sr.Value("auto_score")
		require.True(t, ok)
		assert.Equal(t, "8.0", score)

		scored, ok := sr.Value("scored_rules")
		require.True(t, ok)
		assert.Equal(t, "12", scored)
	})
}

func TestEvaluateExtractionFailure(t *testing.T) {
	rb := New()

	rec := &domain.RunRecord{
		RunID:     "run-104",
		Model:     "claude-sonnet-4",
		Condition: "none",
		Domain:    constants.DomainSQLPipe,
		RawOutput: "I cannot produce those model files.",
	}

	sr := rb.Evaluate(context.Background(), rec, pipelineTask())

	t.Run("failure row is complete and aligned", func(t *testing.T) {
		cols := rb.Columns()

		require.Len(t, sr.Values, len(cols))
		for i, f := range sr.Values {
			assert.Equal(t, cols[i], f.Name, "column %d", i)
		}
	})

	t.Run("failure cells", func(t *testing.T) {
		wantCells := map[string]string{
			"extraction_ok":                   "False",
			"extraction_error":                "could not extract any SQL model files from output",
			"model_count":                     "0",
			"model_names":                     "",
			"rule_1_keywords_upper_rate":      "0.0",
			"rule_1_keywords_upper_detail":    "no models extracted",
			"rule_10_one_cte_per_file_rate":   "0.0",
			"rule_10_one_cte_per_file_detail": "no models extracted",
			"rule_11_jinja_ref_pass":          "False",
			"rule_11_jinja_ref_detail":        "no models extracted",
			"rule_12_layer_naming_pass":       "False",
			"auto_score":                      "0.0",
			"scored_rules":                    "0",
		}
		for name, want := range wantCells {
			got, ok := sr.Value(name)
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("score record mirrors the row", func(t *testing.T) {
		assert.True(t, sr.Artifact.Failed)
		assert.InDelta(t, 0.0, sr.AutoScore, 0)
		assert.Equal(t, 0, sr.ScoredRules)
		assert.Len(t, sr.Results, 12)
	})

	t.Run("empty output keeps its own error", func(t *testing.T) {
		empty := rb.Evaluate(context.Background(), &domain.RunRecord{RunID: "run-105", RawOutput: ""}, taskdata.Task{})

		got, ok := empty.Value("extraction_error")
		require.True(t, ok)
		assert.Equal(t, "empty output", got)

		usage, ok := empty.Value("input_tokens")
		require.True(t, ok)
		assert.Empty(t, usage)
	})
}
