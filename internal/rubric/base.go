package rubric

import (
	"strconv"

	"github.com/mrz1836/verdict/internal/domain"
)

// BaseColumns is the identifying prefix every domain ledger shares. Domain
// rubrics append their own columns after it.
//
//nolint:gochecknoglobals // Read-only column contract
var BaseColumns = []string{
	"run_id",
	"model",
	"condition",
	"task",
	"task_complexity",
	"rep",
	"duration_ms",
	"input_tokens",
	"output_tokens",
	"cache_read_tokens",
	"cache_write_tokens",
	"total_cost_usd",
}

// BaseFields renders the shared prefix cells for one run. Token cells stay
// empty when no envelope carried usage data; rep and duration are 1-based
// and wall-clock respectively, so zero means the capture omitted them and
// the cell stays empty too.
func BaseFields(rec *domain.RunRecord, usage domain.TokenUsage, usageFound bool) []domain.Field {
	fields := []domain.Field{
		{Name: "run_id", Value: rec.RunID},
		{Name: "model", Value: rec.Model},
		{Name: "condition", Value: rec.Condition},
		{Name: "task", Value: rec.Task},
		{Name: "task_complexity", Value: rec.TaskComplexity},
		{Name: "rep", Value: emptyZeroInt(int64(rec.Rep))},
		{Name: "duration_ms", Value: emptyZeroInt(rec.DurationMs)},
	}
	if usageFound {
		fields = append(fields,
			domain.Field{Name: "input_tokens", Value: strconv.FormatInt(usage.InputTokens, 10)},
			domain.Field{Name: "output_tokens", Value: strconv.FormatInt(usage.OutputTokens, 10)},
			domain.Field{Name: "cache_read_tokens", Value: strconv.FormatInt(usage.CacheReadTokens, 10)},
			domain.Field{Name: "cache_write_tokens", Value: strconv.FormatInt(usage.CacheWriteTokens, 10)},
			domain.Field{Name: "total_cost_usd", Value: FormatFloat(usage.TotalCostUSD)},
		)
		return fields
	}
	for _, name := range BaseColumns[7:] {
		fields = append(fields, domain.Field{Name: name, Value: ""})
	}
	return fields
}

// emptyZeroInt renders an integer cell whose zero value means "absent".
func emptyZeroInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// AppendPassFields appends the _pass and _detail cell pair for one binary
// rule result.
func AppendPassFields(fields []domain.Field, ruleID string, res domain.RuleResult) []domain.Field {
	return append(fields,
		domain.Field{Name: ruleID + "_pass", Value: FormatBool(res.Passed)},
		domain.Field{Name: ruleID + "_detail", Value: res.Detail},
	)
}

// AppendRateFields appends the _rate and _detail cell pair for one per-file
// rule result.
func AppendRateFields(fields []domain.Field, ruleID string, res domain.RuleResult) []domain.Field {
	return append(fields,
		domain.Field{Name: ruleID + "_rate", Value: FormatFloat(res.Rate)},
		domain.Field{Name: ruleID + "_detail", Value: res.Detail},
	)
}
