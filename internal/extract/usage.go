package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mrz1836/verdict/internal/domain"
)

// Usage recovers token accounting from the wrapper envelope. The boolean
// reports whether any envelope family carried usage data; when it is false
// the ledger's token columns stay empty. Claude envelopes are checked first,
// then the first step_finish event of an opencode stream, then Gemini stats.
func Usage(raw string) (domain.TokenUsage, bool) {
	if raw == "" {
		return domain.TokenUsage{}, false
	}
	if usage, ok := claudeUsage(raw); ok {
		return usage, true
	}
	if usage, ok := streamStepUsage(raw); ok {
		return usage, true
	}
	if usage, ok := geminiUsage(raw); ok {
		return usage, true
	}
	return domain.TokenUsage{}, false
}

// claudeUsage reads the usage block of a Claude CLI envelope. The cost lives
// at the top level of the envelope, not inside the usage block.
func claudeUsage(raw string) (domain.TokenUsage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.TokenUsage{}, false
	}
	usageRaw, ok := fields["usage"]
	if !ok {
		return domain.TokenUsage{}, false
	}

	var block struct {
		InputTokens        float64 `json:"input_tokens"`
		OutputTokens       float64 `json:"output_tokens"`
		CacheReadInput     float64 `json:"cache_read_input_tokens"`
		CacheCreationInput float64 `json:"cache_creation_input_tokens"`
	}
	if err := json.Unmarshal(usageRaw, &block); err != nil {
		return domain.TokenUsage{}, false
	}

	usage := domain.TokenUsage{
		InputTokens:      int64(block.InputTokens),
		OutputTokens:     int64(block.OutputTokens),
		CacheReadTokens:  int64(block.CacheReadInput),
		CacheWriteTokens: int64(block.CacheCreationInput),
	}
	if costRaw, ok := fields["total_cost_usd"]; ok {
		_ = json.Unmarshal(costRaw, &usage.TotalCostUSD)
	}
	return usage, true
}

// streamStepUsage scans an opencode stream for the first step_finish event
// and returns its token accounting.
func streamStepUsage(raw string) (domain.TokenUsage, bool) {
	lines, ok := streamLines(raw)
	if !ok {
		return domain.TokenUsage{}, false
	}
	for _, line := range lines {
		evt, _ := parseAnyEvent(line)
		if evt == nil || evt.Type != "step_finish" {
			continue
		}
		if usage, ok := evt.StepTokens(); ok {
			return usage, true
		}
	}
	return domain.TokenUsage{}, false
}

// geminiUsage reads the per-model token stats of a Gemini CLI envelope,
// tolerating startup noise before the JSON object. Only the first model's
// stats are read; Gemini reports thought tokens too, but the ledger has no
// column for them, so they are dropped.
func geminiUsage(raw string) (domain.TokenUsage, bool) {
	idx := strings.Index(raw, "{")
	if idx < 0 {
		return domain.TokenUsage{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[idx:]), &fields); err != nil {
		return domain.TokenUsage{}, false
	}
	statsRaw, ok := fields["stats"]
	if !ok {
		return domain.TokenUsage{}, false
	}
	var stats struct {
		Models json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(statsRaw, &stats); err != nil || stats.Models == nil {
		return domain.TokenUsage{}, false
	}

	modelStats, ok := firstModelStats(stats.Models)
	if !ok {
		return domain.TokenUsage{}, false
	}
	var model struct {
		Tokens struct {
			Input      float64 `json:"input"`
			Candidates float64 `json:"candidates"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(modelStats, &model); err != nil {
		return domain.TokenUsage{}, false
	}
	return domain.TokenUsage{
		InputTokens:  int64(model.Tokens.Input),
		OutputTokens: int64(model.Tokens.Candidates),
	}, true
}

// firstModelStats returns the value of the first key of a models object in
// document order. A plain map decode would lose the order, and runs that
// involved fallback models carry more than one entry.
func firstModelStats(models json.RawMessage) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(models))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	// Consume the first key, then decode its value.
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}
