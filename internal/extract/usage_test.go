package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	t.Run("reads claude usage block and top level cost", func(t *testing.T) {
		usage, ok := Usage(claudeEnvelope)

		require.True(t, ok)
		assert.Equal(t, int64(1200), usage.InputTokens)
		assert.Equal(t, int64(450), usage.OutputTokens)
		assert.Equal(t, int64(800), usage.CacheReadTokens)
		assert.Equal(t, int64(100), usage.CacheWriteTokens)
		assert.InDelta(t, 0.0534, usage.TotalCostUSD, 1e-9)
	})

	t.Run("reads first step_finish event of opencode stream", func(t *testing.T) {
		usage, ok := Usage(opencodeStream)

		require.True(t, ok)
		assert.Equal(t, int64(900), usage.InputTokens)
		assert.Equal(t, int64(300), usage.OutputTokens)
		assert.Equal(t, int64(50), usage.CacheReadTokens)
		assert.Equal(t, int64(25), usage.CacheWriteTokens)
		assert.InDelta(t, 0.01, usage.TotalCostUSD, 1e-9)
	})

	t.Run("first of several step_finish events wins", func(t *testing.T) {
		raw := `{"type":"step_finish","sessionID":"s","part":{"cost":0.5,"tokens":{"input":10,"output":20}}}
{"type":"step_finish","sessionID":"s","part":{"cost":0.9,"tokens":{"input":99,"output":99}}}`

		usage, ok := Usage(raw)

		require.True(t, ok)
		assert.Equal(t, int64(10), usage.InputTokens)
		assert.InDelta(t, 0.5, usage.TotalCostUSD, 1e-9)
	})

	t.Run("reads first gemini model stats behind startup noise", func(t *testing.T) {
		usage, ok := Usage(geminiEnvelope)

		require.True(t, ok)
		assert.Equal(t, int64(700), usage.InputTokens)
		assert.Equal(t, int64(210), usage.OutputTokens)
		assert.Zero(t, usage.CacheReadTokens)
		assert.Zero(t, usage.TotalCostUSD)
	})

	t.Run("first model wins when fallback models are present", func(t *testing.T) {
		raw := `{"response":"x","stats":{"models":{` +
			`"gemini-2.5-pro":{"tokens":{"input":111,"candidates":22}},` +
			`"gemini-2.5-flash":{"tokens":{"input":999,"candidates":99}}}}}`

		usage, ok := Usage(raw)

		require.True(t, ok)
		assert.Equal(t, int64(111), usage.InputTokens)
		assert.Equal(t, int64(22), usage.OutputTokens)
	})

	t.Run("plain text carries no usage", func(t *testing.T) {
		_, ok := Usage("FROM alpine:3.20")

		assert.False(t, ok)
	})

	t.Run("empty blob carries no usage", func(t *testing.T) {
		_, ok := Usage("")

		assert.False(t, ok)
	})

	t.Run("claude envelope without usage block falls through", func(t *testing.T) {
		_, ok := Usage(`{"type":"result","result":"done"}`)

		assert.False(t, ok)
	})

	t.Run("gemini envelope with empty models reports no usage", func(t *testing.T) {
		_, ok := Usage(`{"response":"x","stats":{"models":{}}}`)

		assert.False(t, ok)
	})
}
