package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpkg "github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

const minimalSpec = `{"openapi": "3.0.3", "info": {"title": "t", "version": "1"}, "paths": {}}`

func TestLocateExtractionChain(t *testing.T) {
	rb := New()

	extractFrom := func(raw string) domainpkg.ExtractedArtifact {
		return rb.Extract(&domainpkg.RunRecord{RawOutput: raw})
	}

	t.Run("json fence wins over surrounding prose", func(t *testing.T) {
		art := extractFrom("Here you go {not json}:\n```json\n" + minimalSpec + "\n```\nEnjoy.")

		require.False(t, art.Failed)
		assert.Equal(t, domainpkg.MethodFencedBlock, art.Method)
		assert.Equal(t, minimalSpec, art.Content)
	})

	t.Run("yaml fence accepted without a key gate", func(t *testing.T) {
		art := extractFrom("```yaml\nopenapi: 3.0.3\ninfo:\n  title: t\npaths: {}\n```")

		require.False(t, art.Failed)
		assert.Equal(t, domainpkg.MethodFencedBlock, art.Method)
		assert.Contains(t, art.Content, "openapi: 3.0.3")
	})

	t.Run("bare json document parses directly", func(t *testing.T) {
		art := extractFrom(minimalSpec)

		require.False(t, art.Failed)
		assert.Equal(t, domainpkg.MethodPlainText, art.Method)
	})

	t.Run("bare yaml needs an openapi or paths key", func(t *testing.T) {
		art := extractFrom("openapi: 3.0.3\ninfo:\n  title: t\npaths:\n  /widgets: {}\n")
		require.False(t, art.Failed)
		assert.Equal(t, domainpkg.MethodPlainText, art.Method)

		miss := extractFrom("name: config\nvalues:\n  a: 1\n")
		assert.True(t, miss.Failed)
	})

	t.Run("brace block recovered from prose", func(t *testing.T) {
		art := extractFrom("The spec follows: " + minimalSpec + " hope that helps")

		require.False(t, art.Failed)
		assert.Equal(t, domainpkg.MethodHeuristic, art.Method)
		assert.Equal(t, minimalSpec, art.Content)
	})

	t.Run("empty output fails with its own error", func(t *testing.T) {
		art := extractFrom("")

		require.True(t, art.Failed)
		assert.Equal(t, domainpkg.MethodNone, art.Method)
		assert.Equal(t, "empty output", art.Error)
	})

	t.Run("refusal text fails with the chain error", func(t *testing.T) {
		art := extractFrom("I am unable to generate an API specification here.")

		require.True(t, art.Failed)
		assert.Equal(t, "could not extract valid JSON or YAML spec", art.Error)
	})
}

func TestLocateDenialRecovery(t *testing.T) {
	rb := New()
	raw, err := json.Marshal(map[string]any{
		"type":   "result",
		"result": "I cannot write files without permission.",
		"permission_denials": []map[string]any{
			{
				"tool_name": "Write",
				"tool_input": map[string]any{
					"file_path": "openapi.json",
					"content":   minimalSpec,
				},
			},
		},
	})
	require.NoError(t, err)

	art := rb.Extract(&domainpkg.RunRecord{RawOutput: string(raw)})

	require.False(t, art.Failed)
	assert.Equal(t, domainpkg.MethodPermissionDenials, art.Method)
	assert.Equal(t, minimalSpec, art.Content)
}

func TestLocateDenialFenceKeepsDenialTag(t *testing.T) {
	rb := New()
	raw, err := json.Marshal(map[string]any{
		"type":   "result",
		"result": "Blocked from writing the file.",
		"permission_denials": []map[string]any{
			{
				"tool_name": "Write",
				"tool_input": map[string]any{
					"content": "spec draft below\n```json\n" + minimalSpec + "\n```\n",
				},
			},
		},
	})
	require.NoError(t, err)

	art := rb.Extract(&domainpkg.RunRecord{RawOutput: string(raw)})

	require.False(t, art.Failed)
	assert.Equal(t, domainpkg.MethodPermissionDenials, art.Method)
	assert.Equal(t, minimalSpec, art.Content)
}

func TestFirstBraceBlock(t *testing.T) {
	t.Run("returns the first balanced block", func(t *testing.T) {
		block, ok := firstBraceBlock(`before {"a": {"b": 1}} after {"c": 2}`)

		require.True(t, ok)
		assert.Equal(t, `{"a": {"b": 1}}`, block)
	})

	t.Run("unbalanced text yields nothing", func(t *testing.T) {
		_, ok := firstBraceBlock(`{"a": {"b": 1}`)
		assert.False(t, ok)
	})

	t.Run("a balanced but invalid first block ends the scan", func(t *testing.T) {
		art := locate(extract.Unwrap(`junk {not json} then ` + minimalSpec))
		assert.True(t, art.Failed)
	})
}
