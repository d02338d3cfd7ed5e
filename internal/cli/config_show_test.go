package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/verdict/internal/config"
)

func TestConfigShowYAML(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "results_dir:")
	assert.Contains(t, out, "workers:")
	assert.Contains(t, out, "ledger:")
	assert.Contains(t, out, "# project:")
	assert.Contains(t, out, "(not found)")
}

func TestConfigShowJSON(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "config", "show", "--output", "json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, config.DefaultConfig().Paths.ResultsDir, cfg.Paths.ResultsDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestConfigShowReflectsProjectFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(".verdict", 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(".verdict", "config.yaml"),
		[]byte("paths:\n  results_dir: sweeps/august\n"), 0o600))

	out, err := runCLI(t, "config", "show", "--output", "json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "sweeps/august", cfg.Paths.ResultsDir)
}
