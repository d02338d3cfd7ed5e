// Package config provides configuration management for VERDICT with layered
// precedence.
//
// Configuration sources are loaded in the following order (highest precedence
// first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (VERDICT_* prefix)
//  3. Project config (.verdict/config.yaml)
//  4. Global config (~/.verdict/config.yaml)
//  5. Built-in defaults
//
// Each higher level overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import (
	"github.com/mrz1836/verdict/internal/constants"
)

// Config is the root configuration structure for VERDICT.
type Config struct {
	// Engine contains settings for the batch scoring worker pool.
	Engine EngineConfig `yaml:"engine" mapstructure:"engine" json:"engine"`

	// Paths contains the locations of run records, task metadata, and the
	// score ledger.
	Paths PathsConfig `yaml:"paths" mapstructure:"paths" json:"paths"`

	// Ledger contains settings for the CSV score ledger writer.
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger" json:"ledger"`

	// Log contains settings for the rotating CLI log file.
	Log LogConfig `yaml:"log" mapstructure:"log" json:"log"`
}

// EngineConfig controls the scoring worker pool.
type EngineConfig struct {
	// Workers is the worker pool size. Zero selects one worker per CPU.
	Workers int `yaml:"workers" mapstructure:"workers" json:"workers"`

	// Domains is an allowlist of scoreable domains. Empty allows every
	// registered domain.
	Domains []string `yaml:"domains" mapstructure:"domains" json:"domains"`
}

// PathsConfig locates the scoring inputs and outputs.
type PathsConfig struct {
	// ResultsDir is the directory scanned for run record files.
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir" json:"results_dir"`

	// TasksDir is the directory holding task metadata files.
	TasksDir string `yaml:"tasks_dir" mapstructure:"tasks_dir" json:"tasks_dir"`

	// LedgerFile is the per-domain ledger file name inside the results
	// directory.
	LedgerFile string `yaml:"ledger_file" mapstructure:"ledger_file" json:"ledger_file"`
}

// LedgerConfig controls ledger writes.
type LedgerConfig struct {
	// Backup keeps a .bak copy of the previous ledger on every rewrite.
	Backup bool `yaml:"backup" mapstructure:"backup" json:"backup"`
}

// LogConfig controls the rotating file sink under ~/.verdict/logs.
type LogConfig struct {
	// Level is the minimum level written to the file sink
	// (trace, debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level" json:"level"`

	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `yaml:"max_size_mb" mapstructure:"max_size_mb" json:"max_size_mb"`

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups" json:"max_backups"`

	// MaxAgeDays is the maximum age in days of a rotated file.
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days" json:"max_age_days"`

	// Compress enables gzip compression of rotated files.
	Compress bool `yaml:"compress" mapstructure:"compress" json:"compress"`
}

// DefaultConfig returns the built-in defaults, matching setDefaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers: 0,
			Domains: []string{},
		},
		Paths: PathsConfig{
			ResultsDir: constants.ResultsDir,
			TasksDir:   constants.TasksDir,
			LedgerFile: constants.LedgerFileName,
		},
		Ledger: LedgerConfig{
			Backup: false,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAgeDays: constants.LogMaxAgeDays,
			Compress:   constants.LogCompress,
		},
	}
}
