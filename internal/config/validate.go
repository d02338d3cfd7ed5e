package config

import (
	"github.com/mrz1836/verdict/internal/errors"
)

// validLogLevels are the accepted log.level values.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - engine.workers must not be negative (zero selects the CPU count)
//   - paths.results_dir, paths.tasks_dir, and paths.ledger_file must not be
//     empty
//   - log.level must be a known zerolog level
//   - log rotation sizes and counts must not be negative
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateEngineConfig(&cfg.Engine); err != nil {
		return err
	}
	if err := validatePathsConfig(&cfg.Paths); err != nil {
		return err
	}
	return validateLogConfig(&cfg.Log)
}

// validateEngineConfig checks worker pool configuration values.
func validateEngineConfig(cfg *EngineConfig) error {
	if cfg.Workers < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"engine.workers must not be negative, got %d", cfg.Workers)
	}
	for _, d := range cfg.Domains {
		if d == "" {
			return errors.Wrap(errors.ErrInvalidConfig,
				"engine.domains must not contain empty entries")
		}
	}
	return nil
}

// validatePathsConfig checks path configuration values.
func validatePathsConfig(cfg *PathsConfig) error {
	if cfg.ResultsDir == "" {
		return errors.Wrap(errors.ErrInvalidConfig,
			"paths.results_dir must not be empty")
	}
	if cfg.TasksDir == "" {
		return errors.Wrap(errors.ErrInvalidConfig,
			"paths.tasks_dir must not be empty")
	}
	if cfg.LedgerFile == "" {
		return errors.Wrap(errors.ErrInvalidConfig,
			"paths.ledger_file must not be empty")
	}
	return nil
}

// validateLogConfig checks log file configuration values.
func validateLogConfig(cfg *LogConfig) error {
	if !validLogLevels[cfg.Level] {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"log.level must be one of trace, debug, info, warn, error, got %q", cfg.Level)
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return errors.Wrap(errors.ErrInvalidConfig,
			"log rotation values must not be negative")
	}
	return nil
}
