package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/errors"
)

// newViperInstance creates a Viper instance with standard VERDICT
// configuration: defaults, the VERDICT_ environment prefix, and the key
// replacer that maps engine.workers to VERDICT_ENGINE_WORKERS.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VERDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not
// found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper
// precedence. It returns an error only for actual configuration problems,
// not for missing config files, which are the normal case.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config provides user-wide defaults overridable per project.
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Project config merges over global.
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Int("engine.workers", cfg.Engine.Workers).
		Str("paths.results_dir", cfg.Paths.ResultsDir).
		Str("paths.tasks_dir", cfg.Paths.TasksDir).
		Msg("configuration loaded")
	return cfg, nil
}

// loadGlobalConfig loads ~/.verdict/config.yaml when it exists.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, constants.GlobalConfigName)
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}
	return globalConfigPath, true
}

// loadProjectConfig loads .verdict/config.yaml when it exists.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides,
// which have the highest precedence.
//
// Only non-zero values in overrides are applied, so flags the user did not
// set fall through to the layered config. The one boolean override,
// ledger.backup, cannot be forced back to false here; the CLI handles that
// flag with Changed() checks.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// projectConfigPath has the higher priority; either path can be empty to
// skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match DefaultConfig. Keys must match the yaml tag names
// exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.domains", []string{})

	// Paths defaults
	v.SetDefault("paths.results_dir", constants.ResultsDir)
	v.SetDefault("paths.tasks_dir", constants.TasksDir)
	v.SetDefault("paths.ledger_file", constants.LedgerFileName)

	// Ledger defaults
	v.SetDefault("ledger.backup", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", constants.LogMaxSizeMB)
	v.SetDefault("log.max_backups", constants.LogMaxBackups)
	v.SetDefault("log.max_age_days", constants.LogMaxAgeDays)
	v.SetDefault("log.compress", constants.LogCompress)
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Engine.Workers != 0 {
		cfg.Engine.Workers = overrides.Engine.Workers
	}
	if len(overrides.Engine.Domains) > 0 {
		cfg.Engine.Domains = overrides.Engine.Domains
	}

	if overrides.Paths.ResultsDir != "" {
		cfg.Paths.ResultsDir = overrides.Paths.ResultsDir
	}
	if overrides.Paths.TasksDir != "" {
		cfg.Paths.TasksDir = overrides.Paths.TasksDir
	}
	if overrides.Paths.LedgerFile != "" {
		cfg.Paths.LedgerFile = overrides.Paths.LedgerFile
	}

	// Ledger.Backup is a bool - unset and false are indistinguishable here,
	// so the CLI overrides it directly when the flag was set.

	if overrides.Log.Level != "" {
		cfg.Log.Level = overrides.Log.Level
	}
	if overrides.Log.MaxSizeMB != 0 {
		cfg.Log.MaxSizeMB = overrides.Log.MaxSizeMB
	}
	if overrides.Log.MaxBackups != 0 {
		cfg.Log.MaxBackups = overrides.Log.MaxBackups
	}
	if overrides.Log.MaxAgeDays != 0 {
		cfg.Log.MaxAgeDays = overrides.Log.MaxAgeDays
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal,
// configuring mapstructure to convert duration strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
