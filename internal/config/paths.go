package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/verdict/internal/constants"
	"github.com/mrz1836/verdict/internal/errors"
)

// GlobalConfigDir returns the path to the global VERDICT configuration
// directory, typically ~/.verdict.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.VerdictHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration
// directory, always .verdict relative to the working directory.
func ProjectConfigDir() string {
	return constants.ProjectConfigDir
}

// GlobalConfigPath returns the full path to the global configuration file,
// typically ~/.verdict/config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration
// file, always .verdict/config.yaml.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.GlobalConfigName)
}

// LedgerPath returns the ledger file path for a domain: the configured file
// name inside the domain's sweep directory. The ledger sits next to the run
// records it scores; the record loader skips this name when globbing.
func (c *Config) LedgerPath(domainID string) string {
	return filepath.Join(c.Paths.ResultsDir, domainID, c.Paths.LedgerFile)
}
