package constants

// Directory names used by VERDICT for organizing data.
const (
	// VerdictHome is the hidden directory name where VERDICT stores all its
	// data. This directory is created in the user's home directory.
	VerdictHome = ".verdict"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// ResultsDir is the default directory name scanned for run record files.
	ResultsDir = "results"

	// TasksDir is the default directory name scanned for task metadata files.
	TasksDir = "test-data"
)

// File names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.verdict/logs/verdict.log
	CLILogFileName = "verdict.log"

	// LedgerFileName is the default name of the per-domain score ledger.
	// The reference pipeline excludes this name when globbing run records.
	LedgerFileName = "scores.csv"

	// GlobalConfigName is the name of the global VERDICT configuration file.
	// This file is located in the VERDICT home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the per-project configuration directory name.
	ProjectConfigDir = ".verdict"
)

// Log rotation settings for the global CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age in days of a rotated file.
	LogMaxAgeDays = 28

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)
