package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/verdict/internal/errors"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/rubric/chart"
	"github.com/mrz1836/verdict/internal/rubric/chartdeep"
	"github.com/mrz1836/verdict/internal/rubric/commitmsg"
	"github.com/mrz1836/verdict/internal/rubric/dockerfile"
	"github.com/mrz1836/verdict/internal/rubric/openapi"
	"github.com/mrz1836/verdict/internal/rubric/sqlpipe"
	"github.com/mrz1836/verdict/internal/rubric/terraform"
)

// BuildInfo holds version information injected at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalLogger holds the CLI logger after PersistentPreRunE runs.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // Shared by all commands after init
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// Logger returns the configured CLI logger. Before initialization it returns
// the zero logger, which discards everything.
func Logger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// DefaultRegistry builds the rubric registry with every supported domain.
func DefaultRegistry() *rubric.Registry {
	reg := rubric.NewRegistry()
	reg.Register(dockerfile.New())
	reg.Register(sqlpipe.New())
	reg.Register(commitmsg.New())
	reg.Register(terraform.New())
	reg.Register(chart.New())
	reg.Register(chartdeep.New())
	reg.Register(openapi.New())
	return reg
}

// newRootCmd creates the root verdict command with all subcommands attached.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verdict",
		Short: "Score LLM-generated artifacts against fixed rubrics",
		Long: `VERDICT extracts artifacts (Dockerfiles, SQL pipelines, commit messages,
Terraform modules, chart specs, OpenAPI documents) from captured model run
records and scores them against fixed per-domain rubrics, appending one row
per run to a CSV score ledger.

Scoring is deterministic: the same run record always yields the same row.`,
		Version: formatVersion(info),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(viper.New(), cmd); err != nil {
				return err
			}

			if !IsValidOutputFormat(flags.Output) {
				return errors.Wrapf(errors.ErrInvalidOutputFormat,
					"%q (valid: text, json)", flags.Output)
			}

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()
			return nil
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	registry := DefaultRegistry()
	AddScoreCommand(cmd, flags, registry)
	AddExtractCommand(cmd, flags, registry)
	AddRulesCommand(cmd, flags, registry)
	AddInitCommand(cmd, flags)
	AddConfigCommand(cmd, flags)

	return cmd
}

// formatVersion renders the --version string.
func formatVersion(info BuildInfo) string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the given context and build info.
// The returned error maps to an exit code via ExitCodeForError.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, info)
	defer CloseLogFile()
	return cmd.ExecuteContext(ctx)
}
