package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/verdict/internal/config"
	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/engine"
	"github.com/mrz1836/verdict/internal/errors"
	"github.com/mrz1836/verdict/internal/ledger"
	"github.com/mrz1836/verdict/internal/record"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/taskdata"
	"github.com/mrz1836/verdict/internal/tui"
)

// ScoreFlags holds flags specific to the score command.
type ScoreFlags struct {
	// Domain selects the rubric.
	Domain string
	// Runs is a sweep directory or an explicit list of run record files.
	// Empty means <results_dir>/<domain>.
	Runs []string
	// Tasks overrides the task metadata directory.
	Tasks string
	// Out overrides the ledger file path.
	Out string
	// Workers overrides the worker pool size.
	Workers int
	// Backup keeps a .bak copy of the previous ledger.
	Backup bool
}

// newScoreCmd creates the score command: the full batch pipeline from run
// records to ledger rows.
func newScoreCmd(global *GlobalFlags, flags *ScoreFlags, registry *rubric.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score --domain <domain> [--runs DIR|FILE...]",
		Short: "Score a batch of run records and write the ledger",
		Long: `Score every run record of a sweep against the domain's rubric and merge
the rows into the domain's CSV score ledger.

Extraction failures are recorded rows, not errors: a run whose artifact
cannot be recovered scores zero with every rule detail explaining why.
Re-scoring a run_id replaces its existing ledger row in place.

Examples:
  verdict score --domain dockerfile
  verdict score --domain terraform --runs results/terraform --workers 8
  verdict score --domain commitmsg --runs run1.json run2.json --out /tmp/scores.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.Runs = append(flags.Runs, args...)
			backupSet := cmd.Flags().Changed("backup")
			return runScore(cmd.Context(), cmd.OutOrStdout(), global, flags, backupSet, registry)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.Domain, "domain", "d", "", "domain to score (required)")
	cmd.Flags().StringSliceVar(&flags.Runs, "runs", nil, "sweep directory or run record files")
	cmd.Flags().StringVar(&flags.Tasks, "tasks", "", "task metadata directory")
	cmd.Flags().StringVar(&flags.Out, "out", "", "ledger file path")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "worker pool size (0 = one per CPU)")
	cmd.Flags().BoolVar(&flags.Backup, "backup", false, "keep a .bak copy of the previous ledger")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

// AddScoreCommand adds the score command to the root command.
func AddScoreCommand(rootCmd *cobra.Command, global *GlobalFlags, registry *rubric.Registry) {
	flags := &ScoreFlags{}
	rootCmd.AddCommand(newScoreCmd(global, flags, registry))
}

// scoreReport is the JSON shape of a batch result.
type scoreReport struct {
	Domain     string         `json:"domain"`
	Ledger     string         `json:"ledger"`
	DurationMs int64          `json:"duration_ms"`
	Summary    engine.Summary `json:"summary"`
}

// runScore executes the batch pipeline: load, score, write, summarize.
func runScore(ctx context.Context, w io.Writer, global *GlobalFlags, flags *ScoreFlags, backupSet bool, registry *rubric.Registry) error {
	logger := Logger()
	ctx = logger.WithContext(ctx)
	out := tui.NewOutput(w, global.Output)

	rb, err := registry.Get(flags.Domain)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(ctx, &config.Config{
		Engine: config.EngineConfig{Workers: flags.Workers},
		Paths:  config.PathsConfig{TasksDir: flags.Tasks},
	})
	if err != nil {
		return err
	}
	if backupSet {
		cfg.Ledger.Backup = flags.Backup
	}
	if err := domainAllowed(cfg, flags.Domain); err != nil {
		return err
	}

	records, err := loadRunRecords(ctx, cfg, flags)
	if err != nil {
		return err
	}

	if flags.Tasks != "" {
		if _, statErr := os.Stat(flags.Tasks); statErr != nil {
			return errors.Wrapf(errors.ErrTaskDataNotFound, "%s", flags.Tasks)
		}
	}
	tasks, err := taskdata.NewStore(ctx, cfg.Paths.TasksDir)
	if err != nil {
		return err
	}

	spinner := tui.NewSpinner(os.Stderr, fmt.Sprintf("scoring %d %s runs", len(records), flags.Domain))
	if global.Output == OutputText {
		spinner.Start()
	}
	batch, err := engine.New(rb, tasks, engine.WithWorkers(cfg.Engine.Workers)).Score(ctx, records)
	spinner.Stop()
	if err != nil {
		return err
	}

	ledgerPath := flags.Out
	if ledgerPath == "" {
		ledgerPath = cfg.LedgerPath(flags.Domain)
	}
	var opts []ledger.Option
	if cfg.Ledger.Backup {
		opts = append(opts, ledger.WithBackup())
	}
	sink := ledger.New(ledgerPath, rb.Columns(), opts...)
	if err := sink.Upsert(ctx, batch.Records); err != nil {
		return err
	}

	if global.Output == OutputJSON {
		return out.JSON(scoreReport{
			Domain:     batch.Domain,
			Ledger:     ledgerPath,
			DurationMs: batch.Duration.Milliseconds(),
			Summary:    batch.Summary,
		})
	}

	renderScoreSummary(out, batch, rb, ledgerPath)
	return nil
}

// domainAllowed enforces the engine.domains allowlist when configured.
func domainAllowed(cfg *config.Config, domainID string) error {
	if len(cfg.Engine.Domains) == 0 {
		return nil
	}
	for _, d := range cfg.Engine.Domains {
		if d == domainID {
			return nil
		}
	}
	return errors.NewExitCode2Error(
		errors.Wrapf(errors.ErrInvalidConfig, "domain %q not in engine.domains allowlist", domainID))
}

// loadRunRecords resolves the --runs arguments: nothing means the domain's
// sweep directory, a single directory is globbed, anything else is an
// explicit file list.
func loadRunRecords(ctx context.Context, cfg *config.Config, flags *ScoreFlags) ([]*domain.RunRecord, error) {
	if len(flags.Runs) == 0 {
		return record.LoadDir(ctx, filepath.Join(cfg.Paths.ResultsDir, flags.Domain))
	}
	if len(flags.Runs) == 1 {
		if info, err := os.Stat(flags.Runs[0]); err == nil && info.IsDir() {
			return record.LoadDir(ctx, flags.Runs[0])
		}
	}
	return record.LoadPaths(ctx, flags.Runs)
}

// renderScoreSummary writes the text summary: per-condition table plus the
// batch aggregates.
func renderScoreSummary(out tui.Output, batch *engine.Batch, rb rubric.Rubric, ledgerPath string) {
	s := batch.Summary

	out.Info(fmt.Sprintf("%s: %d runs scored in %s (max score %s)",
		batch.Domain, s.Total, batch.Duration.Round(time.Millisecond), rubric.FormatFloat(rb.MaxScore())))

	rows := make([][]string, 0, len(s.ByCondition))
	for _, c := range s.ByCondition {
		rows = append(rows, []string{
			c.Condition,
			strconv.Itoa(c.Runs),
			strconv.Itoa(c.Extracted),
			fmt.Sprintf("%.2f", c.MeanAutoScore),
		})
	}
	out.Table([]string{"condition", "runs", "extracted", "mean auto_score"}, rows)

	out.Info(fmt.Sprintf("extraction rate %.0f%%, mean auto_score %.2f",
		s.ExtractionRate*100, s.MeanAutoScore))
	if s.NeedsReview > 0 {
		out.Warning(fmt.Sprintf("%d runs flagged for manual review", s.NeedsReview))
	}
	out.Success(fmt.Sprintf("%d rows merged into %s", s.Total, ledgerPath))
}
