package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/verdict/internal/record"
	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/tui"
)

// ExtractFlags holds flags specific to the extract command.
type ExtractFlags struct {
	// Domain selects the rubric whose extraction chain is run.
	Domain string
}

// newExtractCmd creates the extract command, a debugging aid that runs only
// the artifact-location stage of the pipeline against one run record.
func newExtractCmd(global *GlobalFlags, flags *ExtractFlags, registry *rubric.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract --domain <domain> <run.json>",
		Short: "Show what the domain's extraction chain recovers from one run record",
		Long: `Run only the extraction stage against a single run record and print the
recovered artifact together with the method tag that names the fallback
strategy which found it (cli_json, fenced_block, heuristic, ...).

Use --output json for the full ExtractedArtifact structure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd.OutOrStdout(), global, flags, args[0], registry)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.Domain, "domain", "d", "", "domain whose extraction chain to run (required)")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

// AddExtractCommand adds the extract command to the root command.
func AddExtractCommand(rootCmd *cobra.Command, global *GlobalFlags, registry *rubric.Registry) {
	flags := &ExtractFlags{}
	rootCmd.AddCommand(newExtractCmd(global, flags, registry))
}

// runExtract loads one record and prints its extracted artifact.
func runExtract(ctx context.Context, w io.Writer, global *GlobalFlags, flags *ExtractFlags, path string, registry *rubric.Registry) error {
	ctx = Logger().WithContext(ctx)
	out := tui.NewOutput(w, global.Output)

	rb, err := registry.Get(flags.Domain)
	if err != nil {
		return err
	}

	rec, err := record.Load(ctx, path)
	if err != nil {
		return err
	}

	artifact := rb.Extract(rec)

	if global.Output == OutputJSON {
		return out.JSON(artifact)
	}

	if artifact.Failed {
		out.Warning(fmt.Sprintf("extraction failed: %s", artifact.Error))
		return nil
	}

	out.Info(fmt.Sprintf("run %s: extracted via %s", rec.RunID, artifact.Method))
	if len(artifact.Files) > 0 {
		for _, f := range artifact.Files {
			out.Info(fmt.Sprintf("--- %s ---", f.Name))
			_, _ = fmt.Fprintln(w, f.Content)
		}
		return nil
	}
	_, _ = fmt.Fprintln(w, artifact.Content)
	return nil
}
