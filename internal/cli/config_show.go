package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/verdict/internal/config"
	"github.com/mrz1836/verdict/internal/tui"
)

// newConfigCmd creates the config parent command.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Inspect verdict configuration",
	}
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after layering defaults, the global file, the
project file, VERDICT_* environment variables, and flags.

The default output is YAML; --output json emits JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), global)
		},
		SilenceUsage: true,
	}
}

// AddConfigCommand adds the config command tree to the root command.
func AddConfigCommand(rootCmd *cobra.Command, global *GlobalFlags) {
	configCmd := newConfigCmd()
	configCmd.AddCommand(newConfigShowCmd(global))
	rootCmd.AddCommand(configCmd)
}

// runConfigShow loads and prints the effective configuration.
func runConfigShow(ctx context.Context, w io.Writer, global *GlobalFlags) error {
	ctx = Logger().WithContext(ctx)
	out := tui.NewOutput(w, global.Output)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if global.Output == OutputJSON {
		return out.JSON(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, _ = w.Write(data)

	// Point at the files that fed the layering.
	styles := tui.NewOutputStyles()
	if globalPath, pathErr := config.GlobalConfigPath(); pathErr == nil {
		_, _ = fmt.Fprintln(w, styles.Dim.Render("# global:  "+annotateExists(globalPath)))
	}
	_, _ = fmt.Fprintln(w, styles.Dim.Render("# project: "+annotateExists(config.ProjectConfigPath())))
	return nil
}

// annotateExists marks config paths that are not present on disk.
func annotateExists(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path + " (not found)"
	}
	return path
}
