package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/verdict/internal/config"
	"github.com/mrz1836/verdict/internal/errors"
	"github.com/mrz1836/verdict/internal/tui"
)

// InitFlags holds flags specific to the init command.
type InitFlags struct {
	// Force overwrites an existing config file without prompting.
	Force bool
	// Global writes ~/.verdict/config.yaml instead of the project file.
	Global bool
}

// newInitCmd creates the init command for scaffolding a config file.
func newInitCmd(global *GlobalFlags, flags *InitFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a verdict config file with the defaults",
		Long: `Write a config file populated with the built-in defaults, ready to edit.

By default the project file .verdict/config.yaml is created; --global writes
~/.verdict/config.yaml instead. An existing file is only overwritten after
confirmation, or unconditionally with --force.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), global, flags)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite an existing config file without prompting")
	cmd.Flags().BoolVar(&flags.Global, "global", false, "write the global config (~/.verdict/config.yaml)")

	return cmd
}

// AddInitCommand adds the init command to the root command.
func AddInitCommand(rootCmd *cobra.Command, global *GlobalFlags) {
	flags := &InitFlags{}
	rootCmd.AddCommand(newInitCmd(global, flags))
}

// runInit writes the scaffolded config file.
func runInit(w io.Writer, global *GlobalFlags, flags *InitFlags) error {
	out := tui.NewOutput(w, global.Output)

	configDir := config.ProjectConfigDir()
	configPath := config.ProjectConfigPath()
	if flags.Global {
		dir, err := config.GlobalConfigDir()
		if err != nil {
			return err
		}
		path, err := config.GlobalConfigPath()
		if err != nil {
			return err
		}
		configDir, configPath = dir, path
	}

	if _, err := os.Stat(configPath); err == nil && !flags.Force {
		ok, err := confirmOverwrite(configPath)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(errors.ErrAborted, "kept existing %s", configPath)
		}
	}

	if err := writeConfigScaffold(configDir, configPath); err != nil {
		return err
	}

	out.Success(fmt.Sprintf("wrote %s", configPath))
	out.Info("edit paths.results_dir and paths.tasks_dir to match your sweep layout")
	return nil
}

// confirmOverwrite asks before replacing an existing config file. Without a
// terminal there is nobody to ask, so the existing file wins and the caller
// is pointed at --force.
func confirmOverwrite(configPath string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.Wrapf(errors.ErrConfigExists, "%s (use --force to overwrite)", configPath)
	}

	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Overwrite %s?", configPath)).
				Description("The existing configuration will be replaced with the defaults.").
				Affirmative("Overwrite").
				Negative("Keep existing").
				Value(&overwrite),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return false, errors.Wrap(err, "overwrite prompt failed")
	}
	return overwrite, nil
}

// writeConfigScaffold marshals the defaults and writes the file with a
// generated-on header.
func writeConfigScaffold(configDir, configPath string) error {
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return errors.Wrapf(err, "failed to create config directory %s", configDir)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}

	header := fmt.Sprintf("# verdict configuration\n# generated by verdict init on %s\n\n",
		time.Now().Format(time.RFC3339))
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", configPath)
	}
	return nil
}
