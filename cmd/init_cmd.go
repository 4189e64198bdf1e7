package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Quidge/orgbook-manage/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a settings template",
		Long: `Create a settings.yaml template in $OCTOOLSBIN, or the current directory
when it is unset. With -p or -l, create the profile or local settings file
those flags would load instead.

The template includes commented examples for all settings.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.SettingsDir(a.env, "")
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.workDir
			}

			// The most specific layer for the given flags.
			files := config.SettingsFiles(dir, a.opts)
			path := files[len(files)-1]

			// Check if file already exists
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := os.WriteFile(path, []byte(config.SettingsTemplate), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Fprintf(a.stdout, "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing file")
	return cmd
}
