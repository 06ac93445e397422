package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"tir/internal/config"
	"tir/internal/errors"
	"tir/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .tir/config.toml",
	Long: `Creates .tir/config.toml with the default configuration in the project root.
Running init again leaves an existing configuration alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configRel := path.Join(paths.ToolDirName, paths.ConfigFileName)

	root, err := paths.ResolveRoot(rootDir)
	if err != nil {
		return errors.NewTirError(errors.ProjectRootUnreadable, "cannot read project root "+rootDir, err)
	}

	if config.Exists(root) && !initForce {
		// Already initialized is success so CI scripts can run init blindly.
		fmt.Fprintln(out, "tir already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configRel)
		fmt.Fprintln(out, "\nRun 'tir init --force' to overwrite it.")
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return errors.NewTirError(errors.InternalError, "failed to write "+configRel, err)
	}

	fmt.Fprintf(out, "Created %s\n", configRel)
	return nil
}
