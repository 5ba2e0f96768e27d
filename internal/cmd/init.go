package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .cl-bindgen/config.yaml",
	Long: `Create the .cl-bindgen directory and a default config.yaml in the
current directory.

The configuration holds the default options of every job: mangler chains,
compiler arguments, output, package and pointer expansion rules. Edit it to
change the defaults; batch files and flags override it per job.

Examples:
  cl-bindgen init          # Initialize in current directory
  cl-bindgen init --force  # Rewrite the config and drop the pass cache`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	configDir := filepath.Join(cwd, config.ConfigDirName)
	configFile := filepath.Join(configDir, config.ConfigFileName)

	_, err = os.Stat(configFile)
	if err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, configFile)
			fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(configFile); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
		if err := os.Remove(filepath.Join(configDir, cache.FileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing pass cache: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	path, err := config.SaveDefault(cwd)
	if err != nil {
		return err
	}

	relPath, _ := filepath.Rel(cwd, path)
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized cl-bindgen config at %s\n", relPath)
	return nil
}
