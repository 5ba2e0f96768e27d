// Package cmd contains all CLI commands for cl-bindgen.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/config"
	"github.com/hargabyte/cl-bindgen/internal/logger"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

var (
	// Version is the current version of cl-bindgen
	Version = "0.1.0"

	// Global flags
	verbose      int
	configPath   string
	forAgents    bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cl-bindgen",
	Short: "Generate Common Lisp CFFI bindings from C headers",
	Long: `cl-bindgen translates C declarations into Common Lisp CFFI forms.

Structs and unions become defcstruct/defcunion, enums become defcenum,
typedefs become defctype, functions become defcfun, global variables become
defcvar and literal macros become defconstant. C names are converted to Lisp
names by configurable mangler chains.

Generated bindings are written to the job output (stdout by default).
Warnings and diagnostics go to stderr. Reports (mangle, cache, job summaries)
use the --format flag.

Global Flags:
  --config    Path to config file (default: .cl-bindgen/config.yaml)
  --format    Report format: yaml (default) | json
  -v          Increase log verbosity (-v info, -vv debug)

Examples:
  cl-bindgen files -o bindings.lisp -p mylib mylib.h   # One job from flags
  cl-bindgen batch bindings.yaml                       # Jobs from a batch file
  cl-bindgen mangle --category constant MAX_SIZE       # Preview a mangled name
  cl-bindgen init                                      # Write a default config

See 'cl-bindgen <command> --help' for command-specific options.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .cl-bindgen/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "Report format (yaml|json)")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// setupLogging configures the global logger from -v and the config file.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LevelFromVerbosity(verbose)
	cfg.Output = cmd.ErrOrStderr()
	if settings, err := loadConfig(); err == nil {
		cfg.Format = settings.Log.Format
	}
	logger.Init(cfg)
	return nil
}

// loadConfig reads --config, or the nearest .cl-bindgen/config.yaml.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// openCache opens the pass cache when the configuration enables it. The
// cache lives next to the config file, or in ./.cl-bindgen when there is
// none. A nil cache is valid and disables caching.
func openCache(settings *config.Config) (*cache.Cache, error) {
	if !settings.Cache.Enabled {
		return nil, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir)
}

func cacheDir() (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	if dir, err := config.FindConfigDir("."); err == nil {
		return dir, nil
	}
	return config.EnsureConfigDir(".")
}

// commandContext returns the context of cmd, which is nil when a handler
// is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// writeReport prints v in the --format of the command.
func writeReport(cmd *cobra.Command, v any) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, v)
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	discovery := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(discovery)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	if cmd.Example != "" {
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
