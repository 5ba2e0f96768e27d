package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/bindgen"
	"github.com/hargabyte/cl-bindgen/internal/config"
	"github.com/hargabyte/cl-bindgen/internal/logger"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

// filesCmd represents the files command
var filesCmd = &cobra.Command{
	Use:   "files [flags] FILE...",
	Short: "Generate bindings for C header files",
	Long: `Generate CFFI bindings for one or more C header files.

All files form a single job: their bindings are concatenated in argument
order and written to the output only if every file succeeded. Flags override
the options of the configuration file.

Output destinations:
  PATH       Written atomically (temp file + rename)
  :stdout    Standard output (also "-", the default)
  :stderr    Standard error`,
	Example: `  cl-bindgen files mylib.h
  cl-bindgen files -o bindings.lisp -p mylib a.h b.h
  cl-bindgen files -D VERSION=2 -I include --best-effort api.h
  cl-bindgen files --force --summary -o out.lisp broken.h`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFiles,
}

var (
	filesOutput     string
	filesIncludes   []string
	filesDefines    []string
	filesPackage    string
	filesForce      bool
	filesBestEffort bool
	filesSummary    bool
)

func init() {
	rootCmd.AddCommand(filesCmd)

	filesCmd.Flags().StringVarP(&filesOutput, "output", "o", "", "Output file, :stdout or :stderr")
	filesCmd.Flags().StringArrayVarP(&filesIncludes, "include", "I", nil, "Include directory (accepted, not searched)")
	filesCmd.Flags().StringArrayVarP(&filesDefines, "define", "D", nil, "Define a macro: NAME or NAME=VALUE")
	filesCmd.Flags().StringVarP(&filesPackage, "package", "p", "", "Emit (cl:in-package :PACKAGE) first")
	filesCmd.Flags().BoolVar(&filesForce, "force", false, "Generate output despite syntax errors")
	filesCmd.Flags().BoolVar(&filesBestEffort, "best-effort", false, "Skip declarations with unsupported types")
	filesCmd.Flags().BoolVar(&filesSummary, "summary", false, "Print a job report to stderr")
}

func runFiles(cmd *cobra.Command, args []string) error {
	settings, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(settings)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	spec := config.JobSpec{Options: filesOverrides(cmd), Files: args}
	job, err := settings.Job(spec, "", store)
	if err != nil {
		return err
	}
	job.Stdout = cmd.OutOrStdout()
	job.Stderr = cmd.ErrOrStderr()

	res, err := bindgen.RunJob(commandContext(cmd), job)
	if err != nil {
		return err
	}
	logger.LogJobCommitted(res.Output, len(res.Files))

	if filesSummary {
		return writeSummary(cmd, output.JobsOutput{Jobs: []output.JobOutput{output.NewJobOutput(res)}})
	}
	return nil
}

// filesOverrides turns the flags that were given into config options.
func filesOverrides(cmd *cobra.Command) config.Options {
	var o config.Options
	for _, dir := range filesIncludes {
		o.Arguments = append(o.Arguments, "-I"+dir)
	}
	for _, def := range filesDefines {
		o.Arguments = append(o.Arguments, "-D"+def)
	}
	o.Output = filesOutput
	o.Package = filesPackage
	if cmd.Flags().Changed("force") {
		o.Force = &filesForce
	}
	if cmd.Flags().Changed("best-effort") {
		o.BestEffort = &filesBestEffort
	}
	return o
}

// writeSummary prints a job report to stderr, keeping stdout free for
// bindings.
func writeSummary(cmd *cobra.Command, report output.JobsOutput) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if err := output.Write(cmd.ErrOrStderr(), format, report); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
