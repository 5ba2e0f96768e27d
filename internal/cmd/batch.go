package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/bindgen"
	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/config"
	"github.com/hargabyte/cl-bindgen/internal/logger"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch BATCH_FILE...",
	Short: "Run the jobs of YAML batch files",
	Long: `Run every job of one or more batch files.

A batch file is a YAML stream; each document is one job. A job lists its
input files and may override any configuration option. Paths are relative
to the batch file.

  files: [mylib.h]
  output: mylib.lisp
  package: mylib
  arguments: [-DMYLIB_API=]
  constant_manglers:
    - {kind: prefix, prefix: MYLIB_}
    - {kind: constant}
  ---
  files: [other.h]
  output: ":stdout"

A failing job is reported and leaves its output untouched; the remaining
jobs still run. The command fails if any job failed.`,
	Example: `  cl-bindgen batch bindings.yaml
  cl-bindgen batch --summary --format json a.yaml b.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var batchSummary bool

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVar(&batchSummary, "summary", false, "Print a report of committed jobs to stderr")
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	var report output.JobsOutput
	var failed []error
	for _, path := range args {
		batch, err := config.LoadBatch(path)
		if err != nil {
			logger.Error("batch file rejected", "file", path, "error", err)
			failed = append(failed, err)
			continue
		}

		for i, spec := range batch.Jobs {
			res, err := runBatchJob(cmd, settings, batch, spec, store)
			if err != nil {
				err = fmt.Errorf("%s: job %d: %w", path, i+1, err)
				logger.Error("job failed", "file", path, "job", i+1, "error", err)
				failed = append(failed, err)
				continue
			}
			report.Jobs = append(report.Jobs, output.NewJobOutput(res))
		}
	}

	if batchSummary {
		if err := writeSummary(cmd, report); err != nil {
			return err
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d job(s) failed: %w", len(failed), errors.Join(failed...))
	}
	return nil
}

func runBatchJob(cmd *cobra.Command, settings *config.Config, batch *config.Batch, spec config.JobSpec, store *cache.Cache) (*bindgen.JobResult, error) {
	job, err := settings.Job(spec, batch.Dir, store)
	if err != nil {
		return nil, err
	}
	job.Stdout = cmd.OutOrStdout()
	job.Stderr = cmd.ErrOrStderr()

	res, err := bindgen.RunJob(commandContext(cmd), job)
	if err != nil {
		return nil, err
	}
	logger.LogJobCommitted(res.Output, len(res.Files))
	return res, nil
}
