package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the pass cache",
	Long: `Inspect or maintain the pass cache.

When cache.enabled is set in the configuration, the output of every pass is
stored in .cl-bindgen/cache.db keyed by the input path and a hash of its
content and options. An unchanged input is not parsed again.

Subcommands:
  stats    Show the number of cached passes
  clear    Drop every cached pass
  prune    Drop passes whose input file no longer exists`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pass cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache, report *output.CacheOutput) error {
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached pass",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache, report *output.CacheOutput) error {
			report.Cleared = true
			return c.Clear()
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop passes of deleted input files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(c *cache.Cache, report *output.CacheOutput) error {
			paths, err := c.Paths()
			if err != nil {
				return err
			}
			valid := make(map[string]bool, len(paths))
			for _, p := range paths {
				if _, err := os.Stat(p); err == nil {
					valid[p] = true
				}
			}
			report.Pruned, err = c.PruneStaleEntries(valid)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
}

// withCache opens the cache regardless of cache.enabled, runs fn and reports
// the resulting statistics.
func withCache(cmd *cobra.Command, fn func(*cache.Cache, *output.CacheOutput) error) error {
	dir, err := cacheDir()
	if err != nil {
		return err
	}
	c, err := cache.Open(dir)
	if err != nil {
		return err
	}
	defer c.Close()

	report := &output.CacheOutput{Path: c.Path()}
	if err := fn(c, report); err != nil {
		return fmt.Errorf("cache %s: %w", cmd.Name(), err)
	}

	stats, err := c.GetStats()
	if err != nil {
		return err
	}
	report.Passes = stats.Passes
	report.OutputBytes = stats.OutputBytes
	return writeReport(cmd, report)
}
