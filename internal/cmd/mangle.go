package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/mangle"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

// mangleCmd represents the mangle command
var mangleCmd = &cobra.Command{
	Use:   "mangle --category CATEGORY NAME...",
	Short: "Show how C names are spelled in Lisp",
	Long: `Run C names through the configured mangler chain of a category.

Categories:
  enum       Enum members
  type       Struct, union, enum and function names
  name       Fields, parameters and variables
  typedef    Typedef names
  constant   Macros, constant variables and flattened enums

A package qualifier (pkg:NAME) is kept and only the symbol is mangled.`,
	Example: `  cl-bindgen mangle --category constant MAX_SIZE mypkg:FOO_BAR
  cl-bindgen mangle -c type --format json size_box_record`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMangle,
}

var mangleCategory string

func init() {
	rootCmd.AddCommand(mangleCmd)
	mangleCmd.Flags().StringVarP(&mangleCategory, "category", "c", string(mangle.TypeCategory), "Mangler category (enum|type|name|typedef|constant)")
}

func runMangle(cmd *cobra.Command, args []string) error {
	category, err := mangle.ParseCategory(mangleCategory)
	if err != nil {
		return err
	}
	settings, err := loadConfig()
	if err != nil {
		return err
	}
	set, err := settings.SetSpec.Build()
	if err != nil {
		return err
	}

	chain := set.Chain(category)
	report := output.MangleOutput{Category: string(category)}
	for _, name := range args {
		report.Names = append(report.Names, output.MangledName{Name: name, Mangled: chain.Apply(name)})
	}
	return writeReport(cmd, report)
}
