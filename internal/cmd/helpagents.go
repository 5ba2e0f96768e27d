package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// helpAgentsCmd represents the help-agents command
var helpAgentsCmd = &cobra.Command{
	Use:   "help-agents",
	Short: "Output agent-optimized command reference",
	Long: `Output a concise, token-efficient command reference for AI agents.

Examples:
  cl-bindgen help-agents                 # Markdown output (default)
  cl-bindgen help-agents --format json   # JSON output for parsing`,
	Run: runHelpAgents,
}

func init() {
	rootCmd.AddCommand(helpAgentsCmd)
}

func runHelpAgents(cmd *cobra.Command, args []string) {
	if outputFormat == "json" {
		fmt.Fprint(cmd.OutOrStdout(), generateAgentReferenceJSON())
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), generateAgentReference())
}

func generateAgentReference() string {
	return `# cl-bindgen Command Reference for AI Agents

Translates C headers into Common Lisp CFFI forms. Bindings go to the job
output; warnings go to stderr.

## Quick Start

` + "```bash" + `
# Preview bindings for a header
cl-bindgen files mylib.h

# Write them atomically under a package
cl-bindgen files -o mylib.lisp -p mylib -D MYLIB_API= mylib.h

# Check how a name will be spelled
cl-bindgen mangle --category constant MYLIB_MAX_SIZE
` + "```" + `

---

## Commands

### cl-bindgen files
One job from flags: ` + "`-o OUT`" + `, ` + "`-p PKG`" + `, ` + "`-D NAME=VALUE`" + `, ` + "`-I DIR`" + `,
` + "`--force`" + ` (ignore syntax errors), ` + "`--best-effort`" + ` (skip unsupported types),
` + "`--summary`" + ` (job report on stderr).

### cl-bindgen batch FILE...
Multi-document YAML; each document is a job with ` + "`files`" + ` and any option.
A failed job leaves its output untouched and the rest still run.

### cl-bindgen mangle -c CATEGORY NAME...
Categories: enum, type, name, typedef, constant. ` + "`pkg:NAME`" + ` keeps the package.

### cl-bindgen init
Writes ` + "`.cl-bindgen/config.yaml`" + ` with the default options.

### cl-bindgen cache stats|clear|prune
Pass cache maintenance (enable with ` + "`cache.enabled: true`" + `).

### cl-bindgen serve / call
MCP server over stdio; ` + "`call`" + ` runs one tool from the shell.

**Available MCP Tools:**
- ` + "`bindgen_generate`" + ` - Translate C source text
- ` + "`bindgen_file`" + ` - Translate a header file
- ` + "`bindgen_mangle`" + ` - Preview mangled names

---

## Output Forms

| C | Lisp |
|---|------|
| struct / union | defcstruct / defcunion |
| enum | defcenum |
| typedef | defctype |
| function | defcfun |
| global variable | defcvar |
| literal macro | defconstant |

Arrays and function pointers degrade to pointers with a trailing comment.
Macros without a literal value produce a commented template and a warning.

---

## Global Flags

` + "```" + `
--config PATH        Config file (default: nearest .cl-bindgen/config.yaml)
--format yaml|json   Report format (default: yaml)
-v, -vv              Info / debug logging on stderr
` + "```" + `
`
}

func generateAgentReferenceJSON() string {
	ref := map[string]interface{}{
		"version": Version,
		"purpose": "Translate C headers into Common Lisp CFFI bindings.",
		"workflow": map[string]string{
			"1_preview": "cl-bindgen files <header.h>",
			"2_names":   "cl-bindgen mangle --category <category> <NAME>...",
			"3_write":   "cl-bindgen files -o <out.lisp> -p <package> <header.h>",
			"4_repeat":  "cl-bindgen batch <bindings.yaml>",
		},
		"commands": map[string]interface{}{
			"files": map[string]interface{}{
				"purpose": "Generate one job from flags",
				"usage":   "cl-bindgen files [flags] FILE...",
				"flags":   []string{"-o", "-p", "-D", "-I", "--force", "--best-effort", "--summary"},
			},
			"batch": map[string]interface{}{
				"purpose": "Run every job of YAML batch files",
				"usage":   "cl-bindgen batch BATCH_FILE...",
				"flags":   []string{"--summary"},
			},
			"mangle": map[string]interface{}{
				"purpose": "Preview mangled names",
				"usage":   "cl-bindgen mangle --category CATEGORY NAME...",
				"flags":   []string{"--category"},
			},
			"init": map[string]interface{}{
				"purpose": "Write the default config",
				"usage":   "cl-bindgen init [--force]",
			},
			"cache": map[string]interface{}{
				"purpose": "Pass cache maintenance",
				"usage":   "cl-bindgen cache stats|clear|prune",
			},
			"serve": map[string]interface{}{
				"purpose": "MCP server over stdio",
				"usage":   "cl-bindgen serve [--tools generate,file,mangle]",
				"tools":   []string{"bindgen_generate", "bindgen_file", "bindgen_mangle"},
			},
		},
	}

	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return "{}\n"
	}
	return string(data) + "\n"
}
