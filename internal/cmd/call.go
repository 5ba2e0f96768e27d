package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hargabyte/cl-bindgen/internal/mcp"
)

var (
	callList bool
	callPipe bool
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call an MCP tool once from the command line",
	Long: `Call any MCP tool with structured JSON input/output.

Modes:
  cl-bindgen call --list                       List all tools and parameters
  cl-bindgen call <tool> '{"key":"value"}'     Call a tool with JSON args
  cl-bindgen call --pipe                       Read JSON lines from stdin

Tool names accept shorthand: "mangle" is equivalent to "bindgen_mangle".`,
	Example: `  cl-bindgen call --list
  cl-bindgen call mangle '{"names":"MAX_SIZE","category":"constant"}'
  cl-bindgen call generate '{"source":"int add(int a, int b);"}'
  echo '{"tool":"bindgen_file","args":{"path":"api.h"}}' | cl-bindgen call --pipe`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callList, "list", false, "List all available tools and their parameters")
	callCmd.Flags().BoolVar(&callPipe, "pipe", false, "Read JSON lines from stdin (pipe mode)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if callList {
		return runCallList(cmd)
	}
	if callPipe {
		return runCallPipe(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("tool name required (run 'cl-bindgen call --list' to see available tools)")
	}
	return runCallSingle(cmd, args)
}

func runCallList(cmd *cobra.Command) error {
	srv, err := mcp.New(mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	schemas := srv.GetToolSchemas()
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "jsonl":
		enc := json.NewEncoder(out)
		for _, s := range schemas {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default: // yaml
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(schemas)
	}
}

func runCallSingle(cmd *cobra.Command, args []string) error {
	toolName := normalizeToolName(args[0])

	var toolArgs map[string]interface{}
	if len(args) >= 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("invalid JSON args: %w", err)
		}
	} else {
		toolArgs = make(map[string]interface{})
	}

	srv, err := newServer(mcp.AllTools, 0)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	result, err := srv.CallTool(commandContext(cmd), toolName, toolArgs)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

// pipeRequest is the JSON format for pipe mode input.
type pipeRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// pipeResponse is the JSON format for pipe mode output.
type pipeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runCallPipe(cmd *cobra.Command) error {
	srv, err := newServer(mcp.AllTools, 0)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	ctx := commandContext(cmd)
	enc := json.NewEncoder(cmd.OutOrStdout())
	scanner := bufio.NewScanner(cmd.InOrStdin())
	// Allow larger lines (4MB); headers travel inline
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req pipeRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			enc.Encode(pipeResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}

		toolName := normalizeToolName(req.Tool)
		if req.Args == nil {
			req.Args = make(map[string]interface{})
		}

		result, err := srv.CallTool(ctx, toolName, req.Args)
		if err != nil {
			enc.Encode(pipeResponse{Error: err.Error()})
			continue
		}

		var raw json.RawMessage
		if err := json.Unmarshal([]byte(result), &raw); err != nil {
			b, _ := json.Marshal(result)
			raw = b
		}
		enc.Encode(pipeResponse{Result: raw})
	}

	return scanner.Err()
}

// normalizeToolName converts shorthand names to full tool names.
// "mangle" -> "bindgen_mangle", "bindgen_mangle" -> "bindgen_mangle"
func normalizeToolName(name string) string {
	if !strings.HasPrefix(name, "bindgen_") {
		return "bindgen_" + name
	}
	return name
}
