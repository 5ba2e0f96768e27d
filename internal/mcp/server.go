// Package mcp provides an MCP (Model Context Protocol) server for cl-bindgen.
// This allows AI agents to generate bindings and preview mangled names
// through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hargabyte/cl-bindgen/internal/bindgen"
	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/config"
	"github.com/hargabyte/cl-bindgen/internal/emit"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
	"github.com/hargabyte/cl-bindgen/internal/output"
)

// Server wraps the MCP server with cl-bindgen tools
type Server struct {
	mcpServer    *server.MCPServer
	settings     *config.Config
	cache        *cache.Cache
	root         string
	version      string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
	// Settings are the default job options. Nil uses config.DefaultConfig.
	Settings *config.Config
	// Cache is shared by every tool call and closed by Close. May be nil.
	Cache *cache.Cache
	// Root resolves relative paths of bindgen_file. Empty means the working
	// directory.
	Root    string
	Version string
}

// AllTools lists all available tools
var AllTools = []string{"bindgen_generate", "bindgen_file", "bindgen_mangle"}

// New creates a new MCP server for cl-bindgen
func New(cfg Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	if err := settings.Options.Validate(); err != nil {
		return nil, err
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	mcpServer := server.NewMCPServer(
		"cl-bindgen",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		settings:     settings,
		cache:        cfg.Cache,
		root:         cfg.Root,
		version:      version,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "bindgen_generate":
		return s.registerGenerateTool()
	case "bindgen_file":
		return s.registerFileTool()
	case "bindgen_mangle":
		return s.registerMangleTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "cl-bindgen serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close releases the pass cache.
func (s *Server) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"bindgen_generate": {
		Name:        "bindgen_generate",
		Description: "Translate C declarations into CFFI bindings. Returns the Lisp forms and any warnings.",
		Parameters: []ParameterSchema{
			{Name: "source", Type: "string", Description: "C header source text", Required: true},
			{Name: "file", Type: "string", Description: "Name used for locations and header guard detection (default: input.h)"},
			{Name: "package", Type: "string", Description: "Emit (cl:in-package :PACKAGE) before the forms"},
			{Name: "arguments", Type: "string", Description: "Compiler arguments separated by spaces, e.g. -DFOO=1"},
			{Name: "force", Type: "boolean", Description: "Generate output even when the source has syntax errors"},
			{Name: "best_effort", Type: "boolean", Description: "Skip declarations with unsupported types instead of failing"},
		},
	},
	"bindgen_file": {
		Name:        "bindgen_file",
		Description: "Translate a C header on disk into CFFI bindings without writing any file.",
		Parameters: []ParameterSchema{
			{Name: "path", Type: "string", Description: "Header path, relative to the project root", Required: true},
			{Name: "package", Type: "string", Description: "Emit (cl:in-package :PACKAGE) before the forms"},
			{Name: "arguments", Type: "string", Description: "Compiler arguments separated by spaces, e.g. -DFOO=1"},
			{Name: "force", Type: "boolean", Description: "Generate output even when the file has syntax errors"},
			{Name: "best_effort", Type: "boolean", Description: "Skip declarations with unsupported types instead of failing"},
		},
	},
	"bindgen_mangle": {
		Name:        "bindgen_mangle",
		Description: "Show how C names are spelled in Lisp by the configured mangler chain of a category.",
		Parameters: []ParameterSchema{
			{Name: "names", Type: "string", Description: "C names separated by commas or spaces", Required: true},
			{Name: "category", Type: "string", Description: "Mangler category: enum, type, name, typedef, constant", Required: true},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'cl-bindgen call --list' to see available tools)", name)
	}

	switch name {
	case "bindgen_generate":
		source, _ := args["source"].(string)
		if source == "" {
			return "", fmt.Errorf("source parameter is required")
		}
		file, _ := args["file"].(string)
		return s.executeGenerate(ctx, file, source, overridesFrom(args))

	case "bindgen_file":
		path, _ := args["path"].(string)
		if path == "" {
			return "", fmt.Errorf("path parameter is required")
		}
		return s.executeFile(ctx, path, overridesFrom(args))

	case "bindgen_mangle":
		names, _ := args["names"].(string)
		if names == "" {
			return "", fmt.Errorf("names parameter is required")
		}
		category, _ := args["category"].(string)
		if category == "" {
			return "", fmt.Errorf("category parameter is required")
		}
		return s.executeMangle(names, category)

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// registerGenerateTool registers the bindgen_generate tool
func (s *Server) registerGenerateTool() error {
	tool := mcp.NewTool("bindgen_generate",
		mcp.WithDescription(toolSchemaRegistry["bindgen_generate"].Description),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("C header source text"),
		),
		mcp.WithString("file",
			mcp.Description("Name used for locations and header guard detection (default: input.h)"),
		),
		mcp.WithString("package",
			mcp.Description("Emit (cl:in-package :PACKAGE) before the forms"),
		),
		mcp.WithString("arguments",
			mcp.Description("Compiler arguments separated by spaces, e.g. -DFOO=1"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Generate output even when the source has syntax errors"),
		),
		mcp.WithBoolean("best_effort",
			mcp.Description("Skip declarations with unsupported types instead of failing"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleGenerate)
	return nil
}

// registerFileTool registers the bindgen_file tool
func (s *Server) registerFileTool() error {
	tool := mcp.NewTool("bindgen_file",
		mcp.WithDescription(toolSchemaRegistry["bindgen_file"].Description),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Header path, relative to the project root"),
		),
		mcp.WithString("package",
			mcp.Description("Emit (cl:in-package :PACKAGE) before the forms"),
		),
		mcp.WithString("arguments",
			mcp.Description("Compiler arguments separated by spaces, e.g. -DFOO=1"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Generate output even when the file has syntax errors"),
		),
		mcp.WithBoolean("best_effort",
			mcp.Description("Skip declarations with unsupported types instead of failing"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleFile)
	return nil
}

// registerMangleTool registers the bindgen_mangle tool
func (s *Server) registerMangleTool() error {
	tool := mcp.NewTool("bindgen_mangle",
		mcp.WithDescription(toolSchemaRegistry["bindgen_mangle"].Description),
		mcp.WithString("names",
			mcp.Required(),
			mcp.Description("C names separated by commas or spaces"),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Mangler category: enum, type, name, typedef, constant"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleMangle)
	return nil
}

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "bindgen_generate", req)
}

func (s *Server) handleFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "bindgen_file", req)
}

func (s *Server) handleMangle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handle(ctx, "bindgen_mangle", req)
}

// handle runs a tool call as an independent pass and reports failures as
// tool errors rather than protocol errors.
func (s *Server) handle(ctx context.Context, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.CallTool(ctx, name, req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

// overridesFrom reads the per-call options shared by the generate tools.
func overridesFrom(args map[string]interface{}) config.Options {
	var o config.Options
	o.Package, _ = args["package"].(string)
	if a, ok := args["arguments"].(string); ok {
		o.Arguments = strings.Fields(a)
	}
	if f, ok := args["force"].(bool); ok {
		o.Force = &f
	}
	if b, ok := args["best_effort"].(bool); ok {
		o.BestEffort = &b
	}
	return o
}

// generateResult is the JSON shape of a generate tool result.
type generateResult struct {
	File     string         `json:"file"`
	Output   string         `json:"output"`
	Warnings []emit.Warning `json:"warnings,omitempty"`
	Cached   bool           `json:"cached,omitempty"`
}

func (s *Server) options(overrides config.Options) (bindgen.Options, error) {
	return config.MergeOptions(overrides, s.settings.Options).Compile(s.cache)
}

func (s *Server) executeGenerate(ctx context.Context, file, source string, overrides config.Options) (string, error) {
	if file == "" {
		file = "input.h"
	}
	opts, err := s.options(overrides)
	if err != nil {
		return "", err
	}
	res, err := bindgen.ProcessSource(ctx, file, []byte(source), opts)
	if err != nil {
		return "", err
	}
	return toJSON(newGenerateResult(res, opts.Package))
}

func (s *Server) executeFile(ctx context.Context, path string, overrides config.Options) (string, error) {
	if !filepath.IsAbs(path) && s.root != "" {
		path = filepath.Join(s.root, path)
	}
	opts, err := s.options(overrides)
	if err != nil {
		return "", err
	}
	res, err := bindgen.ProcessFile(ctx, path, opts)
	if err != nil {
		return "", err
	}
	return toJSON(newGenerateResult(res, opts.Package))
}

func newGenerateResult(res *bindgen.Result, pkg string) generateResult {
	out := string(res.Output)
	if pkg != "" {
		out = fmt.Sprintf("(cl:in-package :%s)\n\n", pkg) + out
	}
	return generateResult{File: res.File, Output: out, Warnings: res.Warnings, Cached: res.Cached}
}

func (s *Server) executeMangle(names, category string) (string, error) {
	cat, err := mangle.ParseCategory(category)
	if err != nil {
		return "", err
	}
	set, err := s.settings.SetSpec.Build()
	if err != nil {
		return "", err
	}
	chain := set.Chain(cat)

	report := output.MangleOutput{Category: string(cat)}
	for _, n := range strings.FieldsFunc(names, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		report.Names = append(report.Names, output.MangledName{Name: n, Mangled: chain.Apply(n)})
	}
	return toJSON(report)
}

func toJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
