package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/config"
	"github.com/hargabyte/cl-bindgen/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

Agents can generate bindings for header text or files and preview mangled
names without spawning a process per request. Every tool call is an
independent pass using the options of the configuration file; the pass
cache is shared when enabled.

Available Tools:
  bindgen_generate   Translate C source text
  bindgen_file       Translate a header file (nothing is written)
  bindgen_mangle     Preview mangled names

Examples:
  cl-bindgen serve                        # Start with all tools
  cl-bindgen serve --tools generate       # Start with specific tools only
  cl-bindgen serve --timeout 30m          # Auto-stop after 30 minutes
  cl-bindgen serve --status               # Check if server is running
  cl-bindgen serve --stop                 # Stop running server
  cl-bindgen serve --list-tools           # Show available tools`,
	RunE: runServe,
}

var (
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  bindgen_generate   Translate C source text")
		fmt.Fprintln(out, "  bindgen_file       Translate a header file")
		fmt.Fprintln(out, "  bindgen_mangle     Preview mangled names")
		return nil
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	if serveTools != "" {
		for _, t := range strings.Split(serveTools, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tools = append(tools, normalizeToolName(t))
			}
		}
	}

	srv, err := newServer(tools, timeout)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write PID file: %v\n", err)
	}
	defer removePIDFile()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\ncl-bindgen serve: shutting down\n")
		srv.Close()
		removePIDFile()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol
	fmt.Fprintf(os.Stderr, "cl-bindgen serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "cl-bindgen serve: tools: %v\n", srv.ListTools())
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "cl-bindgen serve: timeout: %v\n", timeout)
	}

	return srv.ServeStdio()
}

// newServer builds an MCP server over the configuration of the working
// directory.
func newServer(tools []string, timeout time.Duration) (*mcp.Server, error) {
	settings, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := openCache(settings)
	if err != nil {
		return nil, err
	}
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	srv, err := mcp.New(mcp.Config{
		Tools:    tools,
		Timeout:  timeout,
		Settings: settings,
		Cache:    store,
		Root:     root,
		Version:  Version,
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return srv, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	pidPath, err := getPIDFilePath()
	if err != nil {
		fmt.Fprintln(out, "Status: not running (no .cl-bindgen directory)")
		return nil
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Fprintln(out, "Status: not running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Fprintln(out, "Status: not running (invalid PID file)")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Fprintln(out, "Status: not running")
		removePIDFile()
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	if err := process.Signal(syscall.Signal(0)); err != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	pidPath, err := getPIDFilePath()
	if err != nil {
		return fmt.Errorf("no .cl-bindgen directory")
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Fprintln(out, "No server running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return fmt.Errorf("invalid PID file")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		fmt.Fprintln(out, "No server running")
		return nil
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
