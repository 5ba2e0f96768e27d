package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/hargabyte/cl-bindgen/internal/output"
)

const shapesHeader = `#define MAX_POINTS 16

struct point {
    int x;
    int y;
};

int area(struct point *p);
`

// resetFlags restores the package-level flag variables between tests and
// points --config at a file that does not exist, so defaults apply.
func resetFlags(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	verbose = 0
	configPath = filepath.Join(dir, "config.yaml")
	outputFormat = "yaml"
	forAgents = false

	filesOutput = ""
	filesIncludes = nil
	filesDefines = nil
	filesPackage = ""
	filesForce = false
	filesBestEffort = false
	filesSummary = false

	batchSummary = false
	mangleCategory = "type"
	callList = false
	callPipe = false
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func capture(cmd *cobra.Command) (*bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return &stdout, &stderr
}

func TestFilesCommandWritesFile(t *testing.T) {
	dir := resetFlags(t)
	header := filepath.Join(dir, "shapes.h")
	writeFile(t, header, shapesHeader)

	filesOutput = filepath.Join(dir, "shapes.lisp")
	filesPackage = "shapes"
	capture(filesCmd)

	if err := runFiles(filesCmd, []string{header}); err != nil {
		t.Fatalf("runFiles: %v", err)
	}

	data, err := os.ReadFile(filesOutput)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	want := "(cl:in-package :shapes)\n\n" +
		"(defconstant +max-points+ 16)\n\n" +
		"(defcstruct point\n  (x :int)\n  (y :int))\n\n" +
		"(defcfun \"area\" :int\n  (p (:pointer (:struct point))))\n"
	if string(data) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestFilesCommandStdout(t *testing.T) {
	dir := resetFlags(t)
	header := filepath.Join(dir, "grid.h")
	writeFile(t, header, "struct grid { int cells[N]; };\n")

	filesDefines = []string{"N=4"}
	stdout, _ := capture(filesCmd)

	if err := runFiles(filesCmd, []string{header}); err != nil {
		t.Fatalf("runFiles: %v", err)
	}
	got := stdout.String()
	if !strings.Contains(got, "(defcstruct grid") || !strings.Contains(got, "array (size 4)") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestFilesCommandMissingInput(t *testing.T) {
	dir := resetFlags(t)
	filesOutput = filepath.Join(dir, "out.lisp")
	capture(filesCmd)

	err := runFiles(filesCmd, []string{filepath.Join(dir, "missing.h")})
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if _, statErr := os.Stat(filesOutput); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after a failed job")
	}
}

func TestFilesOverrides(t *testing.T) {
	resetFlags(t)
	filesIncludes = []string{"include"}
	filesDefines = []string{"DEBUG", "LEVEL=2"}
	filesPackage = "pkg"

	o := filesOverrides(filesCmd)
	want := []string{"-Iinclude", "-DDEBUG", "-DLEVEL=2"}
	if strings.Join(o.Arguments, " ") != strings.Join(want, " ") {
		t.Errorf("Arguments = %v, want %v", o.Arguments, want)
	}
	if o.Package != "pkg" {
		t.Errorf("Package = %q", o.Package)
	}
	if o.Force != nil || o.BestEffort != nil {
		t.Error("unset flags should not override the config")
	}
}

func TestBatchCommandContinuesAfterFailure(t *testing.T) {
	dir := resetFlags(t)
	writeFile(t, filepath.Join(dir, "limits.h"), "#define MAX_LEN 64\n")
	writeFile(t, filepath.Join(dir, "jobs.yaml"), `files: [missing.h]
output: broken.lisp
---
files: [limits.h]
output: limits.lisp
`)
	batchSummary = true
	outputFormat = "json"
	_, stderr := capture(batchCmd)

	err := runBatch(batchCmd, []string{filepath.Join(dir, "jobs.yaml")})
	if err == nil || !strings.Contains(err.Error(), "1 job(s) failed") {
		t.Fatalf("expected one failed job, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "limits.lisp"))
	if err != nil {
		t.Fatalf("second job not committed: %v", err)
	}
	if string(data) != "(defconstant +max-len+ 64)\n" {
		t.Errorf("limits.lisp = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.lisp")); !os.IsNotExist(err) {
		t.Error("failed job should not write its output")
	}

	var report output.JobsOutput
	if err := json.Unmarshal(stderr.Bytes(), &report); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, stderr.String())
	}
	if len(report.Jobs) != 1 || report.Jobs[0].Bytes != len(data) {
		t.Errorf("summary = %+v", report)
	}
}

func TestMangleCommand(t *testing.T) {
	resetFlags(t)
	mangleCategory = "constant"
	outputFormat = "json"
	stdout, _ := capture(mangleCmd)

	if err := runMangle(mangleCmd, []string{"FOO_BAR", "mypkg:FOO_BAR"}); err != nil {
		t.Fatalf("runMangle: %v", err)
	}

	var report output.MangleOutput
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Category != "constant" || len(report.Names) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report.Names[0].Mangled != "+foo-bar+" || report.Names[1].Mangled != "mypkg:+foo-bar+" {
		t.Errorf("names = %+v", report.Names)
	}

	mangleCategory = "bogus"
	if err := runMangle(mangleCmd, []string{"x"}); err == nil {
		t.Error("invalid category should fail")
	}
}

func TestInitCommand(t *testing.T) {
	dir := resetFlags(t)
	t.Chdir(dir)
	stdout, _ := capture(initCmd)

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cl-bindgen", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("second runInit: %v", err)
	}
	if !strings.Contains(stdout.String(), "Already initialized") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestCacheReusedAcrossRuns(t *testing.T) {
	dir := resetFlags(t)
	writeFile(t, configPath, "cache:\n  enabled: true\n")
	header := filepath.Join(dir, "shapes.h")
	writeFile(t, header, shapesHeader)

	filesSummary = true
	outputFormat = "json"

	var reports []output.JobsOutput
	for i := 0; i < 2; i++ {
		_, stderr := capture(filesCmd)
		if err := runFiles(filesCmd, []string{header}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		var report output.JobsOutput
		if err := json.Unmarshal(stderr.Bytes(), &report); err != nil {
			t.Fatalf("run %d summary: %v", i, err)
		}
		reports = append(reports, report)
	}
	if reports[0].Jobs[0].Cached != 0 || reports[1].Jobs[0].Cached != 1 {
		t.Errorf("cached counts = %d, %d", reports[0].Jobs[0].Cached, reports[1].Jobs[0].Cached)
	}

	stdout, _ := capture(cacheStatsCmd)
	if err := cacheStatsCmd.RunE(cacheStatsCmd, nil); err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	var stats output.CacheOutput
	if err := json.Unmarshal(stdout.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Passes != 1 {
		t.Errorf("passes = %d, want 1", stats.Passes)
	}

	stdout, _ = capture(cacheClearCmd)
	if err := cacheClearCmd.RunE(cacheClearCmd, nil); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	stats = output.CacheOutput{}
	if err := json.Unmarshal(stdout.Bytes(), &stats); err != nil {
		t.Fatalf("decode clear: %v", err)
	}
	if !stats.Cleared || stats.Passes != 0 {
		t.Errorf("after clear = %+v", stats)
	}
}

func TestBuildCommandInfo(t *testing.T) {
	info := buildCommandInfo(rootCmd)
	names := make(map[string]bool)
	for _, sub := range info.Subcommands {
		names[sub.Name] = true
	}
	for _, want := range []string{"files", "batch", "mangle", "init", "cache", "serve", "call", "help-agents"} {
		if !names[want] {
			t.Errorf("missing subcommand %s", want)
		}
	}
}

func TestAgentReferenceJSON(t *testing.T) {
	var ref map[string]interface{}
	if err := json.Unmarshal([]byte(generateAgentReferenceJSON()), &ref); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if ref["version"] != Version {
		t.Errorf("version = %v", ref["version"])
	}
}
