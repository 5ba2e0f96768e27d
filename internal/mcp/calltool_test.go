package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hargabyte/cl-bindgen/internal/output"
)

func newTestServer(t *testing.T, root string) *Server {
	t.Helper()
	s, err := New(Config{Root: root})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestGetToolSchemas(t *testing.T) {
	for _, name := range AllTools {
		schema, ok := toolSchemaRegistry[name]
		if !ok {
			t.Errorf("toolSchemaRegistry missing tool: %s", name)
			continue
		}
		if schema.Name != name {
			t.Errorf("schema name mismatch: got %q, want %q", schema.Name, name)
		}
		if schema.Description == "" {
			t.Errorf("tool %s has empty description", name)
		}
	}

	if len(toolSchemaRegistry) != len(AllTools) {
		t.Errorf("toolSchemaRegistry has %d tools, want %d", len(toolSchemaRegistry), len(AllTools))
	}

	s := newTestServer(t, "")
	if got := len(s.GetToolSchemas()); got != len(AllTools) {
		t.Errorf("GetToolSchemas returned %d schemas", got)
	}
	tools := s.ListTools()
	sort.Strings(tools)
	if strings.Join(tools, ",") != "bindgen_file,bindgen_generate,bindgen_mangle" {
		t.Errorf("ListTools = %v", tools)
	}
}

func TestToolSchemaParameters(t *testing.T) {
	tests := []struct {
		tool          string
		requiredParam string
	}{
		{"bindgen_generate", "source"},
		{"bindgen_file", "path"},
		{"bindgen_mangle", "names"},
		{"bindgen_mangle", "category"},
	}

	for _, tt := range tests {
		schema := toolSchemaRegistry[tt.tool]
		found := false
		for _, p := range schema.Parameters {
			if p.Name == tt.requiredParam {
				found = true
				if !p.Required {
					t.Errorf("tool %s param %s should be required", tt.tool, tt.requiredParam)
				}
			}
		}
		if !found {
			t.Errorf("tool %s missing parameter %s", tt.tool, tt.requiredParam)
		}
	}
}

func TestUnknownTool(t *testing.T) {
	s, err := New(Config{Tools: []string{"bindgen_mangle"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.CallTool(context.Background(), "bindgen_generate", nil); err == nil {
		t.Error("unregistered tool should fail")
	}
	if _, err := New(Config{Tools: []string{"cx_show"}}); err == nil {
		t.Error("unknown tool name should fail registration")
	}
}

func TestCallGenerate(t *testing.T) {
	s := newTestServer(t, "")

	result, err := s.CallTool(context.Background(), "bindgen_generate", map[string]interface{}{
		"source":  "#define LIMIT (WIDTH * 2)\nint area(int w, int h);\n",
		"package": "shapes",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}

	var got generateResult
	if err := json.Unmarshal([]byte(result), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.File != "input.h" {
		t.Errorf("file = %q", got.File)
	}
	if !strings.HasPrefix(got.Output, "(cl:in-package :shapes)\n\n") {
		t.Errorf("missing package line: %q", got.Output)
	}
	if !strings.Contains(got.Output, "(defcfun \"area\" :int\n  (w :int)\n  (h :int))") {
		t.Errorf("missing function: %q", got.Output)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Kind != "macro-value-unresolved" {
		t.Errorf("warnings = %+v", got.Warnings)
	}

	if _, err := s.CallTool(context.Background(), "bindgen_generate", map[string]interface{}{}); err == nil {
		t.Error("missing source should fail")
	}
	_, err = s.CallTool(context.Background(), "bindgen_generate", map[string]interface{}{"source": "@@@ ;\n"})
	if err == nil {
		t.Error("syntax error should fail without force")
	}
	if _, err := s.CallTool(context.Background(), "bindgen_generate", map[string]interface{}{
		"source": "@@@ ;\n",
		"force":  true,
	}); err != nil {
		t.Errorf("forced call failed: %v", err)
	}
}

func TestCallFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "api.h"), []byte("extern int counter;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, root)

	result, err := s.CallTool(context.Background(), "bindgen_file", map[string]interface{}{"path": "api.h"})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	var got generateResult
	if err := json.Unmarshal([]byte(result), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Output != "(defcvar \"counter\" :int)\n" {
		t.Errorf("output = %q", got.Output)
	}

	if _, err := s.CallTool(context.Background(), "bindgen_file", map[string]interface{}{"path": "missing.h"}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestCallMangle(t *testing.T) {
	s := newTestServer(t, "")

	result, err := s.CallTool(context.Background(), "bindgen_mangle", map[string]interface{}{
		"names":    "FOO_BAR, mypkg:FOO_BAR",
		"category": "constant",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	var got output.MangleOutput
	if err := json.Unmarshal([]byte(result), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	want := []output.MangledName{
		{Name: "FOO_BAR", Mangled: "+foo-bar+"},
		{Name: "mypkg:FOO_BAR", Mangled: "mypkg:+foo-bar+"},
	}
	if got.Category != "constant" || len(got.Names) != len(want) {
		t.Fatalf("result = %+v", got)
	}
	for i := range want {
		if got.Names[i] != want[i] {
			t.Errorf("name %d = %+v, want %+v", i, got.Names[i], want[i])
		}
	}

	if _, err := s.CallTool(context.Background(), "bindgen_mangle", map[string]interface{}{
		"names":    "x",
		"category": "bogus",
	}); err == nil {
		t.Error("bad category should fail")
	}
}
