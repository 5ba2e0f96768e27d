package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hargabyte/cl-bindgen/internal/output"
)

func TestNormalizeToolName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"generate", "bindgen_generate"},
		{"bindgen_generate", "bindgen_generate"},
		{"file", "bindgen_file"},
		{"mangle", "bindgen_mangle"},
		{"bindgen_mangle", "bindgen_mangle"},
		{"nonexistent", "bindgen_nonexistent"},
	}

	for _, tt := range tests {
		got := normalizeToolName(tt.input)
		if got != tt.want {
			t.Errorf("normalizeToolName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCallCmdRequiresToolOrFlag(t *testing.T) {
	resetFlags(t)
	// runCall with no args and no flags should error
	err := runCall(callCmd, []string{})
	if err == nil {
		t.Error("runCall with no args should return error")
	}
}

func TestCallSingle(t *testing.T) {
	resetFlags(t)
	stdout, _ := capture(callCmd)

	err := runCall(callCmd, []string{"mangle", `{"names":"size_box","category":"type"}`})
	if err != nil {
		t.Fatalf("runCall: %v", err)
	}
	var report output.MangleOutput
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Names) != 1 || report.Names[0].Mangled != "size-box" {
		t.Errorf("report = %+v", report)
	}

	if err := runCall(callCmd, []string{"mangle", "{not json"}); err == nil {
		t.Error("invalid JSON args should fail")
	}
}

func TestCallPipe(t *testing.T) {
	resetFlags(t)
	callPipe = true
	stdout, _ := capture(callCmd)
	callCmd.SetIn(strings.NewReader(`{"tool":"generate","args":{"source":"int add(int a, int b);"}}
garbage
{"tool":"bindgen_mangle","args":{}}
`))
	defer callCmd.SetIn(nil)

	if err := runCall(callCmd, nil); err != nil {
		t.Fatalf("runCall: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d responses:\n%s", len(lines), stdout.String())
	}
	var first pipeResponse
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Error != "" || !strings.Contains(string(first.Result), "defcfun") {
		t.Errorf("first response = %s", lines[0])
	}
	for _, line := range lines[1:] {
		var resp pipeResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error == "" {
			t.Errorf("expected error response, got %s", line)
		}
	}
}
