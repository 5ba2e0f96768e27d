package bindgen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/emit"
)

const pointHeader = `#define MAX_SIZE 0x20

struct point {
    int x;
    int y;
};

typedef struct {
    double w;
} size_box;

int add(int a, int b);
`

const pointOutput = "(defconstant +max-size+ #x20)\n\n" +
	"(defcstruct point\n  (x :int)\n  (y :int))\n\n" +
	"(defcstruct size-box-record\n  (w :double))\n\n" +
	"(defctype size-box (:struct size-box-record))\n\n" +
	"(defcfun \"add\" :int\n  (a :int)\n  (b :int))\n"

const brokenHeader = "int ok;\n@@@ ;\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProcessSource(t *testing.T) {
	res, err := ProcessSource(context.Background(), "point.h", []byte(pointHeader), Options{})
	if err != nil {
		t.Fatalf("ProcessSource failed: %v", err)
	}
	if got := string(res.Output); got != pointOutput {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, pointOutput)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if res.Cached {
		t.Error("result should not be cached")
	}
}

func TestProcessSourceEnumValues(t *testing.T) {
	src := "enum big { BIGGER = 0xFFFFFFFFFFFFFFFFull };\n" +
		"enum flags { F_A = EXTERNAL_BIT, F_B };\n"
	res, err := ProcessSource(context.Background(), "enums.h", []byte(src), Options{})
	if err != nil {
		t.Fatalf("ProcessSource failed: %v", err)
	}

	want := "(defcenum big\n  (:bigger 18446744073709551615))\n\n" +
		"#| ENUM_DEFINITION\n(defcenum flags\n  (:f-a ACTUAL_VALUE_HERE)\n  (:f-b ACTUAL_VALUE_HERE))\n|#\n"
	if got := string(res.Output); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != emit.EnumValueUnresolved {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestProcessSourcePaddingBitfield(t *testing.T) {
	src := "struct flags { unsigned a : 3; unsigned : 5; unsigned b : 1; };\n"
	res, err := ProcessSource(context.Background(), "flags.h", []byte(src), Options{})
	if err != nil {
		t.Fatalf("ProcessSource failed: %v", err)
	}
	want := "(defcstruct flags\n  (a :unsigned-int) ; bit-field 3\n  (b :unsigned-int)) ; bit-field 1\n"
	if got := string(res.Output); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestProcessSourceAnonymousEnumParameter(t *testing.T) {
	res, err := ProcessSource(context.Background(), "takes.h", []byte("void takes(enum { R } w);\n"), Options{})
	if err != nil {
		t.Fatalf("ProcessSource failed: %v", err)
	}
	want := "(defconstant +r+ 0)\n\n(defcfun \"takes\" :void\n  (w :int)) ; enum takes-w\n"
	if got := string(res.Output); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestProcessFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ProcessFile(context.Background(), filepath.Join(dir, "missing.h"), Options{})
	var notFound *FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected FileNotFoundError, got %v", err)
	}

	_, err = ProcessFile(context.Background(), dir, Options{})
	var isDir *IsADirectoryError
	if !errors.As(err, &isDir) {
		t.Errorf("expected IsADirectoryError, got %v", err)
	}
}

func TestFatalDiagnostics(t *testing.T) {
	_, err := ProcessSource(context.Background(), "broken.h", []byte(brokenHeader), Options{})
	var diag *ParseDiagnosticError
	if !errors.As(err, &diag) {
		t.Fatalf("expected ParseDiagnosticError, got %v", err)
	}
	if diag.File != "broken.h" || len(diag.Diagnostics) == 0 {
		t.Errorf("diagnostic error = %+v", diag)
	}

	res, err := ProcessSource(context.Background(), "broken.h", []byte(brokenHeader), Options{Force: true})
	if err != nil {
		t.Fatalf("forced pass failed: %v", err)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Kind == emit.ParseDiagnostic {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a parse diagnostic warning, got %v", res.Warnings)
	}
}

func TestRunJobWritesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.h", "int add(int a, int b);\n")
	writeFile(t, dir, "b.h", "#define LIMIT 10\n")

	res, err := RunJob(context.Background(), Job{
		Inputs:  []string{"a.h", "b.h"},
		Output:  "out.lisp",
		Dir:     dir,
		Options: Options{Package: "mypkg"},
	})
	if err != nil {
		t.Fatalf("RunJob failed: %v", err)
	}

	want := "(cl:in-package :mypkg)\n\n" +
		"(defcfun \"add\" :int\n  (a :int)\n  (b :int))\n\n" +
		"(defconstant +limit+ 10)\n"
	got, err := os.ReadFile(filepath.Join(dir, "out.lisp"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if res.Bytes != len(want) || len(res.Files) != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.Output != filepath.Join(dir, "out.lisp") {
		t.Errorf("output path = %q", res.Output)
	}
}

func TestRunJobFatalLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.h", pointHeader)
	bad := writeFile(t, dir, "bad.h", brokenHeader)

	fresh := filepath.Join(dir, "fresh.lisp")
	_, err := RunJob(context.Background(), Job{Inputs: []string{good, bad}, Output: fresh})
	var diag *ParseDiagnosticError
	if !errors.As(err, &diag) {
		t.Fatalf("expected ParseDiagnosticError, got %v", err)
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Errorf("output file should not exist, stat err = %v", err)
	}

	existing := writeFile(t, dir, "existing.lisp", "old content")
	if _, err := RunJob(context.Background(), Job{Inputs: []string{good, bad}, Output: existing}); err == nil {
		t.Fatal("expected error")
	}
	got, _ := os.ReadFile(existing)
	if string(got) != "old content" {
		t.Errorf("existing output was modified: %q", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		for _, e := range entries {
			t.Logf("left behind: %s", e.Name())
		}
		t.Errorf("expected 3 files in %s, got %d", dir, len(entries))
	}
}

func TestRunJobDestinations(t *testing.T) {
	dir := t.TempDir()
	header := writeFile(t, dir, "a.h", pointHeader)

	t.Run("directory output", func(t *testing.T) {
		_, err := RunJob(context.Background(), Job{Inputs: []string{header}, Output: dir})
		var isDir *IsADirectoryError
		if !errors.As(err, &isDir) {
			t.Errorf("expected IsADirectoryError, got %v", err)
		}
	})

	t.Run("stdout", func(t *testing.T) {
		for _, out := range []string{"", "-", Stdout} {
			var buf bytes.Buffer
			res, err := RunJob(context.Background(), Job{Inputs: []string{header}, Output: out, Stdout: &buf})
			if err != nil {
				t.Fatalf("RunJob(%q) failed: %v", out, err)
			}
			if buf.String() != pointOutput || res.Output != Stdout {
				t.Errorf("RunJob(%q) wrote %q to %s", out, buf.String(), res.Output)
			}
		}
	})

	t.Run("stderr", func(t *testing.T) {
		var buf bytes.Buffer
		if _, err := RunJob(context.Background(), Job{Inputs: []string{header}, Output: Stderr, Stderr: &buf}); err != nil {
			t.Fatalf("RunJob failed: %v", err)
		}
		if buf.String() != pointOutput {
			t.Errorf("stderr got %q", buf.String())
		}
	})

	t.Run("no inputs", func(t *testing.T) {
		if _, err := RunJob(context.Background(), Job{}); !errors.Is(err, ErrNoInputs) {
			t.Errorf("expected ErrNoInputs, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var buf bytes.Buffer
		_, err := RunJob(ctx, Job{Inputs: []string{header}, Stdout: &buf})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("cancelled job wrote %q", buf.String())
		}
	})
}

func TestCacheReuse(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	header := writeFile(t, dir, "a.h", pointHeader)
	opts := Options{Cache: c, Fingerprint: "defaults"}

	first, err := ProcessFile(context.Background(), header, opts)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := ProcessFile(context.Background(), header, opts)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if string(second.Output) != pointOutput {
		t.Errorf("cached output mismatch: %q", second.Output)
	}

	opts.Package = "ignored-by-key"
	opts.SkipHeaderGuards = true
	third, err := ProcessFile(context.Background(), header, opts)
	if err != nil {
		t.Fatalf("third pass: %v", err)
	}
	if third.Cached {
		t.Error("changing options should miss the cache")
	}

	writeFile(t, dir, "a.h", "int x;\n")
	fourth, err := ProcessFile(context.Background(), header, opts)
	if err != nil {
		t.Fatalf("fourth pass: %v", err)
	}
	if fourth.Cached {
		t.Error("changing content should miss the cache")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&FileNotFoundError{Path: "a.h"}, "file not found: a.h"},
		{&IsADirectoryError{Path: "out"}, "out is a directory"},
		{&ParseDiagnosticError{File: "a.h"}, "a.h: fatal parse diagnostics"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
