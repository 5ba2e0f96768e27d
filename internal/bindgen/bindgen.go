// Package bindgen drives binding generation for files and jobs.
//
// ProcessFile runs one pass over one C file and returns its output without
// writing it anywhere. RunJob runs the passes of a job in order and commits
// the concatenated output to the destination only when every pass
// succeeded.
package bindgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/cdecl"
	"github.com/hargabyte/cl-bindgen/internal/emit"
	"github.com/hargabyte/cl-bindgen/internal/expand"
	"github.com/hargabyte/cl-bindgen/internal/logger"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
	"github.com/hargabyte/cl-bindgen/internal/parser"
)

// Options control a pass.
type Options struct {
	// Manglers are the name chains. Nil uses mangle.DefaultSet.
	Manglers *mangle.Set
	// Expand decides which pointers keep their pointee type. Nil expands
	// every pointer.
	Expand expand.Predicate
	// Arguments are compiler style arguments given to the parser.
	Arguments []string
	// Force downgrades fatal parse diagnostics to warnings.
	Force bool
	// BestEffort drops declarations with unsupported types instead of
	// failing the pass.
	BestEffort       bool
	SkipHeaderGuards bool
	// Package, when set, starts job output with an in-package form.
	Package string

	// Cache, when set together with Fingerprint, reuses passes over
	// unchanged input.
	Cache *cache.Cache
	// Fingerprint identifies the mangler chains and expansion rules, which
	// cannot be compared directly.
	Fingerprint string
}

// Result is the outcome of one pass.
type Result struct {
	File     string         `yaml:"file" json:"file"`
	Output   []byte         `yaml:"-" json:"-"`
	Warnings []emit.Warning `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Cached   bool           `yaml:"cached" json:"cached"`
}

// ProcessFile translates the C file at path.
func ProcessFile(ctx context.Context, path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &IsADirectoryError{Path: path}
	}
	if !parser.IsSourceFile(path) {
		logger.Warn("Input does not look like a C source", "file", path, "expected", parser.SupportedExtensions())
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &parser.FileReadError{Path: path, Err: err}
	}
	return ProcessSource(ctx, path, source, opts)
}

// ProcessSource translates source as if read from path.
func ProcessSource(ctx context.Context, path string, source []byte, opts Options) (*Result, error) {
	logger.LogFileProcessing(path)

	var hash string
	if opts.Cache != nil && opts.Fingerprint != "" {
		hash = cache.InputHash(source, cacheKey(opts))
		entry, ok, err := opts.Cache.Lookup(path, hash)
		if err != nil {
			logger.Warn("Cache lookup failed", "file", path, "error", err)
		} else if ok {
			res := &Result{File: path, Output: entry.Output, Warnings: entry.Warnings, Cached: true}
			finish(res)
			return res, nil
		}
	}

	logger.LogIgnoredArguments(path, parser.ParseArgs(opts.Arguments).Ignored)

	tu, err := parser.ParseSource(ctx, path, source, opts.Arguments)
	if err != nil {
		return nil, err
	}
	if fatal := tu.Fatal(); len(fatal) > 0 && !opts.Force {
		return nil, &ParseDiagnosticError{File: path, Diagnostics: fatal}
	}

	pass := emit.NewPass(emit.Config{
		File:             path,
		Manglers:         opts.Manglers,
		Expand:           opts.Expand,
		BestEffort:       opts.BestEffort,
		SkipHeaderGuards: opts.SkipHeaderGuards,
	})
	for _, d := range tu.Diagnostics {
		if d.Severity >= cdecl.SeverityWarning {
			pass.Warn(emit.ParseDiagnostic, d.Loc, d.Message)
		}
	}
	if err := pass.Run(ctx, tu); err != nil {
		return nil, err
	}

	res := &Result{File: path, Output: pass.Output(), Warnings: pass.Warnings()}
	if hash != "" {
		err := opts.Cache.Store(&cache.Entry{
			FilePath:  path,
			InputHash: hash,
			Output:    res.Output,
			Warnings:  res.Warnings,
		})
		if err != nil {
			logger.Warn("Cache store failed", "file", path, "error", err)
		}
	}
	finish(res)
	return res, nil
}

func finish(res *Result) {
	for _, w := range res.Warnings {
		logger.LogWarning(w)
	}
	logger.LogFileComplete(res.File, len(res.Output), len(res.Warnings), res.Cached)
}

// cacheKey folds the comparable options into the fingerprint.
func cacheKey(opts Options) string {
	return fmt.Sprintf("%s\x00%s\x00force=%t best-effort=%t skip-guards=%t",
		opts.Fingerprint, strings.Join(opts.Arguments, "\x1f"),
		opts.Force, opts.BestEffort, opts.SkipHeaderGuards)
}
