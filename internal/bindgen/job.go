package bindgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Output destinations that are not files.
const (
	Stdout = ":stdout"
	Stderr = ":stderr"
)

// Job is a list of input files that produce one output.
type Job struct {
	Inputs []string
	// Output is a file path, Stdout (or "-") or Stderr. Empty means Stdout.
	Output string
	// Dir resolves relative input and output paths. Empty means the working
	// directory.
	Dir     string
	Options Options

	// Stdout and Stderr replace the process streams when set.
	Stdout io.Writer
	Stderr io.Writer
}

// JobResult describes a committed job.
type JobResult struct {
	Output string    `yaml:"output" json:"output"`
	Bytes  int       `yaml:"bytes" json:"bytes"`
	Files  []*Result `yaml:"files" json:"files"`
}

// RunJob runs every pass of job in order. The destination is written only
// after all passes succeeded; a file destination is replaced atomically.
func RunJob(ctx context.Context, job Job) (*JobResult, error) {
	if len(job.Inputs) == 0 {
		return nil, ErrNoInputs
	}

	dest := job.Output
	if dest == "" || dest == "-" {
		dest = Stdout
	}
	if dest != Stdout && dest != Stderr {
		dest = resolve(job.Dir, dest)
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			return nil, &IsADirectoryError{Path: dest}
		}
	}

	var buf bytes.Buffer
	if job.Options.Package != "" {
		fmt.Fprintf(&buf, "(cl:in-package :%s)\n\n", job.Options.Package)
	}

	result := &JobResult{Output: dest}
	for _, input := range job.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := ProcessFile(ctx, resolve(job.Dir, input), job.Options)
		if err != nil {
			return nil, err
		}
		if len(res.Output) > 0 && buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n\n")) {
			buf.WriteByte('\n')
		}
		buf.Write(res.Output)
		result.Files = append(result.Files, res)
	}
	result.Bytes = buf.Len()

	if err := commit(job, dest, buf.Bytes()); err != nil {
		return nil, err
	}
	return result, nil
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func commit(job Job, dest string, data []byte) error {
	switch dest {
	case Stdout:
		return writeStream(job.Stdout, os.Stdout, data)
	case Stderr:
		return writeStream(job.Stderr, os.Stderr, data)
	default:
		return WriteFileAtomic(dest, data)
	}
}

func writeStream(w, fallback io.Writer, data []byte) error {
	if w == nil {
		w = fallback
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
