package bindgen

import (
	"errors"
	"fmt"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// ErrNoInputs is returned for a job without input files.
var ErrNoInputs = errors.New("no input files")

// FileNotFoundError is returned when an input file does not exist.
type FileNotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap returns the underlying error.
func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// IsADirectoryError is returned when an input or output path names a
// directory.
type IsADirectoryError struct {
	Path string
}

// Error implements the error interface.
func (e *IsADirectoryError) Error() string {
	return fmt.Sprintf("%s is a directory", e.Path)
}

// ParseDiagnosticError is returned when the parser reported fatal
// diagnostics and the pass was not forced.
type ParseDiagnosticError struct {
	File        string
	Diagnostics []cdecl.Diagnostic
}

// Error implements the error interface.
func (e *ParseDiagnosticError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("%s: fatal parse diagnostics", e.File)
	}
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Diagnostics[0].Message)
	}
	return fmt.Sprintf("%s: %s (and %d more)", e.File, e.Diagnostics[0].Message, len(e.Diagnostics)-1)
}
