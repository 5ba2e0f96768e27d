package output

import (
	"github.com/hargabyte/cl-bindgen/internal/bindgen"
	"github.com/hargabyte/cl-bindgen/internal/emit"
)

// MangleOutput is the report of the mangle command.
type MangleOutput struct {
	Category string        `yaml:"category" json:"category"`
	Names    []MangledName `yaml:"names" json:"names"`
}

// MangledName pairs a C name with its Lisp spelling.
type MangledName struct {
	Name    string `yaml:"name" json:"name"`
	Mangled string `yaml:"mangled" json:"mangled"`
}

// JobsOutput is the report of the files and batch commands.
type JobsOutput struct {
	Jobs []JobOutput `yaml:"jobs" json:"jobs"`
}

// JobOutput summarizes one committed job.
type JobOutput struct {
	Output   string         `yaml:"output" json:"output"`
	Bytes    int            `yaml:"bytes" json:"bytes"`
	Files    []string       `yaml:"files" json:"files"`
	Cached   int            `yaml:"cached,omitempty" json:"cached,omitempty"`
	Warnings []emit.Warning `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// NewJobOutput summarizes a job result.
func NewJobOutput(res *bindgen.JobResult) JobOutput {
	out := JobOutput{Output: res.Output, Bytes: res.Bytes}
	for _, f := range res.Files {
		out.Files = append(out.Files, f.File)
		out.Warnings = append(out.Warnings, f.Warnings...)
		if f.Cached {
			out.Cached++
		}
	}
	return out
}

// CacheOutput is the report of the cache command.
type CacheOutput struct {
	Path        string `yaml:"path" json:"path"`
	Passes      int64  `yaml:"passes" json:"passes"`
	OutputBytes int64  `yaml:"output_bytes" json:"output_bytes"`
	Pruned      int    `yaml:"pruned,omitempty" json:"pruned,omitempty"`
	Cleared     bool   `yaml:"cleared,omitempty" json:"cleared,omitempty"`
}
