package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/cl-bindgen/internal/bindgen"
	"github.com/hargabyte/cl-bindgen/internal/cache"
	"github.com/hargabyte/cl-bindgen/internal/expand"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
)

// JobSpec is one document of a batch file.
type JobSpec struct {
	Options `yaml:",inline"`
	Files   []string `yaml:"files"`
}

// Batch is a parsed batch file. Paths in its jobs are relative to Dir.
type Batch struct {
	Path string
	Dir  string
	Jobs []JobSpec
}

// LoadBatch reads a batch file. Every YAML document in the file is a job.
func LoadBatch(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	batch, err := ParseBatch(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	batch.Path = path
	return batch, nil
}

// ParseBatch decodes the documents of a batch file.
func ParseBatch(r io.Reader, dir string) (*Batch, error) {
	batch := &Batch{Dir: dir}
	dec := yaml.NewDecoder(r)
	for i := 1; ; i++ {
		var spec JobSpec
		err := dec.Decode(&spec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if len(spec.Files) == 0 {
			return nil, fmt.Errorf("%w: document %d: no files", ErrInvalidConfig, i)
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		batch.Jobs = append(batch.Jobs, spec)
	}
	if len(batch.Jobs) == 0 {
		return nil, fmt.Errorf("%w: no jobs", ErrInvalidConfig)
	}
	return batch, nil
}

// Job builds the runnable job for spec, with spec's options overriding the
// configuration. store may be nil.
func (c *Config) Job(spec JobSpec, dir string, store *cache.Cache) (bindgen.Job, error) {
	merged := MergeOptions(spec.Options, c.Options)
	opts, err := merged.Compile(store)
	if err != nil {
		return bindgen.Job{}, err
	}
	return bindgen.Job{
		Inputs:  spec.Files,
		Output:  merged.Output,
		Dir:     dir,
		Options: opts,
	}, nil
}

// Compile turns the options into bindgen options. store may be nil.
func (o Options) Compile(store *cache.Cache) (bindgen.Options, error) {
	set, err := o.SetSpec.Build()
	if err != nil {
		return bindgen.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var rules expand.Rules
	if o.PointerExpansion != nil {
		rules = *o.PointerExpansion
	}
	pred, err := rules.Compile()
	if err != nil {
		return bindgen.Options{}, fmt.Errorf("%w: pointer_expansion: %v", ErrInvalidConfig, err)
	}

	fingerprint, err := yaml.Marshal(struct {
		Manglers         mangle.SetSpec `yaml:"manglers"`
		PointerExpansion expand.Rules   `yaml:"pointer_expansion"`
	}{o.SetSpec, rules})
	if err != nil {
		return bindgen.Options{}, fmt.Errorf("fingerprint options: %w", err)
	}

	return bindgen.Options{
		Manglers:         set,
		Expand:           pred,
		Arguments:        o.Arguments,
		Force:            boolValue(o.Force),
		BestEffort:       boolValue(o.BestEffort),
		SkipHeaderGuards: boolValue(o.SkipHeaderGuards),
		Package:          o.Package,
		Cache:            store,
		Fingerprint:      string(fingerprint),
	}, nil
}
