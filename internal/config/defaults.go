package config

import "github.com/hargabyte/cl-bindgen/internal/mangle"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Options: Options{
			SetSpec:          mangle.DefaultSetSpec(),
			Output:           ":stdout",
			Force:            boolPtr(false),
			BestEffort:       boolPtr(false),
			SkipHeaderGuards: boolPtr(true),
		},
		Cache: CacheConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Format: "text",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Options = MergeOptions(loaded.Options, defaults.Options)

	// Cache.Enabled: bool can't distinguish unset from false, use loaded
	result.Cache.Enabled = loaded.Cache.Enabled

	if loaded.Log.Format != "" {
		result.Log.Format = loaded.Log.Format
	} else {
		result.Log.Format = defaults.Log.Format
	}

	return result
}

// MergeOptions overlays the set fields of over onto base. A mangler chain
// given in over replaces the whole chain of base.
func MergeOptions(over, base Options) Options {
	result := base

	result.SetSpec = mangle.SetSpec{
		Enum:     mergeChain(over.Enum, base.Enum),
		Type:     mergeChain(over.Type, base.Type),
		Name:     mergeChain(over.Name, base.Name),
		Typedef:  mergeChain(over.Typedef, base.Typedef),
		Constant: mergeChain(over.Constant, base.Constant),
	}

	if len(over.Arguments) > 0 {
		result.Arguments = over.Arguments
	}
	if over.Package != "" {
		result.Package = over.Package
	}
	if over.Output != "" {
		result.Output = over.Output
	}
	if over.Force != nil {
		result.Force = over.Force
	}
	if over.BestEffort != nil {
		result.BestEffort = over.BestEffort
	}
	if over.SkipHeaderGuards != nil {
		result.SkipHeaderGuards = over.SkipHeaderGuards
	}
	if over.PointerExpansion != nil {
		result.PointerExpansion = over.PointerExpansion
	}

	return result
}

func mergeChain(over, base []mangle.Spec) []mangle.Spec {
	if len(over) > 0 {
		return over
	}
	return base
}

func boolPtr(b bool) *bool {
	return &b
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

// ValidLogFormats lists the valid values for log.format
var ValidLogFormats = []string{"text", "json"}

// IsValidLogFormat checks if the given log format is valid
func IsValidLogFormat(format string) bool {
	for _, valid := range ValidLogFormats {
		if format == valid {
			return true
		}
	}
	return false
}
