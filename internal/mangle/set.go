package mangle

import (
	"errors"
	"fmt"
	"strings"
)

// Category names a class of C names that share a chain.
type Category string

const (
	// EnumCategory covers enum members.
	EnumCategory Category = "enum"
	// TypeCategory covers struct, union, enum and function names.
	TypeCategory Category = "type"
	// NameCategory covers fields, parameters and variables.
	NameCategory Category = "name"
	// TypedefCategory covers typedef names.
	TypedefCategory Category = "typedef"
	// ConstantCategory covers macros, constant variables and flattened enums.
	ConstantCategory Category = "constant"
)

// Categories lists every category in display order.
var Categories = []Category{EnumCategory, TypeCategory, NameCategory, TypedefCategory, ConstantCategory}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid mangler category: %q (expected one of %v)", s, Categories)
}

// Set holds one chain per category.
type Set struct {
	Enum     Chain
	Type     Chain
	Name     Chain
	Typedef  Chain
	Constant Chain
}

// Chain returns the chain for category c.
func (s *Set) Chain(c Category) Chain {
	switch c {
	case EnumCategory:
		return s.Enum
	case TypeCategory:
		return s.Type
	case NameCategory:
		return s.Name
	case TypedefCategory:
		return s.Typedef
	case ConstantCategory:
		return s.Constant
	default:
		return nil
	}
}

// Spec describes a mangler as data so chains can live in YAML files.
type Spec struct {
	Kind      string `yaml:"kind" json:"kind"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Replace   string `yaml:"replace,omitempty" json:"replace,omitempty"`
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Separator string `yaml:"separator,omitempty" json:"separator,omitempty"`
}

// Mangler kinds accepted in Spec.Kind.
const (
	KindPrefix     = "prefix"
	KindUnderscore = "underscore"
	KindKeyword    = "keyword"
	KindConstant   = "constant"
	KindCamelCase  = "camel-case"
	KindRegex      = "regex"
	KindDowncase   = "downcase"
)

// ErrUnknownKind is returned for an unrecognized Spec.Kind.
var ErrUnknownKind = errors.New("unknown mangler kind")

// Build turns a spec into a Mangler.
func (s Spec) Build() (Mangler, error) {
	switch strings.ToLower(s.Kind) {
	case KindPrefix:
		if s.Prefix == "" {
			return nil, fmt.Errorf("prefix mangler: prefix must not be empty")
		}
		return PrefixMangler{Prefix: s.Prefix, Replace: s.Replace}, nil
	case KindUnderscore:
		return UnderscoreMangler{Separator: s.Separator}, nil
	case KindKeyword:
		return KeywordMangler{}, nil
	case KindConstant:
		return ConstantMangler{}, nil
	case KindCamelCase, "camelcase", "camel":
		return CamelCaseMangler{Separator: s.Separator}, nil
	case KindRegex:
		m, err := NewRegexMangler(s.Pattern, s.Replace)
		if err != nil {
			return nil, fmt.Errorf("regex mangler %q: %w", s.Pattern, err)
		}
		return m, nil
	case KindDowncase:
		return DowncaseMangler{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

// Build converts a list of specs into a Chain.
func Build(specs []Spec) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, s := range specs {
		m, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("mangler %d: %w", i, err)
		}
		chain = append(chain, m)
	}
	return chain, nil
}

// SetSpec is the data form of a Set, keyed the way option files spell it.
type SetSpec struct {
	Enum     []Spec `yaml:"enum_manglers,omitempty" json:"enum_manglers,omitempty"`
	Type     []Spec `yaml:"type_manglers,omitempty" json:"type_manglers,omitempty"`
	Name     []Spec `yaml:"name_manglers,omitempty" json:"name_manglers,omitempty"`
	Typedef  []Spec `yaml:"typedef_manglers,omitempty" json:"typedef_manglers,omitempty"`
	Constant []Spec `yaml:"constant_manglers,omitempty" json:"constant_manglers,omitempty"`
}

// Build compiles every chain of s.
func (s SetSpec) Build() (*Set, error) {
	var (
		set Set
		err error
	)
	if set.Enum, err = Build(s.Enum); err != nil {
		return nil, fmt.Errorf("enum_manglers: %w", err)
	}
	if set.Type, err = Build(s.Type); err != nil {
		return nil, fmt.Errorf("type_manglers: %w", err)
	}
	if set.Name, err = Build(s.Name); err != nil {
		return nil, fmt.Errorf("name_manglers: %w", err)
	}
	if set.Typedef, err = Build(s.Typedef); err != nil {
		return nil, fmt.Errorf("typedef_manglers: %w", err)
	}
	if set.Constant, err = Build(s.Constant); err != nil {
		return nil, fmt.Errorf("constant_manglers: %w", err)
	}
	return &set, nil
}

// DefaultSetSpec returns the stock chains: lower case and dashes
// everywhere, keywords for enum members, +constants+ for constants.
func DefaultSetSpec() SetSpec {
	return SetSpec{
		Enum:     []Spec{{Kind: KindDowncase}, {Kind: KindKeyword}, {Kind: KindUnderscore}},
		Type:     []Spec{{Kind: KindDowncase}, {Kind: KindUnderscore}},
		Name:     []Spec{{Kind: KindDowncase}, {Kind: KindUnderscore}},
		Typedef:  []Spec{{Kind: KindDowncase}, {Kind: KindUnderscore}},
		Constant: []Spec{{Kind: KindUnderscore}, {Kind: KindConstant}},
	}
}

// DefaultSet returns the compiled stock chains.
func DefaultSet() *Set {
	return &Set{
		Enum:     Chain{DowncaseMangler{}, KeywordMangler{}, UnderscoreMangler{}},
		Type:     Chain{DowncaseMangler{}, UnderscoreMangler{}},
		Name:     Chain{DowncaseMangler{}, UnderscoreMangler{}},
		Typedef:  Chain{DowncaseMangler{}, UnderscoreMangler{}},
		Constant: Chain{UnderscoreMangler{}, ConstantMangler{}},
	}
}
