// Package expand decides which named pointee types keep a typed pointer.
//
// A typed pointer such as (:pointer (:struct foo)) documents the pointee but
// forces the pointee to be defined; rules can collapse selected pointers to a
// bare :pointer instead.
package expand

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Predicate reports whether pointers to the named C type keep their pointee.
type Predicate func(name string) bool

// All expands every pointer.
func All(string) bool { return true }

// Match lists type names and regular expressions.
type Match struct {
	Names []string `yaml:"names,omitempty" json:"names,omitempty"`
	// Match holds regular expressions searched (not anchored) in the name.
	Match []string `yaml:"match,omitempty" json:"match,omitempty"`
}

// UnmarshalYAML accepts a single string wherever a list is expected.
func (m *Match) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Names yaml.Node `yaml:"names"`
		Match yaml.Node `yaml:"match"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var err error
	if m.Names, err = stringList(&raw.Names); err != nil {
		return fmt.Errorf("names: %w", err)
	}
	if m.Match, err = stringList(&raw.Match); err != nil {
		return fmt.Errorf("match: %w", err)
	}
	return nil
}

func stringList(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	default:
		var list []string
		if err := n.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}
}

func (m *Match) empty() bool {
	return m == nil || (len(m.Names) == 0 && len(m.Match) == 0)
}

// Rules are the include/exclude lists of a pointer expansion policy.
//
// With only exclusions every name but the excluded ones expands. With only
// inclusions just the included names expand. With both, included names
// expand unless excluded. With neither everything expands.
type Rules struct {
	Include *Match `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude *Match `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Empty reports whether the rules expand every pointer.
func (r Rules) Empty() bool {
	return r.Include.empty() && r.Exclude.empty()
}

// Compile builds the predicate for r.
func (r Rules) Compile() (Predicate, error) {
	hasInclude := !r.Include.empty()
	hasExclude := !r.Exclude.empty()

	include, err := compileMatch(r.Include)
	if err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	exclude, err := compileMatch(r.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}

	switch {
	case hasInclude && hasExclude:
		return func(name string) bool {
			return include.matches(name) && !exclude.matches(name)
		}, nil
	case hasInclude:
		return include.matches, nil
	case hasExclude:
		return func(name string) bool {
			return !exclude.matches(name)
		}, nil
	default:
		return All, nil
	}
}

type matcher struct {
	names   map[string]bool
	regexps []*regexp.Regexp
}

func compileMatch(m *Match) (*matcher, error) {
	out := &matcher{names: make(map[string]bool)}
	if m == nil {
		return out, nil
	}
	for _, n := range m.Names {
		out.names[n] = true
	}
	for _, expr := range m.Match {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}
		out.regexps = append(out.regexps, re)
	}
	return out, nil
}

func (m *matcher) matches(name string) bool {
	if m.names[name] {
		return true
	}
	for _, re := range m.regexps {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
