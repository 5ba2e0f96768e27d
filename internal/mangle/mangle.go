// Package mangle transforms C names into Lisp symbol names.
//
// A Mangler is a predicate plus a rewrite: CanMangle decides whether the
// rewrite fires for a given name. A Chain applies its manglers in order, each
// one seeing the output of the previous. Every C name category (enum members,
// types and functions, parameters and fields, typedefs, constants) has its own
// chain, collected in a Set.
package mangle

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mangler rewrites a single name.
type Mangler interface {
	// CanMangle reports whether Mangle should be applied to name.
	CanMangle(name string) bool
	// Mangle returns the transformed name.
	Mangle(name string) string
}

// Chain is an ordered sequence of manglers.
type Chain []Mangler

// Apply folds name through the chain from left to right. An empty chain is
// the identity.
func (c Chain) Apply(name string) string {
	for _, m := range c {
		if m.CanMangle(name) {
			name = m.Mangle(name)
		}
	}
	return name
}

// Apply folds name through chain.
func Apply(chain Chain, name string) string {
	return chain.Apply(name)
}

// DefaultSeparator is the Lisp word separator.
const DefaultSeparator = "-"

// PrefixMangler replaces a leading Prefix with Replace.
type PrefixMangler struct {
	Prefix  string
	Replace string
}

func (m PrefixMangler) CanMangle(name string) bool {
	return strings.HasPrefix(name, m.Prefix)
}

func (m PrefixMangler) Mangle(name string) string {
	return m.Replace + name[len(m.Prefix):]
}

// UnderscoreMangler converts underscores into Separator (dash when empty).
type UnderscoreMangler struct {
	Separator string
}

func (m UnderscoreMangler) CanMangle(name string) bool {
	return strings.Contains(name, "_")
}

func (m UnderscoreMangler) Mangle(name string) string {
	return strings.ReplaceAll(name, "_", separatorOr(m.Separator))
}

// KeywordMangler turns a name into a keyword. Names that already carry a
// package qualifier are left alone; the reader would reject ":pkg:sym".
type KeywordMangler struct{}

func (KeywordMangler) CanMangle(name string) bool {
	return !ParseQualified(name).Qualified
}

func (KeywordMangler) Mangle(name string) string {
	return PackageSeparator + name
}

// ConstantMangler wraps a name in the +constant+ convention and lowercases
// it. A package qualifier is kept verbatim in front of the wrapped symbol.
type ConstantMangler struct{}

func (ConstantMangler) CanMangle(string) bool { return true }

func (ConstantMangler) Mangle(name string) string {
	q := ParseQualified(name)
	q.Local = "+" + strings.ToLower(q.Local) + "+"
	return q.String()
}

// CamelCaseMangler converts camelCase and TitleCase names to separated
// lowercase. Only a lowercase to uppercase boundary gets a separator, so
// acronym runs stay together: "ThingDNE" becomes "thing-dne" and "IString"
// becomes "istring".
type CamelCaseMangler struct {
	Separator string
}

func (m CamelCaseMangler) CanMangle(name string) bool {
	return strings.IndexFunc(name, unicode.IsUpper) >= 0
}

func (m CamelCaseMangler) Mangle(name string) string {
	if name == "" {
		return name
	}
	sep := separatorOr(m.Separator)

	var b strings.Builder
	b.Grow(len(name) + 4)

	first, size := utf8.DecodeRuneInString(name)
	b.WriteRune(unicode.ToLower(first))
	prev := first

	for _, r := range name[size:] {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteString(sep)
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return b.String()
}

// RegexMangler substitutes every match of Pattern with Replace. Replace may
// use $1-style group references.
type RegexMangler struct {
	Pattern *regexp.Regexp
	Replace string
}

// NewRegexMangler compiles pattern into a RegexMangler.
func NewRegexMangler(pattern, replace string) (RegexMangler, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return RegexMangler{}, err
	}
	return RegexMangler{Pattern: re, Replace: replace}, nil
}

func (m RegexMangler) CanMangle(name string) bool {
	return m.Pattern != nil && m.Pattern.MatchString(name)
}

func (m RegexMangler) Mangle(name string) string {
	return m.Pattern.ReplaceAllString(name, m.Replace)
}

// DowncaseMangler lowercases the whole name.
type DowncaseMangler struct{}

func (DowncaseMangler) CanMangle(name string) bool {
	return strings.IndexFunc(name, unicode.IsUpper) >= 0
}

func (DowncaseMangler) Mangle(name string) string {
	return strings.ToLower(name)
}

func separatorOr(sep string) string {
	if sep == "" {
		return DefaultSeparator
	}
	return sep
}
