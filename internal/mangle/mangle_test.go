package mangle

import (
	"errors"
	"testing"
)

func TestCamelCaseMangler(t *testing.T) {
	m := CamelCaseMangler{}

	tests := []struct {
		in   string
		want string
	}{
		{"TestTitleCase", "test-title-case"},
		{"camelCase", "camel-case"},
		{"camels", "camels"},
		{"ThingDNE", "thing-dne"},
		{"IString", "istring"},
		{"GRAVITY_TOP_RIGHT", "gravity_top_right"},
		{"Vec3D", "vec3d"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Apply(Chain{m}, tt.in)
			if got != tt.want {
				t.Errorf("camel-case(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCamelCaseCustomSeparator(t *testing.T) {
	m := CamelCaseMangler{Separator: "_"}
	if got := m.Mangle("fooBarBaz"); got != "foo_bar_baz" {
		t.Errorf("got %q, want foo_bar_baz", got)
	}
}

func TestCleanNamesAreUnchanged(t *testing.T) {
	chain := Chain{UnderscoreMangler{}, CamelCaseMangler{}}
	for _, name := range []string{"x", "width", "foo-bar", "vec3", ""} {
		if got := chain.Apply(name); got != name {
			t.Errorf("Apply(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestUnderscoreMangler(t *testing.T) {
	m := UnderscoreMangler{}
	if m.CanMangle("plain") {
		t.Error("CanMangle(plain) should be false")
	}
	if got := m.Mangle("__foo_bar"); got != "--foo-bar" {
		t.Errorf("Mangle = %q, want --foo-bar", got)
	}
}

func TestPrefixMangler(t *testing.T) {
	m := PrefixMangler{Prefix: "SDL_", Replace: "sdl:"}

	tests := []struct {
		in   string
		want string
	}{
		{"SDL_Init", "sdl:Init"},
		{"SDL_SDL_x", "sdl:SDL_x"},
		{"MY_SDL_x", "MY_SDL_x"},
	}
	for _, tt := range tests {
		if got := Apply(Chain{m}, tt.in); got != tt.want {
			t.Errorf("prefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeywordMangler(t *testing.T) {
	chain := Chain{KeywordMangler{}}

	if got := chain.Apply("red"); got != ":red" {
		t.Errorf("got %q, want :red", got)
	}
	if got := chain.Apply("pkg:red"); got != "pkg:red" {
		t.Errorf("qualified name changed: %q", got)
	}
	if got := chain.Apply(":red"); got != ":red" {
		t.Errorf("keyword double-prefixed: %q", got)
	}
}

func TestConstantChainPreservesQualifier(t *testing.T) {
	chain := Chain{UnderscoreMangler{}, ConstantMangler{}}

	tests := []struct {
		in   string
		want string
	}{
		{"mypkg:FOO_BAR", "mypkg:+foo-bar+"},
		{"FOO_BAR", "+foo-bar+"},
		{"pkg::Hidden", "pkg::+hidden+"},
	}
	for _, tt := range tests {
		if got := chain.Apply(tt.in); got != tt.want {
			t.Errorf("constant(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegexMangler(t *testing.T) {
	m, err := NewRegexMangler(`^gl([A-Z])`, "$1")
	if err != nil {
		t.Fatalf("NewRegexMangler: %v", err)
	}
	chain := Chain{m, CamelCaseMangler{}}

	if got := chain.Apply("glClearColor"); got != "clear-color" {
		t.Errorf("got %q, want clear-color", got)
	}
	if got := chain.Apply("other"); got != "other" {
		t.Errorf("non-matching name changed: %q", got)
	}

	if _, err := NewRegexMangler("(", ""); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestChainOrderMatters(t *testing.T) {
	a := Chain{KeywordMangler{}, ConstantMangler{}}
	b := Chain{ConstantMangler{}, KeywordMangler{}}

	if got := a.Apply("x"); got != ":+x+" {
		t.Errorf("keyword then constant = %q", got)
	}
	if got := b.Apply("x"); got != ":+x+" {
		t.Errorf("constant then keyword = %q", got)
	}
	if got := a.Apply("pkg:x"); got != "pkg:+x+" {
		t.Errorf("got %q", got)
	}
}

func TestParseQualified(t *testing.T) {
	tests := []struct {
		in   string
		want QualifiedName
	}{
		{"foo", QualifiedName{Local: "foo"}},
		{"pkg:foo", QualifiedName{Package: "pkg", Local: "foo", Qualified: true}},
		{":foo", QualifiedName{Local: "foo", Qualified: true}},
	}
	for _, tt := range tests {
		got := ParseQualified(tt.in)
		if got != tt.want {
			t.Errorf("ParseQualified(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestBuildFromSpecs(t *testing.T) {
	chain, err := Build([]Spec{
		{Kind: "prefix", Prefix: "xcb_", Replace: ""},
		{Kind: "underscore"},
		{Kind: "constant"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := chain.Apply("xcb_WINDOW_CLASS"); got != "+window-class+" {
		t.Errorf("got %q", got)
	}

	_, err = Build([]Spec{{Kind: "shout"}})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}

	if _, err := Build([]Spec{{Kind: "prefix"}}); err == nil {
		t.Error("expected error for empty prefix")
	}
}

func TestDefaultSetSpecMatchesDefaultSet(t *testing.T) {
	built, err := DefaultSetSpec().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	def := DefaultSet()

	names := []string{"FOO_BAR", "my_type", "red", "pkg:x_y"}
	for _, c := range Categories {
		for _, n := range names {
			if a, b := built.Chain(c).Apply(n), def.Chain(c).Apply(n); a != b {
				t.Errorf("%s chain on %q: spec=%q default=%q", c, n, a, b)
			}
		}
	}
}

func TestDefaultSetLowercases(t *testing.T) {
	set := DefaultSet()
	tests := []struct {
		category Category
		in       string
		want     string
	}{
		{EnumCategory, "GRAVITY_TOP_RIGHT", ":gravity-top-right"},
		{TypeCategory, "Point_3D", "point-3d"},
		{NameCategory, "firstName", "firstname"},
		{TypedefCategory, "HANDLE", "handle"},
		{ConstantCategory, "MAX_SIZE", "+max-size+"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.in, func(t *testing.T) {
			if got := set.Chain(tt.category).Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory(" Typedef "); err != nil || c != TypedefCategory {
		t.Errorf("ParseCategory = %q, %v", c, err)
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Error("expected error")
	}
}
