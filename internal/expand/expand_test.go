package expand

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEmptyRulesExpandEverything(t *testing.T) {
	for _, r := range []Rules{{}, {Include: &Match{}}, {Exclude: &Match{}}} {
		pred, err := r.Compile()
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if !pred("anything") {
			t.Errorf("rules %+v rejected a name", r)
		}
		if !r.Empty() {
			t.Errorf("rules %+v should be empty", r)
		}
	}
}

func TestIncludeNames(t *testing.T) {
	allowed := []string{"foo", "bar", "baz"}
	pred, err := Rules{Include: &Match{Names: allowed}}.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, n := range allowed {
		if !pred(n) {
			t.Errorf("%q should expand", n)
		}
	}
	if pred("fooBar") {
		t.Error("fooBar should not expand")
	}
}

func TestExcludeNames(t *testing.T) {
	banned := []string{"foo", "bar", "baz"}
	pred, err := Rules{Exclude: &Match{Names: banned}}.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, n := range banned {
		if pred(n) {
			t.Errorf("%q should not expand", n)
		}
	}
	if !pred("fooBar") {
		t.Error("fooBar should expand")
	}
}

func TestIncludeAndExclude(t *testing.T) {
	pred, err := Rules{
		Include: &Match{Names: []string{"foo", "cheese", "curds"}, Match: []string{"^gl"}},
		Exclude: &Match{Names: []string{"foo", "bar", "baz"}, Match: []string{"Private$"}},
	}.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	tests := map[string]bool{
		"foo":              false,
		"bar":              false,
		"cheese":           true,
		"curds":            true,
		"glContext":        true,
		"glContextPrivate": false,
		"fish":             false,
	}
	for name, want := range tests {
		if got := pred(name); got != want {
			t.Errorf("pred(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInvalidPattern(t *testing.T) {
	if _, err := (Rules{Exclude: &Match{Match: []string{"("}}}).Compile(); err == nil {
		t.Error("expected error")
	}
}

func TestRulesFromYAML(t *testing.T) {
	src := `
include:
  match: "^gl"
exclude:
  names: [glPrivate]
  match:
    - Impl$
`
	var r Rules
	if err := yaml.Unmarshal([]byte(src), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(r.Include.Match) != 1 || r.Include.Match[0] != "^gl" {
		t.Errorf("include = %+v", r.Include)
	}
	if len(r.Exclude.Names) != 1 || len(r.Exclude.Match) != 1 {
		t.Errorf("exclude = %+v", r.Exclude)
	}

	pred, err := r.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tests := map[string]bool{
		"glContext":  true,
		"glPrivate":  false,
		"glViewImpl": false,
		"window":     false,
	}
	for name, want := range tests {
		if got := pred(name); got != want {
			t.Errorf("pred(%q) = %v, want %v", name, got, want)
		}
	}
}
