package emit

import (
	"testing"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

func TestRegistryDrainOrder(t *testing.T) {
	var b declBuilder
	first := b.decl(cdecl.StructDecl, "")
	second := b.decl(cdecl.EnumDecl, "")
	third := b.decl(cdecl.UnionDecl, "")

	r := NewRegistry()
	r.Insert(first)
	r.Insert(second)
	r.Insert(third)
	r.Insert(first)
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}

	e, ok := r.Consume(second.ID)
	if !ok || e.Decl != second || e.Tag != cdecl.EnumTag {
		t.Fatalf("Consume = %+v, %v", e, ok)
	}
	if _, ok := r.Consume(second.ID); ok {
		t.Error("second Consume should miss")
	}

	drained := r.Drain()
	if len(drained) != 2 || drained[0].Decl != first || drained[1].Decl != third {
		t.Fatalf("Drain = %+v", drained)
	}
	if drained[1].Tag != cdecl.UnionTag {
		t.Errorf("tag = %s", drained[1].Tag)
	}
	if r.Len() != 0 || len(r.Drain()) != 0 {
		t.Error("registry not empty after Drain")
	}
}
