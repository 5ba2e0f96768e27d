package emit

import "github.com/hargabyte/cl-bindgen/internal/cdecl"

// Entry is an anonymous declaration waiting for a name.
type Entry struct {
	Tag  cdecl.TagKind
	Decl *cdecl.Decl
}

// Registry holds anonymous records and enums until a typedef or variable
// names them or the pass ends. A Registry belongs to exactly one pass.
type Registry struct {
	order   []cdecl.ID
	entries map[cdecl.ID]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[cdecl.ID]Entry)}
}

// Insert defers d. Inserting an ID twice keeps the first entry.
func (r *Registry) Insert(d *cdecl.Decl) {
	if _, ok := r.entries[d.ID]; ok {
		return
	}
	r.entries[d.ID] = Entry{Tag: d.Tag(), Decl: d}
	r.order = append(r.order, d.ID)
}

// Consume removes and returns the entry for id.
func (r *Registry) Consume(id cdecl.ID) (Entry, bool) {
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return e, ok
}

// Drain removes and returns every remaining entry in insertion order.
func (r *Registry) Drain() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok {
			out = append(out, e)
		}
	}
	r.order = nil
	r.entries = make(map[cdecl.ID]Entry)
	return out
}

// Len returns the number of pending entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
