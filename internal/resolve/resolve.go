// Package resolve maps C types onto CFFI type specifiers.
package resolve

import (
	"fmt"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
	"github.com/hargabyte/cl-bindgen/internal/cffi"
	"github.com/hargabyte/cl-bindgen/internal/expand"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
)

// builtinTable maps primitive kinds that need no inference. Plain char is
// signedness agnostic; signed char and unsigned char are not.
var builtinTable = map[cdecl.PrimitiveKind]string{
	cdecl.Bool:       ":bool",
	cdecl.Double:     ":double",
	cdecl.Float:      ":float",
	cdecl.Int:        ":int",
	cdecl.Long:       ":long",
	cdecl.LongDouble: ":long-double",
	cdecl.LongLong:   ":long-long",
	cdecl.Short:      ":short",
	cdecl.UInt:       ":unsigned-int",
	cdecl.ULong:      ":unsigned-long",
	cdecl.ULongLong:  ":unsigned-long-long",
	cdecl.UShort:     ":unsigned-short",
	cdecl.Void:       ":void",
	cdecl.Char:       ":char",
	cdecl.SChar:      ":signed-char",
	cdecl.UChar:      ":unsigned-char",
}

// knownTypedefs are fixed-width aliases with a direct CFFI equivalent.
var knownTypedefs = map[string]string{
	"uint64_t": ":uint64",
	"uint32_t": ":uint32",
	"uint16_t": ":uint16",
	"uint8_t":  ":uint8",
	"int64_t":  ":int64",
	"int32_t":  ":int32",
	"int16_t":  ":int16",
	"int8_t":   ":int8",
}

// KnownTypedef returns the CFFI keyword for a fixed-width typedef name.
func KnownTypedef(name string) (string, bool) {
	kw, ok := knownTypedefs[name]
	return kw, ok
}

// Resolver converts C types using the type and typedef chains of a mangler
// set. It is owned by a single pass.
type Resolver struct {
	manglers *mangle.Set
	expand   expand.Predicate
	// bound holds names given to anonymous declarations during the pass.
	bound map[cdecl.ID]string
}

// New creates a resolver. A nil predicate expands every pointer.
func New(manglers *mangle.Set, pred expand.Predicate) *Resolver {
	if manglers == nil {
		manglers = mangle.DefaultSet()
	}
	if pred == nil {
		pred = expand.All
	}
	return &Resolver{
		manglers: manglers,
		expand:   pred,
		bound:    make(map[cdecl.ID]string),
	}
}

// Bind records the already mangled name an anonymous declaration was emitted
// under, so later references to it resolve.
func (r *Resolver) Bind(id cdecl.ID, name string) {
	r.bound[id] = name
}

// Bound returns the name bound to id.
func (r *Resolver) Bound(id cdecl.ID) (string, bool) {
	name, ok := r.bound[id]
	return name, ok
}

// MangleType applies the type chain.
func (r *Resolver) MangleType(name string) string {
	return r.manglers.Type.Apply(name)
}

// MangleTypedef applies the typedef chain.
func (r *Resolver) MangleTypedef(name string) string {
	return r.manglers.Typedef.Apply(name)
}

// Resolve converts t. It fails with *UnsupportedTypeKindError for types CFFI
// cannot express.
func (r *Resolver) Resolve(t *cdecl.Type) (cffi.Expr, error) {
	if t == nil {
		return nil, &UnsupportedTypeKindError{Spelling: "<missing type>", Kind: "nil"}
	}

	switch t.Kind {
	case cdecl.Primitive:
		if name, ok := builtinTable[t.Primitive]; ok {
			return cffi.Primitive{Name: name}, nil
		}
		return nil, unsupported(t, t.Primitive.String())

	case cdecl.Typedef:
		if t.Decl == nil {
			return nil, unsupported(t, t.Kind.String())
		}
		name := t.Decl.Name
		if kw, ok := knownTypedefs[name]; ok {
			return cffi.Primitive{Name: kw}, nil
		}
		return cffi.TypedefRef{Name: r.MangleTypedef(name)}, nil

	case cdecl.Pointer:
		if t.Elem != nil && t.Elem.Kind == cdecl.FunctionProto {
			return cffi.FuncPointer{Spelling: t.String()}, nil
		}
		if name, named := pointeeName(t.Elem); named && !r.expand(name) {
			return cffi.OpaquePointer, nil
		}
		to, err := r.Resolve(t.Elem)
		if err != nil {
			return nil, err
		}
		return cffi.Pointer{To: to}, nil

	case cdecl.Elaborated, cdecl.Enum:
		return r.resolveTagged(t)

	case cdecl.IncompleteArray:
		elem, err := r.Resolve(t.Elem)
		if err != nil {
			return nil, err
		}
		return cffi.Array{Elem: elem}, nil

	case cdecl.ConstantArray:
		elem, err := r.Resolve(t.Elem)
		if err != nil {
			return nil, err
		}
		return cffi.Array{Elem: elem, Count: t.Count, Sized: true}, nil

	case cdecl.FunctionProto:
		return cffi.FuncPointer{Spelling: t.String()}, nil

	default:
		return nil, unsupported(t, t.Kind.String())
	}
}

func (r *Resolver) resolveTagged(t *cdecl.Type) (cffi.Expr, error) {
	d := t.Decl
	if d == nil {
		return nil, unsupported(t, t.Kind.String())
	}

	name, ok := r.nameOf(d)
	if !ok {
		return nil, unsupported(t, "anonymous "+d.Tag().String())
	}

	tag := t.Tag
	if t.Kind == cdecl.Enum {
		tag = cdecl.EnumTag
	}
	switch tag {
	case cdecl.StructTag:
		return cffi.StructRef{Name: name}, nil
	case cdecl.UnionTag:
		return cffi.UnionRef{Name: name}, nil
	case cdecl.EnumTag:
		return cffi.EnumInt{Enum: name}, nil
	default:
		return nil, unsupported(t, t.Kind.String())
	}
}

func (r *Resolver) nameOf(d *cdecl.Decl) (string, bool) {
	if name, ok := r.bound[d.ID]; ok {
		return name, true
	}
	if d.Anonymous() {
		return "", false
	}
	return r.MangleType(d.Name), true
}

// pointeeName returns the C name of a named pointee, for expansion rules.
func pointeeName(t *cdecl.Type) (string, bool) {
	if t == nil || t.Decl == nil {
		return "", false
	}
	switch t.Kind {
	case cdecl.Typedef, cdecl.Elaborated, cdecl.Enum:
		if t.Decl.Name == "" {
			return "", false
		}
		return t.Decl.Name, true
	}
	return "", false
}

func unsupported(t *cdecl.Type, kind string) error {
	return &UnsupportedTypeKindError{Spelling: t.String(), Kind: kind}
}

// UnsupportedTypeKindError reports a C type with no CFFI mapping.
type UnsupportedTypeKindError struct {
	Spelling string
	Kind     string
}

// Error implements the error interface.
func (e *UnsupportedTypeKindError) Error() string {
	return fmt.Sprintf("unsupported type kind %s: %s", e.Kind, e.Spelling)
}
