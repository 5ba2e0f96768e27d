// Package cffi models CFFI type specifiers.
//
// Expr is a closed set of type forms built by the type resolver. Whether a C
// type can be represented is decided when the Expr is built; how it prints is
// decided by Render. Some forms lose information the C type had (array bounds,
// function signatures, enum identity); Render returns that information as
// notes, which the emitter writes as trailing comments.
package cffi

import "fmt"

// Expr is a CFFI type specifier.
type Expr interface {
	isExpr()
}

// Primitive is a builtin CFFI type keyword such as ":int".
type Primitive struct {
	Name string
}

// Pointer is (:pointer To).
type Pointer struct {
	To Expr
}

// StructRef is (:struct Name).
type StructRef struct {
	Name string
}

// UnionRef is (:union Name).
type UnionRef struct {
	Name string
}

// EnumRef names a defcenum type.
type EnumRef struct {
	Name string
}

// TypedefRef names a defctype type.
type TypedefRef struct {
	Name string
}

// Array is an array degraded to a pointer to its element. Count is
// meaningful only when Sized is set.
type Array struct {
	Elem  Expr
	Count uint64
	Sized bool
}

// FuncPointer is an opaque function pointer. Spelling keeps the C signature
// for human review.
type FuncPointer struct {
	Spelling string
}

// EnumInt is an enum passed by value. CFFI sees it as :int; Enum is the
// mangled enum name kept as a hint.
type EnumInt struct {
	Enum string
}

func (Primitive) isExpr()   {}
func (Pointer) isExpr()     {}
func (StructRef) isExpr()   {}
func (UnionRef) isExpr()    {}
func (EnumRef) isExpr()     {}
func (TypedefRef) isExpr()  {}
func (Array) isExpr()       {}
func (FuncPointer) isExpr() {}
func (EnumInt) isExpr()     {}

// Builtin type keywords.
var (
	Int           = Primitive{Name: ":int"}
	Void          = Primitive{Name: ":void"}
	OpaquePointer = Primitive{Name: ":pointer"}
)

// Render prints e and collects the notes of every nested form, outermost
// first.
func Render(e Expr) (string, []string) {
	var notes []string
	text := render(e, &notes)
	return text, notes
}

// String prints e without notes.
func String(e Expr) string {
	s, _ := Render(e)
	return s
}

func render(e Expr, notes *[]string) string {
	switch v := e.(type) {
	case Primitive:
		return v.Name
	case Pointer:
		return "(:pointer " + render(v.To, notes) + ")"
	case StructRef:
		return "(:struct " + v.Name + ")"
	case UnionRef:
		return "(:union " + v.Name + ")"
	case EnumRef:
		return v.Name
	case TypedefRef:
		return v.Name
	case Array:
		if v.Sized {
			*notes = append(*notes, fmt.Sprintf("array (size %d)", v.Count))
		} else {
			*notes = append(*notes, "array")
		}
		return "(:pointer " + render(v.Elem, notes) + ")"
	case FuncPointer:
		if v.Spelling != "" {
			*notes = append(*notes, v.Spelling)
		}
		return OpaquePointer.Name
	case EnumInt:
		*notes = append(*notes, "enum "+v.Enum)
		return Int.Name
	default:
		return fmt.Sprintf("#|unknown %T|#", e)
	}
}

// PointerDepth counts the Pointer wrappers around e.
func PointerDepth(e Expr) int {
	n := 0
	for {
		p, ok := e.(Pointer)
		if !ok {
			return n
		}
		n++
		e = p.To
	}
}
