// Package cdecl defines the parsed C declaration model consumed by the
// binding generator.
//
// The parser builds one TranslationUnit per file. Declarations are identified
// by an ID that is unique within that parse; types refer to declarations by
// pointer, so self-referential structs form cycles in the Decl graph but never
// in a single Type value.
package cdecl

import (
	"fmt"
	"strings"
)

// TypeKind classifies a C type node.
type TypeKind int

const (
	// Primitive is a builtin arithmetic or void type.
	Primitive TypeKind = iota
	// Pointer is a pointer to Elem.
	Pointer
	// ConstantArray is an array of Elem with a known Count.
	ConstantArray
	// IncompleteArray is an array of Elem without a length.
	IncompleteArray
	// VariableArray is an array whose length could not be folded.
	VariableArray
	// Typedef is a reference to a typedef name.
	Typedef
	// Elaborated is a "struct X", "union X" or "enum X" reference.
	Elaborated
	// FunctionProto is a function type returning Elem.
	FunctionProto
	// Enum is a direct reference to an enum declaration.
	Enum
)

var typeKindNames = map[TypeKind]string{
	Primitive:       "primitive",
	Pointer:         "pointer",
	ConstantArray:   "constant-array",
	IncompleteArray: "incomplete-array",
	VariableArray:   "variable-array",
	Typedef:         "typedef",
	Elaborated:      "elaborated",
	FunctionProto:   "function-proto",
	Enum:            "enum",
}

func (k TypeKind) String() string {
	if s, ok := typeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("type-kind(%d)", int(k))
}

// PrimitiveKind identifies a builtin type.
type PrimitiveKind int

const (
	Void PrimitiveKind = iota
	Bool
	// Char is plain char; its signedness is platform defined.
	Char
	SChar
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
	LongDouble
	Int128
	UInt128
	Complex
)

var primitiveNames = map[PrimitiveKind]string{
	Void:       "void",
	Bool:       "bool",
	Char:       "char",
	SChar:      "signed char",
	UChar:      "unsigned char",
	Short:      "short",
	UShort:     "unsigned short",
	Int:        "int",
	UInt:       "unsigned int",
	Long:       "long",
	ULong:      "unsigned long",
	LongLong:   "long long",
	ULongLong:  "unsigned long long",
	Float:      "float",
	Double:     "double",
	LongDouble: "long double",
	Int128:     "__int128",
	UInt128:    "unsigned __int128",
	Complex:    "_Complex",
}

func (k PrimitiveKind) String() string {
	if s, ok := primitiveNames[k]; ok {
		return s
	}
	return fmt.Sprintf("primitive(%d)", int(k))
}

// TagKind is the keyword of an elaborated type.
type TagKind int

const (
	NoTag TagKind = iota
	StructTag
	UnionTag
	EnumTag
)

func (t TagKind) String() string {
	switch t {
	case StructTag:
		return "struct"
	case UnionTag:
		return "union"
	case EnumTag:
		return "enum"
	default:
		return ""
	}
}

// Type is a C type expression.
type Type struct {
	Kind      TypeKind
	Primitive PrimitiveKind
	// Elem is the pointee, the array element or the function result.
	Elem *Type
	// Count is the element count of a ConstantArray.
	Count uint64
	// Decl is the referenced declaration of Typedef, Elaborated and Enum.
	Decl *Decl
	// Tag is set on Elaborated types.
	Tag      TagKind
	Params   []Param
	Variadic bool
	Const    bool
	// Spelling is the C source spelling, used for diagnostics and comments.
	Spelling string
}

// NewPrimitive returns a primitive type.
func NewPrimitive(k PrimitiveKind) *Type {
	return &Type{Kind: Primitive, Primitive: k}
}

// NewPointer returns a pointer to elem.
func NewPointer(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

// NewArray returns a constant array of count elems.
func NewArray(elem *Type, count uint64) *Type {
	return &Type{Kind: ConstantArray, Elem: elem, Count: count}
}

// NewElaborated returns a tagged reference to d.
func NewElaborated(d *Decl) *Type {
	return &Type{Kind: Elaborated, Decl: d, Tag: d.Tag()}
}

// NewTypedefRef returns a reference to typedef d.
func NewTypedefRef(d *Decl) *Type {
	return &Type{Kind: Typedef, Decl: d}
}

// String renders t approximately as C would spell it.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Spelling != "" {
		return t.Spelling
	}
	return t.spell("")
}

func (t *Type) spell(inner string) string {
	switch t.Kind {
	case Primitive:
		return join(t.Primitive.String(), inner)
	case Typedef:
		return join(t.declName(), inner)
	case Elaborated, Enum:
		name := t.declName()
		tag := t.Tag
		if t.Kind == Enum {
			tag = EnumTag
		}
		return join(tag.String()+" "+name, inner)
	case Pointer:
		p := "*" + inner
		if t.Elem != nil && (t.Elem.Kind == FunctionProto || isArray(t.Elem.Kind)) {
			p = "(" + p + ")"
		}
		return t.Elem.spell(p)
	case ConstantArray:
		return t.Elem.spell(fmt.Sprintf("%s[%d]", inner, t.Count))
	case IncompleteArray, VariableArray:
		return t.Elem.spell(inner + "[]")
	case FunctionProto:
		params := make([]string, 0, len(t.Params)+1)
		for _, p := range t.Params {
			params = append(params, p.Type.String())
		}
		if t.Variadic {
			params = append(params, "...")
		}
		if len(params) == 0 {
			params = append(params, "void")
		}
		return t.Elem.spell(inner + "(" + strings.Join(params, ", ") + ")")
	default:
		return inner
	}
}

func (t *Type) declName() string {
	if t.Decl == nil || t.Decl.Name == "" {
		return "<anonymous>"
	}
	return t.Decl.Name
}

func isArray(k TypeKind) bool {
	return k == ConstantArray || k == IncompleteArray || k == VariableArray
}

func join(base, inner string) string {
	if inner == "" {
		return base
	}
	if strings.HasPrefix(inner, "*") || strings.HasPrefix(inner, "(") {
		return base + " " + inner
	}
	if strings.HasPrefix(inner, "[") {
		return base + inner
	}
	return base + " " + inner
}

// Innermost strips pointers and arrays off t and returns the declaration the
// remaining type refers to, or nil.
func (t *Type) Innermost() *Decl {
	for t != nil {
		switch t.Kind {
		case Pointer, ConstantArray, IncompleteArray, VariableArray:
			t = t.Elem
		case Elaborated, Enum:
			return t.Decl
		default:
			return nil
		}
	}
	return nil
}
