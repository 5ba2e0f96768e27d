package cdecl

import (
	"fmt"
	"strconv"
)

// DeclKind classifies a declaration.
type DeclKind int

const (
	StructDecl DeclKind = iota
	UnionDecl
	EnumDecl
	TypedefDecl
	FunctionDecl
	MacroDecl
	VariableDecl
	InclusionDirective
	MacroInstantiation
)

var declKindNames = map[DeclKind]string{
	StructDecl:         "struct",
	UnionDecl:          "union",
	EnumDecl:           "enum",
	TypedefDecl:        "typedef",
	FunctionDecl:       "function",
	MacroDecl:          "macro",
	VariableDecl:       "variable",
	InclusionDirective: "inclusion-directive",
	MacroInstantiation: "macro-instantiation",
}

func (k DeclKind) String() string {
	if s, ok := declKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("decl-kind(%d)", int(k))
}

// ID identifies a declaration within one parse. Two IDs from different
// parses must not be compared.
type ID struct {
	File   string
	Offset uint32
}

func (id ID) String() string {
	return fmt.Sprintf("%s@%d", id.File, id.Offset)
}

// Location is a 1-based source position.
type Location struct {
	File   string `json:"file" yaml:"file"`
	Line   uint32 `json:"line" yaml:"line"`
	Column uint32 `json:"column" yaml:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Field is a struct or union member. Name is empty for C11 anonymous members.
type Field struct {
	Name string
	Type *Type
	// Bits is the bit-field width, 0 when the field is not a bit-field.
	Bits uint64
	Loc  Location
}

// Param is a function parameter. Name is empty for unnamed parameters.
type Param struct {
	Name string
	Type *Type
}

// Enumerator is an enum member with its folded value.
type Enumerator struct {
	Name  string
	Value int64
	// Unsigned marks Value as the bit pattern of a uint64 above the int64
	// range.
	Unsigned bool
	// Unresolved is set when the value could not be folded, either for the
	// member itself or for an earlier member it counts on from.
	Unresolved bool
}

// Literal returns the value in decimal.
func (m Enumerator) Literal() string {
	if m.Unsigned {
		return strconv.FormatUint(uint64(m.Value), 10)
	}
	return strconv.FormatInt(m.Value, 10)
}

// Decl is a C declaration.
type Decl struct {
	ID   ID
	Kind DeclKind
	// Name is empty for anonymous records and enums.
	Name string
	Loc  Location

	// Records.
	Fields []Field
	// Enums, in declaration order.
	Enumerators []Enumerator
	// Underlying is the aliased type of a typedef or the type of a variable.
	Underlying *Type

	// Functions.
	Result   *Type
	Params   []Param
	Variadic bool

	// Macros. Value is the raw replacement text.
	Value        string
	FunctionLike bool

	// Forward marks a record or enum declared without a body.
	Forward bool
	// Defined reports that a body for this tag exists somewhere in the unit.
	Defined bool
	// Inline marks a record or enum whose body appears inside another
	// declaration (a field type) rather than at file scope.
	Inline bool
	// External marks a placeholder for a name declared outside the unit.
	External bool
	Static   bool
}

// Anonymous reports whether the declaration has no name.
func (d *Decl) Anonymous() bool {
	return d.Name == ""
}

// Tag returns the elaborated keyword for record and enum declarations.
func (d *Decl) Tag() TagKind {
	switch d.Kind {
	case StructDecl:
		return StructTag
	case UnionDecl:
		return UnionTag
	case EnumDecl:
		return EnumTag
	default:
		return NoTag
	}
}

// IsRecord reports whether d is a struct or union.
func (d *Decl) IsRecord() bool {
	return d.Kind == StructDecl || d.Kind == UnionDecl
}

// Severity grades a parser diagnostic.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a problem the parser found in the source.
type Diagnostic struct {
	Severity Severity
	Message  string
	Loc      Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
}

// TranslationUnit is the result of parsing one file.
type TranslationUnit struct {
	File        string
	Decls       []*Decl
	Diagnostics []Diagnostic
}

// Fatal returns the fatal diagnostics of the unit.
func (tu *TranslationUnit) Fatal() []Diagnostic {
	var out []Diagnostic
	for _, d := range tu.Diagnostics {
		if d.Severity == SeverityFatal {
			out = append(out, d)
		}
	}
	return out
}
