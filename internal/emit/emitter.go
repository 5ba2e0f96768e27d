// Package emit translates C declarations into CFFI binding forms.
//
// An Emitter renders one declaration at a time into units (complete top-level
// forms). A Pass drives an Emitter over a translation unit, owns the output
// buffer, and flushes the deferred anonymous declarations at the end.
package emit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
	"github.com/hargabyte/cl-bindgen/internal/cffi"
	"github.com/hargabyte/cl-bindgen/internal/expand"
	"github.com/hargabyte/cl-bindgen/internal/mangle"
	"github.com/hargabyte/cl-bindgen/internal/resolve"
)

// Config controls how declarations are rendered.
type Config struct {
	// File is the path of the translation unit, used to detect header guards.
	File     string
	Manglers *mangle.Set
	// Expand decides which pointers keep their pointee type. Nil expands all.
	Expand expand.Predicate
	// BestEffort drops declarations with unsupported types instead of
	// failing the pass.
	BestEffort       bool
	SkipHeaderGuards bool
}

// Emitter renders declarations. It is not safe for concurrent use.
type Emitter struct {
	cfg      Config
	set      *mangle.Set
	resolver *resolve.Resolver
	registry *Registry
	warnings []Warning
	// emitted records tags already written, by ID and by mangled name.
	emitted map[cdecl.ID]bool
	opaque  map[string]bool
}

// NewEmitter creates an emitter with its own registry and resolver.
func NewEmitter(cfg Config) *Emitter {
	set := cfg.Manglers
	if set == nil {
		set = mangle.DefaultSet()
	}
	return &Emitter{
		cfg:      cfg,
		set:      set,
		resolver: resolve.New(set, cfg.Expand),
		registry: NewRegistry(),
		emitted:  make(map[cdecl.ID]bool),
		opaque:   make(map[string]bool),
	}
}

// Registry returns the emitter's deferred declarations.
func (e *Emitter) Registry() *Registry {
	return e.registry
}

// Warnings returns the warnings recorded so far.
func (e *Emitter) Warnings() []Warning {
	return e.warnings
}

func (e *Emitter) warn(kind WarningKind, loc cdecl.Location, format string, args ...any) {
	e.warnings = append(e.warnings, Warning{Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Emit renders d into zero or more units. Units for nested declarations
// precede the unit of d itself. On error no unit is returned.
func (e *Emitter) Emit(d *cdecl.Decl) ([]string, error) {
	var (
		units []string
		err   error
	)
	switch d.Kind {
	case cdecl.StructDecl, cdecl.UnionDecl:
		units, err = e.emitRecordDecl(d)
	case cdecl.EnumDecl:
		units, err = e.emitEnumDecl(d)
	case cdecl.TypedefDecl:
		units, err = e.emitTypedef(d)
	case cdecl.FunctionDecl:
		units, err = e.emitFunction(d)
	case cdecl.MacroDecl:
		units = e.emitMacro(d)
	case cdecl.VariableDecl:
		units, err = e.emitVariable(d)
	case cdecl.InclusionDirective, cdecl.MacroInstantiation:
	default:
		e.warn(UnrecognizedDeclaration, d.Loc, "not processing %s declaration %q", d.Kind, d.Name)
	}
	if err != nil {
		return nil, err
	}
	return units, nil
}

// Flush renders the registry contents left at the end of a pass. Anonymous
// enums become groups of constants; anonymous records cannot be referenced
// and only produce a warning.
func (e *Emitter) Flush() []string {
	var units []string
	for _, entry := range e.registry.Drain() {
		switch entry.Tag {
		case cdecl.EnumTag:
			if u := e.enumConstants(entry.Decl); u != "" {
				units = append(units, u)
			}
		default:
			e.warn(AnonymousDeclarationUnresolved, entry.Decl.Loc,
				"skipping unnamed %s declaration", entry.Tag)
		}
	}
	return units
}

func (e *Emitter) emitRecordDecl(d *cdecl.Decl) ([]string, error) {
	if d.Anonymous() {
		e.registry.Insert(d)
		return nil, nil
	}
	if e.emitted[d.ID] {
		return nil, nil
	}
	name := e.set.Type.Apply(d.Name)
	if d.Forward {
		return e.opaqueRecord(d, name), nil
	}
	units, err := e.record(name, d)
	if err != nil {
		return nil, err
	}
	e.emitted[d.ID] = true
	e.opaque[recordKey(d, name)] = true
	return units, nil
}

// opaqueRecord declares a record that is only forward declared in the unit
// so pointers to it still name a type.
func (e *Emitter) opaqueRecord(d *cdecl.Decl, name string) []string {
	key := recordKey(d, name)
	if d.Defined || e.opaque[key] {
		return nil
	}
	e.opaque[key] = true
	return []string{newForm(recordHead(d) + " " + name).String()}
}

func recordKey(d *cdecl.Decl, name string) string {
	return d.Tag().String() + " " + name
}

func recordHead(d *cdecl.Decl) string {
	if d.Kind == cdecl.UnionDecl {
		return "defcunion"
	}
	return "defcstruct"
}

// record renders the body of d under name, preceded by the units of any
// records or enums defined inside its fields.
func (e *Emitter) record(name string, d *cdecl.Decl) ([]string, error) {
	var units []string
	f := newForm(recordHead(d) + " " + name)
	unnamed := 0

	for _, field := range d.Fields {
		cname := field.Name
		if cname == "" {
			cname = "anonymous_" + strconv.Itoa(unnamed)
			unnamed++
		}
		fieldName := e.set.Name.Apply(cname)

		nested, err := e.nested(name+"-"+fieldName, field.Type)
		if err != nil {
			return nil, err
		}
		units = append(units, nested...)

		typ, err := e.resolver.Resolve(field.Type)
		if err != nil {
			return nil, err
		}
		text, notes := cffi.Render(typ)
		if field.Bits > 0 {
			notes = append(notes, fmt.Sprintf("bit-field %d", field.Bits))
		}
		f.add("("+fieldName+" "+text+")", notes...)
	}
	return append(units, f.String()), nil
}

// nested emits the declaration a field type defines in place. Anonymous
// records are named after the field path; anonymous enums become constants
// and the field an :int; named inline declarations keep their own name.
func (e *Emitter) nested(path string, t *cdecl.Type) ([]string, error) {
	d := t.Innermost()
	if d == nil || e.emitted[d.ID] {
		return nil, nil
	}
	if _, bound := e.resolver.Bound(d.ID); bound {
		return nil, nil
	}

	switch {
	case d.Anonymous() && d.Kind == cdecl.EnumDecl:
		e.emitted[d.ID] = true
		e.resolver.Bind(d.ID, path)
		if u := e.enumConstants(d); u != "" {
			return []string{u}, nil
		}
		return nil, nil
	case d.Anonymous() && d.IsRecord():
		e.emitted[d.ID] = true
		e.resolver.Bind(d.ID, path)
		return e.record(path, d)
	case d.Inline && !d.Forward:
		return e.Emit(d)
	default:
		return nil, nil
	}
}

func (e *Emitter) emitEnumDecl(d *cdecl.Decl) ([]string, error) {
	if d.Anonymous() {
		e.registry.Insert(d)
		return nil, nil
	}
	if e.emitted[d.ID] {
		return nil, nil
	}
	name := e.set.Type.Apply(d.Name)
	if d.Forward {
		key := "enum " + name
		if d.Defined || e.opaque[key] {
			return nil, nil
		}
		e.opaque[key] = true
	}
	e.emitted[d.ID] = true
	return []string{e.enum(name, d)}, nil
}

// enum renders a named enum. An enum with members whose values could not
// be folded is left commented out with placeholders to fill in.
func (e *Emitter) enum(name string, d *cdecl.Decl) string {
	f := newForm("defcenum " + name)
	var missing []string
	for _, m := range d.Enumerators {
		f.add("(" + e.set.Enum.Apply(m.Name) + " " + e.enumValue(m, &missing) + ")")
	}
	if len(missing) == 0 {
		return f.String()
	}
	e.warn(EnumValueUnresolved, d.Loc, "enum %s needs values for %s", d.Name, strings.Join(missing, ", "))
	return "#| ENUM_DEFINITION\n" + f.String() + "\n|#"
}

// enumConstants renders the members of an enum that has no name as a group
// of constants.
func (e *Emitter) enumConstants(d *cdecl.Decl) string {
	if len(d.Enumerators) == 0 {
		return ""
	}
	var (
		lines   []string
		missing []string
	)
	for _, m := range d.Enumerators {
		line := "(defconstant " + e.set.Constant.Apply(m.Name) + " " + e.enumValue(m, &missing) + ")"
		if m.Unresolved {
			line = "#| ENUM_DEFINITION\n" + line + "\n|#"
		}
		lines = append(lines, line)
	}
	if len(missing) > 0 {
		e.warn(EnumValueUnresolved, d.Loc, "enumerators %s need values", strings.Join(missing, ", "))
	}
	return strings.Join(lines, "\n")
}

func unresolvedEnum(d *cdecl.Decl) bool {
	for _, m := range d.Enumerators {
		if m.Unresolved {
			return true
		}
	}
	return false
}

func (e *Emitter) enumValue(m cdecl.Enumerator, missing *[]string) string {
	if m.Unresolved {
		*missing = append(*missing, m.Name)
		return "ACTUAL_VALUE_HERE"
	}
	return m.Literal()
}

// claim looks for a deferred anonymous declaration behind t. If one is
// pending it is rendered under base plus a kind suffix and bound so that
// resolving t names it.
func (e *Emitter) claim(base string, t *cdecl.Type) ([]string, error) {
	d := t.Innermost()
	if d == nil {
		return nil, nil
	}
	entry, ok := e.registry.Consume(d.ID)
	if !ok {
		return nil, nil
	}

	e.emitted[d.ID] = true
	if entry.Tag == cdecl.EnumTag {
		name := base + "-enum"
		e.resolver.Bind(d.ID, name)
		return []string{e.enum(name, d)}, nil
	}
	name := base + "-record"
	e.resolver.Bind(d.ID, name)
	return e.record(name, d)
}

func (e *Emitter) emitTypedef(d *cdecl.Decl) ([]string, error) {
	name := e.set.Typedef.Apply(d.Name)
	units, err := e.claim(name, d.Underlying)
	if err != nil {
		return nil, err
	}

	typ, err := e.typedefTarget(d.Underlying)
	if err != nil {
		return nil, err
	}
	text, notes := cffi.Render(typ)
	return append(units, withNotes("(defctype "+name+" "+text+")", notes)), nil
}

// typedefTarget resolves the type a typedef names. An anonymous enum the
// typedef claimed is named by its defcenum so the keywords stay usable,
// unless the defcenum was left commented out.
func (e *Emitter) typedefTarget(t *cdecl.Type) (cffi.Expr, error) {
	if t != nil && t.Decl != nil && t.Decl.Kind == cdecl.EnumDecl && t.Decl.Anonymous() &&
		(t.Kind == cdecl.Elaborated || t.Kind == cdecl.Enum) && !unresolvedEnum(t.Decl) {
		if name, ok := e.resolver.Bound(t.Decl.ID); ok {
			return cffi.EnumRef{Name: name}, nil
		}
	}
	return e.resolver.Resolve(t)
}

// emitFunction renders a defcfun. Function names share the type chain:
// in C they live in the same namespace as tags. Records and enums declared
// inside the parameter list are named after the parameter, as fields are.
func (e *Emitter) emitFunction(d *cdecl.Decl) ([]string, error) {
	if d.Static {
		return nil, nil
	}
	lisp := e.set.Type.Apply(d.Name)
	units, err := e.claim(lisp, d.Result)
	if err != nil {
		return nil, err
	}
	ret, err := e.resolver.Resolve(d.Result)
	if err != nil {
		return nil, err
	}
	retText, retNotes := cffi.Render(ret)

	f := newForm("defcfun "+foreignName(d.Name, lisp)+" "+retText, retNotes...)
	for i, p := range d.Params {
		pname := p.Name
		if pname == "" {
			pname = "arg" + strconv.Itoa(i)
		}
		pname = e.set.Name.Apply(pname)

		nested, err := e.nested(lisp+"-"+pname, p.Type)
		if err != nil {
			return nil, err
		}
		units = append(units, nested...)

		typ, err := e.resolver.Resolve(p.Type)
		if err != nil {
			return nil, err
		}
		text, notes := cffi.Render(typ)
		f.add("("+pname+" "+text+")", notes...)
	}
	if d.Variadic {
		f.add("&rest")
	}
	return append(units, f.String()), nil
}

func foreignName(cname, lisp string) string {
	if cname == lisp {
		return quote(cname)
	}
	return "(" + quote(cname) + " " + lisp + ")"
}

func (e *Emitter) emitMacro(d *cdecl.Decl) []string {
	if d.FunctionLike {
		e.warn(MacroValueUnresolved, d.Loc, "function-like macro %s not translated", d.Name)
		return nil
	}
	if d.Value == "" && e.cfg.SkipHeaderGuards && IsHeaderGuard(e.cfg.File, d.Name) {
		return nil
	}

	name := e.set.Constant.Apply(d.Name)
	if value, ok := MacroLiteral(d.Value); ok {
		return []string{"(defconstant " + name + " " + value + ")"}
	}

	e.warn(MacroValueUnresolved, d.Loc, "macro %s needs a value", d.Name)
	return []string{strings.Join([]string{
		"#| MACRO_DEFINITION",
		"(defconstant " + name + " ACTUAL_VALUE_HERE)",
		"|#",
	}, "\n")}
}

func (e *Emitter) emitVariable(d *cdecl.Decl) ([]string, error) {
	if d.Static {
		return nil, nil
	}
	readOnly := d.Underlying != nil && d.Underlying.Const

	var name string
	if readOnly {
		name = e.set.Constant.Apply(d.Name)
	} else {
		name = e.set.Name.Apply(d.Name)
	}

	units, err := e.claim(e.set.Name.Apply(d.Name), d.Underlying)
	if err != nil {
		return nil, err
	}
	typ, err := e.resolver.Resolve(d.Underlying)
	if err != nil {
		return nil, err
	}
	text, notes := cffi.Render(typ)

	var head string
	switch {
	case readOnly:
		head = "(" + quote(d.Name) + " " + name + " :read-only t)"
	default:
		head = foreignName(d.Name, name)
	}
	return append(units, withNotes("(defcvar "+head+" "+text+")", notes)), nil
}

// IsUnsupported reports whether err marks a type with no CFFI mapping.
func IsUnsupported(err error) bool {
	var ute *resolve.UnsupportedTypeKindError
	return errors.As(err, &ute)
}
