package parser

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// scope tells a type specifier where it appears. Bodies found at file scope
// become declarations of their own; bodies inside a record are inline.
type scope int

const (
	fileScope scope = iota
	fieldScope
	paramScope
)

// externalFile is the ID namespace of names declared outside the unit.
const externalFile = "<external>"

// builder converts a tree-sitter C syntax tree into declaration nodes.
type builder struct {
	src  []byte
	file string
	tu   *cdecl.TranslationUnit
	eval *constEval

	// tags maps "struct foo" to the latest declaration of that tag.
	tags     map[string]*cdecl.Decl
	defined  map[string]bool
	forwards []*cdecl.Decl
	typedefs map[string]*cdecl.Decl
	external map[string]*cdecl.Decl
}

// Build walks the syntax tree of result into a translation unit. args are
// compiler style arguments; only -D definitions are used. Syntax errors are
// reported as fatal diagnostics, missing tokens as warnings.
func Build(result *ParseResult, args []string) *cdecl.TranslationUnit {
	parsed := ParseArgs(args)
	consts := make(map[string]constant, len(parsed.Defines))
	for k, v := range parsed.Defines {
		consts[k] = signed(v)
	}

	b := &builder{
		src:      result.Source,
		file:     result.FilePath,
		tu:       &cdecl.TranslationUnit{File: result.FilePath},
		eval:     &constEval{src: result.Source, consts: consts},
		tags:     make(map[string]*cdecl.Decl),
		defined:  make(map[string]bool),
		typedefs: make(map[string]*cdecl.Decl),
		external: make(map[string]*cdecl.Decl),
	}
	if result.Root == nil {
		return b.tu
	}

	if result.HasErrors() {
		b.diagnostics(result)
	}
	b.items(result.Root)

	for _, d := range b.forwards {
		d.Defined = b.defined[tagKey(d.Tag(), d.Name)]
	}
	return b.tu
}

func (b *builder) diagnostics(result *ParseResult) {
	result.WalkNodes(func(n *sitter.Node) bool {
		switch {
		case n.Type() == "ERROR":
			b.diag(cdecl.SeverityFatal, n, "syntax error near %q", excerpt(n.Content(b.src)))
			return false
		case n.IsMissing():
			if !paddingBitfield(n.Parent()) {
				b.diag(cdecl.SeverityWarning, n, "missing %s", n.Type())
			}
		}
		return true
	})
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

func (b *builder) diag(sev cdecl.Severity, n *sitter.Node, format string, args ...any) {
	b.tu.Diagnostics = append(b.tu.Diagnostics, cdecl.Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Loc:      b.loc(n),
	})
}

func (b *builder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

func (b *builder) loc(n *sitter.Node) cdecl.Location {
	p := n.StartPoint()
	return cdecl.Location{File: b.file, Line: p.Row + 1, Column: p.Column + 1}
}

func (b *builder) newDecl(kind cdecl.DeclKind, name string, n *sitter.Node) *cdecl.Decl {
	return &cdecl.Decl{
		ID:   cdecl.ID{File: b.file, Offset: n.StartByte()},
		Kind: kind,
		Name: name,
		Loc:  b.loc(n),
	}
}

func (b *builder) add(d *cdecl.Decl) {
	b.tu.Decls = append(b.tu.Decls, d)
}

// items visits the children of a container node: the translation unit, a
// linkage block or a preprocessor branch.
func (b *builder) items(n *sitter.Node) {
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		b.item(n.NamedChild(int(i)))
	}
}

func (b *builder) item(n *sitter.Node) {
	switch n.Type() {
	case "preproc_include":
		b.add(b.newDecl(cdecl.InclusionDirective, b.text(n.ChildByFieldName("path")), n))
	case "preproc_def":
		b.macro(n, false)
	case "preproc_function_def":
		b.macro(n, true)
	case "preproc_ifdef", "preproc_if":
		b.conditional(n, b.item)
	case "linkage_specification":
		body := n.ChildByFieldName("body")
		if body == nil {
			return
		}
		if body.Type() == "declaration_list" {
			b.items(body)
		} else {
			b.item(body)
		}
	case "declaration":
		b.declaration(n)
	case "type_definition":
		b.typedef(n)
	case "function_definition":
		b.functionDefinition(n)
	case "struct_specifier", "union_specifier", "enum_specifier":
		b.bareSpecifier(n)
	}
}

// conditional visits the first branch of a preprocessor conditional. A
// literal "#if 0" visits its #else branch instead.
func (b *builder) conditional(n *sitter.Node, visit func(*sitter.Node)) {
	name := n.ChildByFieldName("name")
	cond := n.ChildByFieldName("condition")
	alt := n.ChildByFieldName("alternative")

	if cond != nil && strings.TrimSpace(b.text(cond)) == "0" {
		if alt != nil && alt.Type() == "preproc_else" {
			for i := uint32(0); i < alt.NamedChildCount(); i++ {
				visit(alt.NamedChild(int(i)))
			}
		}
		return
	}

	for i := uint32(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(int(i))
		if sameNode(child, name) || sameNode(child, cond) || sameNode(child, alt) {
			continue
		}
		visit(child)
	}
}

func (b *builder) macro(n *sitter.Node, functionLike bool) {
	name := b.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	d := b.newDecl(cdecl.MacroDecl, name, n)
	d.Value = stripComments(b.text(n.ChildByFieldName("value")))
	d.FunctionLike = functionLike
	if !functionLike {
		if c, ok := parseLiteral(d.Value); ok {
			b.eval.consts[name] = c
		} else if v, ok := parseChar(d.Value); ok {
			b.eval.consts[name] = signed(v)
		}
	}
	b.add(d)
}

// stripComments removes C comments from a macro body outside of string and
// character literals, and trims the result.
func stripComments(s string) string {
	var out strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			out.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				out.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			out.WriteByte(c)
		case strings.HasPrefix(s[i:], "//"):
			return strings.TrimSpace(out.String())
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return strings.TrimSpace(out.String())
			}
			out.WriteByte(' ')
			i += end + 3
		default:
			out.WriteByte(c)
		}
	}
	return strings.TrimSpace(out.String())
}

// qualifiers reports the storage class and const qualification written
// directly on a declaration node.
func (b *builder) qualifiers(n *sitter.Node) (static, isConst bool) {
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(int(i))
		switch child.Type() {
		case "storage_class_specifier":
			if b.text(child) == "static" {
				static = true
			}
		case "type_qualifier":
			if b.text(child) == "const" {
				isConst = true
			}
		}
	}
	return static, isConst
}

// declarators returns the declarator children that follow the type
// specifier of a declaration, typedef or field.
func declarators(n, typeNode *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	seen := false
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(int(i))
		if sameNode(child, typeNode) {
			seen = true
			continue
		}
		if seen && IsDeclaratorNode(child) {
			out = append(out, child)
		}
	}
	return out
}

// baseType builds the specifier type of a declaration node and applies a
// leading or trailing const.
func (b *builder) baseType(n *sitter.Node, sc scope) (*cdecl.Type, *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil, nil
	}
	t := b.specifier(typeNode, sc)
	if _, isConst := b.qualifiers(n); isConst {
		t.Const = true
	}
	return t, typeNode
}

func (b *builder) declaration(n *sitter.Node) {
	base, typeNode := b.baseType(n, fileScope)
	if base == nil {
		return
	}
	static, _ := b.qualifiers(n)

	decls := declarators(n, typeNode)
	if len(decls) == 0 {
		if isTagSpecifier(typeNode) {
			b.forwardOnly(typeNode)
		}
		return
	}

	for _, dn := range decls {
		name, t := b.declarator(dn, base)
		if name == "" {
			continue
		}
		var d *cdecl.Decl
		if t.Kind == cdecl.FunctionProto {
			d = b.function(name, t, dn)
		} else {
			d = b.newDecl(cdecl.VariableDecl, name, dn)
			d.Underlying = t
		}
		d.Static = static
		b.add(d)
	}
}

func (b *builder) functionDefinition(n *sitter.Node) {
	base, _ := b.baseType(n, fileScope)
	dn := n.ChildByFieldName("declarator")
	if base == nil || dn == nil {
		return
	}
	name, t := b.declarator(dn, base)
	if name == "" || t.Kind != cdecl.FunctionProto {
		return
	}
	d := b.function(name, t, dn)
	d.Static, _ = b.qualifiers(n)
	b.add(d)
}

func (b *builder) function(name string, t *cdecl.Type, n *sitter.Node) *cdecl.Decl {
	d := b.newDecl(cdecl.FunctionDecl, name, n)
	d.Result = t.Elem
	d.Params = t.Params
	d.Variadic = t.Variadic
	return d
}

func (b *builder) typedef(n *sitter.Node) {
	base, typeNode := b.baseType(n, fileScope)
	if base == nil {
		return
	}
	for _, dn := range declarators(n, typeNode) {
		name, t := b.declarator(dn, base)
		if name == "" {
			continue
		}
		d := b.newDecl(cdecl.TypedefDecl, name, dn)
		d.Underlying = t
		b.typedefs[name] = d
		b.add(d)
	}
}

// bareSpecifier handles "struct foo { ... };" and "struct foo;" at file
// scope.
func (b *builder) bareSpecifier(n *sitter.Node) {
	if n.ChildByFieldName("body") != nil {
		b.specifier(n, fileScope)
		return
	}
	b.forwardOnly(n)
}

// forwardOnly records a tag declared without a body as its own declaration.
func (b *builder) forwardOnly(n *sitter.Node) {
	if n.ChildByFieldName("body") != nil {
		return
	}
	name := b.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	d := b.newDecl(tagDeclKind(n.Type()), name, n)
	d.Forward = true
	key := tagKey(d.Tag(), name)
	if _, ok := b.tags[key]; !ok {
		b.tags[key] = d
	}
	b.forwards = append(b.forwards, d)
	b.add(d)
}

func isTagSpecifier(n *sitter.Node) bool {
	switch n.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

func tagDeclKind(nodeType string) cdecl.DeclKind {
	switch nodeType {
	case "union_specifier":
		return cdecl.UnionDecl
	case "enum_specifier":
		return cdecl.EnumDecl
	default:
		return cdecl.StructDecl
	}
}

func tagKey(tag cdecl.TagKind, name string) string {
	return tag.String() + " " + name
}

// specifier converts a type specifier node.
func (b *builder) specifier(n *sitter.Node, sc scope) *cdecl.Type {
	switch n.Type() {
	case "primitive_type":
		name := b.text(n)
		if k, ok := primitiveKinds[name]; ok {
			return cdecl.NewPrimitive(k)
		}
		return b.typedefRef(name)
	case "sized_type_specifier":
		return b.sized(n)
	case "type_identifier":
		return b.typedefRef(b.text(n))
	case "struct_specifier", "union_specifier", "enum_specifier":
		return cdecl.NewElaborated(b.tag(n, sc))
	case "macro_type_specifier":
		return b.typedefRef(b.text(n.ChildByFieldName("name")))
	default:
		b.diag(cdecl.SeverityWarning, n, "unsupported type specifier %s", n.Type())
		return b.typedefRef(b.text(n))
	}
}

// sized folds the words of "unsigned long int" style specifiers.
func (b *builder) sized(n *sitter.Node) *cdecl.Type {
	var unsigned, signed, short bool
	longs := 0
	base := ""
	for i := uint32(0); i < n.ChildCount(); i++ {
		child := n.Child(int(i))
		switch word := b.text(child); word {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "short":
			short = true
		case "long":
			longs++
		default:
			if child.IsNamed() {
				base = word
			}
		}
	}

	var k cdecl.PrimitiveKind
	switch {
	case base == "char" && unsigned:
		k = cdecl.UChar
	case base == "char" && signed:
		k = cdecl.SChar
	case base == "char":
		k = cdecl.Char
	case base == "double" && longs > 0:
		k = cdecl.LongDouble
	case base == "double":
		k = cdecl.Double
	case short:
		k = pick(unsigned, cdecl.UShort, cdecl.Short)
	case longs == 1:
		k = pick(unsigned, cdecl.ULong, cdecl.Long)
	case longs >= 2:
		k = pick(unsigned, cdecl.ULongLong, cdecl.LongLong)
	default:
		k = pick(unsigned, cdecl.UInt, cdecl.Int)
	}
	return cdecl.NewPrimitive(k)
}

func pick(cond bool, yes, no cdecl.PrimitiveKind) cdecl.PrimitiveKind {
	if cond {
		return yes
	}
	return no
}

// typedefRef resolves a typedef name. Names not declared in the unit become
// external placeholders so references to the same name share a Decl.
func (b *builder) typedefRef(name string) *cdecl.Type {
	if name == "__int128" || name == "__int128_t" {
		return cdecl.NewPrimitive(cdecl.Int128)
	}
	if name == "__uint128_t" {
		return cdecl.NewPrimitive(cdecl.UInt128)
	}
	if d, ok := b.typedefs[name]; ok {
		return cdecl.NewTypedefRef(d)
	}
	d, ok := b.external[name]
	if !ok {
		d = &cdecl.Decl{
			ID:       cdecl.ID{File: externalFile, Offset: uint32(len(b.external))},
			Kind:     cdecl.TypedefDecl,
			Name:     name,
			External: true,
		}
		b.external[name] = d
	}
	return cdecl.NewTypedefRef(d)
}

// tag resolves a struct, union or enum specifier. A specifier with a body
// creates a declaration; at file scope it is added to the unit ahead of the
// declaration that contains it, inside a record it is marked inline.
func (b *builder) tag(n *sitter.Node, sc scope) *cdecl.Decl {
	kind := tagDeclKind(n.Type())
	name := b.text(n.ChildByFieldName("name"))
	body := n.ChildByFieldName("body")
	key := tagKey(kindTag(kind), name)

	if body == nil {
		if d, ok := b.tags[key]; ok && name != "" {
			return d
		}
		d := b.newDecl(kind, name, n)
		d.Forward = true
		if name != "" {
			b.tags[key] = d
		}
		b.forwards = append(b.forwards, d)
		return d
	}

	d := b.newDecl(kind, name, n)
	if name != "" {
		b.tags[key] = d
		b.defined[key] = true
	}
	if sc == fileScope {
		b.add(d)
	} else if name != "" {
		d.Inline = true
	}

	if kind == cdecl.EnumDecl {
		b.enumerators(d, body)
	} else {
		b.fields(d, body)
	}
	return d
}

func kindTag(k cdecl.DeclKind) cdecl.TagKind {
	return (&cdecl.Decl{Kind: k}).Tag()
}

// enumerators records the members of an enum body. A member whose value
// cannot be folded is unresolved, and so is every implicit member after it
// until an explicit value folds again.
func (b *builder) enumerators(d *cdecl.Decl, body *sitter.Node) {
	var (
		next       constant
		unresolved bool
	)
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "enumerator":
			name := b.text(n.ChildByFieldName("name"))
			value := next
			if vn := n.ChildByFieldName("value"); vn != nil {
				v, ok := b.eval.value(vn)
				value, unresolved = v, !ok
			}
			m := cdecl.Enumerator{Name: name, Unresolved: unresolved}
			if !unresolved {
				m.Value = value.v
				m.Unsigned = value.unsigned() && value.v < 0
				b.eval.consts[name] = value
				next = constant{v: value.v + 1, kind: value.kind}.norm()
			}
			d.Enumerators = append(d.Enumerators, m)
		case "preproc_ifdef", "preproc_if":
			b.conditional(n, visit)
		}
	}
	for i := uint32(0); i < body.NamedChildCount(); i++ {
		visit(body.NamedChild(int(i)))
	}
}

func (b *builder) fields(d *cdecl.Decl, body *sitter.Node) {
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "field_declaration":
			d.Fields = append(d.Fields, b.field(n)...)
		case "preproc_ifdef", "preproc_if":
			b.conditional(n, visit)
		}
	}
	for i := uint32(0); i < body.NamedChildCount(); i++ {
		visit(body.NamedChild(int(i)))
	}
}

func (b *builder) field(n *sitter.Node) []cdecl.Field {
	if paddingBitfield(n) {
		return nil
	}
	base, typeNode := b.baseType(n, fieldScope)
	if base == nil {
		return nil
	}

	var bits uint64
	if clause := findChildByType(n, "bitfield_clause"); clause != nil {
		if v, ok := b.eval.fold(clause.NamedChild(0)); ok && v > 0 {
			bits = uint64(v)
		} else {
			b.diag(cdecl.SeverityWarning, clause, "cannot evaluate bit-field width")
		}
	}

	decls := declarators(n, typeNode)
	if len(decls) == 0 {
		// C11 anonymous member: only meaningful for an unnamed record.
		if base.Decl != nil && base.Decl.Anonymous() && base.Kind == cdecl.Elaborated {
			return []cdecl.Field{{Type: base, Bits: bits, Loc: b.loc(n)}}
		}
		return nil
	}

	out := make([]cdecl.Field, 0, len(decls))
	for _, dn := range decls {
		name, t := b.declarator(dn, base)
		out = append(out, cdecl.Field{Name: name, Type: t, Bits: bits, Loc: b.loc(dn)})
	}
	return out
}

// paddingBitfield reports whether n declares a bit-field without a name,
// as in "unsigned : 5;". The grammar fills the name in as a missing node.
func paddingBitfield(n *sitter.Node) bool {
	if n == nil || n.Type() != "field_declaration" || findChildByType(n, "bitfield_clause") == nil {
		return false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "field_identifier" && !c.IsMissing() {
			return false
		}
	}
	return true
}

// declarator applies the derivations of a declarator to base, outermost
// first, and returns the declared name with its complete type.
func (b *builder) declarator(n *sitter.Node, base *cdecl.Type) (string, *cdecl.Type) {
	if n == nil {
		return "", base
	}
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return b.text(n), base

	case "pointer_declarator", "abstract_pointer_declarator":
		p := cdecl.NewPointer(base)
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(int(i))
			if child.Type() == "type_qualifier" && b.text(child) == "const" {
				p.Const = true
			}
		}
		return b.declarator(n.ChildByFieldName("declarator"), p)

	case "array_declarator", "abstract_array_declarator":
		return b.declarator(n.ChildByFieldName("declarator"), b.array(base, n.ChildByFieldName("size")))

	case "function_declarator", "abstract_function_declarator":
		fn := &cdecl.Type{Kind: cdecl.FunctionProto, Elem: base}
		fn.Params, fn.Variadic = b.params(n.ChildByFieldName("parameters"))
		return b.declarator(n.ChildByFieldName("declarator"), fn)

	case "init_declarator":
		return b.declarator(n.ChildByFieldName("declarator"), base)

	case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			if child := n.NamedChild(int(i)); IsDeclaratorNode(child) {
				return b.declarator(child, base)
			}
		}
		return "", base

	default:
		b.diag(cdecl.SeverityWarning, n, "unsupported declarator %s", n.Type())
		return "", base
	}
}

func (b *builder) array(elem *cdecl.Type, size *sitter.Node) *cdecl.Type {
	if size == nil {
		return &cdecl.Type{Kind: cdecl.IncompleteArray, Elem: elem}
	}
	if v, ok := b.eval.fold(size); ok && v >= 0 {
		return cdecl.NewArray(elem, uint64(v))
	}
	return &cdecl.Type{Kind: cdecl.VariableArray, Elem: elem}
}

// params converts a parameter list. "(void)" is an empty list. Array and
// function parameters decay to pointers as in C.
func (b *builder) params(n *sitter.Node) ([]cdecl.Param, bool) {
	if n == nil {
		return nil, false
	}
	var (
		out      []cdecl.Param
		variadic bool
	)
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(int(i))
		switch child.Type() {
		case "variadic_parameter":
			variadic = true
		case "parameter_declaration":
			base, _ := b.baseType(child, paramScope)
			if base == nil {
				continue
			}
			name, t := b.declarator(child.ChildByFieldName("declarator"), base)
			out = append(out, cdecl.Param{Name: name, Type: decay(t)})
		}
	}
	if len(out) == 1 && out[0].Name == "" && isVoid(out[0].Type) {
		out = nil
	}
	return out, variadic
}

func decay(t *cdecl.Type) *cdecl.Type {
	switch t.Kind {
	case cdecl.ConstantArray, cdecl.IncompleteArray, cdecl.VariableArray:
		return cdecl.NewPointer(t.Elem)
	case cdecl.FunctionProto:
		return cdecl.NewPointer(t)
	}
	return t
}

func isVoid(t *cdecl.Type) bool {
	return t.Kind == cdecl.Primitive && t.Primitive == cdecl.Void
}
