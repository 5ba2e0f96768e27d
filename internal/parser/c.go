package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// newCParser creates a tree-sitter parser configured for C.
func newCParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	return parser
}

// declaratorNodeTypes are the node types that can name an entity inside a
// declaration, field or typedef, abstract forms included.
var declaratorNodeTypes = map[string]bool{
	"identifier":                        true,
	"field_identifier":                  true,
	"type_identifier":                   true,
	"pointer_declarator":                true,
	"array_declarator":                  true,
	"function_declarator":               true,
	"parenthesized_declarator":          true,
	"attributed_declarator":             true,
	"init_declarator":                   true,
	"abstract_pointer_declarator":       true,
	"abstract_array_declarator":         true,
	"abstract_function_declarator":      true,
	"abstract_parenthesized_declarator": true,
}

// IsDeclaratorNode reports whether node is a declarator.
func IsDeclaratorNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	return declaratorNodeTypes[node.Type()]
}

// primitiveKinds maps tree-sitter primitive_type spellings that are true
// builtins. Other primitive_type spellings (size_t, uint32_t, ...) are
// library typedefs and are kept by name.
var primitiveKinds = map[string]cdecl.PrimitiveKind{
	"void":   cdecl.Void,
	"bool":   cdecl.Bool,
	"_Bool":  cdecl.Bool,
	"char":   cdecl.Char,
	"int":    cdecl.Int,
	"float":  cdecl.Float,
	"double": cdecl.Double,
}

// sameNode reports whether a and b are the same syntax node.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// findChildByType returns the first direct child of the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}
