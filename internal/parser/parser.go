// Package parser reads C headers with tree-sitter and builds the declaration
// model the binding generator consumes.
//
// Parsing is a two step affair: Parse produces the tree-sitter syntax tree for
// a (preprocessed) source buffer, and Build walks that tree into a
// cdecl.TranslationUnit with resolved tags, typedefs and folded constants.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
)

// Parser wraps tree-sitter configured for C.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the AST.
	Root *sitter.Node
	// Source is the buffer that was parsed, after Preprocess.
	Source []byte
	// FilePath is the path to the source file (empty for in-memory parsing).
	FilePath string
}

// NewParser creates a C parser.
func NewParser() *Parser {
	return &Parser{parser: newCParser()}
}

// Parse parses source code and returns the AST.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	return p.ParseContext(context.Background(), source)
}

// ParseContext parses source, giving up when ctx is done.
func (p *Parser) ParseContext(ctx context.Context, source []byte) (*ParseResult, error) {
	source = Preprocess(source)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{
			Message: err.Error(),
		}
	}

	return &ParseResult{
		Tree:   tree,
		Root:   tree.RootNode(),
		Source: source,
	}, nil
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors returns true if the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// WalkNodes traverses the AST depth-first, calling the visitor function
// for each node. If the visitor returns false, traversal stops.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

// walkNode is a helper for depth-first AST traversal.
func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) bool {
	if !visitor(node) {
		return false
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if !walkNode(node.Child(int(i)), visitor) {
			return false
		}
	}
	return true
}

// ParseSource parses and builds a translation unit from an in-memory buffer.
// path names the unit in declaration IDs and locations.
func ParseSource(ctx context.Context, path string, source []byte, args []string) (*cdecl.TranslationUnit, error) {
	p := NewParser()
	defer p.Close()

	result, err := p.ParseContext(ctx, source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}
	defer result.Close()
	result.FilePath = path

	return Build(result, args), nil
}

// SupportedExtensions returns the file extensions treated as C sources.
func SupportedExtensions() []string {
	return []string{".h", ".c"}
}

// IsSourceFile reports whether path has one of SupportedExtensions.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}
