// Package parser reads JSX component modules into the compiler's source
// model using the tree-sitter javascript grammar.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/recera/pria/pkg/compiler"
)

// Resolver maps an import specifier to the path recorded for it
type Resolver func(from, spec string) string

// Option configures ParseFile
type Option func(*parser)

// WithResolver replaces the default specifier resolution
func WithResolver(r Resolver) Option {
	return func(p *parser) {
		p.resolve = r
	}
}

// DefaultExt is appended to relative specifiers without an extension
const DefaultExt = ".jsx"

// ResolveRelative resolves relative specifiers against the importing
// file's directory. Bare specifiers are returned unchanged.
func ResolveRelative(from, spec string) string {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") && !strings.HasPrefix(spec, "/") {
		return spec
	}
	p := spec
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(from), spec)
	}
	if filepath.Ext(p) == "" {
		p += DefaultExt
	}
	return filepath.Clean(p)
}

type parser struct {
	path    string
	code    []byte
	resolve Resolver
	src     *compiler.Source
}

// ParseFile parses one JSX module. Syntax errors and unsupported JSX
// are reported as compiler.Error values of kind KindParse.
func ParseFile(path string, code []byte, opts ...Option) (*compiler.Source, error) {
	p := &parser{
		path:    path,
		code:    code,
		resolve: ResolveRelative,
		src: &compiler.Source{
			Path:    path,
			Code:    code,
			Imports: make(map[string]compiler.Import),
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	sp := sitter.NewParser()
	sp.SetLanguage(javascript.GetLanguage())
	tree, err := sp.ParseCtx(context.Background(), nil, code)
	if err != nil {
		return nil, &compiler.Error{Kind: compiler.KindParse, File: path, Msg: "tree-sitter parse failed", Err: err}
	}

	root := tree.RootNode()
	if root == nil {
		return nil, &compiler.Error{Kind: compiler.KindParse, File: path, Msg: "empty syntax tree"}
	}
	if root.HasError() {
		loc := compiler.Loc{Line: 1, Column: 1}
		if n := firstError(root); n != nil {
			loc = locOf(n)
		}
		return nil, &compiler.Error{Kind: compiler.KindParse, File: path, Loc: loc, Msg: "syntax error"}
	}

	if err := p.program(root); err != nil {
		return nil, err
	}
	return p.src, nil
}

// firstError does a depth-first search for the first ERROR or MISSING node
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := firstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func locOf(n *sitter.Node) compiler.Loc {
	pt := n.StartPoint()
	return compiler.Loc{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

func (p *parser) text(n *sitter.Node) string {
	return n.Content(p.code)
}

func (p *parser) errorf(n *sitter.Node, format string, args ...any) *compiler.Error {
	e := compiler.Errorf(compiler.KindParse, format, args...)
	e.File = p.path
	if n != nil {
		e.Loc = locOf(n)
	}
	return e
}

// unquote strips the quotes of a string literal node
func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
