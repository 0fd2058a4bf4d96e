package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/recera/pria/pkg/compiler"
)

// scope collects the top-level functions of a module and the names they
// are exported under.
type scope struct {
	funcs   []fn
	index   map[string]int
	exports map[string][]string
}

type fn struct {
	local string
	node  *sitter.Node
}

func newScope() *scope {
	return &scope{index: make(map[string]int), exports: make(map[string][]string)}
}

func (s *scope) declare(local string, node *sitter.Node) {
	if _, ok := s.index[local]; ok {
		return
	}
	s.index[local] = len(s.funcs)
	s.funcs = append(s.funcs, fn{local: local, node: node})
}

func (s *scope) export(local, name string) {
	s.exports[local] = append(s.exports[local], name)
}

func (p *parser) program(root *sitter.Node) error {
	s := newScope()

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "import_statement":
			p.importStatement(n)
		case "export_statement":
			p.exportStatement(n, s)
		default:
			p.declaration(n, s)
		}
	}

	covered := make(map[uint32]bool)
	for _, f := range s.funcs {
		jsx, err := p.jsxRoot(f)
		if err != nil {
			return err
		}
		if jsx == nil {
			continue
		}

		names := s.exports[f.local]
		exported := len(names) > 0
		if !exported {
			if !compiler.IsComponentTag(f.local) {
				continue
			}
			names = []string{f.local}
		}

		el, err := p.element(jsx)
		if err != nil {
			err.Component = names[0]
			return err
		}
		covered[jsx.StartByte()] = true

		for _, name := range names {
			p.src.Components = append(p.src.Components, compiler.ComponentSource{
				Name:     name,
				Local:    f.local,
				Exported: exported,
				Root:     el,
				Start:    int(jsx.StartByte()),
				End:      int(jsx.EndByte()),
				Loc:      locOf(jsx),
			})
		}
	}

	// JSX anywhere else would be left untranslated in the module script
	var stray []*sitter.Node
	outermostJSX(root, &stray)
	for _, n := range stray {
		if !covered[n.StartByte()] {
			return p.errorf(n, "JSX outside a component")
		}
	}
	return nil
}

// declaration records top-level functions and function-valued bindings
// and returns their local names.
func (p *parser) declaration(n *sitter.Node, s *scope) []string {
	var locals []string
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			s.declare(p.text(name), n)
			locals = append(locals, p.text(name))
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")
			if name == nil || value == nil || name.Type() != "identifier" || !isFunction(value) {
				continue
			}
			s.declare(p.text(name), value)
			locals = append(locals, p.text(name))
		}
	}
	return locals
}

func isFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression":
		return true
	}
	return false
}

func (p *parser) exportStatement(n *sitter.Node, s *scope) {
	if source := n.ChildByFieldName("source"); source != nil {
		p.importSpec(source)
		return
	}

	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == "default" {
			isDefault = true
		}
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		for _, local := range p.declaration(decl, s) {
			if isDefault {
				s.export(local, "default")
			} else {
				s.export(local, local)
			}
		}
		return
	}

	if value := n.ChildByFieldName("value"); value != nil {
		switch {
		case value.Type() == "identifier":
			s.export(p.text(value), "default")
		case isFunction(value):
			s.declare("default", value)
			s.export("default", "default")
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			if name == nil {
				continue
			}
			exported := name
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = alias
			}
			s.export(p.text(name), unquote(p.text(exported)))
		}
	}
}

func (p *parser) importStatement(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	if source == nil {
		return
	}
	spec := p.importSpec(source)
	path := p.resolve(p.path, spec)

	if end := int(n.EndByte()); end > p.src.ImportsEnd {
		p.src.ImportsEnd = end
	}
	if spec == compiler.RuntimeModule {
		p.src.HasRuntimeImport = true
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			c := clause.NamedChild(j)
			switch c.Type() {
			case "identifier":
				p.src.Imports[p.text(c)] = compiler.Import{Spec: spec, Name: "default", Path: path}
			case "named_imports":
				for k := 0; k < int(c.NamedChildCount()); k++ {
					is := c.NamedChild(k)
					if is.Type() != "import_specifier" {
						continue
					}
					name := is.ChildByFieldName("name")
					if name == nil {
						continue
					}
					local := name
					if alias := is.ChildByFieldName("alias"); alias != nil {
						local = alias
					}
					p.src.Imports[p.text(local)] = compiler.Import{Spec: spec, Name: unquote(p.text(name)), Path: path}
				}
			}
		}
	}
}

// importSpec records the span of a module specifier literal
func (p *parser) importSpec(source *sitter.Node) string {
	spec := unquote(p.text(source))
	p.src.ImportSpecs = append(p.src.ImportSpecs, compiler.ImportSpec{
		Value: spec,
		Start: int(source.StartByte()),
		End:   int(source.EndByte()),
	})
	return spec
}
