package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/recera/pria/pkg/compiler"
)

func isJSX(n *sitter.Node) bool {
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// outermostJSX collects JSX nodes not nested in other JSX
func outermostJSX(n *sitter.Node, out *[]*sitter.Node) {
	if isJSX(n) {
		*out = append(*out, n)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		outermostJSX(n.NamedChild(i), out)
	}
}

// jsxRoot finds the single element tree a function returns, or nil when
// the function contains no JSX.
func (p *parser) jsxRoot(f fn) (*sitter.Node, *compiler.Error) {
	body := f.node.ChildByFieldName("body")
	if body == nil {
		return nil, nil
	}
	var roots []*sitter.Node
	outermostJSX(body, &roots)
	switch len(roots) {
	case 0:
		return nil, nil
	case 1:
		return roots[0], nil
	}
	err := p.errorf(roots[1], "component %s has more than one JSX root", f.local)
	err.Component = f.local
	return nil, err
}

func (p *parser) element(n *sitter.Node) (*compiler.Element, *compiler.Error) {
	switch n.Type() {
	case "jsx_self_closing_element":
		el, err := p.openTag(n, n)
		if err != nil {
			return nil, err
		}
		el.SelfClosing = true
		return el, nil

	case "jsx_element":
		open := n.ChildByFieldName("open_tag")
		if open == nil {
			return nil, p.errorf(n, "malformed JSX element")
		}
		el, err := p.openTag(open, n)
		if err != nil {
			return nil, err
		}
		el.Children, err = p.children(n, open)
		if err != nil {
			return nil, err
		}
		return el, nil
	}
	return nil, p.errorf(n, "JSX fragments are not supported, wrap the children in an element")
}

// openTag reads the name and attributes of an opening or self-closing tag
func (p *parser) openTag(tag, owner *sitter.Node) (*compiler.Element, *compiler.Error) {
	name := tag.ChildByFieldName("name")
	if name == nil {
		return nil, p.errorf(owner, "JSX fragments are not supported, wrap the children in an element")
	}
	el := &compiler.Element{Tag: p.text(name), Loc: p.locAt(p.start(owner))}

	for i := 0; i < int(tag.NamedChildCount()); i++ {
		c := tag.NamedChild(i)
		switch c.Type() {
		case "jsx_attribute":
			a, err := p.attribute(c)
			if err != nil {
				return nil, err
			}
			el.Attrs = append(el.Attrs, a)
		case "jsx_expression":
			code, spread, ok := p.expression(c)
			if !ok || !spread {
				return nil, p.errorf(c, "only spread expressions may appear among attributes")
			}
			el.Attrs = append(el.Attrs, compiler.Attr{Kind: compiler.AttrSpread, Value: code, Loc: locOf(c)})
		}
	}
	return el, nil
}

func (p *parser) attribute(n *sitter.Node) (compiler.Attr, *compiler.Error) {
	a := compiler.Attr{Name: p.text(n.NamedChild(0)), Loc: locOf(n)}
	if n.NamedChildCount() < 2 {
		a.Kind = compiler.AttrBool
		return a, nil
	}

	v := n.NamedChild(1)
	switch v.Type() {
	case "string":
		a.Kind = compiler.AttrLiteral
		a.Value = unquote(p.text(v))
	case "jsx_expression":
		code, spread, ok := p.expression(v)
		if !ok {
			return a, p.errorf(v, "attribute %s has an empty expression", a.Name)
		}
		if spread {
			return a, p.errorf(v, "attribute %s cannot take a spread", a.Name)
		}
		a.Kind = compiler.AttrExpr
		a.Value = code
	default:
		return a, p.errorf(v, "attribute %s: element values are not supported", a.Name)
	}
	return a, nil
}

// expression returns the code inside {…}. ok is false for an empty or
// comment-only container.
func (p *parser) expression(n *sitter.Node) (code string, spread, ok bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment":
			continue
		case "spread_element":
			if c.NamedChildCount() == 0 {
				return "", true, false
			}
			return strings.TrimSpace(p.text(c.NamedChild(0))), true, true
		}
		return strings.TrimSpace(p.text(c)), false, true
	}
	return "", false, false
}

// children reads an element's content. Text is taken verbatim from the
// gaps between child elements and expressions, so whitespace survives
// into the template exactly as written.
func (p *parser) children(n, open *sitter.Node) ([]compiler.Node, *compiler.Error) {
	var nodes []compiler.Node
	cursor := int(open.EndByte())
	end := int(n.EndByte())
	if closeTag := n.ChildByFieldName("close_tag"); closeTag != nil {
		end = p.start(closeTag)
	}

	gap := func(upto int) {
		if upto > cursor {
			nodes = append(nodes, &compiler.Text{Value: string(p.code[cursor:upto]), Loc: p.locAt(cursor)})
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.StartByte() < open.EndByte() || int(c.StartByte()) >= end {
			continue
		}
		switch {
		case c.Type() == "jsx_expression":
			gap(p.start(c))
			cursor = int(c.EndByte())
			code, spread, ok := p.expression(c)
			if !ok {
				continue
			}
			if spread {
				return nil, p.errorf(c, "spread children are not supported")
			}
			nodes = append(nodes, &compiler.Expr{Code: code, Loc: locOf(c)})
		case isJSX(c):
			gap(p.start(c))
			cursor = int(c.EndByte())
			child, err := p.element(c)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, child)
		}
	}
	gap(end)
	return nodes, nil
}

// start returns the offset of the first non-space byte of n. JSX tags
// report a start that includes the whitespace preceding them.
func (p *parser) start(n *sitter.Node) int {
	i, end := int(n.StartByte()), int(n.EndByte())
	for i < end && strings.ContainsRune(" \t\r\n", rune(p.code[i])) {
		i++
	}
	return i
}

// locAt converts a byte offset to a 1-based line and column
func (p *parser) locAt(offset int) compiler.Loc {
	line, col := 1, 1
	for _, b := range p.code[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return compiler.Loc{Line: line, Column: col}
}
