// Package compiler turns a component's element tree into a static HTML
// template, a hydration script that binds reactive effects to addressed
// template nodes, and the list of child components the template embeds.
package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Loc is a 1-based source position. The zero value means unknown.
type Loc struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsZero reports whether the location is unknown
func (l Loc) IsZero() bool {
	return l.Line == 0
}

func (l Loc) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Node is a child of an element: *Element, *Text or *Expr
type Node interface {
	Location() Loc
	node()
}

// Element is a tag with attributes and children
type Element struct {
	Tag         string
	Attrs       []Attr
	Children    []Node
	SelfClosing bool
	Loc         Loc
}

// Text is literal character data as written in the source
type Text struct {
	Value string
	Loc   Loc
}

// Expr is an expression container; Code is re-emitted verbatim
type Expr struct {
	Code string
	Loc  Loc
}

func (e *Element) Location() Loc { return e.Loc }
func (t *Text) Location() Loc    { return t.Loc }
func (x *Expr) Location() Loc    { return x.Loc }

func (*Element) node() {}
func (*Text) node()    {}
func (*Expr) node()    {}

// AttrKind classifies an attribute value
type AttrKind uint8

const (
	// AttrLiteral is a quoted string value: name="value"
	AttrLiteral AttrKind = iota
	// AttrExpr is an expression value: name={expr}
	AttrExpr
	// AttrBool is a bare name without a value
	AttrBool
	// AttrSpread is {...expr}; Name is empty
	AttrSpread
)

// Attr is one attribute of an element
type Attr struct {
	Name  string
	Kind  AttrKind
	Value string
	Loc   Loc
}

// IsDirective reports whether the attribute is a $-prefixed directive
func (a Attr) IsDirective() bool {
	return a.Kind != AttrSpread && strings.HasPrefix(a.Name, "$")
}

// IsComponentTag reports whether tag names a component rather than an
// HTML element. Components start with an upper-case letter.
func IsComponentTag(tag string) bool {
	r, _ := utf8.DecodeRuneInString(tag)
	return unicode.IsUpper(r)
}

// Attr returns the first attribute with the given name
func (e *Element) Attr(name string) (Attr, bool) {
	for _, a := range e.Attrs {
		if a.Kind != AttrSpread && a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}
