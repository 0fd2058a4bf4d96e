package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditional(t *testing.T) {
	root := el("div", nil,
		el("span", attrs(dyn("$if", "show()"), lit("class", "msg")), txt("hi")),
		el("p", nil, expr("after")),
	)

	comp := mustTransform(t, root, Options{})

	assert.Equal(t, `<div><template><span class="msg">hi</span></template><p> </p></div>`, comp.HTML)
	assert.Contains(t, comp.Script, "const _$tmpl0 = _$root.f\n")
	assert.Contains(t, comp.Script, `const _$comment0 = document.createComment("if")`)
	assert.Contains(t, comp.Script, "const _$el0 = _$tmpl0.content.cloneNode(true).f\n")
	assert.Contains(t, comp.Script, "_$tmpl0.replaceWith(_$el0)\n")
	assert.Contains(t, comp.Script, "let _$prev0 = true\n")
	assert.Contains(t, comp.Script, "const _$cond = !!(show())")
	assert.Contains(t, comp.Script, "if (_$cond !== _$prev0) {")
	assert.Contains(t, comp.Script, "if (_$cond) _$comment0.replaceWith(_$el0)")
	assert.Contains(t, comp.Script, "else _$el0.replaceWith(_$comment0)")

	// the sibling after the conditional keeps its address
	assert.Contains(t, comp.Script, "const _$text0 = _$root.f.n.f\n")
	vars := replay(t, comp.HTML, comp.Script)
	assert.Equal(t, "template", vars["_$tmpl0"].Tag)
	assert.Equal(t, "p", vars["_$text0"].Parent().Tag)
}

func TestConditional_InnerBindingsUseClone(t *testing.T) {
	root := el("div", nil,
		el("section", attrs(dyn("$if", "open"), dyn("title", "t()"), dyn("$when", "w()")), el("b", nil, expr("x"))),
	)

	comp := mustTransform(t, root, Options{})

	assert.Contains(t, comp.Script, `_$.setAttr(_$el0, "title", (t()))`)
	assert.Contains(t, comp.Script, "_$.when(_$el0, !!(w()), _$when0)")
	assert.Contains(t, comp.Script, "const _$text0 = _$el0.f.f\n")
	assert.Equal(t, 4, comp.Effects)
}

func TestConditionalWithLoop(t *testing.T) {
	root := el("div", nil,
		el("ul", attrs(lit("$for", "item in items()"), dyn("$if", "ok()")), el("li", nil, expr("item"))),
	)

	comp := mustTransform(t, root, Options{})

	assert.Equal(t, `<div><template><ul><template><li> </li></template></ul></template></div>`, comp.HTML)
	assert.Contains(t, comp.Script, "const _$el0 = _$tmpl0.content.cloneNode(true).f\n")
	assert.Contains(t, comp.Script, "function _$create0(_$root, item) {")
	assert.Contains(t, comp.Script, "const _$text0 = _$root.f.f\n")
	assert.Contains(t, comp.Script, "const _$tmpl1 = _$el0.f\n")
	assert.Contains(t, comp.Script, "_$el0.appendChild(_$comment1)")
}

func TestParseLoop(t *testing.T) {
	tests := []struct {
		in     string
		item   string
		source string
		ok     bool
	}{
		{"item in items", "item", "items", true},
		{"row of rows()", "row", "rows()", true},
		{"(todo) in store.todos.filter(t => t.done)", "todo", "store.todos.filter(t => t.done)", true},
		{"  $x in  xs  ", "$x", "xs", true},
		{"item in\n  list()", "item", "list()", true},
		{"items", "", "", false},
		{"1item in xs", "", "", false},
		{"[a, b] of pairs", "", "", false},
		{"item on items", "", "", false},
		{"in in xs", "", "", false},
		{"item in", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lp, err := ParseLoop(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse))
				var cerr *Error
				require.True(t, errors.As(err, &cerr))
				assert.Equal(t, tt.in, cerr.Expr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.item, lp.Item)
			assert.Equal(t, tt.source, lp.Source)
		})
	}
}

func TestLoop(t *testing.T) {
	root := el("ul", attrs(lit("class", "list"), dyn("$for", "item in items()")),
		el("li", attrs(dyn("title", "item.title")), expr("item.name")),
	)

	comp := mustTransform(t, root, Options{})

	assert.Equal(t, `<ul class="list"><template><li> </li></template></ul>`, comp.HTML)
	s := comp.Script
	assert.Contains(t, s, "function _$create0(_$root, item) {")
	assert.Contains(t, s, `_$.setAttr(_$el0, "title", (item.title))`)
	assert.Contains(t, s, "const _$tmpl0 = _$root.f\n")
	assert.Contains(t, s, "_$tmpl0.remove()")
	assert.Contains(t, s, "const _$src = (items())")
	assert.Contains(t, s, "return Array.isArray(_$src) ? _$src : []")
	assert.Contains(t, s, "_$.owned(() => _$create0(_$frag, _$item))")
	assert.Contains(t, s, `first: document.createComment("for-item"), last: document.createComment("/for-item")`)
	assert.Contains(t, s, "_$frag.prepend(_$range.first)")
	assert.NotContains(t, s, "_$frag.firstChild")
	assert.Contains(t, s, `case "push": {`)
	assert.Contains(t, s, `case "setAt": {`)
	assert.Contains(t, s, `case "remove": {`)
	assert.Contains(t, s, "default: {")
	assert.Equal(t, 3, comp.Effects)
}

func TestLoop_Errors(t *testing.T) {
	tests := []struct {
		name string
		root *Element
	}{
		{"bad expression", el("ul", attrs(lit("$for", "items")))},
		{"component host", el("div", nil, el("Row", attrs(lit("$for", "r in rows"))))},
		{"void host", el("input", attrs(lit("$for", "r in rows")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.root, Options{File: "list.jsx"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), "got %v", err)
		})
	}
}

// innerHTML binds an element's markup to an expression and then lets
// default emission continue.
type innerHTML struct{}

func (innerHTML) Name() string  { return "$html" }
func (innerHTML) Priority() int { return 50 }
func (innerHTML) Transform(dc *DirectiveContext) (bool, error) {
	dc.Bind(fmt.Sprintf("%s.innerHTML = String(%s)", dc.Ref(), dc.Directive.Expr))
	return false, nil
}

// divider replaces the element with a static rule
type divider struct{}

func (divider) Name() string  { return "$divider" }
func (divider) Priority() int { return 200 }
func (divider) Transform(dc *DirectiveContext) (bool, error) {
	dc.WriteHTML("<hr>")
	return true, nil
}

// failing rejects every element
type failing struct{}

func (failing) Name() string  { return "$fail" }
func (failing) Priority() int { return 1 }
func (failing) Transform(dc *DirectiveContext) (bool, error) {
	return false, errors.New("not allowed here")
}

func TestRegistry_Extensions(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(innerHTML{}))
	require.NoError(t, reg.Register(divider{}))
	require.NoError(t, reg.Register(failing{}))

	root := el("div", nil,
		el("article", attrs(dyn("$html", "body()"))),
		el("span", attrs(lit("$divider", "yes"), dyn("$if", "x"))),
	)
	comp := mustTransform(t, root, Options{Registry: reg})

	assert.Equal(t, "<div><article></article><hr></div>", comp.HTML)
	assert.Contains(t, comp.Script, "_$el0.innerHTML = String(body())")
	assert.Equal(t, 1, comp.Effects)

	_, err := Transform(el("div", attrs(dyn("$fail", "1"))), Options{Registry: reg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "not allowed here")
}

func TestRegistry_RegisterRejects(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(innerHTML{}))

	assert.Error(t, reg.Register(innerHTML{}), "duplicate")
	assert.Error(t, reg.Register(named("$if")), "built-in")
	assert.Error(t, reg.Register(named("html")), "missing $")
	assert.Error(t, reg.Register(named("$")), "empty name")
}

type named string

func (n named) Name() string                              { return string(n) }
func (n named) Priority() int                             { return 0 }
func (n named) Transform(*DirectiveContext) (bool, error) { return false, nil }

func TestDirectivePriorityOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(innerHTML{}))

	d, err := reg.directives(el("div", attrs(dyn("$ref", "r"), dyn("$html", "h"), lit("$for", "x in xs"), dyn("$if", "c"))))
	require.NoError(t, err)

	var names []string
	for _, x := range d {
		names = append(names, x.Name)
	}
	assert.Equal(t, []string{"$if", "$for", "$html", "$ref"}, names)
}
