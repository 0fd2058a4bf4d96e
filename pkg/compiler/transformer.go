package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/recera/pria/pkg/dom"
)

// RootAnchor is the script variable holding the component's root node
const RootAnchor = "_$root"

// Options configures one Transform call
type Options struct {
	// File and Component attribute errors
	File      string
	Component string

	// AnchorInterval bounds address chains; DefaultAnchorInterval if zero
	AnchorInterval int

	// Registry supplies extension directives; built-ins only if nil
	Registry *Registry

	// ResolveImport reports the module and export a component tag was
	// imported from.
	ResolveImport func(tag string) (Import, bool)

	// ResolveLocal maps a tag bound in the same file to the compiled
	// component name. The tag text is used when it is nil or reports false.
	ResolveLocal func(tag string) (string, bool)
}

// Dependency records a child component embedded in a template
type Dependency struct {
	// FilePath is SelfFile or the absolute path of the defining module
	FilePath string `json:"filePath"`
	Name     string `json:"name"`
	// Placeholder is the comment marking the child's position. Output
	// that predates placeholders leaves it empty.
	Placeholder string `json:"placeholder,omitempty"`
}

// SelfFile marks a dependency defined in the same module
const SelfFile = "self"

// Component is the compiled form of one component
type Component struct {
	Name     string       `json:"-"`
	HTML     string       `json:"html"`
	Script   string       `json:"-"`
	Deps     []Dependency `json:"deps"`
	Exported bool         `json:"exported"`
	// Effects counts the reactive bindings in Script
	Effects int `json:"-"`
}

type transformer struct {
	opts     Options
	reg      *Registry
	interval int
	uid      *uidGen
	html     strings.Builder
	script   *scriptWriter
	deps     []Dependency
	// anchors caches rebased address prefixes for the current function scope
	anchors map[string]string
	effects int
}

// Transform compiles one component tree in a single depth-first walk
func Transform(root *Element, opts Options) (*Component, error) {
	if root == nil {
		return nil, &Error{Kind: KindParse, File: opts.File, Component: opts.Component, Msg: "component has no root element"}
	}

	t := &transformer{
		opts:     opts,
		reg:      opts.Registry,
		interval: opts.AnchorInterval,
		uid:      newUIDGen(),
		script:   &scriptWriter{},
		anchors:  make(map[string]string),
	}
	if t.reg == nil {
		t.reg = NewRegistry()
	}
	if t.interval <= 0 {
		t.interval = DefaultAnchorInterval
	}

	if err := t.element(root, RootAddress(RootAnchor), nil); err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return nil, cerr.At(opts.File, opts.Component, root.Loc)
		}
		return nil, &Error{Kind: KindParse, File: opts.File, Component: opts.Component, Loc: root.Loc, Msg: "transform failed", Err: err}
	}

	return &Component{
		Name:    opts.Component,
		HTML:    t.html.String(),
		Script:  t.script.String(),
		Deps:    t.deps,
		Effects: t.effects,
	}, nil
}

// resolve shortens an address to at most interval steps by capturing
// prefixes in anchor variables, reusing anchors already declared in the
// current scope.
func (t *transformer) resolve(addr Address) Address {
	for addr.Len() > t.interval {
		prefix := Address{Anchor: addr.Anchor, Steps: addr.Steps[:t.interval]}
		key := prefix.Anchor + ":" + prefix.Path()
		if id, ok := t.anchors[key]; ok {
			addr = Address{Anchor: id, Steps: addr.Steps[t.interval:]}
			continue
		}
		id := t.uid.next("ref")
		decl, next, _ := addr.Rebase(t.interval, id)
		t.script.line(decl)
		t.anchors[key] = id
		addr = next
	}
	return addr
}

// declare binds the node at addr to a fresh variable. The anchor itself
// is returned for an empty address.
func (t *transformer) declare(addr Address, prefix string) string {
	if addr.Len() == 0 {
		return addr.Anchor
	}
	addr = t.resolve(addr)
	id := t.uid.next(prefix)
	t.script.line("const %s = %s", id, addr.Expr())
	return id
}

// effect emits one reactive binding
func (t *transformer) effect(body string) {
	t.effects++
	t.script.open("_$.useEffect(() => {")
	for _, l := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		t.script.line(l)
	}
	t.script.close("})")
}

// nodeRef declares an element variable on first use
type nodeRef struct {
	t    *transformer
	addr Address
	id   string
}

func (r *nodeRef) name() string {
	if r.id == "" {
		r.id = r.t.declare(r.addr, "el")
	}
	return r.id
}

// base is the address children are computed from
func (r *nodeRef) base() Address {
	if r.id != "" {
		return RootAddress(r.id)
	}
	return r.addr
}

// element emits el at addr. Directives named in done were already
// applied by an enclosing structural directive.
func (t *transformer) element(el *Element, addr Address, done map[string]bool) error {
	dirs, err := t.reg.directives(el)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		if done[d.Name] {
			continue
		}
		switch d.Kind {
		case DirectiveIf:
			return t.conditional(el, addr, d, done)
		case DirectiveFor:
			return t.loop(el, addr, d, done)
		case DirectiveExtension:
			dc := &DirectiveContext{Directive: d, Element: el, Address: addr, t: t, done: done}
			handled, err := t.reg.handler(d.Name).Transform(dc)
			if err != nil {
				var cerr *Error
				if errors.As(err, &cerr) {
					return cerr.At(t.opts.File, t.opts.Component, d.Loc)
				}
				return &Error{Kind: KindParse, Loc: d.Loc, Expr: d.Expr, Msg: fmt.Sprintf("directive %s", d.Name), Err: err}
			}
			if handled {
				return nil
			}
			done = with(done, d.Name)
		}
	}

	if IsComponentTag(el.Tag) {
		return t.component(el, addr, dirs, done)
	}
	return t.plain(el, addr, dirs, done)
}

// with returns a copy of done including name
func with(done map[string]bool, name string) map[string]bool {
	out := make(map[string]bool, len(done)+1)
	for k := range done {
		out[k] = true
	}
	out[name] = true
	return out
}

func (t *transformer) plain(el *Element, addr Address, dirs []Directive, done map[string]bool) error {
	ref := &nodeRef{t: t, addr: addr}

	if err := t.openTag(el, ref); err != nil {
		return err
	}
	t.augment(dirs, done, ref)

	if dom.IsVoid(el.Tag) {
		if hasContent(el.Children) {
			return &Error{Kind: KindParse, Loc: el.Loc, Msg: fmt.Sprintf("void element <%s> cannot have children", el.Tag)}
		}
		return nil
	}

	if err := t.children(el.Children, ref.base()); err != nil {
		return err
	}
	t.html.WriteString("</" + el.Tag + ">")
	return nil
}

// openTag writes "<tag attrs>" and emits the attribute bindings
func (t *transformer) openTag(el *Element, ref *nodeRef) error {
	t.html.WriteString("<" + el.Tag)
	for _, a := range el.Attrs {
		if err := t.attribute(a, ref); err != nil {
			return err
		}
	}
	t.html.WriteString(">")
	return nil
}

// augment emits the non-structural directives of an element
func (t *transformer) augment(dirs []Directive, done map[string]bool, ref *nodeRef) {
	for _, d := range dirs {
		if done[d.Name] {
			continue
		}
		switch d.Kind {
		case DirectiveWhen:
			state := t.uid.next("when")
			t.script.line("let %s = null", state)
			t.effect(fmt.Sprintf("%s = _$.when(%s, !!(%s), %s)", state, ref.name(), d.Expr, state))
		case DirectiveRef:
			t.effect(fmt.Sprintf("_$.ref(%s, (%s))", ref.name(), d.Expr))
		}
	}
}

// children emits a child list. Consecutive text and expression children
// form one run that becomes a single DOM text node.
func (t *transformer) children(nodes []Node, parent Address) error {
	var runs [][]Node
	var buf []Node
	flush := func() {
		if len(buf) > 0 {
			runs = append(runs, buf)
			buf = nil
		}
	}
	for _, n := range nodes {
		switch n.(type) {
		case *Text, *Expr:
			buf = append(buf, n)
		default:
			flush()
			runs = append(runs, []Node{n})
		}
	}
	flush()

	cur := parent
	first := true
	for _, run := range runs {
		if isEmptyRun(run) {
			continue
		}
		if first {
			cur = cur.First()
			first = false
		} else {
			cur = cur.Next()
		}

		if el, ok := run[0].(*Element); ok {
			if err := t.element(el, cur, nil); err != nil {
				var cerr *Error
				if errors.As(err, &cerr) && cerr.Loc.IsZero() {
					cerr.Loc = el.Loc
				}
				return err
			}
			continue
		}
		t.textRun(run, cur)
	}
	return nil
}

func isEmptyRun(run []Node) bool {
	for _, n := range run {
		switch x := n.(type) {
		case *Text:
			if x.Value != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// hasContent reports whether nodes hold anything but whitespace text
func hasContent(nodes []Node) bool {
	for _, n := range nodes {
		if txt, ok := n.(*Text); !ok || strings.TrimSpace(txt.Value) != "" {
			return true
		}
	}
	return false
}

var textEscaper = strings.NewReplacer("<", "&lt;")

// textRun writes a run of text and expressions. Static runs go to the
// template verbatim; a run with an expression gets a placeholder space
// and one effect assigning the concatenation.
func (t *transformer) textRun(run []Node, addr Address) {
	var pieces []string
	dynamic := false
	for _, n := range run {
		switch x := n.(type) {
		case *Text:
			t.html.WriteString(textEscaper.Replace(x.Value))
			pieces = append(pieces, jsString(decodeEntities(x.Value)))
		case *Expr:
			dynamic = true
			pieces = append(pieces, "String("+x.Code+")")
		}
	}
	if !dynamic {
		return
	}

	t.html.WriteString(" ")
	id := t.declare(addr, "text")
	t.effect(fmt.Sprintf("%s.nodeValue = %s", id, strings.Join(pieces, " + ")))
}
