package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// DirectiveKind is the closed set of built-in directives. Everything
// else registered on a Registry is an extension.
type DirectiveKind uint8

const (
	DirectiveExtension DirectiveKind = iota
	DirectiveIf
	DirectiveFor
	DirectiveWhen
	DirectiveRef
)

// Built-in directive priorities; higher runs first
const (
	PriorityIf   = 100
	PriorityFor  = 90
	PriorityWhen = 10
	PriorityRef  = 10
)

// Structural reports whether the directive replaces default element
// emission.
func (k DirectiveKind) Structural() bool {
	return k == DirectiveIf || k == DirectiveFor
}

// Directive is a $-prefixed attribute attached to an element
type Directive struct {
	Name     string
	Expr     string
	Priority int
	Kind     DirectiveKind
	Loc      Loc
}

// Handler implements an extension directive. Transform returns true
// when it fully emitted the element, which skips default emission.
type Handler interface {
	Name() string
	Priority() int
	Transform(dc *DirectiveContext) (bool, error)
}

// Registry maps directive names to their kind and priority
type Registry struct {
	handlers map[string]Handler
}

var builtins = map[string]struct {
	kind     DirectiveKind
	priority int
}{
	"$if":   {DirectiveIf, PriorityIf},
	"$for":  {DirectiveFor, PriorityFor},
	"$when": {DirectiveWhen, PriorityWhen},
	"$ref":  {DirectiveRef, PriorityRef},
}

// NewRegistry creates a registry holding only the built-in directives
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds an extension directive. Names must start with $ and may
// not shadow a built-in or an existing extension.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if !strings.HasPrefix(name, "$") || len(name) < 2 {
		return fmt.Errorf("directive name %q must start with $", name)
	}
	if _, ok := builtins[name]; ok {
		return fmt.Errorf("directive %s is built in", name)
	}
	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("directive %s already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// directives extracts and orders the directives of el. Unknown names
// and directives without a value are parse failures.
func (r *Registry) directives(el *Element) ([]Directive, error) {
	var out []Directive
	seen := make(map[string]bool)
	for _, a := range el.Attrs {
		if !a.IsDirective() {
			continue
		}
		if seen[a.Name] {
			return nil, &Error{Kind: KindParse, Loc: a.Loc, Msg: fmt.Sprintf("duplicate directive %s on <%s>", a.Name, el.Tag)}
		}
		seen[a.Name] = true

		d := Directive{Name: a.Name, Expr: strings.TrimSpace(a.Value), Loc: a.Loc}
		if b, ok := builtins[a.Name]; ok {
			d.Kind, d.Priority = b.kind, b.priority
		} else if h, ok := r.handlers[a.Name]; ok {
			d.Kind, d.Priority = DirectiveExtension, h.Priority()
		} else {
			return nil, &Error{Kind: KindParse, Loc: a.Loc, Msg: fmt.Sprintf("unknown directive %s", a.Name)}
		}

		if a.Kind == AttrBool || d.Expr == "" {
			return nil, &Error{Kind: KindParse, Loc: a.Loc, Msg: fmt.Sprintf("directive %s requires a value", a.Name)}
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}

func (r *Registry) handler(name string) Handler {
	return r.handlers[name]
}

// DirectiveContext gives an extension handler access to the transform in
// progress for one element.
type DirectiveContext struct {
	Directive Directive
	Element   *Element
	// Address locates the element's position in the template
	Address Address

	t    *transformer
	done map[string]bool
}

// WriteHTML appends raw markup to the template
func (dc *DirectiveContext) WriteHTML(s string) {
	dc.t.html.WriteString(s)
}

// Emit appends one line to the hydration script
func (dc *DirectiveContext) Emit(format string, args ...any) {
	dc.t.script.line(format, args...)
}

// UID returns a fresh script identifier
func (dc *DirectiveContext) UID(prefix string) string {
	return dc.t.uid.next(prefix)
}

// Ref declares a variable holding the element's node and returns its name
func (dc *DirectiveContext) Ref() string {
	return dc.t.declare(dc.Address, "el")
}

// Bind emits an effect whose body is the given statements
func (dc *DirectiveContext) Bind(body string) {
	dc.t.effect(body)
}

// Render emits the element with the default rules, skipping this
// directive and any already handled. The element is addressed at addr.
func (dc *DirectiveContext) Render(addr Address) error {
	done := make(map[string]bool, len(dc.done)+1)
	for k := range dc.done {
		done[k] = true
	}
	done[dc.Directive.Name] = true
	return dc.t.element(dc.Element, addr, done)
}
