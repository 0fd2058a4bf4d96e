package compiler

import (
	"fmt"
	"strings"
)

// Import describes the binding of a local name to another module
type Import struct {
	// Spec is the module specifier as written
	Spec string
	// Name is the export name, "default" for default imports
	Name string
	// Path is the resolved absolute path, or Spec for bare specifiers
	Path string
}

// resolveDep classifies a component tag as imported or same-file
func (t *transformer) resolveDep(tag string) Dependency {
	if t.opts.ResolveImport != nil {
		if imp, ok := t.opts.ResolveImport(tag); ok {
			return Dependency{FilePath: imp.Path, Name: imp.Name}
		}
	}
	name := tag
	if t.opts.ResolveLocal != nil {
		if local, ok := t.opts.ResolveLocal(tag); ok {
			name = local
		}
	}
	return Dependency{FilePath: SelfFile, Name: name}
}

// component writes a placeholder for a child component and emits the
// call to its hydration entry point.
func (t *transformer) component(el *Element, addr Address, dirs []Directive, done map[string]bool) error {
	if hasContent(el.Children) {
		return &Error{Kind: KindParse, Loc: el.Loc, Msg: fmt.Sprintf("component <%s> cannot have children", el.Tag)}
	}

	dep := t.resolveDep(el.Tag)
	dep.Placeholder = t.uid.placeholder()
	t.deps = append(t.deps, dep)
	t.html.WriteString(dep.Placeholder)

	ref := &nodeRef{t: t, addr: addr}
	t.script.line("_$.setParent(%s)", ref.name())
	t.script.line("%s(%s)", el.Tag, props(el))

	t.augment(dirs, done, ref)
	return nil
}

// props builds the props object literal passed to a child component.
// Directives are never forwarded.
func props(el *Element) string {
	var parts []string
	for _, a := range el.Attrs {
		switch {
		case a.Kind == AttrSpread:
			parts = append(parts, "...("+a.Value+" || {})")
		case a.IsDirective():
		case a.Kind == AttrBool:
			parts = append(parts, jsString(a.Name)+": true")
		case a.Kind == AttrLiteral:
			parts = append(parts, jsString(a.Name)+": "+jsString(decodeEntities(a.Value)))
		default:
			parts = append(parts, jsString(a.Name)+": ("+a.Value+")")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
