package compiler

import (
	"fmt"

	"github.com/recera/pria/pkg/dom"
)

// attribute writes a static attribute or emits its binding
func (t *transformer) attribute(a Attr, ref *nodeRef) error {
	if a.IsDirective() {
		return nil
	}

	if a.Kind == AttrSpread {
		prev := t.uid.next("spread")
		t.script.line("let %s = null", prev)
		t.effect(fmt.Sprintf("%s = _$.spread(%s, (%s), %s)", prev, ref.name(), a.Value, prev))
		return nil
	}

	name := dom.AttrName(a.Name)

	switch a.Kind {
	case AttrBool:
		t.html.WriteString(" " + name)
		return nil
	case AttrLiteral:
		t.html.WriteString(" " + name + `="` + escapeAttr(decodeEntities(a.Value)) + `"`)
		return nil
	}

	if prop, ok := dom.EventProp(a.Name); ok {
		t.effect(fmt.Sprintf("const _$h = (%s)\n%s.%s = typeof _$h === \"function\" ? _$h : null", a.Value, ref.name(), prop))
		return nil
	}

	switch kind, value := foldLiteral(a.Value); kind {
	case literalBare:
		t.html.WriteString(" " + name)
	case literalOmit:
	case literalValue:
		t.html.WriteString(" " + name + `="` + escapeAttr(value) + `"`)
	default:
		t.effect(fmt.Sprintf("_$.setAttr(%s, %s, (%s))", ref.name(), jsString(name), a.Value))
	}
	return nil
}
