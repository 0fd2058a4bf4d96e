package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
)

var loopPattern = regexp.MustCompile(`^(?:\(\s*([A-Za-z_$][\w$]*)\s*\)|([A-Za-z_$][\w$]*))\s+(?:in|of)\s+([\s\S]+)$`)

var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "let": true, "new": true,
	"null": true, "of": true, "return": true, "static": true, "super": true,
	"switch": true, "this": true, "throw": true, "true": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true,
}

// Loop is a parsed $for expression
type Loop struct {
	Item   string
	Source string
}

// ParseLoop parses "item in expr", "item of expr" or "(item) in expr"
func ParseLoop(expr string) (Loop, error) {
	m := loopPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Loop{}, &Error{Kind: KindParse, Expr: expr, Msg: `invalid $for expression, use "item in items"`}
	}
	item := m[1]
	if item == "" {
		item = m[2]
	}
	if reservedWords[item] {
		return Loop{}, &Error{Kind: KindParse, Expr: expr, Msg: fmt.Sprintf("$for item name %q is a reserved word", item)}
	}
	return Loop{Item: item, Source: strings.TrimSpace(m[3])}, nil
}

// loop emits a $for host element. The loop body is written once inside a
// <template> and compiled into a builder function; the effect applies
// array change descriptors to the rendered item ranges.
func (t *transformer) loop(el *Element, addr Address, d Directive, done map[string]bool) error {
	if IsComponentTag(el.Tag) {
		return &Error{Kind: KindParse, Loc: d.Loc, Expr: d.Expr, Msg: fmt.Sprintf("$for on <%s> needs a host element", el.Tag)}
	}
	if dom.IsVoid(el.Tag) {
		return &Error{Kind: KindParse, Loc: d.Loc, Expr: d.Expr, Msg: fmt.Sprintf("$for host <%s> cannot have children", el.Tag)}
	}
	lp, err := ParseLoop(d.Expr)
	if err != nil {
		if cerr, ok := err.(*Error); ok {
			cerr.Loc = d.Loc
		}
		return err
	}

	done = with(done, d.Name)
	dirs, _ := t.reg.directives(el)
	ref := &nodeRef{t: t, addr: addr}
	if err := t.openTag(el, ref); err != nil {
		return err
	}
	t.augment(dirs, done, ref)
	host := ref.name()

	create := t.uid.next("create")
	t.html.WriteString("<template>")
	t.script.open("function %s(_$root, %s) {", create, lp.Item)
	outer := t.anchors
	t.anchors = make(map[string]string)
	err = t.children(el.Children, RootAddress(RootAnchor))
	t.anchors = outer
	t.script.line("return _$root")
	t.script.close("}")
	if err != nil {
		return err
	}
	t.html.WriteString("</template></" + el.Tag + ">")

	tpl := t.uid.next("tmpl")
	ranges := t.uid.next("map")
	anchor := t.uid.next("comment")
	read := t.uid.next("read")
	unmount := t.uid.next("clear")
	mount := t.uid.next("mount")
	mounted := t.uid.next("mounted")

	w := t.script
	w.line("const %s = %s.f", tpl, host)
	w.line("%s.remove()", tpl)
	w.line("const %s = []", ranges)
	w.line(`const %s = document.createComment("for")`, anchor)
	w.line("%s.appendChild(%s)", host, anchor)

	w.open("function %s() {", read)
	w.line("const _$src = (%s)", lp.Source)
	w.line("return Array.isArray(_$src) ? _$src : []")
	w.close("}")

	w.open("function %s(_$range) {", unmount)
	w.line("let _$node = _$range.first")
	w.open("while (_$node) {")
	w.line("const _$next = _$node.nextSibling")
	w.line("_$node.remove()")
	w.line("if (_$node === _$range.last) break")
	w.line("_$node = _$next")
	w.close("}")
	w.line("_$.dispose(_$range.owner)")
	w.close("}")

	w.open("function %s(_$item, _$before) {", mount)
	w.line("const _$frag = %s.content.cloneNode(true)", tpl)
	w.line("const _$owner = _$.owned(() => %s(_$frag, _$item))", create)
	w.line(`const _$range = { first: document.createComment("for-item"), last: document.createComment("/for-item"), owner: _$owner }`)
	w.line("_$frag.prepend(_$range.first)")
	w.line("_$frag.append(_$range.last)")
	w.line("_$before.before(_$frag)")
	w.line("return _$range")
	w.close("}")

	w.line("let %s = false", mounted)
	t.effects++
	w.open("_$.useEffect((_$change) => {")
	w.line("const _$data = %s()", read)
	w.open("if (!%s || !_$change) {", mounted)
	w.line("%s = true", mounted)
	w.line("%s.forEach(%s)", ranges, unmount)
	w.line("%s.length = 0", ranges)
	w.line("_$data.forEach((_$item) => %s.push(%s(_$item, %s)))", ranges, mount, anchor)
	w.line("return")
	w.close("}")
	w.line("const _$i = _$change.index")
	w.open("switch (_$change.kind) {")
	w.open("case %s: {", jsString(string(reactive.ChangePush)))
	w.line("if (_$i !== %s.length || _$i >= _$data.length) return", ranges)
	w.line("%s.push(%s(_$data[_$i], %s))", ranges, mount, anchor)
	w.line("break")
	w.close("}")
	w.open("case %s: {", jsString(string(reactive.ChangeSetAt)))
	w.line("const _$old = %s[_$i]", ranges)
	w.line("if (!_$old || _$i >= _$data.length) return")
	w.line("%s[_$i] = %s(_$data[_$i], _$old.first)", ranges, mount)
	w.line("%s(_$old)", unmount)
	w.line("break")
	w.close("}")
	w.open("case %s: {", jsString(string(reactive.ChangeRemove)))
	w.line("const _$old = %s[_$i]", ranges)
	w.line("if (!_$old) return")
	w.line("%s(_$old)", unmount)
	w.line("%s.splice(_$i, 1)", ranges)
	w.line("break")
	w.close("}")
	w.open("default: {")
	w.line("%s.forEach(%s)", ranges, unmount)
	w.line("%s.length = 0", ranges)
	w.line("_$data.forEach((_$item) => %s.push(%s(_$item, %s)))", ranges, mount, anchor)
	w.close("}")
	w.close("}")
	w.close("})")
	return nil
}
