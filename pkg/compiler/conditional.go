package compiler

import "fmt"

// conditional emits an $if element. The element is rendered inside a
// <template>; the script clones it, puts it in the template's place and
// swaps it with a comment only when the condition's truthiness changes.
func (t *transformer) conditional(el *Element, addr Address, d Directive, done map[string]bool) error {
	tmpl := t.declare(addr, "tmpl")
	marker := t.uid.next("comment")
	elm := t.uid.next("el")
	prev := t.uid.next("prev")

	t.script.line(`const %s = document.createComment("if")`, marker)
	t.script.line("const %s = %s.content.cloneNode(true).f", elm, tmpl)
	t.script.line("%s.replaceWith(%s)", tmpl, elm)
	t.script.line("let %s = true", prev)

	t.html.WriteString("<template>")
	if err := t.element(el, RootAddress(elm), with(done, d.Name)); err != nil {
		return err
	}
	t.html.WriteString("</template>")

	t.effect(fmt.Sprintf(`const _$cond = !!(%s)
if (_$cond !== %[2]s) {
  if (_$cond) %[3]s.replaceWith(%[4]s)
  else %[4]s.replaceWith(%[3]s)
  %[2]s = _$cond
}`, d.Expr, prev, marker, elm))
	return nil
}
