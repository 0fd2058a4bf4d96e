package hydrate

import (
	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
)

// IfBinding tracks a conditional element
type IfBinding struct {
	Element *dom.Node
	Marker  *dom.Node

	shown  bool
	swaps  int
	effect *reactive.Effect
}

// Shown reports whether the element is currently in the document
func (b *IfBinding) Shown() bool { return b.shown }

// Swaps counts DOM swaps caused by condition changes after hydration
func (b *IfBinding) Swaps() int { return b.swaps }

// If replaces tpl with a clone of its first content element and keeps a
// comment marker for the hidden state. setup binds the clone before it
// is placed. The element and marker swap only when the condition flips.
func (c *Context) If(tpl *dom.Node, cond func(f *reactive.Frame) bool, setup func(c *Context, el *dom.Node)) *IfBinding {
	b := &IfBinding{Marker: dom.NewComment("if")}
	if tpl.Content != nil {
		if first := tpl.Content.FirstElementChild(); first != nil {
			b.Element = first.CloneNode(true)
		}
	}
	if b.Element == nil {
		b.Element = dom.NewComment("if-empty")
	}
	if setup != nil {
		setup(c, b.Element)
	}

	tpl.ReplaceWith(b.Element)
	b.shown = true

	first := true
	b.effect = c.Effect(func(f *reactive.Frame) {
		v := cond(f)
		if v == b.shown {
			first = false
			return
		}
		if v {
			b.Marker.ReplaceWith(b.Element)
		} else {
			b.Element.ReplaceWith(b.Marker)
		}
		b.shown = v
		if !first {
			b.swaps++
		}
		first = false
	})
	return b
}
