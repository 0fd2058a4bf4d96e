package hydrate

import (
	"fmt"
	"strconv"

	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
)

// Stringify coerces a value the way the generated String(...) calls do
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Text binds a text node's value to the concatenation produced by fn
func (c *Context) Text(node *dom.Node, fn func(f *reactive.Frame) string) *reactive.Effect {
	return c.Effect(func(f *reactive.Frame) {
		node.Data = fn(f)
	})
}

// SetAttr removes the attribute for false and nil, sets it empty for
// true and stringifies anything else.
func SetAttr(el *dom.Node, name string, v any) {
	switch x := v.(type) {
	case nil:
		el.RemoveAttribute(name)
	case bool:
		if x {
			el.SetAttribute(name, "")
		} else {
			el.RemoveAttribute(name)
		}
	default:
		el.SetAttribute(name, Stringify(v))
	}
}

// Attr binds one attribute to fn
func (c *Context) Attr(el *dom.Node, name string, fn func(f *reactive.Frame) any) *reactive.Effect {
	return c.Effect(func(f *reactive.Frame) {
		SetAttr(el, name, fn(f))
	})
}

func callable(v any) bool {
	switch v.(type) {
	case func(), func(*dom.Event):
		return true
	}
	return false
}

// Event binds an event handler property. Values that are not callable
// clear the property.
func (c *Context) Event(el *dom.Node, prop string, fn func(f *reactive.Frame) any) *reactive.Effect {
	return c.Effect(func(f *reactive.Frame) {
		h := fn(f)
		if !callable(h) {
			h = nil
		}
		el.SetProp(prop, h)
	})
}

// Spread applies a props object to el, removing keys that were present on
// the previous run but are gone now. Event keys are set and cleared as
// properties; className and htmlFor write class and for.
func (c *Context) Spread(el *dom.Node, fn func(f *reactive.Frame) map[string]any) *reactive.Effect {
	var prev map[string]bool
	return c.Effect(func(f *reactive.Frame) {
		next := fn(f)
		seen := make(map[string]bool, len(next))
		for key, v := range next {
			if prop, ok := dom.EventProp(key); ok {
				seen[key] = true
				if !callable(v) {
					v = nil
				}
				el.SetProp(prop, v)
				continue
			}
			seen[dom.AttrName(key)] = true
			SetAttr(el, dom.AttrName(key), v)
		}
		for key := range prev {
			if seen[key] {
				continue
			}
			if prop, ok := dom.EventProp(key); ok {
				el.SetProp(prop, nil)
			} else {
				el.RemoveAttribute(key)
			}
		}
		prev = seen
	})
}

// Ref is an object ref; bound elements are assigned to Current
type Ref struct {
	Current *dom.Node
}

// Ref hands el to the value of fn on every run: functions are called,
// *Ref values have Current assigned.
func (c *Context) Ref(el *dom.Node, fn func(f *reactive.Frame) any) *reactive.Effect {
	return c.Effect(func(f *reactive.Frame) {
		switch r := fn(f).(type) {
		case func(*dom.Node):
			r(el)
		case *Ref:
			if r != nil {
				r.Current = el
			}
		}
	})
}

// When toggles display:none, restoring the inline display value el had
// before it was first hidden.
func (c *Context) When(el *dom.Node, fn func(f *reactive.Frame) bool) *reactive.Effect {
	saved := ""
	hidden := false
	return c.Effect(func(f *reactive.Frame) {
		show := fn(f)
		switch {
		case !show && !hidden:
			saved = el.Style("display")
			el.SetStyle("display", "none")
			hidden = true
		case show && hidden:
			el.SetStyle("display", saved)
			hidden = false
		}
	})
}
