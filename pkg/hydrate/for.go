package hydrate

import (
	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
)

// Range is one rendered list item: the siblings between a pair of
// comment markers plus the context owning its bindings.
type Range struct {
	First *dom.Node
	Last  *dom.Node
	ctx   *Context
}

// Nodes returns the nodes of the range in order
func (r Range) Nodes() []*dom.Node {
	var out []*dom.Node
	for n := r.First; n != nil; n = n.NextSibling() {
		out = append(out, n)
		if n == r.Last {
			break
		}
	}
	return out
}

// ForBinding tracks a mounted list
type ForBinding struct {
	Host   *dom.Node
	Anchor *dom.Node

	ranges []Range
	mounts int
	effect *reactive.Effect
}

// Ranges returns the current item ranges
func (b *ForBinding) Ranges() []Range {
	return append([]Range(nil), b.ranges...)
}

// Mounts counts every item mount since hydration, including the initial
// render.
func (b *ForBinding) Mounts() int { return b.mounts }

// Builder populates root, a fresh clone of the loop body, for one item
type Builder[T any] func(c *Context, root *dom.Node, item T) *dom.Node

// For renders the loop body once per item of source inside host. The
// body is taken from host's <template> child, which is removed, and a
// trailing comment anchors the list. Array descriptors are applied
// minimally; a run without a descriptor replaces everything. A source
// that is not a []T renders as empty.
func For[T any](c *Context, host *dom.Node, source func(f *reactive.Frame) any, build Builder[T]) *ForBinding {
	tpl := host.Find("template")
	body := dom.NewFragment()
	if tpl != nil && tpl.Parent() == host {
		body = tpl.Content
		tpl.Remove()
	}

	b := &ForBinding{Host: host, Anchor: dom.NewComment("for")}
	host.AppendChild(b.Anchor)

	mount := func(item T, before *dom.Node) Range {
		ctx := c.Child()
		root := body.CloneNode(true)
		if built := build(ctx, root, item); built != nil {
			root = built
		}
		// bindings inside the body may swap its outer nodes, so the
		// range is delimited by its own comments
		r := Range{First: dom.NewComment("for-item"), Last: dom.NewComment("/for-item"), ctx: ctx}
		host.InsertBefore(r.First, before)
		host.InsertBefore(root, before)
		host.InsertBefore(r.Last, before)
		b.mounts++
		return r
	}

	unmount := func(r Range) {
		for _, n := range r.Nodes() {
			n.Remove()
		}
		r.ctx.Dispose()
	}

	replaceAll := func(items []T) {
		for _, r := range b.ranges {
			unmount(r)
		}
		b.ranges = b.ranges[:0]
		for _, item := range items {
			b.ranges = append(b.ranges, mount(item, b.Anchor))
		}
	}

	mounted := false
	b.effect = c.Effect(func(f *reactive.Frame) {
		items, _ := source(f).([]T)
		change := f.Change()
		if !mounted || change == nil {
			mounted = true
			replaceAll(items)
			return
		}

		i := change.Index
		switch change.Kind {
		case reactive.ChangePush:
			if i != len(b.ranges) || i >= len(items) {
				return
			}
			b.ranges = append(b.ranges, mount(items[i], b.Anchor))
		case reactive.ChangeSetAt:
			if i < 0 || i >= len(b.ranges) || i >= len(items) {
				return
			}
			old := b.ranges[i]
			b.ranges[i] = mount(items[i], old.First)
			unmount(old)
		case reactive.ChangeRemove:
			if i < 0 || i >= len(b.ranges) {
				return
			}
			unmount(b.ranges[i])
			b.ranges = append(b.ranges[:i], b.ranges[i+1:]...)
		default:
			replaceAll(items)
		}
	})
	return b
}
