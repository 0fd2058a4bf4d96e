// Package hydrate is the Go runtime of the binding contract emitted by the
// compiler. Each binding mirrors one helper of the JavaScript runtime and
// operates on a pkg/dom tree, so compiled templates can be hydrated and
// exercised without a browser.
package hydrate

import (
	"fmt"

	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
	"github.com/recera/pria/pkg/scheduler"
)

// Context carries the scheduler and owner every binding created through
// it is attached to. It replaces the implicit "current parent" and
// "current owner" globals of the JavaScript runtime.
type Context struct {
	sched scheduler.Scheduler
	owner *reactive.Owner
}

// NewContext creates a root context. A nil scheduler runs effects inline.
func NewContext(sched scheduler.Scheduler) *Context {
	return &Context{sched: sched, owner: reactive.NewOwner()}
}

// Scheduler returns the context's scheduler
func (c *Context) Scheduler() scheduler.Scheduler {
	return c.sched
}

// Owner returns the owner of the context's effects
func (c *Context) Owner() *reactive.Owner {
	return c.owner
}

// Child creates a context disposed together with c
func (c *Context) Child() *Context {
	return &Context{sched: c.sched, owner: c.owner.Child()}
}

// Dispose disposes every effect created through c and its children
func (c *Context) Dispose() {
	c.owner.Dispose()
}

// Effect creates an effect owned by c
func (c *Context) Effect(fn reactive.EffectFunc, opts ...reactive.EffectOption) *reactive.Effect {
	opts = append(opts, reactive.WithOwner(c.owner))
	return reactive.NewEffect(c.sched, fn, opts...)
}

// Instantiate parses a compiled template and returns its root element,
// the node generated scripts receive as their parent anchor.
func Instantiate(template string) (*dom.Node, error) {
	frag, err := dom.ParseHTML(template)
	if err != nil {
		return nil, err
	}
	root := frag.FirstElementChild()
	if root == nil {
		return nil, fmt.Errorf("hydrate: template has no root element")
	}
	return root, nil
}

// Component is a hydration entry point: it receives the node the
// component's markup starts at and its props.
type Component func(c *Context, root *dom.Node, props map[string]any)

// Mount hydrates a child component at root with its own owner
func (c *Context) Mount(root *dom.Node, comp Component, props map[string]any) *Context {
	child := c.Child()
	if props == nil {
		props = map[string]any{}
	}
	comp(child, root, props)
	return child
}
