package dom

import "strings"

// Kind represents the type of a DOM node
type Kind uint8

const (
	// ElementNode is a tagged element
	ElementNode Kind = iota
	// TextNode holds character data
	TextNode
	// CommentNode is an HTML comment, used as a position marker
	CommentNode
	// FragmentNode is a parentless container whose children move on insert
	FragmentNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case FragmentNode:
		return "fragment"
	}
	return "unknown"
}

// Attr is a single element attribute
type Attr struct {
	Name  string
	Value string
}

// Node is a live DOM node. The tree is doubly linked like the browser DOM
// so bindings can splice sibling ranges in constant time.
type Node struct {
	Kind Kind

	// Tag is the lower-case element name (ElementNode only)
	Tag string

	// Data is the character data of text and comment nodes
	Data string

	// Content holds the inert children of a <template> element
	Content *Node

	attrs []Attr
	props map[string]any

	parent *Node
	first  *Node
	last   *Node
	prev   *Node
	next   *Node
}

// NewElement creates a detached element
func NewElement(tag string) *Node {
	n := &Node{Kind: ElementNode, Tag: strings.ToLower(tag)}
	if n.Tag == "template" {
		n.Content = NewFragment()
	}
	return n
}

// NewText creates a detached text node
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// NewComment creates a detached comment node
func NewComment(data string) *Node {
	return &Node{Kind: CommentNode, Data: data}
}

// NewFragment creates an empty document fragment
func NewFragment() *Node {
	return &Node{Kind: FragmentNode}
}

// Parent returns the parent node, or nil when detached
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, or nil
func (n *Node) FirstChild() *Node { return n.first }

// LastChild returns the last child, or nil
func (n *Node) LastChild() *Node { return n.last }

// NextSibling returns the next sibling, or nil
func (n *Node) NextSibling() *Node { return n.next }

// PrevSibling returns the previous sibling, or nil
func (n *Node) PrevSibling() *Node { return n.prev }

// Children returns a snapshot of the child list
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.first; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of children
func (n *Node) ChildCount() int {
	count := 0
	for c := n.first; c != nil; c = c.next {
		count++
	}
	return count
}

// AppendChild moves c to the end of n's children. Appending a fragment
// moves the fragment's children instead.
func (n *Node) AppendChild(c *Node) *Node {
	return n.InsertBefore(c, nil)
}

// InsertBefore moves c before ref, or to the end when ref is nil.
// Inserting a fragment moves the fragment's children and leaves it empty.
func (n *Node) InsertBefore(c, ref *Node) *Node {
	if ref != nil && ref.parent != n {
		panic("dom: reference node is not a child of this node")
	}
	if c.Kind == FragmentNode {
		for _, child := range c.Children() {
			n.InsertBefore(child, ref)
		}
		return c
	}
	if c == ref {
		return c
	}

	c.Remove()
	c.parent = n
	c.next = ref
	if ref == nil {
		c.prev = n.last
		if n.last != nil {
			n.last.next = c
		} else {
			n.first = c
		}
		n.last = c
		return c
	}

	c.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = c
	} else {
		n.first = c
	}
	ref.prev = c
	return c
}

// Remove detaches n from its parent. Detached nodes are left unchanged.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.last = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}

// Before inserts c immediately before n. No-op when n is detached.
func (n *Node) Before(c *Node) {
	if n.parent == nil {
		return
	}
	n.parent.InsertBefore(c, n)
}

// ReplaceWith puts c in n's position and detaches n. No-op when n is
// detached.
func (n *Node) ReplaceWith(c *Node) {
	if n.parent == nil || c == n {
		return
	}
	n.parent.InsertBefore(c, n)
	n.Remove()
}

// CloneNode copies n. Attributes and template content are copied; props
// such as event handlers are not, matching the browser.
func (n *Node) CloneNode(deep bool) *Node {
	c := &Node{Kind: n.Kind, Tag: n.Tag, Data: n.Data}
	if len(n.attrs) > 0 {
		c.attrs = append([]Attr(nil), n.attrs...)
	}
	if n.Content != nil {
		c.Content = n.Content.CloneNode(true)
	}
	if deep {
		for ch := n.first; ch != nil; ch = ch.next {
			c.AppendChild(ch.CloneNode(true))
		}
	}
	return c
}

// Walk follows a path of 'f' (first child) and 'n' (next sibling) steps.
// It returns nil if the path leaves the tree.
func (n *Node) Walk(path string) *Node {
	cur := n
	for i := 0; i < len(path) && cur != nil; i++ {
		switch path[i] {
		case 'f':
			cur = cur.first
		case 'n':
			cur = cur.next
		default:
			return nil
		}
	}
	return cur
}

// FirstElementChild returns the first child element, skipping text and
// comments.
func (n *Node) FirstElementChild() *Node {
	for c := n.first; c != nil; c = c.next {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// TextContent concatenates the data of every descendant text node
func (n *Node) TextContent() string {
	if n.Kind == TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.first; c != nil; c = c.next {
		if c.Kind == TextNode || c.Kind == ElementNode || c.Kind == FragmentNode {
			sb.WriteString(c.TextContent())
		}
	}
	return sb.String()
}

// Find returns the first descendant element with the given tag, in
// document order.
func (n *Node) Find(tag string) *Node {
	for c := n.first; c != nil; c = c.next {
		if c.Kind == ElementNode && c.Tag == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}
