package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoid reports whether tag is an HTML void element
func IsVoid(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// renderer writes nodes as HTML, tracking the first write error
type renderer struct {
	w   io.Writer
	err error
}

func (r *renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
}

func (r *renderer) node(n *Node, raw bool) {
	if r.err != nil {
		return
	}
	switch n.Kind {
	case TextNode:
		if raw {
			r.write(n.Data)
		} else {
			r.write(html.EscapeString(n.Data))
		}
	case CommentNode:
		r.write("<!--")
		r.write(n.Data)
		r.write("-->")
	case FragmentNode:
		r.children(n, raw)
	case ElementNode:
		r.element(n)
	}
}

func (r *renderer) children(n *Node, raw bool) {
	for c := n.first; c != nil; c = c.next {
		r.node(c, raw)
	}
}

func (r *renderer) element(n *Node) {
	r.write("<")
	r.write(n.Tag)
	for _, a := range n.attrs {
		r.write(" ")
		r.write(a.Name)
		if a.Value == "" {
			continue
		}
		r.write(`="`)
		r.write(html.EscapeString(a.Value))
		r.write(`"`)
	}
	r.write(">")

	if voidElements[n.Tag] {
		return
	}

	if n.Content != nil {
		r.children(n.Content, false)
	}
	// Script and style content is not escaped
	r.children(n, n.Tag == "script" || n.Tag == "style")

	r.write("</")
	r.write(n.Tag)
	r.write(">")
}

// Render writes n as HTML
func Render(w io.Writer, n *Node) error {
	r := &renderer{w: w}
	r.node(n, false)
	return r.err
}

// String renders n as HTML
func (n *Node) String() string {
	var sb strings.Builder
	_ = Render(&sb, n)
	return sb.String()
}

// InnerHTML renders n's children as HTML
func (n *Node) InnerHTML() string {
	var sb strings.Builder
	r := &renderer{w: &sb}
	r.children(n, n.Tag == "script" || n.Tag == "style")
	return sb.String()
}
