package dom

import "strings"

// GetAttribute returns the value of the named attribute
func (n *Node) GetAttribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the attribute is present
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// SetAttribute sets or adds an attribute, keeping first-set order
func (n *Node) SetAttribute(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute deletes an attribute if present
func (n *Node) RemoveAttribute(name string) {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Attrs returns a copy of the attribute list
func (n *Node) Attrs() []Attr {
	return append([]Attr(nil), n.attrs...)
}

// Prop returns a JavaScript-style property such as an event handler
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// SetProp assigns a property. Assigning nil deletes it, like setting
// onclick to null.
func (n *Node) SetProp(name string, value any) {
	if value == nil {
		delete(n.props, name)
		return
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
}

// Style returns one inline style declaration
func (n *Node) Style(prop string) string {
	for _, decl := range parseStyle(n.attrs) {
		if decl.Name == prop {
			return decl.Value
		}
	}
	return ""
}

// SetStyle sets one inline style declaration; an empty value removes it
func (n *Node) SetStyle(prop, value string) {
	decls := parseStyle(n.attrs)
	found := false
	out := decls[:0]
	for _, decl := range decls {
		if decl.Name == prop {
			found = true
			if value == "" {
				continue
			}
			decl.Value = value
		}
		out = append(out, decl)
	}
	if !found && value != "" {
		out = append(out, Attr{Name: prop, Value: value})
	}

	if len(out) == 0 {
		n.RemoveAttribute("style")
		return
	}
	parts := make([]string, len(out))
	for i, decl := range out {
		parts[i] = decl.Name + ": " + decl.Value
	}
	n.SetAttribute("style", strings.Join(parts, "; "))
}

func parseStyle(attrs []Attr) []Attr {
	var style string
	for _, a := range attrs {
		if a.Name == "style" {
			style = a.Value
			break
		}
	}
	var decls []Attr
	for _, part := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		decls = append(decls, Attr{Name: name, Value: value})
	}
	return decls
}

// jsxNames maps JSX attribute spellings to HTML attribute names
var jsxNames = map[string]string{
	"className": "class",
	"htmlFor":   "for",
}

// AttrName returns the HTML attribute name for a JSX attribute key
func AttrName(key string) string {
	if name, ok := jsxNames[key]; ok {
		return name
	}
	return key
}

// AttrNames returns a copy of the JSX to HTML attribute renames
func AttrNames() map[string]string {
	out := make(map[string]string, len(jsxNames))
	for k, v := range jsxNames {
		out[k] = v
	}
	return out
}

// EventProp maps an event attribute key (onClick, on:click) to the DOM
// property name (onclick).
func EventProp(key string) (string, bool) {
	if rest, ok := strings.CutPrefix(key, "on:"); ok && rest != "" {
		return "on" + strings.ToLower(rest), true
	}
	if len(key) > 2 && strings.HasPrefix(key, "on") && key[2] >= 'A' && key[2] <= 'Z' {
		return strings.ToLower(key), true
	}
	return "", false
}

// Event is a dispatched DOM event
type Event struct {
	Type   string
	Target *Node
}

// Dispatch invokes the on<type> property handler. Handlers may be
// func() or func(*Event). It reports whether a handler ran.
func (n *Node) Dispatch(eventType string) bool {
	h, ok := n.props["on"+strings.ToLower(eventType)]
	if !ok {
		return false
	}
	switch fn := h.(type) {
	case func():
		fn()
	case func(*Event):
		fn(&Event{Type: eventType, Target: n})
	default:
		return false
	}
	return true
}
