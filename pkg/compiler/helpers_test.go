package compiler

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recera/pria/pkg/dom"
)

func el(tag string, attrs []Attr, children ...Node) *Element {
	return &Element{Tag: tag, Attrs: attrs, Children: children}
}

func txt(s string) *Text     { return &Text{Value: s} }
func expr(code string) *Expr { return &Expr{Code: code} }

func lit(name, value string) Attr { return Attr{Name: name, Kind: AttrLiteral, Value: value} }
func dyn(name, code string) Attr  { return Attr{Name: name, Kind: AttrExpr, Value: code} }
func flag(name string) Attr       { return Attr{Name: name, Kind: AttrBool} }
func spread(code string) Attr     { return Attr{Kind: AttrSpread, Value: code} }
func attrs(a ...Attr) []Attr      { return a }

func mustTransform(t *testing.T, root *Element, opts Options) *Component {
	t.Helper()
	comp, err := Transform(root, opts)
	require.NoError(t, err)
	return comp
}

var constDecl = regexp.MustCompile(`^\s*const (_\$\w+) = (_\$\w+)((?:\.[fn])*)$`)

// replay evaluates the address declarations of a script against the
// instantiated template and returns the node bound to each variable.
func replay(t *testing.T, html, script string) map[string]*dom.Node {
	t.Helper()
	frag, err := dom.ParseHTML(html)
	require.NoError(t, err)
	root := frag.FirstElementChild()
	require.NotNil(t, root)

	vars := map[string]*dom.Node{RootAnchor: root}
	for _, line := range strings.Split(script, "\n") {
		m := constDecl.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		base, ok := vars[m[2]]
		require.True(t, ok, "undeclared anchor %s", m[2])
		node := base.Walk(strings.ReplaceAll(m[3], ".", ""))
		require.NotNil(t, node, "address %s%s leaves the template", m[2], m[3])
		vars[m[1]] = node
	}
	return vars
}
