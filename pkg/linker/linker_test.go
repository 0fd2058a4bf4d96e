package linker

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/pria/pkg/compiler"
)

func ph(n int) string {
	return fmt.Sprintf("%s%d%s", compiler.PlaceholderPrefix, n, compiler.PlaceholderSuffix)
}

func self(name string, n int) compiler.Dependency {
	return compiler.Dependency{FilePath: compiler.SelfFile, Name: name, Placeholder: ph(n)}
}

func cross(path, name string, n int) compiler.Dependency {
	return compiler.Dependency{FilePath: path, Name: name, Placeholder: ph(n)}
}

func comp(html string, deps ...compiler.Dependency) *compiler.Component {
	return &compiler.Component{HTML: html, Deps: deps, Exported: true}
}

func module(path string, comps map[string]*compiler.Component) *compiler.Module {
	m := &compiler.Module{Path: path, Components: comps}
	for name := range comps {
		m.Order = append(m.Order, name)
	}
	sort.Strings(m.Order)
	return m
}

// modules is an in-memory Loader counting loads per path
type modules struct {
	byPath map[string]*compiler.Module
	loads  map[string]int
}

func newModules(mods ...*compiler.Module) *modules {
	m := &modules{byPath: map[string]*compiler.Module{}, loads: map[string]int{}}
	for _, mod := range mods {
		m.byPath[mod.Path] = mod
	}
	return m
}

func (m *modules) Load(path string) (*compiler.Module, error) {
	m.loads[path]++
	mod, ok := m.byPath[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return mod, nil
}

func TestExpand_Nested(t *testing.T) {
	b := module("/src/b.jsx", map[string]*compiler.Component{
		"default": comp("<i>"+ph(0)+"</i>", self("Leaf", 0)),
		"Leaf":    comp("<u>leaf</u>"),
	})
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App":   comp("<div>"+ph(0)+ph(1)+"</div>", self("Title", 0), cross("/src/b.jsx", "default", 1)),
		"Title": comp("<h1>t</h1>"),
	})

	l := New(newModules(a, b), Options{})
	html, err := l.Expand(a, "App")
	require.NoError(t, err)
	assert.Equal(t, "<div><h1>t</h1><i><u>leaf</u></i></div>", html)
}

func TestExpand_Idempotent(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App":  comp("<main>"+ph(0)+ph(1)+"</main>", self("Item", 0), self("Item", 1)),
		"Item": comp("<li>x</li>"),
	})
	l := New(nil, Options{})

	first, err := l.Expand(a, "App")
	require.NoError(t, err)
	second, err := l.Expand(a, "App")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "<main><li>x</li><li>x</li></main>", first)
	assert.Equal(t, "<main>"+ph(0)+ph(1)+"</main>", a.Components["App"].HTML)
}

func TestExpand_Cycle(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"A": comp("<a>"+ph(0)+"</a>", cross("/src/b.jsx", "B", 0)),
	})
	b := module("/src/b.jsx", map[string]*compiler.Component{
		"B": comp("<b>"+ph(0)+"</b>", cross("/src/a.jsx", "A", 0)),
	})

	_, err := New(newModules(a, b), Options{}).Expand(a, "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrCycle))

	var cerr *compiler.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"/src/a.jsx::A", "/src/b.jsx::B", "/src/a.jsx::A"}, cerr.Chain)
}

func TestExpand_SelfReference(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"Tree": comp("<ul>"+ph(0)+"</ul>", self("Tree", 0)),
	})
	_, err := New(nil, Options{}).Expand(a, "Tree")
	assert.True(t, errors.Is(err, compiler.ErrCycle))
}

// chain builds C0 -> C1 -> ... -> Cn in one module
func chain(n int) *compiler.Module {
	comps := map[string]*compiler.Component{}
	for i := 0; i < n; i++ {
		comps[fmt.Sprintf("C%d", i)] = comp("<p>"+ph(0)+"</p>", self(fmt.Sprintf("C%d", i+1), 0))
	}
	comps[fmt.Sprintf("C%d", n)] = comp("<b>end</b>")
	return module("/src/chain.jsx", comps)
}

func TestExpand_DepthBoundary(t *testing.T) {
	l := New(nil, Options{MaxDepth: 3})

	html, err := l.Expand(chain(3), "C0")
	require.NoError(t, err)
	assert.Equal(t, "<p><p><p><b>end</b></p></p></p>", html)

	_, err = l.Expand(chain(4), "C0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrDepthExceeded))
	assert.False(t, errors.Is(err, compiler.ErrCycle))
}

func TestExpand_DeepAcyclicWithinDefaults(t *testing.T) {
	html, err := New(nil, Options{}).Expand(chain(DefaultMaxDepth), "C0")
	require.NoError(t, err)
	assert.Contains(t, html, "<b>end</b>")
}

func TestExpand_DiamondExpandsSharedChildOnce(t *testing.T) {
	e := module("/src/e.jsx", map[string]*compiler.Component{"default": comp("<em>e</em>")})
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"A": comp("<div>"+ph(0)+ph(1)+"</div>", self("B", 0), self("C", 1)),
		"B": comp("<b>"+ph(0)+"</b>", self("D", 0)),
		"C": comp("<i>"+ph(0)+"</i>", self("D", 0)),
		"D": comp("<span>"+ph(0)+"</span>", cross("/src/e.jsx", "default", 0)),
	})
	loader := newModules(a, e)

	html, err := New(loader, Options{}).Expand(a, "A")
	require.NoError(t, err)
	assert.Equal(t, "<div><b><span><em>e</em></span></b><i><span><em>e</em></span></i></div>", html)
	assert.Equal(t, 1, loader.loads["/src/e.jsx"])
}

func TestExpand_Budget(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"List": comp("<ul>"+ph(0)+ph(1)+ph(2)+ph(3)+ph(4)+"</ul>",
			self("Item", 0), self("Item", 1), self("Item", 2), self("Item", 3), self("Item", 4)),
		"Item": comp("<li></li>"),
	})

	_, err := New(nil, Options{MaxExpansions: 6}).Expand(a, "List")
	assert.NoError(t, err)

	_, err = New(nil, Options{MaxExpansions: 5}).Expand(a, "List")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrBudgetExceeded))
	assert.Contains(t, err.Error(), "evaded direct detection")
}

func TestExpand_LegacyTagShim(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App": comp("<div><Card/><Card/></div>",
			compiler.Dependency{FilePath: compiler.SelfFile, Name: "Card"},
			compiler.Dependency{FilePath: compiler.SelfFile, Name: "Card"}),
		"Card": comp("<p>c</p>"),
	})
	html, err := New(nil, Options{}).Expand(a, "App")
	require.NoError(t, err)
	assert.Equal(t, "<div><p>c</p><p>c</p></div>", html)
}

func TestExpand_SubstitutesFirstOccurrence(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App":  comp("<div>"+ph(0)+"|"+ph(0)+"</div>", self("Item", 0)),
		"Item": comp("<li/>"),
	})
	html, err := New(nil, Options{}).Expand(a, "App")
	require.NoError(t, err)
	assert.Equal(t, "<div><li/>|"+ph(0)+"</div>", html)
}

func TestExpand_MissingDependencies(t *testing.T) {
	b := module("/src/b.jsx", map[string]*compiler.Component{
		"One": comp("<p>1</p>"),
		"Two": comp("<p>2</p>"),
	})
	tests := []struct {
		name string
		dep  compiler.Dependency
	}{
		{"same file", self("Ghost", 0)},
		{"missing export", cross("/src/b.jsx", "Three", 0)},
		{"missing file", cross("/src/nope.jsx", "default", 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := module("/src/a.jsx", map[string]*compiler.Component{"App": comp("<div>"+ph(0)+"</div>", tt.dep)})
			_, err := New(newModules(a, b), Options{}).Expand(a, "App")
			require.Error(t, err)
			assert.True(t, errors.Is(err, compiler.ErrMissingDependency), err.Error())
		})
	}

	a := module("/src/a.jsx", map[string]*compiler.Component{"App": comp("<div>"+ph(0)+"</div>", cross("/src/nope.jsx", "default", 0))})
	_, err := New(newModules(a), Options{}).Expand(a, "App")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExpand_MissingMarker(t *testing.T) {
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App":  comp("<div>edited by hand</div>", self("Card", 0)),
		"Card": comp("<p>c</p>"),
	})
	_, err := New(nil, Options{}).Expand(a, "App")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrMissingDependency), err.Error())
	assert.Contains(t, err.Error(), "Card")

	legacy := module("/src/b.jsx", map[string]*compiler.Component{
		"App":  comp("<div></div>", compiler.Dependency{FilePath: compiler.SelfFile, Name: "Card"}),
		"Card": comp("<p>c</p>"),
	})
	_, err = New(nil, Options{}).Expand(legacy, "App")
	assert.True(t, errors.Is(err, compiler.ErrMissingDependency))
}

func TestExpand_CrossFileNameFallback(t *testing.T) {
	only := module("/src/card.jsx", map[string]*compiler.Component{"Card": comp("<article/>")})
	a := module("/src/a.jsx", map[string]*compiler.Component{
		"App": comp("<div>"+ph(0)+"</div>", cross("/src/card.jsx", "default", 0)),
	})
	html, err := New(newModules(a, only), Options{}).Expand(a, "App")
	require.NoError(t, err)
	assert.Equal(t, "<div><article/></div>", html)
}

func TestResolveName(t *testing.T) {
	withDefault := module("/m.jsx", map[string]*compiler.Component{"default": comp("d"), "Other": comp("o")})
	single := module("/m.jsx", map[string]*compiler.Component{"Only": comp("o")})
	hidden := module("/m.jsx", map[string]*compiler.Component{"Only": comp("o"), "Helper": {HTML: "h"}})
	ambiguous := module("/m.jsx", map[string]*compiler.Component{"A": comp("a"), "B": comp("b")})

	tests := []struct {
		name   string
		mod    *compiler.Module
		want   string
		wantOK bool
	}{
		{"exact", withDefault, "Other", true},
		{"default", withDefault, "default", true},
		{"single", single, "Only", true},
		{"single export", hidden, "Only", true},
		{"ambiguous", ambiguous, "", false},
	}
	requests := map[string]string{"exact": "Other", "default": "Missing", "single": "Missing", "single export": "Missing", "ambiguous": "Missing"}

	for _, tt := range tests {
		got, ok := ResolveName(tt.mod, requests[tt.name])
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.name, tt.want, tt.wantOK, got, ok)
		}
	}

	_, err := New(nil, Options{}).Expand(ambiguous, "Missing")
	assert.True(t, errors.Is(err, compiler.ErrResolution))
}
