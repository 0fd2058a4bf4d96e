package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/pria/pkg/compiler"
)

const appJSX = `import {
  useState
} from "pria"

export function Nav() {
  return <nav>
    Navbar here
    {50}
  </nav>
}

export function Header() {
  return <header>
    This is the header
    <Nav />
  </header>
}

export function App() {
  const [count, setCount] = useState(0)
  return <div class="flex h-screen">
    Hello
    <Header />
    {count() + 90 }
  </div>
}

export default App;
`

func names(src *compiler.Source) []string {
	var out []string
	for _, c := range src.Components {
		out = append(out, c.Name)
	}
	return out
}

func TestParseFile_Components(t *testing.T) {
	src, err := ParseFile("/src/App.jsx", []byte(appJSX))
	require.NoError(t, err)

	assert.Equal(t, []string{"Nav", "Header", "App", "default"}, names(src))
	for _, c := range src.Components {
		assert.True(t, c.Exported, c.Name)
	}

	nav := src.Components[0]
	assert.Equal(t, "Nav", nav.Local)
	assert.True(t, strings.HasPrefix(appJSX[nav.Start:nav.End], "<nav>"))
	assert.True(t, strings.HasSuffix(appJSX[nav.Start:nav.End], "</nav>"))
	require.NotNil(t, nav.Root)
	assert.Equal(t, "nav", nav.Root.Tag)
	require.Len(t, nav.Root.Children, 3)
	assert.Equal(t, "\n    Navbar here\n    ", nav.Root.Children[0].(*compiler.Text).Value)
	assert.Equal(t, "50", nav.Root.Children[1].(*compiler.Expr).Code)
	assert.Equal(t, "\n  ", nav.Root.Children[2].(*compiler.Text).Value)
	assert.Equal(t, 6, nav.Loc.Line)

	header := src.Components[1].Root
	require.Len(t, header.Children, 3)
	child, ok := header.Children[1].(*compiler.Element)
	require.True(t, ok)
	assert.Equal(t, "Nav", child.Tag)
	assert.True(t, child.SelfClosing)

	app, def := src.Components[2], src.Components[3]
	assert.Equal(t, "App", def.Local)
	assert.Same(t, app.Root, def.Root)
	assert.Equal(t, app.Start, def.Start)
	require.Len(t, app.Root.Attrs, 1)
	assert.Equal(t, compiler.Attr{Name: "class", Kind: compiler.AttrLiteral, Value: "flex h-screen", Loc: app.Root.Attrs[0].Loc}, app.Root.Attrs[0])
	assert.Equal(t, "count() + 90", app.Root.Children[3].(*compiler.Expr).Code)
}

func TestParseFile_Imports(t *testing.T) {
	code := `import Header, { Item as Row, Other } from "./parts";
import { useState } from "pria";
import * as icons from "../icons.jsx";

export const App = () => <div><Header /><Row /><Other /></div>;
`
	src, err := ParseFile("/src/pages/app.jsx", []byte(code))
	require.NoError(t, err)

	assert.Equal(t, compiler.Import{Spec: "./parts", Name: "default", Path: "/src/pages/parts.jsx"}, src.Imports["Header"])
	assert.Equal(t, compiler.Import{Spec: "./parts", Name: "Item", Path: "/src/pages/parts.jsx"}, src.Imports["Row"])
	assert.Equal(t, compiler.Import{Spec: "./parts", Name: "Other", Path: "/src/pages/parts.jsx"}, src.Imports["Other"])
	assert.Equal(t, compiler.Import{Spec: "pria", Name: "useState", Path: "pria"}, src.Imports["useState"])
	_, ok := src.Imports["icons"]
	assert.False(t, ok)

	require.Len(t, src.ImportSpecs, 3)
	for _, spec := range src.ImportSpecs {
		assert.Equal(t, `"`+spec.Value+`"`, code[spec.Start:spec.End])
	}
	assert.Equal(t, "../icons.jsx", src.ImportSpecs[2].Value)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(code[src.ImportsEnd:]), "export const App"))
	assert.False(t, src.HasRuntimeImport)

	assert.Equal(t, []string{"App"}, names(src))
}

func TestParseFile_ExportForms(t *testing.T) {
	code := `import _$ from "pria/internal";

function Card() { return <section>card</section> }
function Badge() { return <b>new</b> }
function helper() { return 1 }

export { Card as Panel, Card };
export default () => <main><Panel /></main>;
`
	src, err := ParseFile("/src/a.jsx", []byte(code))
	require.NoError(t, err)
	assert.True(t, src.HasRuntimeImport)

	assert.Equal(t, []string{"Panel", "Card", "Badge", "default"}, names(src))

	byName := map[string]compiler.ComponentSource{}
	for _, c := range src.Components {
		byName[c.Name] = c
	}
	assert.Equal(t, "Card", byName["Panel"].Local)
	assert.False(t, byName["Badge"].Exported)
	assert.True(t, byName["default"].Exported)

	name, ok := src.ResolveLocal("Card")
	assert.True(t, ok)
	assert.Equal(t, "Card", name)
}

func TestParseFile_Attributes(t *testing.T) {
	code := `export function Form(props) {
  return <form $if={open()} disabled {...props} onClick={() => submit()} data-x="a &amp; b" on:input={handle}></form>
}
`
	src, err := ParseFile("/src/form.jsx", []byte(code))
	require.NoError(t, err)
	require.Len(t, src.Components, 1)

	got := src.Components[0].Root.Attrs
	require.Len(t, got, 6)

	want := []struct {
		name  string
		kind  compiler.AttrKind
		value string
	}{
		{"$if", compiler.AttrExpr, "open()"},
		{"disabled", compiler.AttrBool, ""},
		{"", compiler.AttrSpread, "props"},
		{"onClick", compiler.AttrExpr, "() => submit()"},
		{"data-x", compiler.AttrLiteral, "a &amp; b"},
		{"on:input", compiler.AttrExpr, "handle"},
	}
	for i, w := range want {
		assert.Equal(t, w.name, got[i].Name, "attr %d", i)
		assert.Equal(t, w.kind, got[i].Kind, "attr %d", i)
		assert.Equal(t, w.value, got[i].Value, "attr %d", i)
		assert.Equal(t, 2, got[i].Loc.Line, "attr %d", i)
	}
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
	}{
		{
			name:    "fragment",
			code:    "export const A = () => <><p>a</p></>;\n",
			message: "fragments",
		},
		{
			name:    "two roots",
			code:    "export function A(props) {\n  if (props.x) return <a>x</a>\n  return <b>y</b>\n}\n",
			message: "more than one JSX root",
		},
		{
			name:    "stray jsx",
			code:    "const banner = <p>hi</p>;\nexport function A() { return 1 }\n",
			message: "JSX outside a component",
		},
		{
			name:    "syntax",
			code:    "export function A() {\n  return <div>\n}\n",
			message: "syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile("/src/bad.jsx", []byte(tt.code))
			require.Error(t, err)
			assert.True(t, errors.Is(err, compiler.ErrParse))
			assert.Contains(t, err.Error(), tt.message)

			var cerr *compiler.Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "/src/bad.jsx", cerr.File)
			assert.Greater(t, cerr.Loc.Line, 0)
		})
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		from, spec, want string
	}{
		{"/src/app.jsx", "./header", "/src/header.jsx"},
		{"/src/app.jsx", "./header.jsx", "/src/header.jsx"},
		{"/src/pages/app.jsx", "../lib/card.js", "/src/lib/card.js"},
		{"/src/app.jsx", "/abs/x.jsx", "/abs/x.jsx"},
		{"/src/app.jsx", "pria", "pria"},
		{"/src/app.jsx", "pria/internal", "pria/internal"},
	}
	for _, tt := range tests {
		if got := ResolveRelative(tt.from, tt.spec); got != tt.want {
			t.Errorf("ResolveRelative(%q, %q): expected %q, got %q", tt.from, tt.spec, tt.want, got)
		}
	}
}

func TestWithResolver(t *testing.T) {
	code := "import Card from \"@ui/card\";\nexport const A = () => <div><Card /></div>;\n"
	src, err := ParseFile("/src/a.jsx", []byte(code), WithResolver(func(from, spec string) string {
		return "/vendor/" + strings.TrimPrefix(spec, "@") + ".jsx"
	}))
	require.NoError(t, err)
	assert.Equal(t, "/vendor/ui/card.jsx", src.Imports["Card"].Path)
}

func TestParseAndCompile(t *testing.T) {
	src, err := ParseFile("/src/App.jsx", []byte(appJSX))
	require.NoError(t, err)

	mod, err := compiler.CompileModule(src, compiler.ModuleOptions{})
	require.NoError(t, err)

	app, ok := mod.Component("default")
	require.True(t, ok)
	assert.Equal(t, []compiler.Dependency{
		{FilePath: compiler.SelfFile, Name: "Header", Placeholder: "<!--__PRIA_CMP_0__-->"},
	}, app.Deps)
	assert.True(t, strings.HasPrefix(app.HTML, `<div class="flex h-screen">`+"\n    Hello\n    <!--__PRIA_CMP_0__-->"))

	header, ok := mod.Component("Header")
	require.True(t, ok)
	assert.Equal(t, "Nav", header.Deps[0].Name)

	assert.Equal(t, 1, strings.Count(mod.Script, `import _$ from "pria/internal";`))
	assert.Equal(t, 3, strings.Count(mod.Script, "_$.getParent()"))
	assert.Contains(t, mod.Script, "export default App;")
	assert.NotContains(t, mod.Script, "<nav>")
	assert.Contains(t, mod.Script, "String(count() + 90)")
}

func TestParseFile_WhitespaceAroundTags(t *testing.T) {
	code := "export function List() {\n  return <p>\n    <b />  {a}\n  <i>x</i>\n</p>\n}\n"
	src, err := ParseFile("/src/List.jsx", []byte(code))
	require.NoError(t, err)
	root := src.Components[0].Root

	var kinds []string
	for _, c := range root.Children {
		switch c := c.(type) {
		case *compiler.Text:
			kinds = append(kinds, "text:"+c.Value)
		case *compiler.Expr:
			kinds = append(kinds, "expr:"+c.Code)
		case *compiler.Element:
			kinds = append(kinds, "el:"+c.Tag)
		}
	}
	assert.Equal(t, []string{"text:\n    ", "el:b", "text:  ", "expr:a", "text:\n  ", "el:i", "text:\n"}, kinds)

	b := root.Children[1].(*compiler.Element)
	assert.Equal(t, compiler.Loc{Line: 3, Column: 5}, b.Loc)
}
