package compiler

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appSource = `import { useState } from "pria";
import Header from "./header.jsx";

function Badge() {
  return <b>new</b>;
}

export default function App() {
  const [count, setCount] = useState(0);
  return <div title={count()}><Header /><Badge /></div>;
}
`

// span returns the byte range of the first occurrence of s in code
func span(t *testing.T, code, s string) (int, int) {
	t.Helper()
	i := strings.Index(code, s)
	require.GreaterOrEqual(t, i, 0, "%q not found", s)
	return i, i + len(s)
}

func appSourceTree(t *testing.T) *Source {
	t.Helper()
	code := appSource

	badgeStart, badgeEnd := span(t, code, "<b>new</b>")
	appStart, appEnd := span(t, code, "<div title={count()}><Header /><Badge /></div>")
	priaStart, priaEnd := span(t, code, `"pria"`)
	hdrStart, hdrEnd := span(t, code, `"./header.jsx"`)
	_, importsEnd := span(t, code, `import Header from "./header.jsx";`)

	return &Source{
		Path: "/src/app.jsx",
		Code: []byte(code),
		Imports: map[string]Import{
			"useState": {Spec: "pria", Name: "useState", Path: "pria"},
			"Header":   {Spec: "./header.jsx", Name: "default", Path: "/src/header.jsx"},
		},
		ImportSpecs: []ImportSpec{
			{Value: "pria", Start: priaStart, End: priaEnd},
			{Value: "./header.jsx", Start: hdrStart, End: hdrEnd},
		},
		ImportsEnd: importsEnd,
		Components: []ComponentSource{
			{Name: "Badge", Local: "Badge", Root: el("b", nil, txt("new")), Start: badgeStart, End: badgeEnd},
			{Name: "default", Local: "App", Exported: true,
				Root:  el("div", attrs(dyn("title", "count()")), el("Header", nil), el("Badge", nil)),
				Start: appStart, End: appEnd},
		},
	}
}

func TestCompileModule(t *testing.T) {
	src := appSourceTree(t)

	mod, err := CompileModule(src, ModuleOptions{
		RewriteImport: func(spec string) string {
			if strings.HasSuffix(spec, ".jsx") {
				return strings.TrimSuffix(spec, ".jsx") + ".js"
			}
			return spec
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Badge", "default"}, mod.Order)
	assert.Equal(t, []string{"default"}, mod.Exports())

	app, ok := mod.Component("default")
	require.True(t, ok)
	assert.Equal(t, "<div><!--__PRIA_CMP_0__--><!--__PRIA_CMP_1__--></div>", app.HTML)
	assert.Equal(t, []Dependency{
		{FilePath: "/src/header.jsx", Name: "default", Placeholder: "<!--__PRIA_CMP_0__-->"},
		{FilePath: SelfFile, Name: "Badge", Placeholder: "<!--__PRIA_CMP_1__-->"},
	}, app.Deps)

	badge, ok := mod.Component("Badge")
	require.True(t, ok)
	assert.False(t, badge.Exported)
	assert.Equal(t, "<b>new</b>", badge.HTML)

	s := mod.Script
	assert.Contains(t, s, `import { useState } from "pria";`)
	assert.Contains(t, s, "import Header from \"./header.js\";\nimport _$ from \"pria/internal\";\n")
	assert.Contains(t, s, "return (function () {\n  const _$root = _$.getParent()\n})();")
	assert.Contains(t, s, "  _$.setAttr(_$root, \"title\", (count()))\n")
	assert.Contains(t, s, "  _$.setParent(_$el0)\n  Header()\n")
	assert.NotContains(t, s, "<div")
	assert.NotContains(t, s, "<b>")
}

func TestCompileModule_KeepsExistingRuntimeImport(t *testing.T) {
	code := "import _$ from \"pria/internal\";\nexport const A = () => <p>a</p>;\n"
	start, end := span(t, code, "<p>a</p>")
	_, importsEnd := span(t, code, `import _$ from "pria/internal";`)

	mod, err := CompileModule(&Source{
		Path:             "/src/a.jsx",
		Code:             []byte(code),
		ImportsEnd:       importsEnd,
		HasRuntimeImport: true,
		Components:       []ComponentSource{{Name: "A", Local: "A", Exported: true, Root: el("p", nil, txt("a")), Start: start, End: end}},
	}, ModuleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(mod.Script, "pria/internal"))
	assert.Contains(t, mod.Script, "export const A = () => (function () {\n  const _$root = _$.getParent()\n})();")
}

func TestCompileModule_NoImports(t *testing.T) {
	code := "export function A() { return <p>a</p> }\n"
	start, end := span(t, code, "<p>a</p>")

	mod, err := CompileModule(&Source{
		Path:       "/src/a.jsx",
		Code:       []byte(code),
		Components: []ComponentSource{{Name: "A", Local: "A", Exported: true, Root: el("p", nil, txt("a")), Start: start, End: end}},
	}, ModuleOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mod.Script, "import _$ from \"pria/internal\";\nexport function A()"))
}

func TestCompileModule_SharedRootCompiledOnce(t *testing.T) {
	code := "function App() { return <p>a</p> }\nexport { App, App as Main };\n"
	start, end := span(t, code, "<p>a</p>")
	root := el("p", nil, txt("a"))

	mod, err := CompileModule(&Source{
		Path: "/src/a.jsx",
		Code: []byte(code),
		Components: []ComponentSource{
			{Name: "App", Local: "App", Exported: true, Root: root, Start: start, End: end},
			{Name: "Main", Local: "App", Exported: true, Root: root, Start: start, End: end},
		},
	}, ModuleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"App", "Main"}, mod.Exports())
	assert.Equal(t, 1, strings.Count(mod.Script, "getParent()"))
}

func TestCompileModule_PropagatesErrors(t *testing.T) {
	code := "export const A = () => <ul $for=\"bad\"></ul>\n"
	start, end := span(t, code, `<ul $for="bad"></ul>`)

	_, err := CompileModule(&Source{
		Path:       "/src/a.jsx",
		Code:       []byte(code),
		Components: []ComponentSource{{Name: "A", Local: "A", Exported: true, Root: el("ul", attrs(lit("$for", "bad"))), Start: start, End: end}},
	}, ModuleOptions{})

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindParse, cerr.Kind)
	assert.Equal(t, "/src/a.jsx", cerr.File)
	assert.Equal(t, "A", cerr.Component)
	assert.Equal(t, "bad", cerr.Expr)
}

func TestModuleJSONShape(t *testing.T) {
	mod, err := CompileModule(appSourceTree(t), ModuleOptions{})
	require.NoError(t, err)

	data, err := json.Marshal(mod)
	require.NoError(t, err)

	var decoded struct {
		HTML map[string]struct {
			HTML string       `json:"html"`
			Deps []Dependency `json:"deps"`
		} `json:"html"`
		Script string `json:"script"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "<b>new</b>", decoded.HTML["Badge"].HTML)
	assert.Len(t, decoded.HTML["default"].Deps, 2)
	assert.Equal(t, "self", decoded.HTML["default"].Deps[1].FilePath)
	assert.NotEmpty(t, decoded.Script)
}

func TestSourceResolveLocal(t *testing.T) {
	src := &Source{Components: []ComponentSource{
		{Name: "default", Local: "App", Exported: true},
		{Name: "App", Local: "App", Exported: true},
		{Name: "Main", Local: "Shell", Exported: true},
	}}

	name, ok := src.ResolveLocal("App")
	assert.True(t, ok)
	assert.Equal(t, "App", name)

	name, ok = src.ResolveLocal("Shell")
	assert.True(t, ok)
	assert.Equal(t, "Main", name)

	_, ok = src.ResolveLocal("Missing")
	assert.False(t, ok)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Kind: KindCycle, File: "/src/a.jsx", Msg: "circular component reference", Chain: []string{"/src/a.jsx::A", "/src/b.jsx::B", "/src/a.jsx::A"}}

	assert.True(t, errors.Is(err, ErrCycle))
	assert.False(t, errors.Is(err, ErrDepthExceeded))
	assert.Equal(t, "CycleDetected: /src/a.jsx: circular component reference: /src/a.jsx::A -> /src/b.jsx::B -> /src/a.jsx::A", err.Error())

	parse := Errorf(KindParse, "bad %s", "thing").At("/x.jsx", "X", Loc{Line: 2, Column: 4})
	assert.Equal(t, "ParseFailure: /x.jsx:2:4 (component X): bad thing", parse.Error())
	assert.Equal(t, "compile", KindParse.Stage())
	assert.Equal(t, "link", KindBudget.Stage())
}
