// Package jsrt holds the browser side of pria: the runtime module that
// compiled scripts import, the bootstrap entry and the host page.
package jsrt

import (
	"embed"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/recera/pria/pkg/compiler"
	"github.com/recera/pria/pkg/dom"
	"github.com/recera/pria/pkg/reactive"
)

//go:embed runtime.js.tmpl main.js.tmpl index.html.tmpl
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.tmpl"))

// URL paths of the generated assets
const (
	RuntimePath = "/pria/runtime.js"
	MainPath    = "/main.js"
	ReloadPath  = "/__pria/reload"
)

// DefaultRootID is the id of the element the app is rendered into
const DefaultRootID = "app"

// Runtime renders the runtime module. The array change kinds come from
// the reactive package and the attribute renames from dom, so both
// runtimes agree on them.
func Runtime() (string, error) {
	names, err := json.Marshal(dom.AttrNames())
	if err != nil {
		return "", err
	}
	return render("runtime.js.tmpl", map[string]any{
		"Push":      reactive.ChangePush,
		"SetAt":     reactive.ChangeSetAt,
		"Remove":    reactive.ChangeRemove,
		"Replace":   reactive.ChangeReplace,
		"AttrNames": string(names),
	})
}

// ImportMap maps the bare specifiers used by components and compiled
// scripts to the runtime module.
func ImportMap() map[string]string {
	return map[string]string{
		"pria":                 RuntimePath,
		compiler.RuntimeModule: RuntimePath,
	}
}

// Page describes the host page and bootstrap of an app
type Page struct {
	Title  string
	RootID string
	// Body is the expanded static HTML of the entry component
	Body string
	// Entry is the URL of the entry module, Export the component to run
	Entry  string
	Export string
	// Reload is the websocket path of the dev reload channel, if any
	Reload string
}

func (p Page) withDefaults() Page {
	if p.RootID == "" {
		p.RootID = DefaultRootID
	}
	if p.Export == "" {
		p.Export = "default"
	}
	if p.Title == "" {
		p.Title = "pria"
	}
	return p
}

// Bootstrap renders main.js: it points the runtime at the server-rendered
// root element and runs the entry component's bindings.
func Bootstrap(p Page) (string, error) {
	p = p.withDefaults()
	return render("main.js.tmpl", map[string]string{
		"Entry":   p.Entry,
		"Export":  p.Export,
		"RootID":  p.RootID,
		"Runtime": compiler.RuntimeModule,
		"Reload":  p.Reload,
	})
}

// Index renders index.html with the expanded component markup
func Index(p Page) (string, error) {
	p = p.withDefaults()
	imports, err := json.MarshalIndent(map[string]any{"imports": ImportMap()}, "  ", "  ")
	if err != nil {
		return "", err
	}
	return render("index.html.tmpl", map[string]string{
		"Title":     html.EscapeString(p.Title),
		"RootID":    html.EscapeString(p.RootID),
		"Body":      p.Body,
		"ImportMap": "  " + string(imports),
		"Main":      MainPath,
	})
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}
