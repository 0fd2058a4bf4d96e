package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Runtime module the generated scripts import as _$
const (
	RuntimeModule = "pria/internal"
	RuntimeAlias  = "_$"
)

// ImportSpec is the byte span of a module specifier string literal,
// quotes included.
type ImportSpec struct {
	Value string
	Start int
	End   int
}

// ComponentSource is one component found in a source file
type ComponentSource struct {
	// Name is the export name, or the local name for unexported components
	Name     string
	Local    string
	Exported bool
	// Root is the component's single returned element tree
	Root *Element
	// Start and End delimit Root in the source code
	Start int
	End   int
	Loc   Loc
}

// Source is a parsed source file, as produced by the parser
type Source struct {
	Path string
	Code []byte

	// Imports maps local names to the module they were imported from
	Imports     map[string]Import
	ImportSpecs []ImportSpec
	// ImportsEnd is the offset just past the last import declaration
	ImportsEnd       int
	HasRuntimeImport bool

	Components []ComponentSource
}

// ResolveImport reports where an imported tag comes from
func (s *Source) ResolveImport(tag string) (Import, bool) {
	imp, ok := s.Imports[tag]
	return imp, ok
}

// ResolveLocal maps a component's local name to its compiled name,
// preferring the entry named after the local binding.
func (s *Source) ResolveLocal(tag string) (string, bool) {
	found := ""
	for _, c := range s.Components {
		if c.Local != tag {
			continue
		}
		if c.Name == tag {
			return c.Name, true
		}
		if found == "" {
			found = c.Name
		}
	}
	return found, found != ""
}

// Module is the compiled form of a source file
type Module struct {
	Path       string                `json:"path,omitempty"`
	Components map[string]*Component `json:"html"`
	// Order lists component names in source order
	Order  []string `json:"-"`
	Script string   `json:"script"`
}

// Component returns a compiled component by name
func (m *Module) Component(name string) (*Component, bool) {
	c, ok := m.Components[name]
	return c, ok
}

// Exports returns the exported component names in source order
func (m *Module) Exports() []string {
	var out []string
	for _, name := range m.Order {
		if c := m.Components[name]; c != nil && c.Exported {
			out = append(out, name)
		}
	}
	return out
}

// ModuleOptions configures CompileModule
type ModuleOptions struct {
	AnchorInterval int
	Registry       *Registry
	// RewriteImport maps module specifiers in the output script, e.g. to
	// point .jsx imports at compiled .js files.
	RewriteImport func(spec string) string
}

type edit struct {
	start, end int
	text       string
}

// CompileModule compiles every component of src and rewrites the source
// into the module script: each component's element tree is replaced by
// an immediately invoked function running its bindings against the
// parent node set by the caller.
func CompileModule(src *Source, opts ModuleOptions) (*Module, error) {
	mod := &Module{
		Path:       src.Path,
		Components: make(map[string]*Component),
	}

	var edits []edit
	spliced := make(map[int]bool)

	for _, cs := range src.Components {
		if _, dup := mod.Components[cs.Name]; dup {
			return nil, &Error{Kind: KindParse, File: src.Path, Component: cs.Name, Loc: cs.Loc, Msg: "component defined twice"}
		}

		comp, err := Transform(cs.Root, Options{
			File:           src.Path,
			Component:      cs.Name,
			AnchorInterval: opts.AnchorInterval,
			Registry:       opts.Registry,
			ResolveImport:  src.ResolveImport,
			ResolveLocal:   src.ResolveLocal,
		})
		if err != nil {
			return nil, err
		}
		comp.Exported = cs.Exported
		mod.Components[cs.Name] = comp
		mod.Order = append(mod.Order, cs.Name)

		if spliced[cs.Start] {
			continue
		}
		spliced[cs.Start] = true
		edits = append(edits, edit{start: cs.Start, end: cs.End, text: wrap(comp.Script)})
	}

	if opts.RewriteImport != nil {
		for _, spec := range src.ImportSpecs {
			if spec.Value == RuntimeModule {
				continue
			}
			if next := opts.RewriteImport(spec.Value); next != spec.Value {
				edits = append(edits, edit{start: spec.Start, end: spec.End, text: jsString(next)})
			}
		}
	}

	if !src.HasRuntimeImport {
		decl := fmt.Sprintf("import %s from %s;", RuntimeAlias, jsString(RuntimeModule))
		if src.ImportsEnd > 0 {
			decl = "\n" + decl
		} else {
			decl += "\n"
		}
		edits = append(edits, edit{start: src.ImportsEnd, end: src.ImportsEnd, text: decl})
	}

	script, err := applyEdits(src.Code, edits)
	if err != nil {
		return nil, &Error{Kind: KindParse, File: src.Path, Msg: "rewrite module", Err: err}
	}
	mod.Script = script
	return mod, nil
}

// wrap turns a binding script into the expression replacing the
// component's element tree.
func wrap(script string) string {
	var sb strings.Builder
	sb.WriteString("(function () {\n")
	sb.WriteString("  const " + RootAnchor + " = " + RuntimeAlias + ".getParent()\n")
	sb.WriteString(indent(script, "  "))
	sb.WriteString("})()")
	return sb.String()
}

func applyEdits(code []byte, edits []edit) (string, error) {
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start > edits[j].start
	})

	out := string(code)
	limit := len(out)
	for _, e := range edits {
		if e.start < 0 || e.end < e.start || e.end > limit {
			return "", errors.New("overlapping or out-of-range edit")
		}
		out = out[:e.start] + e.text + out[e.end:]
		limit = e.start
	}
	return out, nil
}
