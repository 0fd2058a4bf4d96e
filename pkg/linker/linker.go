// Package linker expands compiled components into fully inlined static
// HTML by substituting every child component's markup at its placeholder.
package linker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recera/pria/pkg/compiler"
)

// Expansion limits used when Options leaves them zero
const (
	DefaultMaxDepth      = 64
	DefaultMaxExpansions = 10000
)

// Loader returns the compiled module for an absolute source path
type Loader interface {
	Load(path string) (*compiler.Module, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(path string) (*compiler.Module, error)

func (f LoaderFunc) Load(path string) (*compiler.Module, error) { return f(path) }

// Options configures a Linker
type Options struct {
	// MaxDepth is the deepest nesting level allowed below the requested
	// component.
	MaxDepth int
	// MaxExpansions caps the expansion steps of one Expand call, memo
	// hits included.
	MaxExpansions int
	Logger        *slog.Logger
}

// Linker expands components. It is safe for concurrent use when its
// Loader is; all expansion state lives in the Expand call.
type Linker struct {
	loader   Loader
	maxDepth int
	maxSteps int
	logger   *slog.Logger
}

// New creates a linker loading cross-file dependencies through loader
func New(loader Loader, opts Options) *Linker {
	l := &Linker{
		loader:   loader,
		maxDepth: opts.MaxDepth,
		maxSteps: opts.MaxExpansions,
		logger:   opts.Logger,
	}
	if l.maxDepth <= 0 {
		l.maxDepth = DefaultMaxDepth
	}
	if l.maxSteps <= 0 {
		l.maxSteps = DefaultMaxExpansions
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// ResolveName picks the component serving a requested name: the exact
// name, else "default", else the module's only export.
func ResolveName(mod *compiler.Module, name string) (string, bool) {
	if _, ok := mod.Components[name]; ok {
		return name, true
	}
	if _, ok := mod.Components["default"]; ok {
		return "default", true
	}
	if exports := mod.Exports(); len(exports) == 1 {
		return exports[0], true
	}
	return "", false
}

// Expand returns the static HTML of the named component with every
// dependency inlined.
func (l *Linker) Expand(mod *compiler.Module, name string) (string, error) {
	if mod == nil {
		return "", &compiler.Error{Kind: compiler.KindResolution, Component: name, Msg: "no module to expand"}
	}
	resolved, ok := ResolveName(mod, name)
	if !ok {
		return "", &compiler.Error{
			Kind:      compiler.KindResolution,
			File:      mod.Path,
			Component: name,
			Msg:       fmt.Sprintf("no component named %q and no default or single export (exports: %s)", name, strings.Join(mod.Exports(), ", ")),
		}
	}

	st := &state{
		l:      l,
		memo:   make(map[string]string),
		active: make(map[string]bool),
	}
	html, err := st.expand(mod, mod.Path, resolved, 0)
	if err != nil {
		return "", err
	}
	l.logger.Debug("expanded component", "file", mod.Path, "component", resolved, "steps", st.steps, "unique", len(st.memo))
	return html, nil
}

// state is the bookkeeping of one Expand call
type state struct {
	l      *Linker
	memo   map[string]string
	active map[string]bool
	chain  []string
	steps  int
}

// Key identifies a component across modules
func Key(file, name string) string {
	return file + "::" + name
}

func (s *state) expand(mod *compiler.Module, file, name string, depth int) (string, error) {
	key := Key(file, name)

	s.steps++
	if s.steps > s.l.maxSteps {
		return "", &compiler.Error{
			Kind:      compiler.KindBudget,
			File:      file,
			Component: name,
			Msg:       fmt.Sprintf("more than %d expansion steps, likely a cycle that evaded direct detection", s.l.maxSteps),
		}
	}
	if html, ok := s.memo[key]; ok {
		return html, nil
	}
	if s.active[key] {
		chain := append(append([]string(nil), s.chain...), key)
		return "", &compiler.Error{Kind: compiler.KindCycle, File: file, Component: name, Chain: chain, Msg: "circular component reference"}
	}
	if depth > s.l.maxDepth {
		return "", &compiler.Error{
			Kind:      compiler.KindDepth,
			File:      file,
			Component: name,
			Msg:       fmt.Sprintf("component nesting deeper than %d", s.l.maxDepth),
		}
	}

	comp, ok := mod.Component(name)
	if !ok {
		return "", &compiler.Error{Kind: compiler.KindMissingDependency, File: file, Component: name, Msg: "component not found"}
	}

	s.active[key] = true
	s.chain = append(s.chain, key)
	defer func() {
		delete(s.active, key)
		s.chain = s.chain[:len(s.chain)-1]
	}()

	s.l.logger.Debug("expanding", "key", key, "depth", depth, "deps", len(comp.Deps))

	html := comp.HTML
	for _, dep := range comp.Deps {
		child, childFile, childName, err := s.dependency(mod, file, name, dep)
		if err != nil {
			return "", err
		}
		sub, err := s.expand(child, childFile, childName, depth+1)
		if err != nil {
			return "", err
		}

		next, ok := substitute(html, dep, sub)
		if !ok {
			return "", &compiler.Error{
				Kind:      compiler.KindMissingDependency,
				File:      file,
				Component: name,
				Msg:       fmt.Sprintf("marker for %s not found in the markup", Key(childFile, childName)),
			}
		}
		html = next
	}

	s.memo[key] = html
	return html, nil
}

// dependency locates the module and component a dependency refers to
func (s *state) dependency(mod *compiler.Module, file, owner string, dep compiler.Dependency) (*compiler.Module, string, string, error) {
	if dep.FilePath == compiler.SelfFile {
		if _, ok := mod.Components[dep.Name]; !ok {
			return nil, "", "", &compiler.Error{
				Kind:      compiler.KindMissingDependency,
				File:      file,
				Component: owner,
				Msg:       fmt.Sprintf("same-file component %s is not defined", dep.Name),
			}
		}
		return mod, file, dep.Name, nil
	}

	if s.l.loader == nil {
		return nil, "", "", &compiler.Error{Kind: compiler.KindMissingDependency, File: file, Component: owner, Msg: fmt.Sprintf("no loader for %s", dep.FilePath)}
	}
	child, err := s.l.loader.Load(dep.FilePath)
	if err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return nil, "", "", err
		}
		return nil, "", "", &compiler.Error{Kind: compiler.KindMissingDependency, File: file, Component: owner, Msg: fmt.Sprintf("load %s", dep.FilePath), Err: err}
	}

	name, ok := ResolveName(child, dep.Name)
	if !ok {
		return nil, "", "", &compiler.Error{
			Kind:      compiler.KindMissingDependency,
			File:      file,
			Component: owner,
			Msg:       fmt.Sprintf("%s has no component %q", dep.FilePath, dep.Name),
		}
	}
	return child, dep.FilePath, name, nil
}

// substitute splices child at the first occurrence of the dependency's
// placeholder, or of a literal <Name/> for output without placeholders.
func substitute(html string, dep compiler.Dependency, child string) (string, bool) {
	marker := dep.Placeholder
	if marker == "" {
		marker = "<" + dep.Name + "/>"
	}
	i := strings.Index(html, marker)
	if i < 0 {
		return html, false
	}
	return html[:i] + child + html[i+len(marker):], true
}
