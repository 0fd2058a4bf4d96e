package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/recera/pria/pkg/compiler"
	"github.com/recera/pria/pkg/parser"
)

// CompileFunc turns a source file into a compiled module
type CompileFunc func(path string, code []byte) (*compiler.Module, error)

// Compile returns the standard CompileFunc: parse, then compile every
// component with opts.
func Compile(opts compiler.ModuleOptions) CompileFunc {
	return func(path string, code []byte) (*compiler.Module, error) {
		src, err := parser.ParseFile(path, code)
		if err != nil {
			return nil, err
		}
		return compiler.CompileModule(src, opts)
	}
}

// RegistryOptions configures a Registry
type RegistryOptions struct {
	Compile CompileFunc
	// ReadFile defaults to os.ReadFile
	ReadFile func(path string) ([]byte, error)
	// Store persists compiled modules between runs when set
	Store  *Store
	Logger *slog.Logger
}

// Registry is the process-wide table of compiled modules keyed by
// absolute path. Concurrent loads of the same path compile once.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*compiler.Module
	// gens counts invalidations per path; a load only stores its result
	// if the count did not move while it compiled
	gens  map[string]uint64
	group singleflight.Group

	compile  CompileFunc
	readFile func(string) ([]byte, error)
	store    *Store
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		modules:  make(map[string]*compiler.Module),
		gens:     make(map[string]uint64),
		compile:  opts.Compile,
		readFile: opts.ReadFile,
		store:    opts.Store,
		logger:   opts.Logger,
	}
	if r.compile == nil {
		r.compile = Compile(compiler.ModuleOptions{})
	}
	if r.readFile == nil {
		r.readFile = os.ReadFile
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Load returns the compiled module for path, compiling it on first use
func (r *Registry) Load(path string) (*compiler.Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	r.mu.RLock()
	mod, ok := r.modules[abs]
	r.mu.RUnlock()
	if ok {
		return mod, nil
	}

	v, err, shared := r.group.Do(abs, func() (interface{}, error) {
		r.mu.RLock()
		gen := r.gens[abs]
		r.mu.RUnlock()

		mod, err := r.build(abs)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gens[abs] == gen {
			r.modules[abs] = mod
		} else {
			r.logger.Debug("dropping module invalidated during compilation", "path", abs)
		}
		r.mu.Unlock()
		return mod, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("shared module compilation", "path", abs)
	}
	return v.(*compiler.Module), nil
}

func (r *Registry) build(abs string) (*compiler.Module, error) {
	code, err := r.readFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	key := Key(abs, string(code))
	if r.store != nil {
		if data, ok := r.store.Get(key); ok {
			mod, err := decodeModule(data)
			if err == nil {
				r.logger.Debug("module loaded from cache", "path", abs)
				return mod, nil
			}
			r.logger.Warn("discarding unreadable cached module", "path", abs, "error", err)
			r.store.Delete(key)
		}
	}

	mod, err := r.compile(abs, code)
	if err != nil {
		return nil, err
	}
	mod.Path = abs
	r.logger.Debug("compiled module", "path", abs, "components", len(mod.Order))

	if r.store != nil {
		data, err := encodeModule(mod)
		if err == nil {
			err = r.store.Put(key, data, abs)
		}
		if err != nil {
			r.logger.Warn("failed to cache module", "path", abs, "error", err)
		}
	}
	return mod, nil
}

// Put registers an already compiled module
func (r *Registry) Put(path string, mod *compiler.Module) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	mod.Path = abs
	r.mu.Lock()
	r.modules[abs] = mod
	r.gens[abs]++
	r.mu.Unlock()
}

// Invalidate drops the modules compiled from the given paths, in memory
// and in the store, and returns how many were cached in memory.
func (r *Registry) Invalidate(paths ...string) int {
	n := 0
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		r.mu.Lock()
		if _, ok := r.modules[abs]; ok {
			delete(r.modules, abs)
			n++
		}
		r.gens[abs]++
		r.mu.Unlock()
		r.group.Forget(abs)
		if r.store != nil {
			r.store.InvalidateSource(abs)
		}
	}
	return n
}

// Paths lists the compiled modules, sorted
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for p := range r.modules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// storedModule is the on-disk form of a module. Module's own JSON shape
// omits the fields needed to restore it.
type storedModule struct {
	Path       string                     `json:"path"`
	Order      []string                   `json:"order"`
	Script     string                     `json:"script"`
	Components map[string]storedComponent `json:"components"`
}

type storedComponent struct {
	HTML     string                `json:"html"`
	Script   string                `json:"script"`
	Deps     []compiler.Dependency `json:"deps"`
	Exported bool                  `json:"exported"`
	Effects  int                   `json:"effects"`
}

func encodeModule(mod *compiler.Module) ([]byte, error) {
	sm := storedModule{
		Path:       mod.Path,
		Order:      mod.Order,
		Script:     mod.Script,
		Components: make(map[string]storedComponent, len(mod.Components)),
	}
	for name, c := range mod.Components {
		sm.Components[name] = storedComponent{HTML: c.HTML, Script: c.Script, Deps: c.Deps, Exported: c.Exported, Effects: c.Effects}
	}
	return json.Marshal(sm)
}

func decodeModule(data []byte) (*compiler.Module, error) {
	var sm storedModule
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, err
	}
	mod := &compiler.Module{
		Path:       sm.Path,
		Order:      sm.Order,
		Script:     sm.Script,
		Components: make(map[string]*compiler.Component, len(sm.Components)),
	}
	for name, c := range sm.Components {
		mod.Components[name] = &compiler.Component{Name: name, HTML: c.HTML, Script: c.Script, Deps: c.Deps, Exported: c.Exported, Effects: c.Effects}
	}
	return mod, nil
}
