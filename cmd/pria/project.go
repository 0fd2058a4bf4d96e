package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/recera/pria/cmd/pria/internal/config"
	"github.com/recera/pria/internal/cache"
	"github.com/recera/pria/internal/diag"
	"github.com/recera/pria/internal/jsrt"
	"github.com/recera/pria/pkg/compiler"
	"github.com/recera/pria/pkg/linker"
)

// project ties the config of one app to its module registry and linker
type project struct {
	root     string
	config   *config.Config
	registry *cache.Registry
	linker   *linker.Linker
	store    *cache.Store
}

func openProject(root string) (*project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		log.Printf("⚠️  Failed to load pria config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	p := &project{root: root, config: cfg}

	if cfg.Cache.Enabled {
		storeConfig := cache.DefaultStoreConfig()
		if cfg.Cache.Dir != "" {
			storeConfig.Dir = cfg.Cache.Dir
		}
		storeConfig.MaxSize = int64(cfg.Cache.MaxSizeMB) << 20
		p.store, err = cache.OpenStore(storeConfig)
		if err != nil {
			log.Printf("⚠️  Module cache unavailable: %v\n", err)
		}
	}

	p.registry = cache.NewRegistry(cache.RegistryOptions{
		Compile: cache.Compile(compiler.ModuleOptions{RewriteImport: rewriteImport}),
		Store:   p.store,
	})
	p.linker = linker.New(p.registry, linker.Options{
		MaxDepth:      cfg.Linker.MaxDepth,
		MaxExpansions: cfg.Linker.MaxExpansions,
	})
	return p, nil
}

// rewriteImport points relative component imports at the compiled .js
// files. Bare specifiers are left to the import map.
func rewriteImport(spec string) string {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return spec
	}
	switch path.Ext(spec) {
	case ".jsx":
		return strings.TrimSuffix(spec, ".jsx") + ".js"
	case "":
		return spec + ".js"
	}
	return spec
}

func (p *project) entryPath() string {
	if filepath.IsAbs(p.config.Entry) {
		return p.config.Entry
	}
	return filepath.Join(p.root, p.config.Entry)
}

// moduleURL is the URL a compiled module is served at
func (p *project) moduleURL(file string) (string, error) {
	rel, err := filepath.Rel(p.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("module %s is outside the project root %s", file, p.root)
	}
	rel = filepath.ToSlash(rel)
	if ext := path.Ext(rel); ext == ".jsx" {
		rel = strings.TrimSuffix(rel, ext) + ".js"
	}
	return "/" + rel, nil
}

// reachable loads the module at entry and every module its components
// depend on, in breadth-first order.
func (p *project) reachable(entry string) ([]*compiler.Module, error) {
	var mods []*compiler.Module
	seen := map[string]bool{entry: true}
	queue := []string{entry}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		mod, err := p.registry.Load(file)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)

		var next []string
		for _, name := range mod.Order {
			for _, dep := range mod.Components[name].Deps {
				if dep.FilePath == compiler.SelfFile || !filepath.IsAbs(dep.FilePath) || seen[dep.FilePath] {
					continue
				}
				seen[dep.FilePath] = true
				next = append(next, dep.FilePath)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}
	return mods, nil
}

// asset is one generated file of the app
type asset struct {
	contentType string
	data        []byte
}

// render produces every file of the app keyed by URL path. reload is
// the websocket path of the dev reload channel, empty for builds.
func (p *project) render(reload string) (map[string]asset, error) {
	entry := p.entryPath()
	mods, err := p.reachable(entry)
	if err != nil {
		return nil, err
	}

	root := mods[0]
	name, ok := linker.ResolveName(root, p.config.Export)
	if !ok {
		return nil, fmt.Errorf("%s has no component %q", entry, p.config.Export)
	}
	if !root.Components[name].Exported {
		return nil, fmt.Errorf("entry component %q of %s is not exported", name, entry)
	}
	body, err := p.linker.Expand(root, name)
	if err != nil {
		return nil, err
	}

	assets := make(map[string]asset)
	for _, mod := range mods {
		url, err := p.moduleURL(mod.Path)
		if err != nil {
			return nil, err
		}
		assets[url] = asset{contentType: "text/javascript", data: []byte(mod.Script)}
	}

	entryURL, _ := p.moduleURL(root.Path)
	page := jsrt.Page{
		Title:  p.config.Page.Title,
		RootID: p.config.Page.RootID,
		Body:   body,
		Entry:  entryURL,
		Export: name,
		Reload: reload,
	}

	runtime, err := jsrt.Runtime()
	if err != nil {
		return nil, err
	}
	bootstrap, err := jsrt.Bootstrap(page)
	if err != nil {
		return nil, err
	}
	index, err := jsrt.Index(page)
	if err != nil {
		return nil, err
	}
	assets[jsrt.RuntimePath] = asset{contentType: "text/javascript", data: []byte(runtime)}
	assets[jsrt.MainPath] = asset{contentType: "text/javascript", data: []byte(bootstrap)}
	assets["/index.html"] = asset{contentType: "text/html; charset=utf-8", data: []byte(index)}
	return assets, nil
}

func (p *project) publicDir() string {
	if filepath.IsAbs(p.config.PublicDir) {
		return p.config.PublicDir
	}
	return filepath.Join(p.root, p.config.PublicDir)
}

// describe renders err for the terminal, with a code frame when it
// points into a readable source file.
func describe(err error, color bool) string {
	var source []byte
	var cerr *compiler.Error
	if errors.As(err, &cerr) && cerr.File != "" {
		source, _ = os.ReadFile(cerr.File)
	}
	if color {
		return diag.Format(err, source)
	}
	return diag.Plain(err, source)
}
