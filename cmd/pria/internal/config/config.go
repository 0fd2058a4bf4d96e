package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileNames are the config files Load looks for, in order. JSON is valid
// YAML, so pria.json goes through the same decoder.
var FileNames = []string{"pria.yaml", "pria.yml", "pria.json"}

// Config represents the pria.yaml configuration
type Config struct {
	// Entry is the source file of the app's root component
	Entry string `yaml:"entry,omitempty"`

	// Export is the component of Entry to render
	Export string `yaml:"export,omitempty"`

	// Build output directory
	OutDir string `yaml:"outDir,omitempty"`

	// Static files copied next to the build output
	PublicDir string `yaml:"publicDir,omitempty"`

	// Page configuration
	Page *PageConfig `yaml:"page,omitempty"`

	// Expansion limits
	Linker *LinkerConfig `yaml:"linker,omitempty"`

	// Compiled module cache
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Development server configuration
	Dev *DevConfig `yaml:"dev,omitempty"`
}

// PageConfig describes the generated index.html
type PageConfig struct {
	Title string `yaml:"title,omitempty"`

	// Id of the element the app is rendered into
	RootID string `yaml:"rootId,omitempty"`
}

// LinkerConfig bounds component expansion
type LinkerConfig struct {
	MaxDepth      int `yaml:"maxDepth,omitempty"`
	MaxExpansions int `yaml:"maxExpansions,omitempty"`
}

// CacheConfig contains the on-disk module cache configuration
type CacheConfig struct {
	// Whether compiled modules persist between runs
	Enabled bool `yaml:"enabled"`

	// Cache directory, defaults to $HOME/.cache/pria
	Dir string `yaml:"dir,omitempty"`

	// Size limit in megabytes
	MaxSizeMB int `yaml:"maxSizeMB,omitempty"`
}

// DevConfig contains development server configuration
type DevConfig struct {
	// Server port
	Port int `yaml:"port,omitempty"`

	// Server host
	Host string `yaml:"host,omitempty"`

	// Debounce for file change events, in milliseconds
	DebounceMS int `yaml:"debounceMs,omitempty"`
}

// Load loads configuration from the first config file found in
// projectPath, or returns the defaults when there is none.
func Load(projectPath string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(projectPath, name)

		data, err := os.ReadFile(configPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var config Config
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		applyDefaults(&config)
		return &config, nil
	}

	return DefaultConfig(), nil
}

// Save saves configuration to pria.yaml
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileNames[0]), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Entry:     "src/App.jsx",
		Export:    "default",
		OutDir:    "dist",
		PublicDir: "public",
		Page: &PageConfig{
			Title:  "pria",
			RootID: "app",
		},
		Linker: &LinkerConfig{
			MaxDepth:      64,
			MaxExpansions: 10000,
		},
		Cache: &CacheConfig{
			Enabled:   false,
			MaxSizeMB: 256,
		},
		Dev: &DevConfig{
			Port:       5173,
			Host:       "localhost",
			DebounceMS: 100,
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Entry == "" {
		config.Entry = defaults.Entry
	}
	if config.Export == "" {
		config.Export = defaults.Export
	}
	if config.OutDir == "" {
		config.OutDir = defaults.OutDir
	}
	if config.PublicDir == "" {
		config.PublicDir = defaults.PublicDir
	}

	if config.Page == nil {
		config.Page = defaults.Page
	} else {
		if config.Page.Title == "" {
			config.Page.Title = defaults.Page.Title
		}
		if config.Page.RootID == "" {
			config.Page.RootID = defaults.Page.RootID
		}
	}

	if config.Linker == nil {
		config.Linker = defaults.Linker
	} else {
		if config.Linker.MaxDepth <= 0 {
			config.Linker.MaxDepth = defaults.Linker.MaxDepth
		}
		if config.Linker.MaxExpansions <= 0 {
			config.Linker.MaxExpansions = defaults.Linker.MaxExpansions
		}
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else if config.Cache.MaxSizeMB <= 0 {
		config.Cache.MaxSizeMB = defaults.Cache.MaxSizeMB
	}

	if config.Dev == nil {
		config.Dev = defaults.Dev
	} else {
		if config.Dev.Port == 0 {
			config.Dev.Port = defaults.Dev.Port
		}
		if config.Dev.Host == "" {
			config.Dev.Host = defaults.Dev.Host
		}
		if config.Dev.DebounceMS <= 0 {
			config.Dev.DebounceMS = defaults.Dev.DebounceMS
		}
	}
}
