// Package cache keeps compiled modules in memory for the process and,
// optionally, on disk between runs so unchanged sources skip compilation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// indexVersion changes whenever the stored artifact format does
const indexVersion = "pria-1"

// Store is a disk cache of compiled artifacts addressed by content key
type Store struct {
	mu      sync.RWMutex
	dir     string
	index   *index
	maxSize int64
	maxAge  time.Duration
	stats   Stats
}

type index struct {
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

// Entry describes one stored artifact
type Entry struct {
	Key        string    `json:"key"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"last_access"`
	// Sources lists the source files the artifact was built from
	Sources []string `json:"sources,omitempty"`
}

// Stats tracks cache effectiveness
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
	TotalSize  int64 `json:"total_size"`
	EntryCount int   `json:"entry_count"`
}

// StoreConfig holds store configuration
type StoreConfig struct {
	Dir     string        // Cache directory (default: $HOME/.cache/pria)
	MaxSize int64         // Maximum size in bytes, 0 for no limit (default: 256 MB)
	MaxAge  time.Duration // Maximum entry age, 0 for no expiry (default: 7 days)
}

// DefaultStoreConfig returns the default store configuration
func DefaultStoreConfig() StoreConfig {
	homeDir, _ := os.UserHomeDir()
	return StoreConfig{
		Dir:     filepath.Join(homeDir, ".cache", "pria"),
		MaxSize: 256 << 20,
		MaxAge:  7 * 24 * time.Hour,
	}
}

// OpenStore opens or creates a store. An unreadable or outdated index
// starts the store empty.
func OpenStore(config StoreConfig) (*Store, error) {
	if config.Dir == "" {
		config = DefaultStoreConfig()
	}
	if err := os.MkdirAll(filepath.Join(config.Dir, "artifacts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		dir:     config.Dir,
		maxSize: config.MaxSize,
		maxAge:  config.MaxAge,
		index:   newIndex(),
	}
	if err := s.loadIndex(); err != nil {
		s.index = newIndex()
	}
	s.dropExpired()
	return s, nil
}

func newIndex() *index {
	return &index{Version: indexVersion, Entries: make(map[string]*Entry), Updated: time.Now()}
}

// Get returns a stored artifact
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index.Entries[key]
	if !ok {
		s.stats.Misses++
		return nil, false
	}
	if s.expired(entry) {
		s.removeLocked(key, entry)
		s.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		s.removeLocked(key, entry)
		s.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	s.stats.Hits++
	return data, true
}

// Put stores an artifact built from the given source files
func (s *Store) Put(key string, data []byte, sources ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(data))
	s.evictFor(size)

	path := filepath.Join(s.dir, "artifacts", sanitizeKey(key))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if old, ok := s.index.Entries[key]; ok {
		s.stats.TotalSize -= old.Size
	}
	now := time.Now()
	s.index.Entries[key] = &Entry{
		Key:        key,
		Path:       path,
		Size:       size,
		Created:    now,
		LastAccess: now,
		Sources:    sources,
	}
	s.stats.TotalSize += size
	s.stats.EntryCount = len(s.index.Entries)
	s.index.Updated = now

	return s.saveIndexLocked()
}

// Delete removes an entry
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index.Entries[key]
	if !ok {
		return nil
	}
	s.removeLocked(key, entry)
	return s.saveIndexLocked()
}

// InvalidateSource removes every entry built from the source file and
// returns how many were removed.
func (s *Store) InvalidateSource(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, entry := range s.index.Entries {
		for _, src := range entry.Sources {
			if src == source {
				s.removeLocked(key, entry)
				count++
				break
			}
		}
	}
	if count > 0 {
		s.saveIndexLocked()
	}
	return count
}

// Clear removes all entries
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifacts := filepath.Join(s.dir, "artifacts")
	if err := os.RemoveAll(artifacts); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}
	if err := os.MkdirAll(artifacts, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	s.index = newIndex()
	s.stats = Stats{}
	return s.saveIndexLocked()
}

// Stats returns a snapshot of the store statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Key derives a content key from its inputs
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.dir, "index.json"))
	if err != nil {
		return err
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return err
	}
	if idx.Version != indexVersion || idx.Entries == nil {
		return fmt.Errorf("cache index version %q", idx.Version)
	}

	s.index = &idx
	for _, entry := range idx.Entries {
		s.stats.TotalSize += entry.Size
	}
	s.stats.EntryCount = len(idx.Entries)
	return nil
}

// saveIndexLocked writes the index; the caller holds the write lock
func (s *Store) saveIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, "index.json"), data, 0644)
}

func (s *Store) expired(entry *Entry) bool {
	if s.maxAge <= 0 {
		return false
	}
	return time.Since(entry.Created) > s.maxAge
}

func (s *Store) dropExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.index.Entries {
		if s.expired(entry) {
			s.removeLocked(key, entry)
		}
	}
}

// evictFor removes least recently used entries until needed bytes fit
func (s *Store) evictFor(needed int64) {
	if s.maxSize <= 0 {
		return
	}
	for s.stats.TotalSize+needed > s.maxSize && len(s.index.Entries) > 0 {
		var victimKey string
		var victim *Entry
		for key, entry := range s.index.Entries {
			if victim == nil || entry.LastAccess.Before(victim.LastAccess) {
				victimKey, victim = key, entry
			}
		}
		s.removeLocked(victimKey, victim)
		s.stats.Evictions++
	}
}

func (s *Store) removeLocked(key string, entry *Entry) {
	if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove cache file %s: %v\n", entry.Path, err)
	}
	delete(s.index.Entries, key)
	s.stats.TotalSize -= entry.Size
	s.stats.EntryCount = len(s.index.Entries)
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	sanitized := replacer.Replace(key)
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	return sanitized
}
