// Package cache keeps built widget binaries keyed by a fingerprint of the
// sources that produced them, so the dev server and the build command can
// skip recompiling unchanged code.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/naei/bubblechart/pkg/debug"
)

const (
	indexFile    = "index.yaml"
	artifactsDir = "artifacts"
	indexVersion = "2"
)

// Cache stores build artifacts on disk.
type Cache struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	maxAge  time.Duration
	now     func() time.Time
	logger  *log.Logger
	index   *Index
	stats   Stats
}

// Index is the persisted list of entries.
type Index struct {
	Version string            `yaml:"version"`
	Entries map[string]*Entry `yaml:"entries"`
	Updated time.Time         `yaml:"updated"`
}

// Entry is one cached artifact.
type Entry struct {
	Key        string    `yaml:"key"`
	Hash       string    `yaml:"hash"`
	Path       string    `yaml:"path"`
	Size       int64     `yaml:"size"`
	Created    time.Time `yaml:"created"`
	LastAccess time.Time `yaml:"last_access"`
	Hits       int       `yaml:"hits"`
	Package    string    `yaml:"package,omitempty"`
}

// Stats counts cache activity since New.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalSize int64
	Entries   int
}

// Config holds cache configuration.
type Config struct {
	Dir     string
	MaxSize int64         // bytes; 0 disables the limit
	MaxAge  time.Duration // 0 keeps entries forever
	Now     func() time.Time
	Logger  *log.Logger
}

// New opens or creates the cache in cfg.Dir. A missing or unreadable index
// starts an empty cache.
func New(cfg Config) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: directory is required")
	}
	if err := os.MkdirAll(filepath.Join(cfg.Dir, artifactsDir), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Cache{
		dir:     cfg.Dir,
		maxSize: cfg.MaxSize,
		maxAge:  cfg.MaxAge,
		now:     cfg.Now,
		logger:  debug.Component(cfg.Logger, "cache"),
	}
	if err := c.load(); err != nil {
		c.logger.Debug("starting with an empty index", "err", err)
		c.index = c.emptyIndex()
	}

	c.mu.Lock()
	c.pruneExpired()
	c.mu.Unlock()
	return c, nil
}

// Get returns the artifact stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index.Entries[key]
	if !ok || c.expired(e) {
		if ok {
			c.remove(key, e)
			c.saveLocked()
		}
		c.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(e.Path)
	if err != nil || c.digest(data) != e.Hash {
		c.logger.Warn("dropping unreadable artifact", "key", key, "err", err)
		c.remove(key, e)
		c.saveLocked()
		c.stats.Misses++
		return nil, false
	}

	e.LastAccess = c.now()
	e.Hits++
	c.stats.Hits++
	c.saveLocked()
	return data, true
}

// Put stores data under key, evicting least recently used entries to stay
// within the size limit.
func (c *Cache) Put(key, pkg string, data []byte) error {
	size := int64(len(data))
	if c.maxSize > 0 && size > c.maxSize {
		return fmt.Errorf("artifact of %d bytes exceeds cache limit of %d", size, c.maxSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hash := c.digest(data)
	if e, ok := c.index.Entries[key]; ok {
		if e.Hash == hash {
			return nil
		}
		c.remove(key, e)
	}
	c.makeRoom(size)

	path := filepath.Join(c.dir, artifactsDir, fileName(key, hash))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	now := c.now()
	c.index.Entries[key] = &Entry{
		Key:        key,
		Hash:       hash,
		Path:       path,
		Size:       size,
		Created:    now,
		LastAccess: now,
		Package:    pkg,
	}
	c.stats.TotalSize += size
	c.stats.Entries = len(c.index.Entries)
	return c.saveLocked()
}

// Delete removes key.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.index.Entries[key]
	if !ok {
		return nil
	}
	c.remove(key, e)
	return c.saveLocked()
}

// Clear removes every artifact.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, artifactsDir)); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.dir, artifactsDir), 0755); err != nil {
		return err
	}
	c.index = c.emptyIndex()
	c.stats = Stats{}
	return c.saveLocked()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Key derives a cache key from arbitrary inputs such as a source
// fingerprint, build tags and the Go version.
func Key(inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes go.mod and every Go source under dirs, relative to
// root. Test files and _examples-style directories are skipped.
func Fingerprint(root string, dirs ...string) (string, error) {
	var files []string
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		files = append(files, "go.mod")
	}
	for _, dir := range dirs {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); path != filepath.Join(root, dir) && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", dir, err)
		}
	}
	sort.Strings(files)

	h := sha256.New()
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f)))
		if err != nil {
			return "", fmt.Errorf("fingerprint: %w", err)
		}
		h.Write([]byte(f))
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) emptyIndex() *Index {
	return &Index{Version: indexVersion, Entries: make(map[string]*Entry), Updated: c.now()}
}

func (c *Cache) load() error {
	data, err := os.ReadFile(filepath.Join(c.dir, indexFile))
	if err != nil {
		return err
	}
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return err
	}
	if idx.Version != indexVersion {
		return fmt.Errorf("index version %q, want %q", idx.Version, indexVersion)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	c.index = &idx
	for _, e := range idx.Entries {
		c.stats.TotalSize += e.Size
	}
	c.stats.Entries = len(idx.Entries)
	return nil
}

func (c *Cache) saveLocked() error {
	c.index.Updated = c.now()
	data, err := yaml.Marshal(c.index)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, indexFile), data, 0644)
}

func (c *Cache) expired(e *Entry) bool {
	return c.maxAge > 0 && c.now().Sub(e.Created) > c.maxAge
}

func (c *Cache) pruneExpired() {
	for key, e := range c.index.Entries {
		if c.expired(e) {
			c.remove(key, e)
		}
	}
}

// makeRoom evicts least recently used entries until size fits.
func (c *Cache) makeRoom(size int64) {
	if c.maxSize <= 0 {
		return
	}
	for c.stats.TotalSize+size > c.maxSize && len(c.index.Entries) > 0 {
		var oldestKey string
		var oldest *Entry
		for key, e := range c.index.Entries {
			if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
				oldestKey, oldest = key, e
			}
		}
		c.remove(oldestKey, oldest)
		c.stats.Evictions++
	}
}

func (c *Cache) remove(key string, e *Entry) {
	if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to remove artifact", "path", e.Path, "err", err)
	}
	delete(c.index.Entries, key)
	c.stats.TotalSize -= e.Size
	c.stats.Entries = len(c.index.Entries)
}

func (c *Cache) digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")

func fileName(key, hash string) string {
	key = unsafeChars.Replace(key)
	if len(key) > 16 {
		key = key[:16]
	}
	return key + "_" + hash[:8] + ".wasm"
}
