// Package catalog keeps named navigation sources loaded from disk and
// reloads them when their files change.
package catalog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/dgallion1/navcore/internal/observer"
	"github.com/dgallion1/navcore/internal/parser"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound  = errors.New("source not found")
	ErrTooLarge  = errors.New("source exceeds size limit")
	ErrDuplicate = errors.New("source already registered")
)

// DefaultMaxBytes bounds a single source file.
const DefaultMaxBytes int64 = 5 << 20

const loadConcurrency = 4

// Source is one loaded navigation source.
type Source struct {
	Name        string
	Path        string
	Component   *navtree.Component
	ContentHash string
	ItemCount   int
	LoadedAt    time.Time
	Reloads     int
	LastError   string
}

// Snapshot is a JSON-safe copy of a source's metadata.
type Snapshot struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	ItemCount   int       `json:"item_count"`
	LoadedAt    time.Time `json:"loaded_at"`
	Reloads     int       `json:"reloads"`
	LastError   string    `json:"last_error,omitempty"`
}

func (s *Source) snapshot() Snapshot {
	title := ""
	if s.Component != nil {
		title = s.Component.Title
	}
	return Snapshot{
		Name:        s.Name,
		Path:        s.Path,
		Title:       title,
		ContentHash: s.ContentHash,
		ItemCount:   s.ItemCount,
		LoadedAt:    s.LoadedAt,
		Reloads:     s.Reloads,
		LastError:   s.LastError,
	}
}

// Catalog is a thread-safe registry of sources.
type Catalog struct {
	mu       sync.RWMutex
	sources  map[string]*Source
	byPath   map[string]string
	dirs     map[string]int
	watching bool

	watch    observer.Binding
	stats    *ReloadStats
	log      *slog.Logger
	maxBytes int64
	now      func() time.Time

	retryBase time.Duration
	sleep     func(time.Duration)
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithObserver sets the pool and options used by Watch. Without it Watch
// uses an inert pool.
func WithObserver(p *observer.Pool, opts observer.Options) Option {
	return func(c *Catalog) { c.watch = p.Observer(opts) }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Catalog) { c.log = log }
}

func WithMaxBytes(n int64) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

func WithStats(s *ReloadStats) Option {
	return func(c *Catalog) { c.stats = s }
}

// WithRetryBackoff sets the first wait between retries of a watched reload.
// Zero retries immediately.
func WithRetryBackoff(base time.Duration) Option {
	return func(c *Catalog) {
		if base >= 0 {
			c.retryBase = base
		}
	}
}

func New(opts ...Option) *Catalog {
	c := &Catalog{
		sources:  make(map[string]*Source),
		byPath:   make(map[string]string),
		dirs:     make(map[string]int),
		watch:    observer.NewPool(nil).Observer(nil),
		stats:    NewReloadStats(time.Hour),
		log:      slog.Default(),
		maxBytes: DefaultMaxBytes,
		now:      time.Now,

		retryBase: 50 * time.Millisecond,
		sleep:     time.Sleep,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Add loads path and registers it as name.
func (c *Catalog) Add(name, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if name == "" {
		name = sourceName(abs)
	}

	c.mu.RLock()
	_, exists := c.sources[name]
	c.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	src, err := c.load(name, abs)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if _, exists := c.sources[name]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	c.sources[name] = src
	c.byPath[abs] = name
	dir := filepath.Dir(abs)
	c.dirs[dir]++
	observeDir := c.watching && c.dirs[dir] == 1
	c.mu.Unlock()

	c.log.Info("source loaded", "name", name, "path", abs, "items", src.ItemCount)
	if observeDir {
		if err := c.watch.Observe(dir, c.handle); err != nil {
			c.log.Warn("watch source dir", "dir", dir, "error", err)
		}
	}
	return nil
}

// LoadDir adds every supported file in dir, named by its base name without
// extension. Files are parsed concurrently. Files that fail to load are
// reported together; the rest are still added.
func (c *Catalog) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read sources dir: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
		n    int
	)
	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		g.Go(func() error {
			err := c.Add("", path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			} else {
				n++
			}
			return nil
		})
	}
	g.Wait()
	return n, errors.Join(errs...)
}

// Get returns the component registered as name.
func (c *Catalog) Get(name string) (*navtree.Component, Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[name]
	if !ok {
		return nil, Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return src.Component, src.snapshot(), nil
}

// List returns snapshots of all sources ordered by name.
func (c *Catalog) List() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Snapshot, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remove forgets name. The directory watch is released with its last source.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	src, ok := c.sources[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(c.sources, name)
	delete(c.byPath, src.Path)
	dir := filepath.Dir(src.Path)
	c.dirs[dir]--
	release := c.dirs[dir] <= 0
	if release {
		delete(c.dirs, dir)
	}
	unobserve := release && c.watching
	c.mu.Unlock()

	if unobserve {
		c.watch.Unobserve(dir)
	}
	c.log.Info("source removed", "name", name)
	return nil
}

// Reload rereads name from disk. It reports false when the content hash is
// unchanged. On failure the previous component stays in place.
func (c *Catalog) Reload(name string) (bool, error) {
	c.mu.RLock()
	src, ok := c.sources[name]
	var path, hash string
	if ok {
		path, hash = src.Path, src.ContentHash
	}
	c.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	start := c.now()
	data, err := c.read(path)
	if err == nil && ContentHashHex(data) == hash {
		return false, nil
	}
	var fresh *Source
	if err == nil {
		fresh, err = c.parse(name, path, data)
	}
	if err != nil {
		c.stats.RecordFailure()
		c.mu.Lock()
		if cur, ok := c.sources[name]; ok {
			cur.LastError = err.Error()
		}
		c.mu.Unlock()
		return false, err
	}

	c.mu.Lock()
	cur, ok := c.sources[name]
	if !ok {
		c.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	fresh.Reloads = cur.Reloads + 1
	c.sources[name] = fresh
	c.mu.Unlock()

	c.stats.Record(c.now().Sub(start))
	return true, nil
}

// Watch observes the directories of all sources until ctx is done. Sources
// added while watching are observed as they arrive.
func (c *Catalog) Watch(ctx context.Context) error {
	c.mu.Lock()
	if c.watching {
		c.mu.Unlock()
		return errors.New("catalog already watching")
	}
	c.watching = true
	dirs := make([]string, 0, len(c.dirs))
	for d := range c.dirs {
		dirs = append(dirs, d)
	}
	c.mu.Unlock()

	sort.Strings(dirs)
	var errs []error
	for _, d := range dirs {
		if err := c.watch.Observe(d, c.handle); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.stopWatching()
		return fmt.Errorf("watch sources: %w", err)
	}

	go func() {
		<-ctx.Done()
		c.stopWatching()
	}()
	return nil
}

func (c *Catalog) stopWatching() {
	c.mu.Lock()
	c.watching = false
	dirs := make([]string, 0, len(c.dirs))
	for d := range c.dirs {
		dirs = append(dirs, d)
	}
	c.mu.Unlock()

	for _, d := range dirs {
		c.watch.Unobserve(d)
	}
}

// Stats returns the reload latency snapshot.
func (c *Catalog) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

func (c *Catalog) handle(e observer.Entry) {
	path := filepath.Clean(e.Name)
	c.mu.RLock()
	name, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok {
		return
	}

	if e.Op == "REMOVE" || e.Op == "RENAME" {
		c.log.Warn("source file gone, keeping last good copy", "name", name, "path", path, "op", e.Op)
		return
	}

	changed, err := c.reloadWithRetry(name)
	if err != nil {
		c.log.Error("source reload failed", "name", name, "error", err)
		return
	}
	if changed {
		c.log.Info("source reloaded", "name", name, "op", e.Op)
	}
}

func (c *Catalog) load(name, path string) (*Source, error) {
	data, err := c.read(path)
	if err != nil {
		return nil, err
	}
	return c.parse(name, path, data)
}

func (c *Catalog) read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, transientRead(fmt.Errorf("open source: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}
	return data, nil
}

func (c *Catalog) parse(name, path string, data []byte) (*Source, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	comp, err := p.Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("parse %s: %w", name, err)}
	}
	return &Source{
		Name:        name,
		Path:        path,
		Component:   comp,
		ContentHash: ContentHashHex(data),
		ItemCount:   navtree.Count(comp.Items()),
		LoadedAt:    c.now(),
	}, nil
}

func sourceName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
