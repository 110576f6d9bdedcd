// Package assets serves the web client's static files cache-first. Assets are
// fetched from an origin when a cache version is installed; requests that
// miss the cache go to the origin and are not stored.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultVersion = "window-counter-cache-v1"
)

// DefaultPrecache is the list fetched on install when none is configured.
var DefaultPrecache = []string{"/", "/index.html"}

// ErrNotFound is returned by an origin that has no asset at the given path.
var ErrNotFound = errors.New("asset not found")

type Asset struct {
	Body        []byte
	ContentType string
}

type Origin interface {
	Fetch(ctx context.Context, path string) (Asset, error)
}

// Storage holds every installed cache version by name. One Storage is
// shared by all Cache values of a process.
type Storage struct {
	mu       sync.RWMutex
	versions map[string]map[string]Asset
}

func NewStorage() *Storage {
	return &Storage{versions: make(map[string]map[string]Asset)}
}

// Names lists installed versions, sorted.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.versions))
	for n := range s.versions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Storage) match(preferred, key string) (Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.versions[preferred][key]; ok {
		return a, true
	}
	for _, v := range s.versions {
		if a, ok := v[key]; ok {
			return a, true
		}
	}
	return Asset{}, false
}

type Cache struct {
	version  string
	precache []string
	origin   Origin
	storage  *Storage
	log      *zap.Logger
}

func New(version string, precache []string, origin Origin, storage *Storage, log *zap.Logger) *Cache {
	if version == "" {
		version = DefaultVersion
	}
	if len(precache) == 0 {
		precache = DefaultPrecache
	}
	if storage == nil {
		storage = NewStorage()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		version:  version,
		precache: normalize(precache),
		origin:   origin,
		storage:  storage,
		log:      log.With(zap.String("cache_version", version)),
	}
}

func (c *Cache) Version() string { return c.version }

func normalize(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, "/"+strings.TrimPrefix(strings.TrimSpace(p), "/"))
	}
	return out
}

// Install fetches every precache path and stores them under the cache
// version. If any fetch fails nothing is stored.
func (c *Cache) Install(ctx context.Context) error {
	fetched := make([]Asset, len(c.precache))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range c.precache {
		i, p := i, p
		g.Go(func() error {
			a, err := c.origin.Fetch(gctx, p)
			if err != nil {
				return fmt.Errorf("precache %s: %w", p, err)
			}
			fetched[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entries := make(map[string]Asset, len(c.precache))
	for i, p := range c.precache {
		entries[p] = fetched[i]
	}
	c.storage.mu.Lock()
	c.storage.versions[c.version] = entries
	c.storage.mu.Unlock()

	c.log.Info("opened cache", zap.Int("assets", len(entries)))
	return nil
}

// Activate deletes every other cache version and returns the deleted names.
func (c *Cache) Activate() []string {
	c.storage.mu.Lock()
	var purged []string
	for name := range c.storage.versions {
		if name != c.version {
			delete(c.storage.versions, name)
			purged = append(purged, name)
		}
	}
	c.storage.mu.Unlock()

	sort.Strings(purged)
	for _, name := range purged {
		c.log.Info("deleting old cache", zap.String("name", name))
	}
	return purged
}
