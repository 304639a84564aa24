// Package lookup holds the process-wide breed and sex code tables.
//
// The host owns a Cache: it calls Init once storage is reachable, Clear or
// Init again after imports that change codes, and hands the read-only
// Reader view to analysis.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// ErrNotInitialized is returned by Refresh on a cache that was never
// initialized.
var ErrNotInitialized = errors.New("lookup cache not initialized")

// Loader loads the stored code entries.
type Loader interface {
	LoadCodes(ctx context.Context) ([]core.CodeEntry, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]core.CodeEntry, error)

// LoadCodes calls f.
func (f LoaderFunc) LoadCodes(ctx context.Context) ([]core.CodeEntry, error) {
	return f(ctx)
}

// Reader is the read-only view of a Cache.
type Reader interface {
	Lookup(kind core.CodeKind, code string) (string, bool)
	Len() int
}

// Cache is a concurrency-safe code table.
type Cache struct {
	mu     sync.RWMutex
	codes  core.CodeSet
	loader Loader
}

var _ core.CodeLookup = (*Cache)(nil)

// New returns an empty cache.
func New() *Cache {
	return &Cache{codes: make(core.CodeSet)}
}

// Init replaces the cache contents with everything loader returns and
// remembers loader for Refresh, even when this first load fails. On error
// the previous contents are kept.
func (c *Cache) Init(ctx context.Context, loader Loader) error {
	c.mu.Lock()
	c.loader = loader
	c.mu.Unlock()

	return c.load(ctx, loader)
}

// Refresh reloads from the loader given to the last Init.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.RLock()
	loader := c.loader
	c.mu.RUnlock()

	if loader == nil {
		return ErrNotInitialized
	}
	return c.load(ctx, loader)
}

func (c *Cache) load(ctx context.Context, loader Loader) error {
	entries, err := loader.LoadCodes(ctx)
	if err != nil {
		return fmt.Errorf("load codes: %w", err)
	}

	codes := make(core.CodeSet)
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		codes.Add(e.Kind, e.Code, e.Name)
	}

	c.mu.Lock()
	c.codes = codes
	c.mu.Unlock()

	slog.Debug("lookup cache loaded", "codes", codes.Len())
	return nil
}

// Clear drops every code. The loader is kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.codes = make(core.CodeSet)
	c.mu.Unlock()
}

// Lookup returns the name of code.
func (c *Cache) Lookup(kind core.CodeKind, code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codes.Lookup(kind, code)
}

// Len returns the number of cached codes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codes.Len()
}

// Entries returns a copy of the cached codes of kind.
func (c *Cache) Entries(kind core.CodeKind) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.codes[kind]))
	for code, name := range c.codes[kind] {
		out[code] = name
	}
	return out
}
