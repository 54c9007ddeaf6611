// Package catalog provides cached access to the category catalog and the
// amount-band heuristic table.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/service"
)

// DefaultTTL bounds catalog staleness. Catalog edits are rare and
// administered externally, so an hour is plenty.
const DefaultTTL = time.Hour

// Cache is a read-through cache over a category source. It is injected
// into the matcher and engine instead of being ambient global state.
type Cache struct {
	expiry     time.Time
	source     service.CategorySource
	categories []model.Category
	bySlug     map[string]*model.Category
	byID       map[int]*model.Category
	ttl        time.Duration
	mu         sync.RWMutex
}

// NewCache creates a read-through category cache with the given TTL.
func NewCache(source service.CategorySource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
	}
}

// Categories returns all active categories, loading from the source when
// the cache is cold or expired.
func (c *Cache) Categories(ctx context.Context) ([]model.Category, error) {
	c.mu.RLock()
	if c.categories != nil && time.Now().Before(c.expiry) {
		cats := c.categories
		c.mu.RUnlock()
		return cats, nil
	}
	c.mu.RUnlock()

	return c.refresh(ctx)
}

// BySlug returns the cached category with the given slug, or nil.
func (c *Cache) BySlug(ctx context.Context, slug string) (*model.Category, error) {
	if _, err := c.Categories(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bySlug[slug], nil
}

// ByID returns the cached category with the given id, or nil.
func (c *Cache) ByID(ctx context.Context, id int) (*model.Category, error) {
	if _, err := c.Categories(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id], nil
}

// Invalidate drops the cached catalog so the next read reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = nil
	c.bySlug = nil
	c.byID = nil
}

func (c *Cache) refresh(ctx context.Context) ([]model.Category, error) {
	categories, err := c.source.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category catalog: %w", err)
	}

	bySlug := make(map[string]*model.Category, len(categories))
	byID := make(map[int]*model.Category, len(categories))
	for i := range categories {
		bySlug[categories[i].Slug] = &categories[i]
		byID[categories[i].ID] = &categories[i]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = categories
	c.bySlug = bySlug
	c.byID = byID
	c.expiry = time.Now().Add(c.ttl)

	return categories, nil
}
