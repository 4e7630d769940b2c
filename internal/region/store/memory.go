package store

import (
	"context"
	"slices"
	"sync"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

const memoryProviderID = "memory"

type levelCode struct {
	level models.Level
	code  string
}

// MemoryCatalog is an in-process region catalog. Insertion order is the
// server order reported to callers.
type MemoryCatalog struct {
	mu       sync.RWMutex
	children map[models.CacheKey][]models.Option
	parents  map[levelCode]string
	postal   map[string]string
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		children: make(map[models.CacheKey][]models.Option),
		parents:  make(map[levelCode]string),
		postal:   make(map[string]string),
	}
}

// Add registers option under parentCode at level. A non-empty postalCode is
// only meaningful for villages.
func (c *MemoryCatalog) Add(level models.Level, parentCode string, option models.Option, postalCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := models.CacheKey{Level: level, ParentCode: parentCode}
	c.children[key] = append(c.children[key], option)
	c.parents[levelCode{level, option.Code}] = parentCode
	if level == models.LevelVillage && postalCode != "" {
		c.postal[option.Code] = postalCode
	}
}

// Remove deletes code and its subtree, the way an upstream catalog drops a
// merged or renamed region.
func (c *MemoryCatalog) Remove(level models.Level, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(level, code)
}

func (c *MemoryCatalog) removeLocked(level models.Level, code string) {
	lc := levelCode{level, code}
	parent, ok := c.parents[lc]
	if !ok {
		return
	}
	key := models.CacheKey{Level: level, ParentCode: parent}
	c.children[key] = slices.DeleteFunc(c.children[key], func(o models.Option) bool {
		return o.Code == code
	})
	delete(c.parents, lc)
	delete(c.postal, code)

	if child, ok := level.Child(); ok {
		childKey := models.CacheKey{Level: child, ParentCode: code}
		for _, o := range slices.Clone(c.children[childKey]) {
			c.removeLocked(child, o.Code)
		}
		delete(c.children, childKey)
	}
}

// FetchChildren returns not_found when the parent is not a known region of
// the level above.
func (c *MemoryCatalog) FetchChildren(_ context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	if err := providers.ValidateRequest(level, parentCode); err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, memoryProviderID, "invalid lookup", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if parentLevel, ok := level.Parent(); ok {
		if _, known := c.parents[levelCode{parentLevel, parentCode}]; !known {
			return nil, providers.NotFound(memoryProviderID, parentLevel.String()+" "+parentCode+" not in catalog")
		}
	}
	return slices.Clone(c.children[models.CacheKey{Level: level, ParentCode: parentCode}]), nil
}

func (c *MemoryCatalog) ResolvePostalCode(_ context.Context, villageCode string) (*string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	postal, ok := c.postal[villageCode]
	if !ok {
		return nil, nil
	}
	return &postal, nil
}

// Store replaces the list under parentCode. It lets a MemoryCatalog act as a
// Warm sink.
func (c *MemoryCatalog) Store(_ context.Context, level models.Level, parentCode string, options []models.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := models.CacheKey{Level: level, ParentCode: parentCode}
	for _, o := range c.children[key] {
		delete(c.parents, levelCode{level, o.Code})
	}
	c.children[key] = slices.Clone(options)
	for _, o := range options {
		c.parents[levelCode{level, o.Code}] = parentCode
	}
	return nil
}
