package rules

import "sync"

// ProgramCache stores compiled programs keyed by expression. Implementations
// must be safe for concurrent use.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryCache is an unbounded in-process ProgramCache.
type MemoryCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{programs: map[string]any{}}
}

// Get implements ProgramCache.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

// Set implements ProgramCache.
func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	c.programs[key] = value
}

// Len reports the number of cached programs.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

// cacheKey scopes entries per engine so evaluators can share one cache.
func cacheKey(engine, expression string) string {
	return engine + "\x00" + expression
}
