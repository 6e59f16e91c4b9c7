package resolver

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rpattn/schemaflow/internal/domain"
)

// DefaultCacheTTL bounds how long a resolution, positive or negative, is
// reused before being recomputed.
const DefaultCacheTTL = 5 * time.Minute

// cacheEntry wraps a resolution result. A nil Resolved records a negative
// result ("resolved to nothing"), which is distinct from a cache miss.
type cacheEntry struct {
	resolved *domain.ResolvedField
}

// Cache is a time-boxed memoization layer in front of the resolver. It is an
// explicitly constructed instance meant to be injected, not shared process
// state, and it never self-invalidates on schema writes.
type Cache struct {
	entries *expirable.LRU[string, cacheEntry]
}

// NewCache creates a cache holding up to maxEntries resolutions for ttl.
// maxEntries <= 0 means unbounded; ttl <= 0 falls back to DefaultCacheTTL.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{entries: expirable.NewLRU[string, cacheEntry](maxEntries, nil, ttl)}
}

// Get returns the cached resolution for a reference. The second return value
// reports a cache hit; on a hit the resolution may still be nil, meaning the
// reference is known not to resolve.
func (c *Cache) Get(schemaID uuid.UUID, ref string) (*domain.ResolvedField, bool) {
	entry, ok := c.entries.Get(cacheKey(schemaID, ref))
	if !ok {
		return nil, false
	}
	if entry.resolved == nil {
		return nil, true
	}
	clone := *entry.resolved
	return &clone, true
}

// Set stores a resolution result. Pass nil to record a negative result so a
// repeatedly-failing resolution is not recomputed within the TTL window.
func (c *Cache) Set(schemaID uuid.UUID, ref string, resolved *domain.ResolvedField) {
	entry := cacheEntry{}
	if resolved != nil {
		clone := *resolved
		entry.resolved = &clone
	}
	c.entries.Add(cacheKey(schemaID, ref), entry)
}

// ClearSchema evicts every entry for one schema.
func (c *Cache) ClearSchema(schemaID uuid.UUID) {
	prefix := schemaID.String() + "|"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

// Clear wipes the whole cache.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(schemaID uuid.UUID, ref string) string {
	return schemaID.String() + "|" + ref
}
