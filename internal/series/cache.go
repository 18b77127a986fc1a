package series

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"windscope/internal/models"
)

const defaultCacheSize = 128

// fieldsKey joins quoted names so a separator inside a name cannot collide with another list
func fieldsKey(names ...string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ",")
}

type cacheKey struct {
	version string
	kind    string
	fields  string
	window  int
}

// Cache memoizes derived sequences per dataset version. Pointer interaction never reaches it;
// entries become unreachable as soon as the dataset version changes.
type Cache struct {
	lru    *lru.Cache
	hits   int
	misses int
}

// NewCache creates a cache holding up to size derived sequences
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) lookup(key cacheKey) (interface{}, bool) {
	if v, ok := c.lru.Get(key); ok {
		c.hits++
		return v, true
	}
	c.misses++
	return nil, false
}

// MovingAverage returns the memoized moving average for a dataset version
func (c *Cache) MovingAverage(version string, points []models.DataPoint, field string, window int) ([]Optional, error) {
	key := cacheKey{version: version, kind: "ma", fields: field, window: window}
	if v, ok := c.lookup(key); ok {
		return v.([]Optional), nil
	}
	out, err := MovingAverage(points, field, window)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, out)
	return out, nil
}

// ConfidenceBand returns the memoized mean +/- std band for a dataset version
func (c *Cache) ConfidenceBand(version string, points []models.DataPoint, meanField, stdField string) []Band {
	key := cacheKey{version: version, kind: "band", fields: fieldsKey(meanField, stdField)}
	if v, ok := c.lookup(key); ok {
		return v.([]Band)
	}
	out := ConfidenceBand(points, meanField, stdField)
	c.lru.Add(key, out)
	return out
}

// BoundsBand returns the memoized precomputed-bounds band for a dataset version
func (c *Cache) BoundsBand(version string, points []models.DataPoint, lowerField, upperField string) []Band {
	key := cacheKey{version: version, kind: "bounds", fields: fieldsKey(lowerField, upperField)}
	if v, ok := c.lookup(key); ok {
		return v.([]Band)
	}
	out := BoundsBand(points, lowerField, upperField)
	c.lru.Add(key, out)
	return out
}

// StackClasses returns the memoized stack for a dataset version and class order
func (c *Cache) StackClasses(version string, bins []models.PolarBin, classOrder []string) ([][]Segment, error) {
	key := cacheKey{version: version, kind: "stack", fields: fieldsKey(classOrder...)}
	if v, ok := c.lookup(key); ok {
		return v.([][]Segment), nil
	}
	out, err := StackClasses(bins, classOrder)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, out)
	return out, nil
}

// Purge drops every entry, used when a new result replaces the datasets
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached sequences
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns the hit and miss counters
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
