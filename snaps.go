package plasticity

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shaunstanislauslau/plasticity/geom"
)

// CrossPoint is one computed snap target: an intersection or notable
// point on an item that the pointer can lock onto.
type CrossPoint struct {
	On      geom.Version
	With    geom.Version
	X, Y, Z float64
}

// SnapCache holds computed cross/snap points per item. Recomputing
// them is what's expensive, not storing them, so the cache is
// LRU-bounded rather than complete; a miss just means recompute.
type SnapCache struct {
	cache *lru.Cache[geom.Version, []CrossPoint]
}

type SnapMemento struct {
	entries map[geom.Version][]CrossPoint
}

func NewSnapCache(size int) *SnapCache {
	cache, err := lru.New[geom.Version, []CrossPoint](size)
	if err != nil {
		panic(err) // only on size < 1
	}
	return &SnapCache{cache: cache}
}

func (c *SnapCache) Record(v geom.Version, pts []CrossPoint) {
	c.cache.Add(v, pts)
}

func (c *SnapCache) Lookup(v geom.Version) ([]CrossPoint, bool) {
	return c.cache.Get(v)
}

// Invalidate drops the entry for an item whose geometry changed.
func (c *SnapCache) Invalidate(v geom.Version) {
	c.cache.Remove(v)
}

func (c *SnapCache) Len() int {
	return c.cache.Len()
}

func (c *SnapCache) Snapshot() *SnapMemento {
	m := &SnapMemento{entries: make(map[geom.Version][]CrossPoint, c.cache.Len())}
	for _, v := range c.cache.Keys() {
		if pts, ok := c.cache.Peek(v); ok {
			m.entries[v] = append([]CrossPoint(nil), pts...)
		}
	}
	return m
}

func (c *SnapCache) restore(m *SnapMemento) {
	c.cache.Purge()
	for v, pts := range m.entries {
		c.cache.Add(v, append([]CrossPoint(nil), pts...))
	}
}
