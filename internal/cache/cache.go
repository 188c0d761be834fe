package cache

import (
	"slices"
	"sync"

	"github.com/roadsim/roadsim/internal/model"
)

// EntityCache holds the entities registered in the current scene so state rows can be
// checked against them without a db read per tick.
type EntityCache struct {
	m        sync.Mutex
	entities map[int64]model.Entity
}

func NewEntityCache() *EntityCache {
	return &EntityCache{
		entities: make(map[int64]model.Entity),
	}
}

// Reset drops every entity, e.g. when a new scene starts.
func (c *EntityCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entities = make(map[int64]model.Entity)
}

func (c *EntityCache) Add(e model.Entity) {
	c.m.Lock()
	defer c.m.Unlock()
	c.entities[e.ObjectID] = e
}

func (c *EntityCache) Get(id int64) (model.Entity, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	e, ok := c.entities[id]
	return e, ok
}

func (c *EntityCache) Has(id int64) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *EntityCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entities)
}

// IDs returns the cached object ids in ascending order.
func (c *EntityCache) IDs() []int64 {
	c.m.Lock()
	defer c.m.Unlock()
	ids := make([]int64, 0, len(c.entities))
	for id := range c.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Add(n int) {
	c.mu.Lock()
	c.v += n
	c.mu.Unlock()
}

func (c *SafeCounter) Reset() {
	c.mu.Lock()
	c.v = 0
	c.mu.Unlock()
}
