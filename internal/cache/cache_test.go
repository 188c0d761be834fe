package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsim/roadsim/internal/model"
)

func TestEntityCache_AddAndGet(t *testing.T) {
	c := NewEntityCache()
	require.Zero(t, c.Len())

	c.Add(model.Entity{ObjectID: 42, Kind: "vehicle", IsAV: true})

	got, ok := c.Get(42)
	require.True(t, ok)
	assert.Equal(t, "vehicle", got.Kind)
	assert.True(t, got.IsAV)
	assert.True(t, c.Has(42))
	assert.False(t, c.Has(7))
}

func TestEntityCache_AddReplaces(t *testing.T) {
	c := NewEntityCache()
	c.Add(model.Entity{ObjectID: 1, Kind: "vehicle"})
	c.Add(model.Entity{ObjectID: 1, Kind: "cyclist"})

	got, _ := c.Get(1)
	assert.Equal(t, "cyclist", got.Kind)
	assert.Equal(t, 1, c.Len())
}

func TestEntityCache_Reset(t *testing.T) {
	c := NewEntityCache()
	c.Add(model.Entity{ObjectID: 1})
	c.Add(model.Entity{ObjectID: 2})

	c.Reset()

	assert.Zero(t, c.Len())
	assert.False(t, c.Has(1))
}

func TestEntityCache_IDsSorted(t *testing.T) {
	c := NewEntityCache()
	for _, id := range []int64{9, -3, 4} {
		c.Add(model.Entity{ObjectID: id})
	}
	assert.Equal(t, []int64{-3, 4, 9}, c.IDs())
}

func TestEntityCache_Concurrent(t *testing.T) {
	c := NewEntityCache()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(model.Entity{ObjectID: int64(i)})
			c.Has(int64(i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(3)
		}()
	}
	wg.Wait()
	assert.Equal(t, 30, c.Value())

	c.Reset()
	assert.Zero(t, c.Value())
}
