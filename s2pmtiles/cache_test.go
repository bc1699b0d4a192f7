package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirCacheGetSetMiss(t *testing.T) {
	c := newDirCache(4)
	_, ok := c.get(1)
	assert.False(t, ok)

	entries := []Entry{{TileID: 1}}
	c.set(1, entries)
	got, ok := c.get(1)
	assert.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestDirCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newDirCache(2)
	c.set(1, []Entry{{TileID: 1}})
	c.set(2, []Entry{{TileID: 2}})
	c.set(3, []Entry{{TileID: 3}}) // evicts 1 (least recently used)

	_, ok := c.get(1)
	assert.False(t, ok)
	_, ok = c.get(2)
	assert.True(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
}

func TestDirCacheGetPromotesToMostRecentlyUsed(t *testing.T) {
	c := newDirCache(2)
	c.set(1, []Entry{{TileID: 1}})
	c.set(2, []Entry{{TileID: 2}})
	c.get(1) // promote 1, so 2 becomes least-recently-used
	c.set(3, []Entry{{TileID: 3}})

	_, ok := c.get(2)
	assert.False(t, ok)
	_, ok = c.get(1)
	assert.True(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
}

func TestDirCacheDefaultSizeForNonPositive(t *testing.T) {
	c := newDirCache(0)
	assert.Equal(t, dirCacheDefaultSize, c.maxSize)
}

func TestDirCacheDelete(t *testing.T) {
	c := newDirCache(4)
	c.set(1, []Entry{{TileID: 1}})
	c.delete(1)
	_, ok := c.get(1)
	assert.False(t, ok)
}
