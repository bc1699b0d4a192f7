package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryRoundtrip(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 10, RunLength: 1},
		{TileID: 1, Offset: 10, Length: 20, RunLength: 2},
		{TileID: 5, Offset: 100, Length: 5, RunLength: 1},
	}

	serialized := serializeDirectory(entries)
	result, err := deserializeDirectory(serialized)
	assert.NoError(t, err)
	assert.Equal(t, entries, result)
}

func TestDirectoryRoundtripEmpty(t *testing.T) {
	serialized := serializeDirectory(nil)
	result, err := deserializeDirectory(serialized)
	assert.NoError(t, err)
	assert.Empty(t, result)
}

func TestDirectoryContiguousOffsetsCompressToZero(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 10, RunLength: 1},
		{TileID: 1, Offset: 10, Length: 10, RunLength: 1}, // contiguous with prior
		{TileID: 2, Offset: 50, Length: 10, RunLength: 1}, // not contiguous
	}
	serialized := serializeDirectory(entries)
	// Offset column: 0+1, 0 (contiguous), 50+1.
	assert.Equal(t, []byte{0x01, 0x00, 0x33}, serialized[len(serialized)-3:])
	result, err := deserializeDirectory(serialized)
	assert.NoError(t, err)
	assert.Equal(t, entries, result)
}

func TestDirectorySerializeIsDeterministic(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 1, RunLength: 1},
		{TileID: 7, Offset: 1, Length: 2, RunLength: 1},
	}
	a := serializeDirectory(entries)
	b := serializeDirectory(entries)
	assert.Equal(t, a, b)
}

func TestFindTileExactMatch(t *testing.T) {
	entries := []Entry{
		{TileID: 0, Offset: 0, Length: 1, RunLength: 1},
		{TileID: 5, Offset: 5, Length: 1, RunLength: 1},
		{TileID: 10, Offset: 10, Length: 1, RunLength: 1},
	}
	e, ok := findTile(entries, 5)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), e.TileID)
}

func TestFindTileWithinRun(t *testing.T) {
	entries := []Entry{
		{TileID: 10, Offset: 100, Length: 1, RunLength: 5},
	}
	e, ok := findTile(entries, 13)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), e.TileID)

	_, ok = findTile(entries, 15)
	assert.False(t, ok)
}

func TestFindTileLeafFallsThrough(t *testing.T) {
	entries := []Entry{
		{TileID: 10, Offset: 1000, Length: 50, RunLength: 0}, // leaf pointer
	}
	e, ok := findTile(entries, 999999)
	assert.True(t, ok)
	assert.True(t, e.isLeaf())
}

func TestFindTileBeforeFirstEntry(t *testing.T) {
	entries := []Entry{
		{TileID: 10, Offset: 100, Length: 1, RunLength: 1},
	}
	_, ok := findTile(entries, 5)
	assert.False(t, ok)
}

func TestFindTileEmptyDirectory(t *testing.T) {
	_, ok := findTile(nil, 0)
	assert.False(t, ok)
}
