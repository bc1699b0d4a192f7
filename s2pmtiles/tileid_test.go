package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZxyToIDZeroIsOrigin(t *testing.T) {
	id, err := zxyToID(0, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), id)
}

func TestZxyToIDRoundtripAcrossZooms(t *testing.T) {
	for z := uint8(0); z <= 10; z++ {
		n := uint32(1) << z
		for x := uint32(0); x < n; x++ {
			for y := uint32(0); y < n; y++ {
				id, err := zxyToID(z, x, y)
				assert.NoError(t, err)
				gotZ, gotX, gotY, err := idToZxy(id)
				assert.NoError(t, err)
				assert.Equal(t, z, gotZ)
				assert.Equal(t, x, gotX)
				assert.Equal(t, y, gotY)
			}
		}
	}
}

func TestZxyToIDOutOfRange(t *testing.T) {
	_, err := zxyToID(1, 2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = zxyToID(maxZoom+1, 0, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestIDToZxyOutOfRange(t *testing.T) {
	_, _, _, err := idToZxy(tzTable[maxZoom+1])
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFirstTileIDOfEachZoomExceedsAllLowerZoomIDs(t *testing.T) {
	prev, _ := zxyToID(0, 0, 0)
	for z := uint8(1); z <= 6; z++ {
		first, err := zxyToID(z, 0, 0)
		assert.NoError(t, err)
		assert.Greater(t, first, prev)
		prev = first

		n := uint32(1) << z
		for x := uint32(0); x < n; x++ {
			for y := uint32(0); y < n; y++ {
				id, _ := zxyToID(z, x, y)
				if id > prev {
					prev = id
				}
			}
		}
	}
}
