package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderRoundtripPlain(t *testing.T) {
	h := Header{
		IsS2:                false,
		RootOffset:          1,
		RootLength:          2,
		MetadataOffset:      3,
		MetadataLength:      4,
		LeafDirectoryOffset: 5,
		LeafDirectoryLength: 6,
		TileDataOffset:      7,
		TileDataLength:      8,
		AddressedTilesCount: 9,
		TileEntriesCount:    10,
		TileContentsCount:   11,
		Clustered:           true,
		InternalCompression: CompressionGzip,
		TileCompression:     CompressionBrotli,
		TileType:            TileTypeMvt,
		MinZoom:             1,
		MaxZoom:             2,
		MinLonE7:            11000000,
		MinLatE7:            21000000,
		MaxLonE7:            12000000,
		MaxLatE7:            22000000,
		CenterZoom:          3,
		CenterLonE7:         31000000,
		CenterLatE7:         32000000,
	}

	b := serializeHeader(h)
	assert.Len(t, b, HeaderSizeBytes)
	result, err := deserializeHeader(b)
	assert.NoError(t, err)
	assert.Equal(t, h, result)
}

func TestHeaderRoundtripS2(t *testing.T) {
	h := Header{IsS2: true, RootOffset: 262, RootLength: 100, MinZoom: 0, MaxZoom: 12}
	for i := range h.FaceRoots {
		h.FaceRoots[i] = faceRange{Offset: uint64(1000 + i), Length: uint64(10 + i)}
		h.FaceLeafs[i] = faceRange{Offset: uint64(2000 + i), Length: uint64(20 + i)}
	}

	b := serializeHeader(h)
	assert.Len(t, b, S2HeaderSizeBytes)
	result, err := deserializeHeader(b)
	assert.NoError(t, err)
	assert.Equal(t, h, result)
}

func TestDeserializeHeaderDefaultsMatchFieldSemantics(t *testing.T) {
	// A zero-value Header means: not clustered, no internal compression
	// chosen, no tile compression chosen, tile type unknown. The magic and
	// version prefix are checked separately from the semantic fields,
	// since this is the one place their literal byte values matter.
	h := Header{}
	b := serializeHeader(h)

	assert.Equal(t, []byte("PM"), b[0:2])
	assert.Equal(t, uint8(specVersionPMTiles), b[7])

	result, err := deserializeHeader(b)
	assert.NoError(t, err)
	assert.False(t, result.Clustered)
	assert.Equal(t, CompressionUnknown, result.InternalCompression)
	assert.Equal(t, CompressionUnknown, result.TileCompression)
	assert.Equal(t, TileTypeUnknown, result.TileType)
}

func TestDeserializeHeaderBadMagic(t *testing.T) {
	b := make([]byte, HeaderSizeBytes)
	copy(b, "XX")
	_, err := deserializeHeader(b)
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestDeserializeHeaderTruncated(t *testing.T) {
	_, err := deserializeHeader([]byte("P"))
	assert.ErrorIs(t, err, ErrFormatViolation)

	b := make([]byte, HeaderSizeBytes-1)
	copy(b, "PM")
	_, err = deserializeHeader(b)
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestHeaderRootAndLeafRangeHelpers(t *testing.T) {
	var h Header
	h.setRootRange(0, 10, 20)
	h.setRootRange(3, 30, 40)
	h.setLeafRange(0, 50, 60)
	h.setLeafRange(3, 70, 80)

	offset, length := h.rootRange(0)
	assert.Equal(t, uint64(10), offset)
	assert.Equal(t, uint64(20), length)

	offset, length = h.rootRange(3)
	assert.Equal(t, uint64(30), offset)
	assert.Equal(t, uint64(40), length)

	assert.Equal(t, uint64(50), h.leafRange(0))
	assert.Equal(t, uint64(70), h.leafRange(3))
}
