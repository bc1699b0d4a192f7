package s2pmtiles

// Compression identifies the codec applied to a byte blob. Unknown wire
// values decode to CompressionUnknown rather than failing, so future
// codec ids can be probed without breaking older readers.
type Compression uint8

const (
	CompressionUnknown Compression = 0
	CompressionNone    Compression = 1
	CompressionGzip    Compression = 2
	CompressionBrotli  Compression = 3
	CompressionZstd    Compression = 4
)

// TileType identifies the format of individual tile payloads.
type TileType uint8

const (
	TileTypeUnknown TileType = 0
	TileTypeMvt     TileType = 1
	TileTypePng     TileType = 2
	TileTypeJpeg    TileType = 3
	TileTypeWebp    TileType = 4
	TileTypeAvif    TileType = 5
)

const (
	// HeaderSizeBytes is the fixed size of a plain PMTiles v3 header.
	HeaderSizeBytes = 127
	// S2HeaderSizeBytes is the fixed size of an S2-PMTiles v1 header.
	S2HeaderSizeBytes = 262
	// RootSize is the target byte budget for a committed root directory.
	RootSize = 16384
	// S2RootSize is the reserved byte region at the head of every
	// archive (plain or S2) that the header, root directories, and
	// metadata must fit within.
	S2RootSize = 98304
	// maxDirectoryDepth bounds root -> leaf descent: root plus up to
	// three leaf hops.
	maxDirectoryDepth = 4

	magicPM = "PM"
	magicS2 = "S2"

	specVersionPMTiles = 3
	specVersionS2      = 1
)

// faceRange describes the (offset, length) pair for
// one face's root or leaf directory region in an S2 header.
type faceRange struct {
	Offset uint64
	Length uint64
}

// Header carries the fixed-width fields of both the PMTiles v3 header
// and the S2-PMTiles v1 extension; IsS2 discriminates which wire layout
// Serialize/deserializeHeader use. The geographic bounding box and
// center fields only apply when !IsS2 (an S2 header has none of them and
// a reader must surface them as zero).
type Header struct {
	IsS2 bool

	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8

	// Plain-PMTiles-only geographic fields (fixed-point, 1e7-scaled).
	MinLonE7    int32
	MinLatE7    int32
	MaxLonE7    int32
	MaxLatE7    int32
	CenterZoom  uint8
	CenterLonE7 int32
	CenterLatE7 int32

	// S2-only: faces 1..5 root/leaf directory ranges. Face 0 shares the
	// RootOffset/RootLength/LeafDirectoryOffset/LeafDirectoryLength
	// fields above.
	FaceRoots [5]faceRange
	FaceLeafs [5]faceRange
}

func (h Header) specVersion() uint8 {
	if h.IsS2 {
		return specVersionS2
	}
	return specVersionPMTiles
}

func (h Header) sizeBytes() int {
	if h.IsS2 {
		return S2HeaderSizeBytes
	}
	return HeaderSizeBytes
}

// rootRange returns the root directory (offset, length) for the given
// face. face must be 0 for a plain-PMTiles header.
func (h Header) rootRange(face int) (uint64, uint64) {
	if face == 0 {
		return h.RootOffset, h.RootLength
	}
	r := h.FaceRoots[face-1]
	return r.Offset, r.Length
}

func (h *Header) setRootRange(face int, offset, length uint64) {
	if face == 0 {
		h.RootOffset, h.RootLength = offset, length
		return
	}
	h.FaceRoots[face-1] = faceRange{offset, length}
}

func (h Header) leafRange(face int) uint64 {
	if face == 0 {
		return h.LeafDirectoryOffset
	}
	return h.FaceLeafs[face-1].Offset
}

func (h *Header) setLeafRange(face int, offset, length uint64) {
	if face == 0 {
		h.LeafDirectoryOffset, h.LeafDirectoryLength = offset, length
		return
	}
	h.FaceLeafs[face-1] = faceRange{offset, length}
}

// serializeHeader writes h at its fixed byte layout: 127 bytes for a
// plain PMTiles v3 header, 262 bytes for an S2-PMTiles v1 header.
func serializeHeader(h Header) []byte {
	b := newBuffer()
	size := h.sizeBytes()
	b.ensure(size)

	if h.IsS2 {
		b.setBytesAt(0, []byte(magicS2))
	} else {
		b.setBytesAt(0, []byte(magicPM))
	}
	b.setUint8At(7, h.specVersion())
	b.setUint64At(8, h.RootOffset)
	b.setUint64At(16, h.RootLength)
	b.setUint64At(24, h.MetadataOffset)
	b.setUint64At(32, h.MetadataLength)
	b.setUint64At(40, h.LeafDirectoryOffset)
	b.setUint64At(48, h.LeafDirectoryLength)
	b.setUint64At(56, h.TileDataOffset)
	b.setUint64At(64, h.TileDataLength)
	b.setUint64At(72, h.AddressedTilesCount)
	b.setUint64At(80, h.TileEntriesCount)
	b.setUint64At(88, h.TileContentsCount)
	if h.Clustered {
		b.setUint8At(96, 1)
	} else {
		b.setUint8At(96, 0)
	}
	b.setUint8At(97, uint8(h.InternalCompression))
	b.setUint8At(98, uint8(h.TileCompression))
	b.setUint8At(99, uint8(h.TileType))
	b.setUint8At(100, h.MinZoom)
	b.setUint8At(101, h.MaxZoom)

	if h.IsS2 {
		pos := 102
		for _, r := range h.FaceRoots {
			b.setUint64At(pos, r.Offset)
			b.setUint64At(pos+8, r.Length)
			pos += 16
		}
		pos = 182
		for _, r := range h.FaceLeafs {
			b.setUint64At(pos, r.Offset)
			b.setUint64At(pos+8, r.Length)
			pos += 16
		}
	} else {
		b.setInt32At(102, h.MinLonE7)
		b.setInt32At(106, h.MinLatE7)
		b.setInt32At(110, h.MaxLonE7)
		b.setInt32At(114, h.MaxLatE7)
		b.setUint8At(118, h.CenterZoom)
		b.setInt32At(119, h.CenterLonE7)
		b.setInt32At(123, h.CenterLatE7)
	}

	return b.bytes()[:size]
}

// deserializeHeader parses the first bytes of an archive into a Header.
// The magic prefix at offset 0-1 discriminates the PMTiles v3 layout
// ("PM", 127 bytes) from the S2-PMTiles v1 layout ("S2", 262 bytes); any
// other magic is a format violation.
func deserializeHeader(d []byte) (Header, error) {
	if len(d) < 8 {
		return Header{}, newFormatError("header truncated")
	}

	var h Header
	switch string(d[0:2]) {
	case magicPM:
		h.IsS2 = false
	case magicS2:
		h.IsS2 = true
	default:
		return Header{}, newFormatError("bad magic: not a PMTiles or S2-PMTiles archive")
	}

	size := h.sizeBytes()
	if len(d) < size {
		return Header{}, newFormatError("header truncated")
	}
	b := newBufferFrom(d)

	h.RootOffset = b.uint64At(8)
	h.RootLength = b.uint64At(16)
	h.MetadataOffset = b.uint64At(24)
	h.MetadataLength = b.uint64At(32)
	h.LeafDirectoryOffset = b.uint64At(40)
	h.LeafDirectoryLength = b.uint64At(48)
	h.TileDataOffset = b.uint64At(56)
	h.TileDataLength = b.uint64At(64)
	h.AddressedTilesCount = b.uint64At(72)
	h.TileEntriesCount = b.uint64At(80)
	h.TileContentsCount = b.uint64At(88)
	h.Clustered = b.uint8At(96) == 1
	h.InternalCompression = Compression(b.uint8At(97))
	h.TileCompression = Compression(b.uint8At(98))
	h.TileType = TileType(b.uint8At(99))
	if h.InternalCompression > CompressionZstd {
		h.InternalCompression = CompressionUnknown
	}
	if h.TileCompression > CompressionZstd {
		h.TileCompression = CompressionUnknown
	}
	if h.TileType > TileTypeAvif {
		h.TileType = TileTypeUnknown
	}
	h.MinZoom = b.uint8At(100)
	h.MaxZoom = b.uint8At(101)

	if h.IsS2 {
		pos := 102
		for i := range h.FaceRoots {
			h.FaceRoots[i] = faceRange{b.uint64At(pos), b.uint64At(pos + 8)}
			pos += 16
		}
		pos = 182
		for i := range h.FaceLeafs {
			h.FaceLeafs[i] = faceRange{b.uint64At(pos), b.uint64At(pos + 8)}
			pos += 16
		}
	} else {
		h.MinLonE7 = b.int32At(102)
		h.MinLatE7 = b.int32At(106)
		h.MaxLonE7 = b.int32At(110)
		h.MaxLatE7 = b.int32At(114)
		h.CenterZoom = b.uint8At(118)
		h.CenterLonE7 = b.int32At(119)
		h.CenterLatE7 = b.int32At(123)
	}

	return h, nil
}
