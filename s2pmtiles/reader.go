package s2pmtiles

// Reader bootstraps an archive's header, metadata, and root
// directory/directories on first use, then serves get-tile requests by
// descending from a root through cached leaf directories. A Reader is
// used from one caller at a time (spec.md §5); concurrent readers must
// share an immutable post-bootstrap snapshot or wrap a Reader in an
// external mutex.
type Reader struct {
	rangeReader RangeReader
	codec       Codec

	bootstrapped bool
	header       Header
	metadata     []byte
	roots        [6][]Entry // face 0 is also the plain-PMTiles root

	cache *dirCache
}

// NewReader constructs a Reader over rangeReader. codec may be nil, in
// which case only CompressionNone archives can be read. cacheSize <= 0
// uses the default of 20 directories.
func NewReader(rangeReader RangeReader, codec Codec, cacheSize int) *Reader {
	if codec == nil {
		codec = identityCodec{}
	}
	return &Reader{
		rangeReader: rangeReader,
		codec:       codec,
		cache:       newDirCache(cacheSize),
	}
}

// Header returns the archive header, bootstrapping on first call.
func (r *Reader) Header() (Header, error) {
	if err := r.bootstrap(); err != nil {
		return Header{}, err
	}
	return r.header, nil
}

// Metadata returns the opaque, codec-decoded JSON metadata blob,
// bootstrapping on first call.
func (r *Reader) Metadata() ([]byte, error) {
	if err := r.bootstrap(); err != nil {
		return nil, err
	}
	return r.metadata, nil
}

// bootstrap fetches the first S2RootSize bytes in one range read, parses
// the header (discriminating "PM" vs "S2" by magic), slices out
// metadata and the root directory/directories, and caches all of it on
// the Reader.
func (r *Reader) bootstrap() error {
	if r.bootstrapped {
		return nil
	}

	prefix, err := r.rangeReader.ReadRange(0, S2RootSize)
	if err != nil {
		return newIOError(err)
	}
	if len(prefix) < HeaderSizeBytes {
		return newFormatError("archive shorter than minimum header size")
	}

	header, err := deserializeHeader(prefix)
	if err != nil {
		return err
	}
	if int(header.MetadataOffset+header.MetadataLength) <= len(prefix) {
		rawMeta := prefix[header.MetadataOffset : header.MetadataOffset+header.MetadataLength]
		metadata, err := r.codec.Decode(rawMeta, header.InternalCompression)
		if err != nil {
			return err
		}
		r.metadata = metadata
	} else {
		rawMeta, err := r.rangeReader.ReadRange(header.MetadataOffset, header.MetadataLength)
		if err != nil {
			return newIOError(err)
		}
		metadata, err := r.codec.Decode(rawMeta, header.InternalCompression)
		if err != nil {
			return err
		}
		r.metadata = metadata
	}

	numFaces := 1
	if header.IsS2 {
		numFaces = 6
	}
	for face := 0; face < numFaces; face++ {
		offset, length := header.rootRange(face)
		entries, err := r.decodeDirectoryFrom(prefix, offset, length, header.InternalCompression)
		if err != nil {
			return err
		}
		r.roots[face] = entries
	}

	r.header = header
	r.bootstrapped = true
	return nil
}

// decodeDirectoryFrom decodes a directory whose bytes lie at
// [offset,offset+length) either within an already-fetched prefix, or (if
// out of range of it) via a fresh range read.
func (r *Reader) decodeDirectoryFrom(prefix []byte, offset, length uint64, compression Compression) ([]Entry, error) {
	var raw []byte
	if int(offset+length) <= len(prefix) {
		raw = prefix[offset : offset+length]
	} else {
		fetched, err := r.rangeReader.ReadRange(offset, length)
		if err != nil {
			return nil, newIOError(err)
		}
		raw = fetched
	}
	data, err := r.codec.Decode(raw, compression)
	if err != nil {
		return nil, err
	}
	return deserializeDirectory(data)
}

// GetTile fetches a plain-PMTiles tile at (z,x,y), or (false, nil) if the
// archive has no such tile. It fails only on format/depth/codec/I/O
// errors.
func (r *Reader) GetTile(z uint8, x, y uint32) ([]byte, bool, error) {
	return r.getTile(0, z, x, y)
}

// GetTileFace fetches an S2-PMTiles tile on the given cube face.
func (r *Reader) GetTileFace(face uint8, z uint8, x, y uint32) ([]byte, bool, error) {
	if face > 5 {
		return nil, false, newRangeError("face must be in [0,5]")
	}
	return r.getTile(int(face), z, x, y)
}

func (r *Reader) getTile(face int, z uint8, x, y uint32) ([]byte, bool, error) {
	if err := r.bootstrap(); err != nil {
		return nil, false, err
	}
	if r.header.IsS2 && face > 5 {
		return nil, false, newRangeError("face out of range")
	}
	if !r.header.IsS2 && face != 0 {
		return nil, false, newFormatError("archive is not an S2-PMTiles archive")
	}

	tileID, err := zxyToID(z, x, y)
	if err != nil {
		return nil, false, err
	}

	dirOffset, dirLength := r.header.rootRange(face)

	for hop := 0; hop < maxDirectoryDepth; hop++ {
		entries, err := r.fetchDirectory(face, dirOffset, dirLength)
		if err != nil {
			return nil, false, err
		}

		entry, ok := findTile(entries, tileID)
		if !ok {
			return nil, false, nil
		}
		if !entry.isLeaf() {
			data, err := r.rangeReader.ReadRange(r.header.TileDataOffset+entry.Offset, uint64(entry.Length))
			if err != nil {
				return nil, false, newIOError(err)
			}
			payload, err := r.codec.Decode(data, r.header.TileCompression)
			if err != nil {
				return nil, false, err
			}
			return payload, true, nil
		}

		dirOffset = r.header.leafRange(face) + entry.Offset
		dirLength = uint64(entry.Length)
	}

	return nil, false, ErrDepthExceeded
}

// fetchDirectory returns the root directory for face directly if offset
// matches its root offset, otherwise consults the LRU cache, fetching
// and decoding on a miss. An empty directory fetched from a non-root
// offset is a corruption signal.
func (r *Reader) fetchDirectory(face int, offset, length uint64) ([]Entry, error) {
	rootOffset, _ := r.header.rootRange(face)
	if offset == rootOffset {
		return r.roots[face], nil
	}

	if entries, ok := r.cache.get(offset); ok {
		return entries, nil
	}

	raw, err := r.rangeReader.ReadRange(offset, length)
	if err != nil {
		return nil, newIOError(err)
	}
	data, err := r.codec.Decode(raw, r.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	entries, err := deserializeDirectory(data)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, newFormatError("empty directory at non-root offset")
	}

	r.cache.set(offset, entries)
	return entries, nil
}

// WalkTiles visits every addressed-tile entry (non-leaf, run_length >= 1)
// in tile-id order across the given face's whole directory tree,
// depth-first. It exists for tools that need the full tile inventory
// (cluster, extract, verify) rather than a single-tile lookup.
func (r *Reader) WalkTiles(face uint8, visit func(Entry) error) error {
	if err := r.bootstrap(); err != nil {
		return err
	}
	rootOffset, rootLength := r.header.rootRange(int(face))
	return r.walkDirectory(int(face), rootOffset, rootLength, 0, visit)
}

func (r *Reader) walkDirectory(face int, offset, length uint64, depth int, visit func(Entry) error) error {
	if depth >= maxDirectoryDepth {
		return ErrDepthExceeded
	}
	entries, err := r.fetchDirectory(face, offset, length)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.isLeaf() {
			leafOffset := r.header.leafRange(face) + entry.Offset
			if err := r.walkDirectory(face, leafOffset, uint64(entry.Length), depth+1, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(entry); err != nil {
			return err
		}
	}
	return nil
}
