package s2pmtiles

import (
	"crypto/sha256"
	"sort"
)

// WriterOptions configures the codecs and tile type recorded in the
// committed header. TileType defaults to TileTypeUnknown if unset; per
// spec.md §9(c) it is always taken from the writer's configuration,
// never hardcoded.
type WriterOptions struct {
	TileCompression     Compression
	InternalCompression Compression
	TileType            TileType
}

// Writer accumulates tiles for either a plain PMTiles archive (via
// WriteTile) or an S2-PMTiles archive (via WriteTileFace, one of six
// independent face directories), then assembles the final archive in a
// single Commit pass. A Writer is used from one caller at a time;
// mutation after Commit is unsupported (spec.md §1 Non-goals).
type Writer struct {
	sink    Sink
	codec   Codec
	options WriterOptions

	plainEntries []Entry
	faceEntries  [6][]Entry

	offset         uint64
	hashToOffset   map[[32]byte]uint64
	addressedTiles uint64
	clustered      bool
	committed      bool
}

// NewWriter constructs a Writer over sink, reserving S2RootSize zero
// bytes at the head (overwritten at Commit with the header, root
// directories, and metadata). codec may be nil when only
// CompressionNone is used.
func NewWriter(sink Sink, codec Codec, options WriterOptions) (*Writer, error) {
	if codec == nil {
		codec = identityCodec{}
	}
	// A writer never emits CompressionUnknown: the zero value of
	// WriterOptions means "no compression", not "unspecified".
	if options.InternalCompression == CompressionUnknown {
		options.InternalCompression = CompressionNone
	}
	if options.TileCompression == CompressionUnknown {
		options.TileCompression = CompressionNone
	}
	if err := sink.Append(make([]byte, S2RootSize)); err != nil {
		return nil, newIOError(err)
	}
	return &Writer{
		sink:         sink,
		codec:        codec,
		options:      options,
		hashToOffset: make(map[[32]byte]uint64),
		clustered:    true,
	}, nil
}

// WriteTile writes a plain-PMTiles tile at (z,x,y).
func (w *Writer) WriteTile(z uint8, x, y uint32, payload []byte) error {
	tileID, err := zxyToID(z, x, y)
	if err != nil {
		return err
	}
	return w.writeTileID(tileID, payload, 0, &w.plainEntries)
}

// WriteTileFace writes an S2-PMTiles tile on the given cube face.
func (w *Writer) WriteTileFace(face uint8, z uint8, x, y uint32, payload []byte) error {
	if face > 5 {
		return newRangeError("face must be in [0,5]")
	}
	tileID, err := zxyToID(z, x, y)
	if err != nil {
		return err
	}
	return w.writeTileID(tileID, payload, int(face)+1, &w.faceEntries[face])
}

// writeTileID appends an entry for tileID/payload to *entries, deduping
// identical payloads by their SHA-256 hash and coalescing consecutive
// identical payloads into a single run. Callers pass a slot (0 for a
// plain archive, face+1 for an S2 face) that writeTileID ignores: the
// clustered-flag check compares only against the last entry of
// *entries. The dedup map is shared across every directory.
func (w *Writer) writeTileID(tileID uint64, payload []byte, _ int, entries *[]Entry) error {
	if len(*entries) > 0 && tileID < (*entries)[len(*entries)-1].TileID {
		w.clustered = false
	}

	hash := sha256.Sum256(payload)
	length := uint32(len(payload))

	if priorOffset, ok := w.hashToOffset[hash]; ok {
		if n := len(*entries); n > 0 {
			last := &(*entries)[n-1]
			if last.Offset == priorOffset && tileID == last.TileID+uint64(last.RunLength) {
				last.RunLength++
				w.addressedTiles++
				return nil
			}
		}
		*entries = append(*entries, Entry{TileID: tileID, Offset: priorOffset, Length: length, RunLength: 1})
		w.addressedTiles++
		return nil
	}

	if err := w.sink.Append(payload); err != nil {
		return newIOError(err)
	}
	*entries = append(*entries, Entry{TileID: tileID, Offset: w.offset, Length: length, RunLength: 1})
	w.hashToOffset[hash] = w.offset
	w.offset += uint64(length)
	w.addressedTiles++
	return nil
}

// Commit finalizes the archive: sorts every accumulated directory,
// optimizes each into root+leaves within the per-directory byte budget,
// lays out header/roots/metadata/leaves/data at their final offsets, and
// writes everything through the sink. Commit fails only through the
// sink or codec, or with a format violation when called a second
// time; it never partially writes a directory's data
// afterward (spec.md §1 Non-goals: commit is a single pass).
func (w *Writer) Commit(metadata []byte) (Header, error) {
	if w.committed {
		return Header{}, newFormatError("writer already committed")
	}
	w.committed = true

	if len(w.plainEntries) > 0 {
		return w.commitPlain(metadata)
	}
	return w.commitS2(metadata)
}

func (w *Writer) encodedMetadata(metadata []byte) ([]byte, error) {
	return w.codec.Encode(metadata, w.options.InternalCompression)
}

func (w *Writer) commitPlain(metadata []byte) (Header, error) {
	encodedMeta, err := w.encodedMetadata(metadata)
	if err != nil {
		return Header{}, err
	}

	sorted := append([]Entry(nil), w.plainEntries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TileID < sorted[j].TileID })

	budget := RootSize - S2HeaderSizeBytes - len(encodedMeta)
	rootBytes, leavesBytes, err := w.splitDirectory(sorted, budget)
	if err != nil {
		return Header{}, err
	}

	rootOffset := uint64(S2HeaderSizeBytes)
	rootLength := uint64(len(rootBytes))
	metadataOffset := rootOffset + rootLength
	metadataLength := uint64(len(encodedMeta))
	leafDirectoryOffset := S2RootSize + w.offset
	leafDirectoryLength := uint64(len(leavesBytes))

	if err := w.sink.Append(leavesBytes); err != nil {
		return Header{}, newIOError(err)
	}

	minZoom, maxZoom := zoomRange(sorted)

	header := Header{
		IsS2:                false,
		RootOffset:          rootOffset,
		RootLength:          rootLength,
		MetadataOffset:      metadataOffset,
		MetadataLength:      metadataLength,
		LeafDirectoryOffset: leafDirectoryOffset,
		LeafDirectoryLength: leafDirectoryLength,
		TileDataOffset:      S2RootSize,
		TileDataLength:      w.offset,
		AddressedTilesCount: w.addressedTiles,
		TileEntriesCount:    uint64(len(sorted)),
		TileContentsCount:   uint64(len(w.hashToOffset)),
		Clustered:           w.clustered,
		InternalCompression: w.options.InternalCompression,
		TileCompression:     w.options.TileCompression,
		TileType:            w.options.TileType,
		MinZoom:             minZoom,
		MaxZoom:             maxZoom,
	}

	if err := w.writeFinalLayout(header, [][]byte{rootBytes}, []uint64{rootOffset}, encodedMeta, metadataOffset); err != nil {
		return Header{}, err
	}
	return header, nil
}

// commitS2 assembles the six-face archive. Per spec.md §9 this resolves
// the original source's open questions: metadata is placed after all
// six face roots (not mid-sequence, open question (a)), and each face's
// leaves are appended exactly once in face order (open question (b)).
func (w *Writer) commitS2(metadata []byte) (Header, error) {
	encodedMeta, err := w.encodedMetadata(metadata)
	if err != nil {
		return Header{}, err
	}

	budget := RootSize - S2HeaderSizeBytes - len(encodedMeta)

	var roots [6][]byte
	var leaves [6][]byte
	var sortedFaces [6][]Entry
	totalEntries := 0
	for face := 0; face < 6; face++ {
		sorted := append([]Entry(nil), w.faceEntries[face]...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].TileID < sorted[j].TileID })
		sortedFaces[face] = sorted
		totalEntries += len(sorted)

		root, leaf, err := w.splitDirectory(sorted, budget)
		if err != nil {
			return Header{}, err
		}
		roots[face] = root
		leaves[face] = leaf
	}

	header := Header{IsS2: true}

	rootOffsets := make([]uint64, 6)
	offset := uint64(S2HeaderSizeBytes)
	for face := 0; face < 6; face++ {
		rootOffsets[face] = offset
		header.setRootRange(face, offset, uint64(len(roots[face])))
		offset += uint64(len(roots[face]))
	}

	metadataOffset := offset
	metadataLength := uint64(len(encodedMeta))

	// Leaf regions follow the tile-data region, in face order, each
	// face's leaves appended exactly once (open question (b)).
	dataOffset := uint64(S2RootSize)
	leafCursor := w.offset
	for face := 0; face < 6; face++ {
		leafOffset := dataOffset + leafCursor
		header.setLeafRange(face, leafOffset, uint64(len(leaves[face])))
		if err := w.sink.Append(leaves[face]); err != nil {
			return Header{}, newIOError(err)
		}
		leafCursor += uint64(len(leaves[face]))
	}

	minZoom, maxZoom := zoomRangeFaces(sortedFaces)

	header.MetadataOffset = metadataOffset
	header.MetadataLength = metadataLength
	header.TileDataOffset = dataOffset
	header.TileDataLength = w.offset
	header.AddressedTilesCount = w.addressedTiles
	header.TileEntriesCount = uint64(totalEntries)
	header.TileContentsCount = uint64(len(w.hashToOffset))
	header.Clustered = w.clustered
	header.InternalCompression = w.options.InternalCompression
	header.TileCompression = w.options.TileCompression
	header.TileType = w.options.TileType
	header.MinZoom = minZoom
	header.MaxZoom = maxZoom

	rootByteSlices := make([][]byte, 6)
	for i := range roots {
		rootByteSlices[i] = roots[i]
	}
	if err := w.writeFinalLayout(header, rootByteSlices, rootOffsets, encodedMeta, metadataOffset); err != nil {
		return Header{}, err
	}
	return header, nil
}

// splitDirectory splits a sorted directory into a root plus leaves
// within targetRootLen, compressing with the writer's internal codec
// when configured. Compression is uncompressed-identity when
// InternalCompression is CompressionNone, in which case this defers to
// optimizeDirectory directly. Otherwise each leaf chunk is compressed
// individually before its byte range is fixed: the reader fetches and
// decodes one leaf's range at a time (fetchDirectory), so a leaf's
// stored bytes must be a complete, independently decodable stream --
// compressing the whole leaf region as one blob would make any
// sub-range unreadable on its own.
func (w *Writer) splitDirectory(entries []Entry, targetRootLen int) (rootBytes, leavesBytes []byte, err error) {
	compression := w.options.InternalCompression
	if compression == CompressionNone {
		root, leaves, _ := optimizeDirectory(entries, targetRootLen)
		return root, leaves, nil
	}

	whole := serializeDirectory(entries)
	encodedWhole, err := w.codec.Encode(whole, compression)
	if err != nil {
		return nil, nil, err
	}
	if len(encodedWhole) <= targetRootLen {
		return encodedWhole, nil, nil
	}

	for leafSize := 4096; ; leafSize *= 2 {
		root, leaves, fits, err := w.buildCompressedRootLeaves(entries, leafSize, targetRootLen, compression)
		if err != nil {
			return nil, nil, err
		}
		if fits {
			return root, leaves, nil
		}
	}
}

// buildCompressedRootLeaves mirrors buildRootLeaves but compresses each
// leaf chunk as it is built, so root pointer offsets/lengths refer to
// the compressed bytes actually stored in leavesBytes.
func (w *Writer) buildCompressedRootLeaves(entries []Entry, leafSize, targetRootLen int, compression Compression) (rootBytes, leavesBytes []byte, fits bool, err error) {
	rootEntries := make([]Entry, 0, (len(entries)+leafSize-1)/leafSize)
	var leaves []byte

	for i := 0; i < len(entries); i += leafSize {
		end := i + leafSize
		if end > len(entries) {
			end = len(entries)
		}
		compressed, err := w.codec.Encode(serializeDirectory(entries[i:end]), compression)
		if err != nil {
			return nil, nil, false, err
		}
		rootEntries = append(rootEntries, Entry{
			TileID:    entries[i].TileID,
			Offset:    uint64(len(leaves)),
			Length:    uint32(len(compressed)),
			RunLength: 0,
		})
		leaves = append(leaves, compressed...)
	}

	encodedRoot, err := w.codec.Encode(serializeDirectory(rootEntries), compression)
	if err != nil {
		return nil, nil, false, err
	}
	return encodedRoot, leaves, len(encodedRoot) <= targetRootLen, nil
}

// writeFinalLayout overwrites the reserved head-of-sink region with the
// serialized header, each root directory, and the metadata blob.
func (w *Writer) writeFinalLayout(header Header, roots [][]byte, rootOffsets []uint64, metadata []byte, metadataOffset uint64) error {
	headerBytes := serializeHeader(header)
	if err := w.sink.WriteAt(headerBytes, 0); err != nil {
		return newIOError(err)
	}
	for i, root := range roots {
		if err := w.sink.WriteAt(root, rootOffsets[i]); err != nil {
			return newIOError(err)
		}
	}
	if err := w.sink.WriteAt(metadata, metadataOffset); err != nil {
		return newIOError(err)
	}
	return nil
}

func zoomRange(sorted []Entry) (min, max uint8) {
	if len(sorted) == 0 {
		return 0, 0
	}
	minZ, _, _, _ := idToZxy(sorted[0].TileID)
	maxZ, _, _, _ := idToZxy(sorted[len(sorted)-1].TileID)
	return minZ, maxZ
}

func zoomRangeFaces(faces [6][]Entry) (min, max uint8) {
	first := true
	for _, entries := range faces {
		if len(entries) == 0 {
			continue
		}
		lo, hi := zoomRange(entries)
		if first {
			min, max = lo, hi
			first = false
			continue
		}
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max
}
