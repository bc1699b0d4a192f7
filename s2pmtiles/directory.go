package s2pmtiles

// Entry is the canonical directory record. A non-zero RunLength means the
// entry resolves TileID and the next RunLength-1 consecutive tile ids to
// the same payload at [offset, offset+length) of the data region.
// RunLength == 0 marks a leaf pointer: Offset/Length instead locate a
// leaf directory within the leaf region.
type Entry struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// isLeaf reports whether e points at a leaf directory rather than a tile.
func (e Entry) isLeaf() bool {
	return e.RunLength == 0
}

// Directory is an ordered sequence of entries. Once committed it is
// sorted by TileID with no duplicate ids and non-overlapping runs.
type Directory struct {
	Entries []Entry
}

func (d Directory) Len() int           { return len(d.Entries) }
func (d Directory) Less(i, j int) bool { return d.Entries[i].TileID < d.Entries[j].TileID }
func (d Directory) Swap(i, j int)      { d.Entries[i], d.Entries[j] = d.Entries[j], d.Entries[i] }

// serializeDirectory writes the five varint-encoded columns described in
// spec.md §4.3, in order: count, delta-encoded tile ids, run lengths,
// lengths, and offsets-with-contiguity-skip.
func serializeDirectory(entries []Entry) []byte {
	b := newBuffer()
	b.appendVarint(uint64(len(entries)))

	var lastID uint64
	for _, e := range entries {
		b.appendVarint(e.TileID - lastID)
		lastID = e.TileID
	}
	for _, e := range entries {
		b.appendVarint(uint64(e.RunLength))
	}
	for _, e := range entries {
		b.appendVarint(uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			b.appendVarint(0)
		} else {
			b.appendVarint(e.Offset + 1)
		}
	}
	return b.bytes()
}

// deserializeDirectory mirrors serializeDirectory exactly, so that a
// parse -> serialize round trip on sorted, duplicate-free entries yields
// identical bytes.
func deserializeDirectory(data []byte) ([]Entry, error) {
	b := newBufferFrom(data)

	count, err := b.readVarint()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, count)

	var lastID uint64
	for i := range entries {
		delta, err := b.readVarint()
		if err != nil {
			return nil, err
		}
		lastID += delta
		entries[i].TileID = lastID
	}
	for i := range entries {
		v, err := b.readVarint()
		if err != nil {
			return nil, err
		}
		entries[i].RunLength = uint32(v)
	}
	for i := range entries {
		v, err := b.readVarint()
		if err != nil {
			return nil, err
		}
		entries[i].Length = uint32(v)
	}
	for i := range entries {
		v, err := b.readVarint()
		if err != nil {
			return nil, err
		}
		if i > 0 && v == 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = v - 1
		}
	}
	return entries, nil
}

// findTile binary-searches entries for tileID. It returns the matching
// entry (a leaf pointer the caller must descend into, or a run that
// covers tileID) and true, or a zero Entry and false if tileID resolves
// to nothing in this directory.
func findTile(entries []Entry, tileID uint64) (Entry, bool) {
	lo, hi := 0, len(entries)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		switch {
		case entries[mid].TileID < tileID:
			lo = mid + 1
		case entries[mid].TileID > tileID:
			hi = mid - 1
		default:
			return entries[mid], true
		}
	}

	// lo > hi: hi is the index of the greatest entry with TileID < tileID.
	if hi >= 0 {
		e := entries[hi]
		if e.isLeaf() {
			return e, true
		}
		if tileID-e.TileID < uint64(e.RunLength) {
			return e, true
		}
	}
	return Entry{}, false
}
