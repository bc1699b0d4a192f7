package s2pmtiles

// buildRootLeaves partitions entries into contiguous chunks of leafSize,
// serializing each chunk into the leaf region and recording one leaf
// pointer entry per chunk in the root.
func buildRootLeaves(entries []Entry, leafSize int) (rootBytes, leavesBytes []byte, numLeaves int) {
	rootEntries := make([]Entry, 0, (len(entries)+leafSize-1)/leafSize)
	var leaves []byte

	for i := 0; i < len(entries); i += leafSize {
		end := i + leafSize
		if end > len(entries) {
			end = len(entries)
		}
		serialized := serializeDirectory(entries[i:end])
		rootEntries = append(rootEntries, Entry{
			TileID:    entries[i].TileID,
			Offset:    uint64(len(leaves)),
			Length:    uint32(len(serialized)),
			RunLength: 0,
		})
		leaves = append(leaves, serialized...)
		numLeaves++
	}

	return serializeDirectory(rootEntries), leaves, numLeaves
}

// optimizeDirectory splits a sorted Directory into a root plus
// contiguous leaves so the serialized root fits within targetRootLen. If
// the whole directory already fits, there are no leaves. Otherwise the
// leaf size starts at 4096 entries and doubles until the root fits -
// doubling converges quickly because it roughly halves the root entry
// count each iteration.
func optimizeDirectory(entries []Entry, targetRootLen int) (rootBytes, leavesBytes []byte, numLeaves int) {
	if whole := serializeDirectory(entries); len(whole) <= targetRootLen {
		return whole, nil, 0
	}

	for leafSize := 4096; ; leafSize *= 2 {
		root, leaves, n := buildRootLeaves(entries, leafSize)
		if len(root) <= targetRootLen {
			return root, leaves, n
		}
	}
}
