package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
)

// Verify re-derives the structural invariants of the archive at
// location: tile ids are strictly increasing across the directory walk,
// every entry's byte range lies within the declared tile-data region,
// and (for an S2 archive) every face decodes independently.
func Verify(logger *log.Logger, location string) error {
	ctx := context.Background()
	rangeReader, err := s2pmtiles.OpenRangeReader(ctx, location)
	if err != nil {
		return fmt.Errorf("opening %s: %w", location, err)
	}
	codec, err := s2pmtiles.NewStandardCodec(0)
	if err != nil {
		return err
	}
	reader := s2pmtiles.NewReader(rangeReader, codec, 0)

	header, err := reader.Header()
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}

	numFaces := uint8(1)
	if header.IsS2 {
		numFaces = 6
	}

	total := 0
	for face := uint8(0); face < numFaces; face++ {
		var lastID uint64
		first := true
		count := 0
		err := reader.WalkTiles(face, func(entry s2pmtiles.Entry) error {
			if !first && entry.TileID <= lastID {
				return fmt.Errorf("face %d: tile ids out of order at %d", face, entry.TileID)
			}
			if entry.Offset+uint64(entry.Length) > header.TileDataLength {
				return fmt.Errorf("face %d: entry at tile %d exceeds tile data region", face, entry.TileID)
			}
			lastID = entry.TileID + uint64(entry.RunLength) - 1
			first = false
			count++
			return nil
		})
		if err != nil {
			return err
		}
		total += count
		logger.Printf("face %d: %d directory entries verified", face, count)
	}

	logger.Printf("ok: %s, %d total entries across %d face(s)", location, total, numFaces)
	return nil
}
