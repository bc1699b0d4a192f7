package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
	"github.com/dustin/go-humanize"
)

// Show prints header and metadata information for the archive at
// location (a file path, file://, http(s)://, or cloud bucket URL).
func Show(logger *log.Logger, location string) error {
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
		return err
	}
	metadata, err := reader.Metadata()
	if err != nil {
		return err
	}

	archiveKind := "PMTiles v3"
	if header.IsS2 {
		archiveKind = "S2-PMTiles v1"
	}

	fmt.Printf("archive kind: %s\n", archiveKind)
	fmt.Printf("tile type: %d\n", header.TileType)
	fmt.Printf("zoom range: %d-%d\n", header.MinZoom, header.MaxZoom)
	fmt.Printf("addressed tiles: %s\n", humanize.Comma(int64(header.AddressedTilesCount)))
	fmt.Printf("tile entries: %s\n", humanize.Comma(int64(header.TileEntriesCount)))
	fmt.Printf("tile contents: %s\n", humanize.Comma(int64(header.TileContentsCount)))
	fmt.Printf("clustered: %v\n", header.Clustered)
	fmt.Printf("internal compression: %d, tile compression: %d\n", header.InternalCompression, header.TileCompression)
	fmt.Printf("metadata bytes: %s\n", humanize.Bytes(uint64(len(metadata))))

	if !header.IsS2 {
		fmt.Printf("bounds: %d,%d,%d,%d (1e7)\n", header.MinLonE7, header.MinLatE7, header.MaxLonE7, header.MaxLatE7)
	}

	return nil
}
