package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/schollz/progressbar/v3"
)

// Extract copies the subset of tiles in inputPath whose tile id falls
// within bbox ("minlon,minlat,maxlon,maxlat") into a new archive at
// outputPath, at every zoom level the source archive carries.
func Extract(logger *log.Logger, inputPath, outputPath, bbox string) error {
	bound, err := parseBBox(bbox)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rangeReader, err := s2pmtiles.OpenRangeReader(ctx, inputPath)
	if err != nil {
		return err
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
	if header.IsS2 {
		return fmt.Errorf("extract does not yet support S2-PMTiles archives")
	}

	// Build the set of wanted tile ids across the archive's zoom range by
	// covering bound at each zoom with orb/maptile/tilecover.
	ring := orb.Ring{
		{bound.Min[0], bound.Min[1]},
		{bound.Max[0], bound.Min[1]},
		{bound.Max[0], bound.Max[1]},
		{bound.Min[0], bound.Max[1]},
		{bound.Min[0], bound.Min[1]},
	}
	polygon := orb.Polygon{ring}

	wanted := roaring64.New()
	for z := header.MinZoom; z <= header.MaxZoom; z++ {
		tiles, err := tilecover.Geometry(polygon, maptile.Zoom(z))
		if err != nil {
			return err
		}
		for tile := range tiles {
			id, err := s2pmtiles.ZxyToID(uint8(tile.Z), tile.X, tile.Y)
			if err != nil {
				continue
			}
			wanted.Add(id)
		}
	}

	sink, err := s2pmtiles.NewFileSink(outputPath)
	if err != nil {
		return err
	}
	// reader.GetTile below returns tile-codec-decoded bytes, and WriteTile
	// stores payloads raw, so the output must declare no tile compression
	// regardless of what the source archive used.
	writer, err := s2pmtiles.NewWriter(sink, codec, s2pmtiles.WriterOptions{
		TileCompression:     s2pmtiles.CompressionNone,
		InternalCompression: header.InternalCompression,
		TileType:            header.TileType,
	})
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(wanted.GetCardinality()), "extracting")

	err = reader.WalkTiles(0, func(entry s2pmtiles.Entry) error {
		for id := entry.TileID; id < entry.TileID+uint64(entry.RunLength); id++ {
			if !wanted.Contains(id) {
				continue
			}
			z, x, y, zerr := s2pmtiles.IDToZxy(id)
			if zerr != nil {
				return zerr
			}
			data, ok, gerr := reader.GetTile(z, x, y)
			if gerr != nil {
				return gerr
			}
			if !ok {
				continue
			}
			if werr := writer.WriteTile(z, x, y, data); werr != nil {
				return werr
			}
			_ = bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metadata, err := reader.Metadata()
	if err != nil {
		return err
	}
	outHeader, err := writer.Commit(metadata)
	if err != nil {
		return err
	}

	logger.Printf("wrote %s: %d addressed tiles within %s", outputPath, outHeader.AddressedTilesCount, bbox)
	return nil
}

func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must have 4 comma-separated values, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bad bbox value %q: %w", p, err)
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
