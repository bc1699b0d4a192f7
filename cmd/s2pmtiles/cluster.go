package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
	"github.com/schollz/progressbar/v3"
)

// Cluster rewrites inputPath's tiles into outputPath in tile-id order,
// which both shrinks the directory tree (runs of adjacent identical
// tiles coalesce) and sets Header.Clustered for archives built from
// out-of-order input.
func Cluster(logger *log.Logger, inputPath, outputPath string) error {
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
	if header.Clustered {
		return fmt.Errorf("%s is already clustered", inputPath)
	}
	if header.IsS2 {
		return fmt.Errorf("cluster does not yet support S2-PMTiles archives")
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

	bar := progressbar.Default(int64(header.TileEntriesCount), "clustering")

	err = reader.WalkTiles(0, func(entry s2pmtiles.Entry) error {
		for id := entry.TileID; id < entry.TileID+uint64(entry.RunLength); id++ {
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
		}
		_ = bar.Add(1)
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

	logger.Printf("wrote %s: clustered=%v, %d addressed tiles", outputPath, outHeader.Clustered, outHeader.AddressedTilesCount)
	return nil
}
