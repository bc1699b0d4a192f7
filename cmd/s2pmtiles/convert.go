package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Open-S2/s2-pmtiles/s2pmtiles"
	"github.com/schollz/progressbar/v3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Convert reads an MBTiles (sqlite3) archive at mbtilesPath and writes an
// equivalent plain PMTiles archive to outputPath, flipping the MBTiles
// TMS y-coordinate to the XYZ convention the core uses.
func Convert(logger *log.Logger, mbtilesPath, outputPath string) error {
	conn, err := sqlite.OpenConn(mbtilesPath, sqlite.OpenReadOnly)
	if err != nil {
		return fmt.Errorf("opening mbtiles %s: %w", mbtilesPath, err)
	}
	defer conn.Close()

	metadata := make(map[string]string)
	err = sqlitex.ExecuteTransient(conn, "SELECT name, value FROM metadata", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			metadata[stmt.ColumnText(0)] = stmt.ColumnText(1)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("reading mbtiles metadata: %w", err)
	}

	var rowCount int64
	if err := sqlitex.ExecuteTransient(conn, "SELECT count(*) FROM tiles", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rowCount = stmt.ColumnInt64(0)
			return nil
		},
	}); err != nil {
		return fmt.Errorf("counting mbtiles rows: %w", err)
	}

	sink, err := s2pmtiles.NewFileSink(outputPath)
	if err != nil {
		return err
	}
	codec, err := s2pmtiles.NewStandardCodec(0)
	if err != nil {
		return err
	}
	tileType := tileTypeFromFormat(metadata["format"])
	writer, err := s2pmtiles.NewWriter(sink, codec, s2pmtiles.WriterOptions{
		TileCompression:     s2pmtiles.CompressionGzip,
		InternalCompression: s2pmtiles.CompressionGzip,
		TileType:            tileType,
	})
	if err != nil {
		return err
	}

	bar := progressbar.Default(rowCount, "converting")

	// MBTiles rows are not guaranteed to arrive pre-sorted by tile id, so
	// buffer and sort before writing; the writer then always sees
	// ascending ids and the output is marked clustered.
	type rowTile struct {
		z        uint8
		x, y     uint32
		tileID   uint64
		data     []byte
	}
	var rows []rowTile

	err = sqlitex.ExecuteTransient(conn, "SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level, tile_column, tile_row", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			z := uint8(stmt.ColumnInt64(0))
			x := uint32(stmt.ColumnInt64(1))
			tmsY := uint32(stmt.ColumnInt64(2))
			y := (uint32(1)<<z - 1) - tmsY // MBTiles uses TMS (y flipped)

			data := make([]byte, stmt.ColumnLen(3))
			stmt.ColumnBytes(3, data)

			tileID, err := s2pmtiles.ZxyToID(z, x, y)
			if err != nil {
				return err
			}
			rows = append(rows, rowTile{z, x, y, tileID, data})
			_ = bar.Add(1)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("reading mbtiles tiles: %w", err)
	}

	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].tileID < rows[j-1].tileID; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}

	for _, r := range rows {
		if err := writer.WriteTile(r.z, r.x, r.y, r.data); err != nil {
			return fmt.Errorf("writing tile z%d/%d/%d: %w", r.z, r.x, r.y, err)
		}
	}

	metaBlob, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	header, err := writer.Commit(metaBlob)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Printf("wrote %s: %d addressed tiles, %d entries, %d distinct contents",
		outputPath, header.AddressedTilesCount, header.TileEntriesCount, header.TileContentsCount)
	return nil
}

func tileTypeFromFormat(format string) s2pmtiles.TileType {
	switch format {
	case "pbf", "mvt":
		return s2pmtiles.TileTypeMvt
	case "png":
		return s2pmtiles.TileTypePng
	case "jpg", "jpeg":
		return s2pmtiles.TileTypeJpeg
	case "webp":
		return s2pmtiles.TileTypeWebp
	case "avif":
		return s2pmtiles.TileTypeAvif
	default:
		return s2pmtiles.TileTypeUnknown
	}
}
