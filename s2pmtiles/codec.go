package s2pmtiles

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// StandardCodec implements Codec for the compression ids an archive can
// actually carry on disk: none, gzip (stdlib compress/gzip), and zstd
// (klauspost/compress/zstd). Brotli and unknown ids are always codec
// failures -- this library never links a brotli decoder, matching
// SPEC_FULL.md §4.10's decision to ship only the codecs the writer can
// itself produce.
type StandardCodec struct {
	gzipLevel int

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStandardCodec builds a StandardCodec with a reusable zstd
// encoder/decoder pair. gzipLevel is passed to compress/gzip.NewWriterLevel;
// 0 selects gzip.DefaultCompression.
func NewStandardCodec(gzipLevel int) (*StandardCodec, error) {
	if gzipLevel == 0 {
		gzipLevel = gzip.DefaultCompression
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, newCodecError(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, newCodecError(err)
	}
	return &StandardCodec{gzipLevel: gzipLevel, encoder: enc, decoder: dec}, nil
}

// Encode implements Codec.
func (c *StandardCodec) Encode(data []byte, id Compression) ([]byte, error) {
	switch id {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, c.gzipLevel)
		if err != nil {
			return nil, newCodecError(err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, newCodecError(err)
		}
		if err := w.Close(); err != nil {
			return nil, newCodecError(err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		return c.encoder.EncodeAll(data, nil), nil
	default:
		return nil, newCodecError(errUnsupportedCodec(id))
	}
}

// Decode implements Codec.
func (c *StandardCodec) Decode(data []byte, id Compression) ([]byte, error) {
	switch id {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, newCodecError(err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, newCodecError(err)
		}
		return out, nil
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, newCodecError(err)
		}
		return out, nil
	default:
		return nil, newCodecError(errUnsupportedCodec(id))
	}
}
