package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardCodecNoneIsIdentity(t *testing.T) {
	c, err := NewStandardCodec(0)
	assert.NoError(t, err)

	data := []byte("hello world")
	encoded, err := c.Encode(data, CompressionNone)
	assert.NoError(t, err)
	assert.Equal(t, data, encoded)

	decoded, err := c.Decode(encoded, CompressionNone)
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestStandardCodecGzipRoundtrip(t *testing.T) {
	c, err := NewStandardCodec(0)
	assert.NoError(t, err)

	data := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	encoded, err := c.Encode(data, CompressionGzip)
	assert.NoError(t, err)
	assert.NotEqual(t, data, encoded)

	decoded, err := c.Decode(encoded, CompressionGzip)
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestStandardCodecZstdRoundtrip(t *testing.T) {
	c, err := NewStandardCodec(0)
	assert.NoError(t, err)

	data := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	encoded, err := c.Encode(data, CompressionZstd)
	assert.NoError(t, err)

	decoded, err := c.Decode(encoded, CompressionZstd)
	assert.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestStandardCodecBrotliUnsupported(t *testing.T) {
	c, err := NewStandardCodec(0)
	assert.NoError(t, err)

	_, err = c.Encode([]byte("x"), CompressionBrotli)
	assert.ErrorIs(t, err, ErrCodecFailure)

	_, err = c.Decode([]byte("x"), CompressionBrotli)
	assert.ErrorIs(t, err, ErrCodecFailure)
}

func TestIdentityCodecRejectsNonNone(t *testing.T) {
	c := identityCodec{}
	_, err := c.Encode([]byte("x"), CompressionGzip)
	assert.ErrorIs(t, err, ErrCodecFailure)
}
