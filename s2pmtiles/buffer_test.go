package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferFixedWidthRoundtrip(t *testing.T) {
	b := newBuffer()
	b.setUint8At(0, 7)
	b.setUint32At(1, 0xdeadbeef)
	b.setInt32At(5, -12345)
	b.setUint64At(9, 0x0102030405060708)
	b.setBytesAt(17, []byte("hello"))

	assert.Equal(t, uint8(7), b.uint8At(0))
	assert.Equal(t, uint32(0xdeadbeef), b.uint32At(1))
	assert.Equal(t, int32(-12345), b.int32At(5))
	assert.Equal(t, uint64(0x0102030405060708), b.uint64At(9))
	assert.Equal(t, []byte("hello"), b.bytesAt(17, 5))
}

func TestBufferVarintRoundtrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}

	b := newBuffer()
	for _, v := range values {
		b.appendVarint(v)
	}

	r := newBufferFrom(b.bytes())
	for _, want := range values {
		got, err := r.readVarint()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadVarintTruncated(t *testing.T) {
	b := newBufferFrom([]byte{0x80, 0x80})
	_, err := b.readVarint()
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestReadVarintTooLong(t *testing.T) {
	tooLong := make([]byte, maxVarintLen+1)
	for i := range tooLong {
		tooLong[i] = 0x80
	}
	b := newBufferFrom(tooLong)
	_, err := b.readVarint()
	assert.ErrorIs(t, err, ErrFormatViolation)
}

func TestBufferEnsureGrowsWithZeros(t *testing.T) {
	b := newBuffer()
	b.setUint8At(10, 1)
	assert.Equal(t, 11, b.len())
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint8(0), b.uint8At(i))
	}
}
