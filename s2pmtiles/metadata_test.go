package s2pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataRoundtrip(t *testing.T) {
	m := Metadata{
		Name:        "streets",
		Description: "street network",
		Attribution: "(c) example",
		Version:     "1.0.0",
		Type:        "baselayer",
		VectorLayers: []VectorLayer{
			{ID: "roads", MinZoom: 0, MaxZoom: 14, Fields: map[string]any{"class": "String"}},
		},
	}

	data, err := MarshalMetadata(m)
	assert.NoError(t, err)

	result, err := UnmarshalMetadata(data)
	assert.NoError(t, err)
	assert.Equal(t, m, result)
}

func TestUnmarshalMetadataEmptyBlob(t *testing.T) {
	result, err := UnmarshalMetadata(nil)
	assert.NoError(t, err)
	assert.Equal(t, Metadata{}, result)
}

func TestUnmarshalMetadataInvalidJSON(t *testing.T) {
	_, err := UnmarshalMetadata([]byte("not json"))
	assert.ErrorIs(t, err, ErrFormatViolation)
}
