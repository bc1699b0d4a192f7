package s2pmtiles

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// VectorLayer describes one layer present in vector tiles, mirroring the
// "vector_layers" array of the TileJSON spec that PMTiles metadata blobs
// conventionally carry.
type VectorLayer struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields,omitempty"`
	MinZoom int           `json:"minzoom,omitempty"`
	MaxZoom int           `json:"maxzoom,omitempty"`
}

// Metadata is the typed projection of the core's opaque JSON metadata
// blob (Header.MetadataOffset/MetadataLength). The core engine never
// parses this blob itself (spec.md §1 scope); Metadata exists purely as
// a convenience for callers who want structured access to it.
type Metadata struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Attribution  string        `json:"attribution,omitempty"`
	Version      string        `json:"version,omitempty"`
	Type         string        `json:"type,omitempty"`
	VectorLayers []VectorLayer `json:"vector_layers,omitempty"`
}

// Bound builds an orb.Bound from the given coordinates; Metadata has no
// bounds field, so the receiver's fields are not consulted.
// paulmach/orb.Bound gives callers geo-aware intersection and
// containment helpers without the core needing to know about them.
func (m Metadata) Bound(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// MarshalMetadata encodes m as the JSON blob a Writer's Commit expects.
func MarshalMetadata(m Metadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, newFormatError("metadata marshal: " + err.Error())
	}
	return data, nil
}

// UnmarshalMetadata decodes a Reader.Metadata() blob into a typed
// Metadata. A blob that isn't a JSON object still round-trips through
// Reader/Writer unchanged; UnmarshalMetadata is only for callers that
// opted into the conventional vector-tile metadata schema.
func UnmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, newFormatError("metadata unmarshal: " + err.Error())
	}
	return m, nil
}
