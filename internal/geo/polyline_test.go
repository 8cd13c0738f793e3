package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolyline_Valid(t *testing.T) {
	path, err := ParsePolyline([]byte("[[-112.07,33.45],[-112.06,33.46],[-112.05,33.47]]"))

	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, -112.07, path[0].Lon)
	assert.Equal(t, 33.45, path[0].Lat)
	assert.Equal(t, -112.05, path[2].Lon)
}

func TestParsePolyline_InvalidJSON(t *testing.T) {
	_, err := ParsePolyline([]byte("not valid json"))
	require.Error(t, err)
}

func TestParsePolyline_TooFewPoints(t *testing.T) {
	_, err := ParsePolyline([]byte("[[100,20]]"))
	require.Error(t, err)
}

func TestParsePolyline_OutOfRange(t *testing.T) {
	_, err := ParsePolyline([]byte("[[100,20],[200,20]]"))
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestParsePolyline_InsufficientCoordinates(t *testing.T) {
	_, err := ParsePolyline([]byte("[[100],[20,30]]"))
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestParseGeoJSONPath_LineString(t *testing.T) {
	path, err := ParseGeoJSONPath([]byte(`{"type":"LineString","coordinates":[[1,2],[3,4]]}`))

	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, 3.0, path[1].Lon)
	assert.Equal(t, 4.0, path[1].Lat)
}

func TestParseGeoJSONPath_FeatureCollection(t *testing.T) {
	input := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"summary": {"distance": 1200.5}},
			"geometry": {"type": "LineString", "coordinates": [[-112.07,33.45],[-112.06,33.46],[-112.05,33.47]]}
		}]
	}`

	path, err := ParseGeoJSONPath([]byte(input))

	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, 33.47, path[2].Lat)
}

func TestParseGeoJSONPath_Feature(t *testing.T) {
	input := `{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[0,1]]}}`

	path, err := ParseGeoJSONPath([]byte(input))

	require.NoError(t, err)
	require.Len(t, path, 2)
}

func TestParseGeoJSONPath_Errors(t *testing.T) {
	tests := map[string]string{
		"empty collection": `{"type":"FeatureCollection","features":[]}`,
		"point geometry":   `{"type":"Point","coordinates":[0,0]}`,
		"wrong geometry":   `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]}}`,
		"single point":     `{"type":"LineString","coordinates":[[0,0]]}`,
		"out of range":     `{"type":"LineString","coordinates":[[0,0],[0,95]]}`,
		"garbage":          `{{`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeoJSONPath([]byte(input))
			require.Error(t, err)
		})
	}
}

func TestPathToGeoJSON_RoundTrip(t *testing.T) {
	path, err := ParsePolyline([]byte("[[-112.07,33.45],[-112.06,33.46]]"))
	require.NoError(t, err)

	encoded, err := PathToGeoJSON(path)
	require.NoError(t, err)

	decoded, err := ParseGeoJSONPath(encoded)
	require.NoError(t, err)
	assert.Equal(t, path, decoded)
}

func TestPathToGeoJSON_TooShort(t *testing.T) {
	_, err := PathToGeoJSON(nil)
	require.Error(t, err)
}
