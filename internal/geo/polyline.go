package geo

import (
	"delivery-sim-service/internal/domain"
	"encoding/json"
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when a path point is malformed or out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParsePolyline parses a JSON array of [lon, lat] pairs into a Path.
// Input format: "[[lon1,lat1],[lon2,lat2],...]"
func ParsePolyline(input []byte) (domain.Path, error) {
	var coords [][]float64
	if err := json.Unmarshal(input, &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return nil, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	path := make(domain.Path, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values: %w", i, ErrInvalidCoordinates)
		}
		c := domain.Coordinates{Lon: coord[0], Lat: coord[1]}
		if !c.Valid() {
			return nil, fmt.Errorf("coordinate %d out of range: %w", i, ErrInvalidCoordinates)
		}
		path[i] = c
	}

	return path, nil
}

type geoJSONEnvelope struct {
	Type     string          `json:"type"`
	Geometry json.RawMessage `json:"geometry"`
	Features []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

// ParseGeoJSONPath decodes a GeoJSON LineString into a Path. A Feature or a
// FeatureCollection is accepted too, in which case the first feature's
// geometry is used (directions services answer with a FeatureCollection).
func ParseGeoJSONPath(input []byte) (domain.Path, error) {
	var env geoJSONEnvelope
	if err := json.Unmarshal(input, &env); err != nil {
		return nil, fmt.Errorf("parse geojson path: %w", err)
	}

	raw := json.RawMessage(input)
	switch env.Type {
	case "LineString":
	case "Feature":
		raw = env.Geometry
	case "FeatureCollection":
		if len(env.Features) == 0 {
			return nil, errors.New("parse geojson path: feature collection is empty")
		}
		raw = env.Features[0].Geometry
	default:
		return nil, fmt.Errorf("parse geojson path: unsupported type %q", env.Type)
	}

	var ls geom.LineString
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, fmt.Errorf("parse geojson path: decode line string: %w", err)
	}

	seq := ls.Coordinates()
	if seq.Length() < 2 {
		return nil, fmt.Errorf("parse geojson path: line string must have at least 2 points, got %d", seq.Length())
	}

	path := make(domain.Path, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		c := domain.Coordinates{Lon: xy.X, Lat: xy.Y}
		if !c.Valid() {
			return nil, fmt.Errorf("parse geojson path: point %d: %w", i, ErrInvalidCoordinates)
		}
		path[i] = c
	}

	return path, nil
}

// PathToGeoJSON encodes path as a GeoJSON LineString.
func PathToGeoJSON(path domain.Path) ([]byte, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("encode geojson path: need at least 2 points, got %d", len(path))
	}

	flat := make([]float64, 0, len(path)*2)
	for _, c := range path {
		flat = append(flat, c.Lon, c.Lat)
	}

	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return nil, fmt.Errorf("encode geojson path: %w", err)
	}
	out, err := json.Marshal(ls)
	if err != nil {
		return nil, fmt.Errorf("encode geojson path: %w", err)
	}
	return out, nil
}
