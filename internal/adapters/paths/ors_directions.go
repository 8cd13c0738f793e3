package paths

import (
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"delivery-sim-service/internal/platform/obs"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxDirectionsPoints is the waypoint limit of one ORS directions request.
const maxDirectionsPoints = 50

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// directions requests a driving path through points in order. Requests with
// more points than the service accepts are split into overlapping chunks
// and the resulting paths joined.
func (o *ORSPathSource) directions(ctx context.Context, points []domain.Coordinates) (_ domain.Path, err error) {
	defer obs.Time(ctx, "ors.directions")(&err)

	if len(points) < 2 {
		return nil, fmt.Errorf("directions: need at least 2 points, got %d", len(points))
	}

	var out domain.Path
	for start := 0; start < len(points)-1; start += maxDirectionsPoints - 1 {
		end := min(start+maxDirectionsPoints, len(points))

		part, err := o.directionsChunk(ctx, points[start:end])
		if err != nil {
			return nil, err
		}
		if len(out) > 0 && len(part) > 0 && part[0] == out[len(out)-1] {
			part = part[1:]
		}
		out = append(out, part...)
	}

	return out, nil
}

func (o *ORSPathSource) directionsChunk(ctx context.Context, points []domain.Coordinates) (domain.Path, error) {
	body := directionsRequest{Coordinates: make([][]float64, len(points))}
	for i, p := range points {
		body.Coordinates[i] = p.CoordsToList()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("directions: encode request: %w", err)
	}

	resp, err := o.call(ctx, http.MethodPost, "/v2/directions/"+o.profile+"/geojson", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("directions: execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("directions: read response: %w", err)
	}

	path, err := geo.ParseGeoJSONPath(raw)
	if err != nil {
		return nil, fmt.Errorf("directions: %w", err)
	}
	return path, nil
}
