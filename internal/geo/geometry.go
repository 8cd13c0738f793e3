// Package geo holds the geometry used to place deliveries on a path and to
// move vehicles along it: segment projection, great-circle distance and the
// cumulative distance table behind Route.
package geo

import (
	"delivery-sim-service/internal/domain"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Projection is the result of projecting a point onto a segment.
type Projection struct {
	ClosestPoint   domain.Coordinates
	DistanceMeters float64
	// T is the clamped position of ClosestPoint along the segment, 0 at the
	// segment start and 1 at its end.
	T float64
}

// ProjectPointOntoSegment returns the point of segment [a, b] closest to p.
//
// The scalar projection is computed in a local equirectangular frame
// (longitude scaled by the cosine of the segment's mean latitude), clamped to
// the segment, and the distance is measured with the haversine formula.
// A zero-length segment projects everything onto a.
func ProjectPointOntoSegment(p, a, b domain.Coordinates) Projection {
	scale := math.Cos((a.Lat + b.Lat) / 2 * math.Pi / 180)

	dx := (b.Lon - a.Lon) * scale
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Projection{
			ClosestPoint:   a,
			DistanceMeters: GreatCircleDistance(p, a) * 1000,
			T:              0,
		}
	}

	px := (p.Lon - a.Lon) * scale
	py := p.Lat - a.Lat
	t := (px*dx + py*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := Interpolate(a, b, t)
	return Projection{
		ClosestPoint:   closest,
		DistanceMeters: GreatCircleDistance(p, closest) * 1000,
		T:              t,
	}
}

// Interpolate returns the point at fraction t of the way from a to b.
func Interpolate(a, b domain.Coordinates, t float64) domain.Coordinates {
	return domain.Coordinates{
		Lon: a.Lon + (b.Lon-a.Lon)*t,
		Lat: a.Lat + (b.Lat-a.Lat)*t,
	}
}

// GreatCircleDistance returns the haversine distance between a and b in kilometers.
// The Earth is treated as a sphere, which is accurate enough at urban scale.
func GreatCircleDistance(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// PathLength returns the summed segment length of path in kilometers.
// Paths with fewer than two points have length 0; callers must guard.
func PathLength(path domain.Path) float64 {
	if len(path) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(path); i++ {
		total += GreatCircleDistance(path[i-1], path[i])
	}
	return total
}
