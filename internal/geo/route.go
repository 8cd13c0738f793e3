package geo

import (
	"delivery-sim-service/internal/domain"
	"math"
	"sort"
)

// Route is a Path with its cumulative distance table precomputed.
// cumulative[i] is the distance in meters from the first point to path[i].
//
// Waypoint placement (Project) and runtime positioning (PositionAtMeters) use
// the same table and the same per-segment linear parametrization, so a
// vehicle at a waypoint's progress sits exactly on the waypoint's projection.
type Route struct {
	path       domain.Path
	cumulative []float64
}

// RoutePoint locates a projected point on a Route.
type RoutePoint struct {
	Segment        int
	ClosestPoint   domain.Coordinates
	DistanceMeters float64 // distance from the projected point to the path
	AlongMeters    float64 // distance from the path start to ClosestPoint
}

func NewRoute(path domain.Path) *Route {
	p := path.Clone()
	cumulative := make([]float64, len(p))
	for i := 1; i < len(p); i++ {
		cumulative[i] = cumulative[i-1] + GreatCircleDistance(p[i-1], p[i])*1000
	}
	return &Route{path: p, cumulative: cumulative}
}

func (r *Route) Path() domain.Path { return r.path.Clone() }

// TotalMeters returns the route length in meters.
func (r *Route) TotalMeters() float64 {
	if len(r.cumulative) == 0 {
		return 0
	}
	return r.cumulative[len(r.cumulative)-1]
}

// Valid reports whether progress is defined on this route.
func (r *Route) Valid() bool {
	return len(r.path) >= 2 && r.TotalMeters() > 0
}

// Project finds the segment closest to p. Ties keep the earliest segment.
// ok is false when the route has fewer than two points.
func (r *Route) Project(p domain.Coordinates) (RoutePoint, bool) {
	if len(r.path) < 2 {
		return RoutePoint{}, false
	}

	best := RoutePoint{DistanceMeters: math.Inf(1)}
	for i := 0; i < len(r.path)-1; i++ {
		proj := ProjectPointOntoSegment(p, r.path[i], r.path[i+1])
		if proj.DistanceMeters < best.DistanceMeters {
			segLen := r.cumulative[i+1] - r.cumulative[i]
			best = RoutePoint{
				Segment:        i,
				ClosestPoint:   proj.ClosestPoint,
				DistanceMeters: proj.DistanceMeters,
				AlongMeters:    r.cumulative[i] + proj.T*segLen,
			}
		}
	}
	return best, true
}

// ProgressAt converts a distance along the route into a fraction in [0,1].
// A zero-length route reports 0.
func (r *Route) ProgressAt(alongMeters float64) float64 {
	total := r.TotalMeters()
	if total <= 0 || math.IsNaN(alongMeters) {
		return 0
	}
	return math.Max(0, math.Min(1, alongMeters/total))
}

// PositionAt returns the interpolated position at the given progress.
func (r *Route) PositionAt(progress float64) domain.Coordinates {
	return r.PositionAtMeters(progress * r.TotalMeters())
}

// PositionAtMeters walks the cumulative table to the segment containing m and
// interpolates linearly within it.
func (r *Route) PositionAtMeters(m float64) domain.Coordinates {
	n := len(r.path)
	switch {
	case n == 0:
		return domain.Coordinates{}
	case n == 1:
		return r.path[0]
	}

	if m <= 0 || math.IsNaN(m) {
		return r.path[0]
	}
	if m >= r.TotalMeters() {
		return r.path[n-1]
	}

	// cumulative[0] == 0 < m, so j >= 1.
	j := sort.SearchFloat64s(r.cumulative, m)
	i := j - 1
	segLen := r.cumulative[j] - r.cumulative[i]
	if segLen <= 0 {
		return r.path[j]
	}
	return Interpolate(r.path[i], r.path[j], (m-r.cumulative[i])/segLen)
}
