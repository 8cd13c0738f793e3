package services

import (
	"delivery-sim-service/internal/domain"
	"math"
	"slices"
)

// DefaultDeliveryTolerance is the half-width of the band around a waypoint's
// progress inside which the waypoint counts as reached.
const DefaultDeliveryTolerance = 0.01

// Detection is the outcome of one detector call.
type Detection struct {
	// DeliveredPackageIDs is the cumulative delivered set, in delivery order.
	DeliveredPackageIDs []int
	// NewDeliveries holds the waypoints reached on this call, ascending by progress.
	NewDeliveries []domain.DeliveryWaypoint
	// NextWaypoint is the first pending waypoint ahead of the current progress.
	NextWaypoint *domain.DeliveryWaypoint
}

// DeliveryDetector decides which waypoints a vehicle has newly reached.
//
// Each waypoint moves PENDING -> DELIVERED exactly once. A pending waypoint is
// delivered when the current progress lies within tolerance of it, or when
// the move from previous to current progress crossed it. The crossing rule is
// what keeps detection independent of tick size: at high fast-forward a
// single tick can jump over a whole tolerance band.
type DeliveryDetector struct {
	waypoints []domain.DeliveryWaypoint
	tolerance float64
}

// NewDeliveryDetector copies waypoints and sorts them by progress.
// A non-positive tolerance selects DefaultDeliveryTolerance.
func NewDeliveryDetector(waypoints []domain.DeliveryWaypoint, tolerance float64) *DeliveryDetector {
	if tolerance <= 0 || math.IsNaN(tolerance) {
		tolerance = DefaultDeliveryTolerance
	}

	wps := slices.Clone(waypoints)
	slices.SortStableFunc(wps, func(a, b domain.DeliveryWaypoint) int {
		switch {
		case a.RouteProgress < b.RouteProgress:
			return -1
		case a.RouteProgress > b.RouteProgress:
			return 1
		default:
			return 0
		}
	})

	return &DeliveryDetector{waypoints: wps, tolerance: tolerance}
}

func (d *DeliveryDetector) Waypoints() []domain.DeliveryWaypoint {
	return slices.Clone(d.waypoints)
}

func (d *DeliveryDetector) Tolerance() float64 { return d.tolerance }

// Detect compares the move from previous to current progress against the
// waypoints not yet in delivered.
func (d *DeliveryDetector) Detect(previous, current float64, delivered []int) Detection {
	done := make(map[int]struct{}, len(delivered)+len(d.waypoints))
	cumulative := make([]int, 0, len(delivered)+len(d.waypoints))
	for _, id := range delivered {
		if _, ok := done[id]; ok {
			continue
		}
		done[id] = struct{}{}
		cumulative = append(cumulative, id)
	}

	// Progress never rewinds; a lower current value is read as no movement.
	if current < previous {
		current = previous
	}

	var out Detection
	for i := range d.waypoints {
		wp := d.waypoints[i]
		if _, ok := done[wp.PackageID]; ok {
			continue
		}

		inBand := math.Abs(current-wp.RouteProgress) <= d.tolerance
		crossed := previous <= wp.RouteProgress && wp.RouteProgress <= current
		if !inBand && !crossed {
			continue
		}

		done[wp.PackageID] = struct{}{}
		cumulative = append(cumulative, wp.PackageID)
		out.NewDeliveries = append(out.NewDeliveries, wp)
	}

	for i := range d.waypoints {
		wp := d.waypoints[i]
		if _, ok := done[wp.PackageID]; ok {
			continue
		}
		if wp.RouteProgress > current {
			out.NextWaypoint = &wp
			break
		}
	}

	out.DeliveredPackageIDs = cumulative
	return out
}

// Pending returns the waypoints not in delivered, ascending by progress.
func (d *DeliveryDetector) Pending(delivered []int) []domain.DeliveryWaypoint {
	out := make([]domain.DeliveryWaypoint, 0, len(d.waypoints))
	for _, wp := range d.waypoints {
		if !slices.Contains(delivered, wp.PackageID) {
			out = append(out, wp)
		}
	}
	return out
}
