package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"fmt"
	"slices"
)

// DefaultMaxOffsetMeters is the farthest a destination may lie from the path
// and still be delivered.
const DefaultMaxOffsetMeters = 500.0

type WaypointOptions struct {
	MaxOffsetMeters float64
}

func (o WaypointOptions) maxOffset() float64 {
	if o.MaxOffsetMeters <= 0 {
		return DefaultMaxOffsetMeters
	}
	return o.MaxOffsetMeters
}

// SkipReason explains why a package did not become a waypoint.
type SkipReason string

const (
	SkipMissingCoordinates SkipReason = "missing_coordinates"
	SkipTooFarFromPath     SkipReason = "too_far_from_path"
	SkipDuplicatePackage   SkipReason = "duplicate_package"
	SkipNilPackage         SkipReason = "nil_package"
)

// SkippedPackage is a reportable, non-fatal rejection.
type SkippedPackage struct {
	PackageID        int
	Reason           SkipReason
	DistanceFromPath float64 // meters; set for SkipTooFarFromPath
}

// WaypointSet is the output of BuildWaypoints.
type WaypointSet struct {
	Waypoints []domain.DeliveryWaypoint // ascending by RouteProgress
	Skipped   []SkippedPackage          // in input order
}

// BuildWaypoints projects each package destination onto path and returns the
// resulting delivery waypoints ordered by route progress.
//
// A destination is placed on the segment closest to it; its progress is the
// cumulative distance to the projected point divided by the path length.
// Packages without coordinates, or farther than MaxOffsetMeters from the
// path, are reported in Skipped rather than failing the whole set. The sort is
// stable, so packages that project to the same progress keep input order.
func BuildWaypoints(path domain.Path, packages []*domain.Package, opts WaypointOptions) (WaypointSet, error) {
	return buildWaypoints(geo.NewRoute(path), packages, opts)
}

func buildWaypoints(route *geo.Route, packages []*domain.Package, opts WaypointOptions) (WaypointSet, error) {
	if !route.Valid() {
		return WaypointSet{}, fmt.Errorf("build waypoints: %w", ErrDegeneratePath)
	}

	maxOffset := opts.maxOffset()
	set := WaypointSet{
		Waypoints: make([]domain.DeliveryWaypoint, 0, len(packages)),
	}
	seen := make(map[int]struct{}, len(packages))

	for _, pkg := range packages {
		if pkg == nil {
			set.Skipped = append(set.Skipped, SkippedPackage{Reason: SkipNilPackage})
			continue
		}

		if _, ok := seen[pkg.PackageID]; ok {
			set.Skipped = append(set.Skipped, SkippedPackage{PackageID: pkg.PackageID, Reason: SkipDuplicatePackage})
			continue
		}

		dest, ok := pkg.DestinationCoordinates()
		if !ok {
			set.Skipped = append(set.Skipped, SkippedPackage{PackageID: pkg.PackageID, Reason: SkipMissingCoordinates})
			continue
		}

		pt, ok := route.Project(dest)
		if !ok {
			return WaypointSet{}, fmt.Errorf("build waypoints: %w", ErrDegeneratePath)
		}

		if pt.DistanceMeters > maxOffset {
			set.Skipped = append(set.Skipped, SkippedPackage{
				PackageID:        pkg.PackageID,
				Reason:           SkipTooFarFromPath,
				DistanceFromPath: pt.DistanceMeters,
			})
			continue
		}

		seen[pkg.PackageID] = struct{}{}
		set.Waypoints = append(set.Waypoints, domain.DeliveryWaypoint{
			PackageID:        pkg.PackageID,
			Coordinates:      dest,
			DestinationLabel: pkg.Destination,
			RecipientName:    pkg.RecipientName,
			Weight:           pkg.Weight,
			RouteProgress:    route.ProgressAt(pt.AlongMeters),
			DistanceFromPath: pt.DistanceMeters,
		})
	}

	slices.SortStableFunc(set.Waypoints, func(a, b domain.DeliveryWaypoint) int {
		switch {
		case a.RouteProgress < b.RouteProgress:
			return -1
		case a.RouteProgress > b.RouteProgress:
			return 1
		default:
			return 0
		}
	})

	return set, nil
}
