package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"math"
)

// Stop is one distinct destination on a vehicle's run and the packages
// dropped there.
type Stop struct {
	Destination string
	Coordinates domain.Coordinates
	PackageIDs  []int
}

// Order delivery stops using a greedy nearest-neighbor walk from start.
//
// Packages sharing coordinates collapse into one stop. Each step picks the
// stop closest to the current location by great-circle distance; ties go to
// the stop holding the lowest package id. Packages without usable
// coordinates are left out. The result is a reasonable directions request,
// not an optimal tour.
func NearestNeighborOrder(start domain.Coordinates, packages []*domain.Package) []Stop {
	byCoordinates := make(map[domain.Coordinates]*Stop)
	firstID := make(map[domain.Coordinates]int)

	for _, pkg := range packages {
		c, ok := pkg.DestinationCoordinates()
		if !ok {
			continue
		}
		stop, ok := byCoordinates[c]
		if !ok {
			stop = &Stop{Destination: pkg.Destination, Coordinates: c}
			byCoordinates[c] = stop
			firstID[c] = pkg.PackageID
		}
		stop.PackageIDs = append(stop.PackageIDs, pkg.PackageID)
		firstID[c] = min(firstID[c], pkg.PackageID)
	}

	stops := make([]Stop, 0, len(byCoordinates))
	current := start

	for len(byCoordinates) > 0 {
		var best domain.Coordinates
		bestDist := math.Inf(1)
		bestID := math.MaxInt

		// Select next stop by minimum distance (greedy step.)
		for c := range byCoordinates {
			d := geo.GreatCircleDistance(current, c)
			// Tie-breaker keeps map iteration order out of the result.
			if d < bestDist || (d == bestDist && firstID[c] < bestID) {
				best, bestDist, bestID = c, d, firstID[c]
			}
		}

		stops = append(stops, *byCoordinates[best])
		delete(byCoordinates, best)
		current = best
	}

	return stops
}
