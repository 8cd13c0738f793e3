package services

import (
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"errors"
	"fmt"
	"slices"
)

// AssignPackagesByDistance spreads unassigned packages over vehicles.
//
// Destinations are sorted by distance from the hub and chunked across
// vehicles, so each vehicle gets a contiguous band of destinations and its
// path stays compact. Packages at the same destination always ride together.
// Packages without coordinates sort last. Assignment fails fast when a
// vehicle's capacity is exceeded rather than rebalancing.
func AssignPackagesByDistance(vehicles []*domain.Vehicle, packages []*domain.Package, hub domain.Coordinates) error {
	if len(vehicles) == 0 {
		return errors.New("assign packages: vehicle list must not be empty")
	}

	byDestination := make(map[string][]*domain.Package)
	hubDistance := make(map[string]float64)
	destinations := make([]string, 0, len(packages))

	for _, pkg := range packages {
		if _, ok := byDestination[pkg.Destination]; !ok {
			destinations = append(destinations, pkg.Destination)
			hubDistance[pkg.Destination] = -1
			if c, ok := pkg.DestinationCoordinates(); ok {
				hubDistance[pkg.Destination] = geo.GreatCircleDistance(hub, c)
			}
		}
		byDestination[pkg.Destination] = append(byDestination[pkg.Destination], pkg)
	}

	slices.SortFunc(destinations, func(a, b string) int {
		da, db := hubDistance[a], hubDistance[b]
		switch {
		case da < 0 && db >= 0:
			return 1
		case db < 0 && da >= 0:
			return -1
		case da < db:
			return -1
		case da > db:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})

	nVehicles := len(vehicles)
	nDests := len(destinations)

	// Ceiling division: distribute destinations as evenly as possible.
	chunkSize := (nDests + nVehicles - 1) / nVehicles

	for vi, v := range vehicles {
		start := vi * chunkSize
		if start >= nDests {
			break
		}
		end := min(start+chunkSize, nDests)

		for _, d := range destinations[start:end] {
			for _, pkg := range byDestination[d] {
				if err := v.Load(pkg); err != nil {
					return fmt.Errorf("assign packages: %w", err)
				}
			}
		}
	}

	return nil
}
