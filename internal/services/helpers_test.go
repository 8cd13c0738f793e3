package services

import (
	"delivery-sim-service/internal/domain"
	"math"
)

// kmPerDegree is the length of one degree of longitude on the equator.
const kmPerDegree = 6371 * math.Pi / 180

// equatorPath runs east along the equator for the given number of kilometers.
func equatorPath(km float64) domain.Path {
	end := km / kmPerDegree
	return domain.Path{
		{Lon: 0, Lat: 0},
		{Lon: end / 2, Lat: 0},
		{Lon: end, Lat: 0},
	}
}

// pkgAt places a package kmEast along the equator and kmNorth off it.
func pkgAt(id int, kmEast, kmNorth float64) *domain.Package {
	lon := kmEast / kmPerDegree
	lat := kmNorth / kmPerDegree
	return &domain.Package{
		PackageID:      id,
		Destination:    "stop",
		DestinationLon: &lon,
		DestinationLat: &lat,
		Weight:         1,
	}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
