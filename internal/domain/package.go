package domain

import "time"

// Represents a single delivery unit handled by the system.
// A Package has a unique identifier, a destination label and, when geocoded,
// destination coordinates. DeliveredAt is populated once the simulation
// reports the vehicle reaching the package's waypoint.
type Package struct {
	PackageID      int
	VehicleID      string
	Destination    string
	RecipientName  string
	DestinationLat *float64
	DestinationLon *float64
	Weight         float64
	LoadedAt       *time.Time
	DeliveredAt    *time.Time
}

// DestinationCoordinates returns the package destination when both components
// are present and valid.
func (p *Package) DestinationCoordinates() (Coordinates, bool) {
	if p == nil || p.DestinationLat == nil || p.DestinationLon == nil {
		return Coordinates{}, false
	}

	c := Coordinates{Lon: *p.DestinationLon, Lat: *p.DestinationLat}
	if !c.Valid() {
		return Coordinates{}, false
	}
	return c, true
}
