package domain

// Represents a package delivery point mapped onto a vehicle's path.
// RouteProgress is the fraction of the path's cumulative length at which the
// destination projects onto the path; it never changes after creation and is
// the ordering key for deliveries.
type DeliveryWaypoint struct {
	PackageID        int
	Coordinates      Coordinates
	DestinationLabel string
	RecipientName    string
	Weight           float64
	RouteProgress    float64
	DistanceFromPath float64 // meters
}
