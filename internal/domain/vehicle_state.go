package domain

import (
	"slices"
	"time"
)

// Simulation state of a single vehicle on its current session.
// RouteProgress never decreases for the lifetime of a session and
// DeliveredPackageIDs only grows; both are reset only when the session is cleared.
type VehicleSimulationState struct {
	VehicleID           string
	SessionID           string
	Position            Coordinates
	RouteProgress       float64
	SpeedMph            float64
	DeliveredPackageIDs []int // unique, in delivery order
	IsActive            bool
	LastUpdate          time.Time
}

// HasDelivered reports whether packageID was already delivered in this session.
func (s VehicleSimulationState) HasDelivered(packageID int) bool {
	return slices.Contains(s.DeliveredPackageIDs, packageID)
}

// Clone returns a deep copy safe to hand to readers.
func (s VehicleSimulationState) Clone() VehicleSimulationState {
	s.DeliveredPackageIDs = slices.Clone(s.DeliveredPackageIDs)
	return s
}
