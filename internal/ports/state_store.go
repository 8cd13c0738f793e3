package ports

import (
	"delivery-sim-service/internal/domain"
	"errors"
	"time"
)

var (
	ErrVehicleNotFound    = errors.New("vehicle state not found")
	ErrVehicleInactive    = errors.New("vehicle is not active")
	ErrVehicleExists      = errors.New("vehicle state already initialized")
	ErrProgressRegression = errors.New("route progress must not decrease")
)

// TickUpdate is the validated output of one simulation tick for one vehicle.
type TickUpdate struct {
	VehicleID     string
	SessionID     string // must match the stored state
	Position      domain.Coordinates
	RouteProgress float64
	SpeedMph      float64
	NewDeliveries []int
	At            time.Time
	// Complete deactivates the vehicle in the same commit.
	Complete bool
}

// Port: per-vehicle simulation state, keyed by vehicle id.
//
// CommitTick is the only way to move a vehicle or record deliveries; it
// applies position, progress and delivered-set changes together so readers
// never observe one without the other.
type VehicleStateStore interface {
	Initialize(state domain.VehicleSimulationState) error
	CommitTick(update TickUpdate) (domain.VehicleSimulationState, error)
	// SetActive flips the active flag for start/stop; it never moves the vehicle.
	SetActive(vehicleID string, active bool) error
	Get(vehicleID string) (domain.VehicleSimulationState, bool)
	Remove(vehicleID string)
	Clear()
}
