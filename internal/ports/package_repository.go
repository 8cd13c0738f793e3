package ports

import (
	"context"
	"delivery-sim-service/internal/domain"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories for unknown ids.
var ErrNotFound = errors.New("not found")

// Port: a boundary for retrieving Package and Vehicle entities from a data source.
type PackageRepository interface {
	// Retrieve all packages.
	ListPackages(ctx context.Context) ([]*domain.Package, error)
	// Retrieve all vehicles without their packages.
	ListVehicles(ctx context.Context) ([]*domain.Vehicle, error)
	// Retrieve one vehicle with its packages loaded.
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	// Stamp a package as delivered.
	MarkDelivered(ctx context.Context, packageID int, at time.Time) error
}
