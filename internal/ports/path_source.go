package ports

import (
	"context"
	"delivery-sim-service/internal/domain"
)

// Port: the routing collaborator that supplies the path a vehicle drives.
type PathSource interface {
	// Return an ordered path of at least two points covering the vehicle's deliveries.
	GetPath(ctx context.Context, vehicle *domain.Vehicle) (domain.Path, error)
}
