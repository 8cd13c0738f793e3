package ports

import (
	"context"
	"delivery-sim-service/internal/domain"
	"time"
)

// DeliveryEvent is emitted once per package per session.
type DeliveryEvent struct {
	SessionID     string
	VehicleID     string
	PackageID     int
	Destination   string
	RecipientName string
	Weight        float64
	Coordinates   domain.Coordinates
	RouteProgress float64
	DeliveredAt   time.Time
}

// Port: presentation and persistence collaborators fed with tick results.
type EventSink interface {
	PositionUpdated(ctx context.Context, vehicleID string, position domain.Coordinates, speedMph, progress float64) error
	PackageDelivered(ctx context.Context, event DeliveryEvent) error
	SessionCompleted(ctx context.Context, vehicleID string) error
}
