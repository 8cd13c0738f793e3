package realtime

import (
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LogSink writes tick results to a zerolog logger. Positions are logged at
// debug level.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) PositionUpdated(_ context.Context, vehicleID string, position domain.Coordinates, speedMph, progress float64) error {
	s.log.Debug().
		Str("vehicle_id", vehicleID).
		Float64("lon", position.Lon).
		Float64("lat", position.Lat).
		Float64("speed_mph", speedMph).
		Float64("progress", progress).
		Msg("position")
	return nil
}

func (s *LogSink) PackageDelivered(_ context.Context, event ports.DeliveryEvent) error {
	s.log.Info().
		Str("vehicle_id", event.VehicleID).
		Str("session_id", event.SessionID).
		Int("package_id", event.PackageID).
		Str("destination", event.Destination).
		Float64("progress", event.RouteProgress).
		Msg("package delivered")
	return nil
}

func (s *LogSink) SessionCompleted(_ context.Context, vehicleID string) error {
	s.log.Info().Str("vehicle_id", vehicleID).Msg("route complete")
	return nil
}

// RepositorySink records deliveries in the package repository.
type RepositorySink struct {
	repo ports.PackageRepository
}

func NewRepositorySink(repo ports.PackageRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) PositionUpdated(context.Context, string, domain.Coordinates, float64, float64) error {
	return nil
}

func (s *RepositorySink) PackageDelivered(ctx context.Context, event ports.DeliveryEvent) error {
	if err := s.repo.MarkDelivered(ctx, event.PackageID, event.DeliveredAt); err != nil {
		return fmt.Errorf("repository sink: %w", err)
	}
	return nil
}

func (s *RepositorySink) SessionCompleted(context.Context, string) error { return nil }

// MultiSink fans every call out to all sinks, in order. A failing sink does
// not stop the others; their errors are joined.
type MultiSink []ports.EventSink

func (m MultiSink) PositionUpdated(ctx context.Context, vehicleID string, position domain.Coordinates, speedMph, progress float64) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PositionUpdated(ctx, vehicleID, position, speedMph, progress))
	}
	return errors.Join(errs...)
}

func (m MultiSink) PackageDelivered(ctx context.Context, event ports.DeliveryEvent) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PackageDelivered(ctx, event))
	}
	return errors.Join(errs...)
}

func (m MultiSink) SessionCompleted(ctx context.Context, vehicleID string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.SessionCompleted(ctx, vehicleID))
	}
	return errors.Join(errs...)
}
