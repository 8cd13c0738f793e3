package realtime

import (
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/ports"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PositionsChannel   = "sim:positions"
	DeliveriesChannel  = "sim:deliveries"
	CompletionsChannel = "sim:completions"
)

func positionKey(vehicleID string) string  { return "sim:vehicle:" + vehicleID + ":position" }
func deliveredKey(vehicleID string) string { return "sim:vehicle:" + vehicleID + ":delivered" }

type PositionMessage struct {
	VehicleID     string    `json:"vehicle_id"`
	Lon           float64   `json:"lon"`
	Lat           float64   `json:"lat"`
	SpeedMph      float64   `json:"speed_mph"`
	RouteProgress float64   `json:"route_progress"`
	At            time.Time `json:"at"`
}

type DeliveryMessage struct {
	SessionID     string    `json:"session_id"`
	VehicleID     string    `json:"vehicle_id"`
	PackageID     int       `json:"package_id"`
	Destination   string    `json:"destination"`
	RecipientName string    `json:"recipient_name,omitempty"`
	Weight        float64   `json:"weight"`
	Lon           float64   `json:"lon"`
	Lat           float64   `json:"lat"`
	RouteProgress float64   `json:"route_progress"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

type CompletionMessage struct {
	VehicleID string    `json:"vehicle_id"`
	At        time.Time `json:"at"`
}

// RedisSink keeps the latest position of each vehicle in a hash and
// publishes every event on a pub/sub channel for map clients.
type RedisSink struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisSink(client redis.UniversalClient) *RedisSink {
	return &RedisSink{client: client, now: time.Now}
}

func (s *RedisSink) PositionUpdated(
	ctx context.Context,
	vehicleID string,
	position domain.Coordinates,
	speedMph, progress float64,
) error {
	msg := PositionMessage{
		VehicleID:     vehicleID,
		Lon:           position.Lon,
		Lat:           position.Lat,
		SpeedMph:      speedMph,
		RouteProgress: progress,
		At:            s.now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis sink: encode position: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, positionKey(vehicleID),
			"lon", strconv.FormatFloat(position.Lon, 'f', -1, 64),
			"lat", strconv.FormatFloat(position.Lat, 'f', -1, 64),
			"speed_mph", strconv.FormatFloat(speedMph, 'f', -1, 64),
			"route_progress", strconv.FormatFloat(progress, 'f', -1, 64),
			"updated_at", msg.At.Format(time.RFC3339Nano),
		)
		p.Publish(ctx, PositionsChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: position vehicle_id=%s: %w", vehicleID, err)
	}
	return nil
}

func (s *RedisSink) PackageDelivered(ctx context.Context, event ports.DeliveryEvent) error {
	payload, err := json.Marshal(DeliveryMessage{
		SessionID:     event.SessionID,
		VehicleID:     event.VehicleID,
		PackageID:     event.PackageID,
		Destination:   event.Destination,
		RecipientName: event.RecipientName,
		Weight:        event.Weight,
		Lon:           event.Coordinates.Lon,
		Lat:           event.Coordinates.Lat,
		RouteProgress: event.RouteProgress,
		DeliveredAt:   event.DeliveredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("redis sink: encode delivery: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, deliveredKey(event.VehicleID), event.PackageID)
		p.Publish(ctx, DeliveriesChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: delivery package_id=%d: %w", event.PackageID, err)
	}
	return nil
}

func (s *RedisSink) SessionCompleted(ctx context.Context, vehicleID string) error {
	msg := CompletionMessage{VehicleID: vehicleID, At: s.now().UTC()}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis sink: encode completion: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, positionKey(vehicleID), "completed_at", msg.At.Format(time.RFC3339Nano))
		p.Publish(ctx, CompletionsChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: completion vehicle_id=%s: %w", vehicleID, err)
	}
	return nil
}

// Forget drops the stored position and delivered set of a vehicle.
func (s *RedisSink) Forget(ctx context.Context, vehicleID string) error {
	if err := s.client.Del(ctx, positionKey(vehicleID), deliveredKey(vehicleID)).Err(); err != nil {
		return fmt.Errorf("redis sink: forget vehicle_id=%s: %w", vehicleID, err)
	}
	return nil
}
