// Package scenario runs a single vehicle along a fixed path without any
// outer collaborators and reports what happened tick by tick.
package scenario

import (
	"bytes"
	"context"
	"delivery-sim-service/internal/adapters/state"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/geo"
	"delivery-sim-service/internal/services"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	vehicleID       = "scenario"
	defaultMaxTicks = 100000
)

// epoch anchors simulated timestamps so output is reproducible.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type Package struct {
	ID          int     `json:"id"`
	Destination string  `json:"destination,omitempty"`
	Recipient   string  `json:"recipient,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Input describes one run. Path is either a [[lon,lat],...] array or a
// GeoJSON LineString/Feature.
type Input struct {
	Path            json.RawMessage `json:"path"`
	Packages        []Package       `json:"packages"`
	SpeedMph        float64         `json:"speed_mph"`
	FastForward     float64         `json:"fast_forward"`
	TimeStep        float64         `json:"time_step"`
	MaxTicks        int             `json:"max_ticks"`
	MaxOffsetMeters float64         `json:"max_offset_meters"`
	FlatSpeed       bool            `json:"flat_speed"`
}

type Waypoint struct {
	PackageID        int        `json:"package_id"`
	RouteProgress    float64    `json:"route_progress"`
	DistanceFromPath float64    `json:"distance_from_path_m"`
	Position         [2]float64 `json:"position"`
}

type Skipped struct {
	PackageID        int     `json:"package_id"`
	Reason           string  `json:"reason"`
	DistanceFromPath float64 `json:"distance_from_path_m,omitempty"`
}

type Tick struct {
	Tick          int        `json:"tick"`
	SimSeconds    float64    `json:"sim_seconds"`
	Position      [2]float64 `json:"position"`
	RouteProgress float64    `json:"route_progress"`
	SpeedMph      float64    `json:"speed_mph"`
	Delivered     []int      `json:"delivered,omitempty"`
}

type Delivery struct {
	Tick          int        `json:"tick"`
	PackageID     int        `json:"package_id"`
	RouteProgress float64    `json:"route_progress"`
	Position      [2]float64 `json:"position"`
}

type Output struct {
	PathMeters      float64    `json:"path_meters"`
	Waypoints       []Waypoint `json:"waypoints"`
	Skipped         []Skipped  `json:"skipped"`
	Ticks           []Tick     `json:"ticks"`
	Deliveries      []Delivery `json:"deliveries"`
	Completed       bool       `json:"completed"`
	CompletedAtTick int        `json:"completed_at_tick,omitempty"`
	FinalPosition   [2]float64 `json:"final_position"`
}

func pair(c domain.Coordinates) [2]float64 { return [2]float64{c.Lon, c.Lat} }

func parsePath(raw json.RawMessage) (domain.Path, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("path is required")
	}
	if trimmed[0] == '[' {
		return geo.ParsePolyline(trimmed)
	}
	return geo.ParseGeoJSONPath(trimmed)
}

func (in *Input) normalize() error {
	if in.TimeStep == 0 {
		in.TimeStep = 1
	}
	if in.TimeStep < 0 {
		return fmt.Errorf("time_step must be positive, got %v", in.TimeStep)
	}
	if in.FastForward == 0 {
		in.FastForward = 1
	}
	if in.FastForward < 0 {
		return fmt.Errorf("fast_forward must be positive, got %v", in.FastForward)
	}
	if in.SpeedMph < 0 {
		return fmt.Errorf("speed_mph must not be negative, got %v", in.SpeedMph)
	}
	if in.MaxTicks == 0 {
		in.MaxTicks = defaultMaxTicks
	}
	if in.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be positive, got %d", in.MaxTicks)
	}
	return nil
}

// Run simulates in until the vehicle completes its route or MaxTicks is hit.
func Run(ctx context.Context, in Input) (Output, error) {
	if err := in.normalize(); err != nil {
		return Output{}, fmt.Errorf("scenario: %w", err)
	}
	path, err := parsePath(in.Path)
	if err != nil {
		return Output{}, fmt.Errorf("scenario: path: %w", err)
	}

	vehicle := &domain.Vehicle{VehicleID: vehicleID, SpeedMph: in.SpeedMph}
	for _, p := range in.Packages {
		vehicle.Packages = append(vehicle.Packages, &domain.Package{
			PackageID:      p.ID,
			Destination:    p.Destination,
			RecipientName:  p.Recipient,
			DestinationLat: &p.Lat,
			DestinationLon: &p.Lon,
		})
	}

	profile := services.DefaultSpeedProfile()
	if in.FlatSpeed {
		profile = services.FlatProfile()
	}

	var elapsed float64
	orch := services.NewOrchestrator(state.NewMemoryStore(), services.OrchestratorOptions{
		MaxOffsetMeters: in.MaxOffsetMeters,
		FastForward:     in.FastForward,
		SpeedProfile:    profile,
		Now:             func() time.Time { return epoch.Add(time.Duration(elapsed * float64(time.Second))) },
	}, zerolog.Nop())

	sess, err := orch.InitializeSession(vehicle, path)
	if err != nil {
		return Output{}, fmt.Errorf("scenario: %w", err)
	}
	if err := orch.Start(vehicleID); err != nil {
		return Output{}, fmt.Errorf("scenario: %w", err)
	}

	out := Output{
		PathMeters: geo.PathLength(path) * 1000,
		Waypoints:  make([]Waypoint, 0, len(sess.Waypoints)),
		Skipped:    make([]Skipped, 0, len(sess.Skipped)),
		Ticks:      []Tick{},
		Deliveries: []Delivery{},
	}
	for _, wp := range sess.Waypoints {
		out.Waypoints = append(out.Waypoints, Waypoint{
			PackageID:        wp.PackageID,
			RouteProgress:    wp.RouteProgress,
			DistanceFromPath: wp.DistanceFromPath,
			Position:         pair(wp.Coordinates),
		})
	}
	for _, sk := range sess.Skipped {
		out.Skipped = append(out.Skipped, Skipped{
			PackageID:        sk.PackageID,
			Reason:           string(sk.Reason),
			DistanceFromPath: sk.DistanceFromPath,
		})
	}

	// Ticks run sequentially so the simulated clock only moves between them.
	fleet := services.NewFleet(orch, nil, 1, zerolog.Nop())
	for n := 1; n <= in.MaxTicks; n++ {
		elapsed += in.TimeStep * in.FastForward
		results, err := fleet.TickAll(ctx, in.TimeStep)
		if err != nil {
			return Output{}, fmt.Errorf("scenario: tick %d: %w", n, err)
		}
		if len(results) == 0 {
			break
		}
		res := results[0]

		t := Tick{
			Tick:          n,
			SimSeconds:    elapsed,
			Position:      pair(res.Position),
			RouteProgress: res.RouteProgress,
			SpeedMph:      res.SpeedMph,
		}
		for _, ev := range res.NewDeliveries {
			t.Delivered = append(t.Delivered, ev.PackageID)
			out.Deliveries = append(out.Deliveries, Delivery{
				Tick:          n,
				PackageID:     ev.PackageID,
				RouteProgress: ev.RouteProgress,
				Position:      pair(ev.Coordinates),
			})
		}
		out.Ticks = append(out.Ticks, t)

		if res.IsComplete {
			out.Completed = true
			out.CompletedAtTick = n
			break
		}
	}

	st, err := orch.State(vehicleID)
	if err != nil {
		return Output{}, fmt.Errorf("scenario: %w", err)
	}
	out.FinalPosition = pair(st.Position)
	return out, nil
}

// RunJSON decodes an Input, runs it, and encodes the Output.
func RunJSON(input string) (string, error) {
	var in Input
	dec := json.NewDecoder(bytes.NewReader([]byte(input)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return "", fmt.Errorf("scenario: decode input: %w", err)
	}

	out, err := Run(context.Background(), in)
	if err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("scenario: encode output: %w", err)
	}
	return string(raw), nil
}
