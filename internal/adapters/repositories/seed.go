package repositories

import (
	"context"
	"database/sql"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/platform/db"
	"delivery-sim-service/internal/services"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type HubSeed struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

type VehicleSeed struct {
	VehicleID string  `json:"vehicle_id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	SpeedMph  float64 `json:"speed_mph"`
}

type PackageSeed struct {
	PackageID     int      `json:"package_id"`
	VehicleID     string   `json:"vehicle_id"`
	Destination   string   `json:"destination"`
	RecipientName string   `json:"recipient_name"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	Weight        float64  `json:"weight"`
}

type Seed struct {
	Hub      HubSeed       `json:"hub"`
	Vehicles []VehicleSeed `json:"vehicles"`
	Packages []PackageSeed `json:"packages"`
}

// Populate the database with vehicles and packages from a JSON file.
//
// Packages without a vehicle_id are spread over the vehicles by distance
// from the hub. Re-seeding updates rows in place and keeps delivered_at.
func SeedFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var seed Seed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	vehicles, err := buildSeedFleet(seed)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	return writeSeed(ctx, conn, dialect, vehicles, time.Now().UTC())
}

func buildSeedFleet(seed Seed) ([]*domain.Vehicle, error) {
	if len(seed.Vehicles) == 0 {
		return nil, fmt.Errorf("at least one vehicle is required")
	}

	vehicles := make([]*domain.Vehicle, 0, len(seed.Vehicles))
	byID := make(map[string]*domain.Vehicle, len(seed.Vehicles))
	for i, vs := range seed.Vehicles {
		id := strings.TrimSpace(vs.VehicleID)
		if id == "" {
			return nil, fmt.Errorf("vehicle at index %d: vehicle_id cannot be empty", i+1)
		}
		if _, ok := byID[id]; ok {
			return nil, fmt.Errorf("vehicle at index %d: duplicate vehicle_id %q", i+1, id)
		}

		v := domain.NewVehicle(id, vs.Capacity, seed.Hub.Address)
		v.Name = strings.TrimSpace(vs.Name)
		v.SpeedMph = vs.SpeedMph
		vehicles = append(vehicles, v)
		byID[id] = v
	}

	seen := make(map[int]struct{}, len(seed.Packages))
	var unassigned []*domain.Package
	for i, ps := range seed.Packages {
		if ps.PackageID <= 0 {
			return nil, fmt.Errorf("package at index %d: invalid package_id %d", i+1, ps.PackageID)
		}
		if _, ok := seen[ps.PackageID]; ok {
			return nil, fmt.Errorf("package at index %d: duplicate package_id %d", i+1, ps.PackageID)
		}
		seen[ps.PackageID] = struct{}{}

		dest := strings.TrimSpace(ps.Destination)
		if dest == "" {
			return nil, fmt.Errorf("package at index %d: destination cannot be empty", i+1)
		}

		pkg := &domain.Package{
			PackageID:      ps.PackageID,
			Destination:    dest,
			RecipientName:  strings.TrimSpace(ps.RecipientName),
			DestinationLat: ps.Lat,
			DestinationLon: ps.Lon,
			Weight:         ps.Weight,
		}

		vid := strings.TrimSpace(ps.VehicleID)
		if vid == "" {
			unassigned = append(unassigned, pkg)
			continue
		}
		v, ok := byID[vid]
		if !ok {
			return nil, fmt.Errorf("package %d: unknown vehicle_id %q", ps.PackageID, vid)
		}
		if err := v.Load(pkg); err != nil {
			return nil, fmt.Errorf("package %d: %w", ps.PackageID, err)
		}
	}

	if len(unassigned) > 0 {
		if seed.Hub.Lat == nil || seed.Hub.Lon == nil {
			return nil, fmt.Errorf("hub lat/lon are required to assign %d packages", len(unassigned))
		}
		hub := domain.Coordinates{Lon: *seed.Hub.Lon, Lat: *seed.Hub.Lat}
		if err := services.AssignPackagesByDistance(vehicles, unassigned, hub); err != nil {
			return nil, err
		}
	}

	return vehicles, nil
}

func writeSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, vehicles []*domain.Vehicle, loadedAt time.Time) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	vehicleStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO vehicles (vehicle_id, name, capacity, speed_mph)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (vehicle_id) DO UPDATE
	SET name = EXCLUDED.name,
		capacity = EXCLUDED.capacity,
		speed_mph = EXCLUDED.speed_mph;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare vehicle insert: %w", err)
	}
	defer vehicleStmt.Close()

	packageStmt, err := tx.PrepareContext(ctx, dialect.Rebind(`
	INSERT INTO packages (
		package_id,
		vehicle_id,
		destination,
		recipient_name,
		destination_lat,
		destination_lon,
		weight,
		loaded_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (package_id) DO UPDATE
	SET vehicle_id = EXCLUDED.vehicle_id,
		destination = EXCLUDED.destination,
		recipient_name = EXCLUDED.recipient_name,
		destination_lat = EXCLUDED.destination_lat,
		destination_lon = EXCLUDED.destination_lon,
		weight = EXCLUDED.weight,
		loaded_at = EXCLUDED.loaded_at;
	`))
	if err != nil {
		return fmt.Errorf("seed: prepare package insert: %w", err)
	}
	defer packageStmt.Close()

	stamp := formatTime(loadedAt)
	for _, v := range vehicles {
		if _, err := vehicleStmt.ExecContext(ctx, v.VehicleID, v.Name, v.Capacity, v.SpeedMph); err != nil {
			return fmt.Errorf("seed: insert vehicle_id=%s: %w", v.VehicleID, err)
		}

		for _, p := range v.Packages {
			_, err := packageStmt.ExecContext(ctx,
				p.PackageID,
				v.VehicleID,
				p.Destination,
				p.RecipientName,
				nullFloat(p.DestinationLat),
				nullFloat(p.DestinationLon),
				p.Weight,
				stamp,
			)
			if err != nil {
				return fmt.Errorf("seed: insert package_id=%d: %w", p.PackageID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
